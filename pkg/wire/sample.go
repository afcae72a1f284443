/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sample.go
Description: Posterior sample records emitted by the engine's enumeration mode.
*/

package wire

import (
	"fmt"

	"github.com/kleascm/akaylee-oracle/pkg/latent"
)

// MarshalSample encodes a scored latent.
func MarshalSample(s latent.Scored) []byte {
	var b []byte
	for _, kind := range s.Latent.Kinds() {
		var k []byte
		k = appendPackedInts(k, 1, kind.FeatureIDs)
		for _, group := range kind.Groups {
			k = appendMessage(k, 2, appendPackedInts(nil, 1, group))
		}
		b = appendMessage(b, 1, k)
	}
	return appendDouble(b, 2, s.Score)
}

// UnmarshalSample decodes a sample record into its canonical latent. Samples that are not a
// cross-categorization of one row set are malformed.
func UnmarshalSample(b []byte) (latent.Scored, error) {
	var kinds []latent.Kind
	var score float64
	var scored bool
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			var featureIDs []uint64
			var groups [][]int
			err := walkMessage(f, func(f field) error {
				switch f.num {
				case 1:
					var err error
					featureIDs, err = f.uints(featureIDs)
					return err
				case 2:
					var rows []uint64
					err := walkMessage(f, func(f field) error {
						if f.num != 1 {
							return nil
						}
						var err error
						rows, err = f.uints(rows)
						return err
					})
					groups = append(groups, toInts(rows))
					return err
				}
				return nil
			})
			kinds = append(kinds, latent.Kind{FeatureIDs: toInts(featureIDs), Groups: groups})
			return err
		case 2:
			scored = true
			var err error
			score, err = f.real()
			return err
		}
		return nil
	})
	if err != nil {
		return latent.Scored{}, err
	}
	if !scored {
		return latent.Scored{}, malformed("sample has no score")
	}
	if err := latent.Validate(kinds); err != nil {
		return latent.Scored{}, malformed("sample: %v", err)
	}
	return latent.Scored{Latent: latent.New(kinds), Score: score}, nil
}

// WriteSamples writes samples to a stream file.
func WriteSamples(path string, samples []latent.Scored) error {
	w, err := CreateStream(path)
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Write(MarshalSample(s)); err != nil {
			w.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Close()
}

// ReadSamples reads every sample in a stream file.
func ReadSamples(path string) ([]latent.Scored, error) {
	var samples []latent.Scored
	err := readAll(path, func(record []byte) error {
		s, err := UnmarshalSample(record)
		if err != nil {
			return err
		}
		samples = append(samples, s)
		return nil
	})
	return samples, err
}
