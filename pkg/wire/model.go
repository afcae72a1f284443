/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: model.go
Description: CrossCat model records. Within a kind, shared feature models are grouped by
family in the order bb, dd, dpd, gp, nich and feature ids are listed in that same order.
*/

package wire

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kleascm/akaylee-oracle/pkg/clustering"
	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"google.golang.org/protobuf/encoding/protowire"
)

// familyFields maps each family to its repeated field in a product model.
var familyFields = []struct {
	num    protowire.Number
	family features.Type
}{
	{2, features.BetaBernoulli},
	{3, features.DirichletDiscrete},
	{4, features.DirichletProcessDiscrete},
	{5, features.GammaPoisson},
	{6, features.NormalInverseChiSq},
}

// MarshalModel encodes m.
func MarshalModel(m *model.CrossCat) ([]byte, error) {
	var b []byte
	b = appendMessage(b, 1, marshalPitmanYor(m.Topology))
	for i, kind := range m.Kinds {
		msg, err := marshalKind(kind)
		if err != nil {
			return nil, fmt.Errorf("kind %d: %w", i, err)
		}
		b = appendMessage(b, 2, msg)
	}
	if !m.HyperPrior.Empty() {
		b = appendMessage(b, 3, marshalHyperPrior(m.HyperPrior))
	}
	return b, nil
}

func marshalKind(kind model.Kind) ([]byte, error) {
	if len(kind.FeatureIDs) != len(kind.Features) {
		return nil, fmt.Errorf("%d feature ids for %d feature models", len(kind.FeatureIDs), len(kind.Features))
	}
	var ids []int
	var product []byte
	product = appendMessage(product, 1, marshalPitmanYor(kind.Clustering))
	for _, ff := range familyFields {
		for i, shared := range kind.Features {
			if shared.Type() != ff.family {
				continue
			}
			msg, err := marshalShared(shared)
			if err != nil {
				return nil, err
			}
			ids = append(ids, kind.FeatureIDs[i])
			product = appendMessage(product, ff.num, msg)
		}
	}
	var b []byte
	b = appendPackedInts(b, 1, ids)
	b = appendMessage(b, 2, product)
	return b, nil
}

func marshalPitmanYor(p clustering.PitmanYor) []byte {
	var b []byte
	b = appendDouble(b, 1, p.Alpha)
	b = appendDouble(b, 2, p.D)
	return b
}

func marshalShared(shared features.Shared) ([]byte, error) {
	var b []byte
	switch s := shared.(type) {
	case *features.BetaBernoulliShared:
		b = appendDouble(b, 1, s.Alpha)
		b = appendDouble(b, 2, s.Beta)
	case *features.DirichletDiscreteShared:
		b = appendPackedDoubles(b, 1, s.Alphas)
	case *features.DirichletProcessDiscreteShared:
		b = appendDouble(b, 1, s.Gamma)
		b = appendDouble(b, 2, s.Alpha)
		b = appendDouble(b, 3, s.Beta0)
		values := make([]int, len(s.Values))
		for i, v := range s.Values {
			values[i] = int(v)
		}
		b = appendPackedInts(b, 4, values)
		b = appendPackedDoubles(b, 5, s.Betas)
	case *features.GammaPoissonShared:
		b = appendDouble(b, 1, s.Alpha)
		b = appendDouble(b, 2, s.InvBeta)
	case *features.NormalInverseChiSqShared:
		b = appendDouble(b, 1, s.Mu)
		b = appendDouble(b, 2, s.Kappa)
		b = appendDouble(b, 3, s.Sigmasq)
		b = appendDouble(b, 4, s.Nu)
	default:
		return nil, fmt.Errorf("unsupported feature model %T", shared)
	}
	return b, nil
}

func marshalHyperPrior(h model.HyperPrior) []byte {
	var b []byte
	for _, p := range h.Topology {
		b = appendMessage(b, 1, marshalPitmanYor(p))
	}
	for _, p := range h.Clustering {
		b = appendMessage(b, 2, marshalPitmanYor(p))
	}
	for _, family := range h.FeatureFamilies() {
		params := h.Features[family]
		for _, name := range slices.Sorted(maps.Keys(params)) {
			var g []byte
			g = appendString(g, 1, string(family))
			g = appendString(g, 2, name)
			g = appendPackedDoubles(g, 3, params[name])
			b = appendMessage(b, 3, g)
		}
	}
	return b
}

// UnmarshalModel decodes a CrossCat record and validates it.
func UnmarshalModel(b []byte) (*model.CrossCat, error) {
	m := &model.CrossCat{}
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			p, err := unmarshalPitmanYor(f)
			m.Topology = p
			return err
		case 2:
			kind, err := unmarshalKind(f)
			if err != nil {
				return err
			}
			m.Kinds = append(m.Kinds, kind)
		case 3:
			return unmarshalHyperPrior(f, &m.HyperPrior)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, malformed("model: %v", err)
	}
	return m, nil
}

func unmarshalPitmanYor(f field) (clustering.PitmanYor, error) {
	var p clustering.PitmanYor
	err := walkMessage(f, func(f field) error {
		switch f.num {
		case 1:
			return setDouble(f, &p.Alpha)
		case 2:
			return setDouble(f, &p.D)
		}
		return nil
	})
	return p, err
}

func unmarshalKind(f field) (model.Kind, error) {
	var kind model.Kind
	var ids []uint64
	err := walkMessage(f, func(f field) error {
		switch f.num {
		case 1:
			var err error
			ids, err = f.uints(ids)
			return err
		case 2:
			return walkMessage(f, func(f field) error {
				if f.num == 1 {
					p, err := unmarshalPitmanYor(f)
					kind.Clustering = p
					return err
				}
				for _, ff := range familyFields {
					if ff.num != f.num {
						continue
					}
					shared, err := unmarshalShared(ff.family, f)
					if err != nil {
						return err
					}
					kind.Features = append(kind.Features, shared)
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return kind, err
	}
	// Repeated fields may interleave on the wire; ids follow family order.
	slices.SortStableFunc(kind.Features, func(a, b features.Shared) int {
		return familyIndex(a.Type()) - familyIndex(b.Type())
	})
	if len(ids) != len(kind.Features) {
		return kind, malformed("kind lists %d feature ids for %d feature models", len(ids), len(kind.Features))
	}
	kind.FeatureIDs = toInts(ids)
	return kind, nil
}

func familyIndex(t features.Type) int {
	for i, ff := range familyFields {
		if ff.family == t {
			return i
		}
	}
	return len(familyFields)
}

func unmarshalShared(family features.Type, f field) (features.Shared, error) {
	var shared features.Shared
	var fn func(f field) error
	switch family {
	case features.BetaBernoulli:
		s := &features.BetaBernoulliShared{}
		shared = s
		fn = func(f field) error {
			switch f.num {
			case 1:
				return setDouble(f, &s.Alpha)
			case 2:
				return setDouble(f, &s.Beta)
			}
			return nil
		}
	case features.DirichletDiscrete:
		s := &features.DirichletDiscreteShared{}
		shared = s
		fn = func(f field) error {
			if f.num == 1 {
				var err error
				s.Alphas, err = f.doubles(s.Alphas)
				return err
			}
			return nil
		}
	case features.DirichletProcessDiscrete:
		s := &features.DirichletProcessDiscreteShared{}
		shared = s
		fn = func(f field) error {
			switch f.num {
			case 1:
				return setDouble(f, &s.Gamma)
			case 2:
				return setDouble(f, &s.Alpha)
			case 3:
				return setDouble(f, &s.Beta0)
			case 4:
				values, err := f.uints(nil)
				for _, v := range values {
					s.Values = append(s.Values, uint32(v))
				}
				return err
			case 5:
				var err error
				s.Betas, err = f.doubles(s.Betas)
				return err
			}
			return nil
		}
	case features.GammaPoisson:
		s := &features.GammaPoissonShared{}
		shared = s
		fn = func(f field) error {
			switch f.num {
			case 1:
				return setDouble(f, &s.Alpha)
			case 2:
				return setDouble(f, &s.InvBeta)
			}
			return nil
		}
	case features.NormalInverseChiSq:
		s := &features.NormalInverseChiSqShared{}
		shared = s
		fn = func(f field) error {
			switch f.num {
			case 1:
				return setDouble(f, &s.Mu)
			case 2:
				return setDouble(f, &s.Kappa)
			case 3:
				return setDouble(f, &s.Sigmasq)
			case 4:
				return setDouble(f, &s.Nu)
			}
			return nil
		}
	default:
		return nil, fmt.Errorf("unsupported feature family %s", family)
	}
	if err := walkMessage(f, fn); err != nil {
		return nil, err
	}
	return shared, nil
}

func unmarshalHyperPrior(f field, h *model.HyperPrior) error {
	return walkMessage(f, func(f field) error {
		switch f.num {
		case 1:
			p, err := unmarshalPitmanYor(f)
			h.Topology = append(h.Topology, p)
			return err
		case 2:
			p, err := unmarshalPitmanYor(f)
			h.Clustering = append(h.Clustering, p)
			return err
		case 3:
			var family, param string
			var values []float64
			err := walkMessage(f, func(f field) error {
				switch f.num {
				case 1:
					msg, err := f.message()
					family = string(msg)
					return err
				case 2:
					msg, err := f.message()
					param = string(msg)
					return err
				case 3:
					var err error
					values, err = f.doubles(values)
					return err
				}
				return nil
			})
			if err != nil {
				return err
			}
			if _, err := features.Lookup(features.Type(family)); err != nil {
				return malformed("hyperprior: %v", err)
			}
			h.AddFeatureGrid(features.Type(family), param, values...)
		}
		return nil
	})
}

// WriteModel writes m to path.
func WriteModel(path string, m *model.CrossCat) error {
	b, err := MarshalModel(m)
	if err != nil {
		return err
	}
	return writeFile(path, b)
}

// ReadModel reads a CrossCat from path.
func ReadModel(path string) (*model.CrossCat, error) {
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := UnmarshalModel(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
