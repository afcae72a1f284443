/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Engine run configuration for posterior enumeration.
*/

package wire

// Config is the subset of engine configuration the oracle controls.
type Config struct {
	// SampleCount is the number of samples kept after thinning.
	SampleCount int
	// SampleSkip keeps every k-th draw.
	SampleSkip       int
	HyperRun         bool
	HyperParallel    bool
	KindIterations   int
	RowQueueCapacity int
	ScoreParallel    bool
	Seed             uint64
}

// InferKinds reports whether the kind kernel runs.
func (c Config) InferKinds() bool {
	return c.KindIterations > 0
}

// MarshalConfig encodes c.
func MarshalConfig(c Config) []byte {
	var enum []byte
	enum = appendVarint(enum, 1, uint64(c.SampleCount))
	enum = appendVarint(enum, 2, uint64(c.SampleSkip))

	var hyper []byte
	hyper = appendBool(hyper, 1, c.HyperRun)
	hyper = appendBool(hyper, 2, c.HyperParallel)

	var kind []byte
	kind = appendVarint(kind, 1, uint64(c.KindIterations))
	kind = appendVarint(kind, 2, uint64(c.RowQueueCapacity))
	kind = appendBool(kind, 3, c.ScoreParallel)

	var kernels []byte
	kernels = appendMessage(kernels, 1, hyper)
	kernels = appendMessage(kernels, 2, kind)

	var b []byte
	b = appendMessage(b, 1, enum)
	b = appendMessage(b, 2, kernels)
	b = appendVarint(b, 3, c.Seed)
	return b
}

// UnmarshalConfig decodes a Config record.
func UnmarshalConfig(b []byte) (Config, error) {
	var c Config
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			return walkMessage(f, func(f field) error {
				switch f.num {
				case 1:
					return setInt(f, &c.SampleCount)
				case 2:
					return setInt(f, &c.SampleSkip)
				}
				return nil
			})
		case 2:
			return walkMessage(f, func(f field) error {
				switch f.num {
				case 1:
					return walkMessage(f, func(f field) error {
						switch f.num {
						case 1:
							return setBool(f, &c.HyperRun)
						case 2:
							return setBool(f, &c.HyperParallel)
						}
						return nil
					})
				case 2:
					return walkMessage(f, func(f field) error {
						switch f.num {
						case 1:
							return setInt(f, &c.KindIterations)
						case 2:
							return setInt(f, &c.RowQueueCapacity)
						case 3:
							return setBool(f, &c.ScoreParallel)
						}
						return nil
					})
				}
				return nil
			})
		case 3:
			v, err := f.uint()
			c.Seed = v
			return err
		}
		return nil
	})
	return c, err
}

// WriteConfig writes c to path.
func WriteConfig(path string, c Config) error {
	return writeFile(path, MarshalConfig(c))
}

// ReadConfig reads a Config from path.
func ReadConfig(path string) (Config, error) {
	b, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	return UnmarshalConfig(b)
}
