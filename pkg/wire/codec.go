/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: codec.go
Description: Low level field walking for the engine's protobuf records. Records are
hand-encoded with protowire so the oracle needs no generated code; unknown fields are
skipped, unknown wire types and truncated input are rejected.
*/

package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformedRecord marks engine output or input files that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

type field struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	fixed64 uint64
	bytes   []byte
}

// walk calls fn for every field in b in wire order.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return malformed("tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.fixed64, n = protowire.ConsumeFixed64(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.fixed64 = uint64(v)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			return malformed("field %d has unsupported wire type %d", num, typ)
		}
		if n < 0 {
			return malformed("field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) double() (float64, error) {
	if f.typ != protowire.Fixed64Type {
		return 0, malformed("field %d: expected double, got wire type %d", f.num, f.typ)
	}
	return math.Float64frombits(f.fixed64), nil
}

// real accepts a double or a float; the engine writes sample scores as float.
func (f field) real() (float64, error) {
	switch f.typ {
	case protowire.Fixed64Type:
		return math.Float64frombits(f.fixed64), nil
	case protowire.Fixed32Type:
		return float64(math.Float32frombits(uint32(f.fixed64))), nil
	default:
		return 0, malformed("field %d: expected float or double, got wire type %d", f.num, f.typ)
	}
}

// doubles accepts both packed and unpacked repeated doubles.
func (f field) doubles(out []float64) ([]float64, error) {
	switch f.typ {
	case protowire.Fixed64Type:
		return append(out, math.Float64frombits(f.fixed64)), nil
	case protowire.BytesType:
		b := f.bytes
		for len(b) > 0 {
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, malformed("field %d: %v", f.num, protowire.ParseError(n))
			}
			out = append(out, math.Float64frombits(v))
			b = b[n:]
		}
		return out, nil
	default:
		return nil, malformed("field %d: expected repeated double, got wire type %d", f.num, f.typ)
	}
}

func (f field) uint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, malformed("field %d: expected varint, got wire type %d", f.num, f.typ)
	}
	return f.varint, nil
}

// uints accepts both packed and unpacked repeated varints.
func (f field) uints(out []uint64) ([]uint64, error) {
	switch f.typ {
	case protowire.VarintType:
		return append(out, f.varint), nil
	case protowire.BytesType:
		b := f.bytes
		for len(b) > 0 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed("field %d: %v", f.num, protowire.ParseError(n))
			}
			out = append(out, v)
			b = b[n:]
		}
		return out, nil
	default:
		return nil, malformed("field %d: expected repeated varint, got wire type %d", f.num, f.typ)
	}
}

func (f field) message() ([]byte, error) {
	if f.typ != protowire.BytesType {
		return nil, malformed("field %d: expected message, got wire type %d", f.num, f.typ)
	}
	return f.bytes, nil
}

// walkMessage walks the embedded message carried by f.
func walkMessage(f field, fn func(f field) error) error {
	msg, err := f.message()
	if err != nil {
		return err
	}
	return walk(msg, fn)
}

func setInt(f field, dst *int) error {
	v, err := f.uint()
	*dst = int(v)
	return err
}

func setBool(f field, dst *bool) error {
	v, err := f.uint()
	*dst = v != 0
	return err
}

func setDouble(f field, dst *float64) error {
	v, err := f.double()
	*dst = v
	return err
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendPackedDoubles(b []byte, num protowire.Number, values []float64) []byte {
	if len(values) == 0 {
		return b
	}
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	return appendMessage(b, num, packed)
}

func appendPackedInts(b []byte, num protowire.Number, values []int) []byte {
	if len(values) == 0 {
		return b
	}
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	return appendMessage(b, num, packed)
}

// The appendPacked* helpers build the payload of a packed repeated field.

func appendPackedBool(packed []byte, v bool) []byte {
	return protowire.AppendVarint(packed, protowire.EncodeBool(v))
}

func appendPackedUint(packed []byte, v uint64) []byte {
	return protowire.AppendVarint(packed, v)
}

func appendPackedDouble(packed []byte, v float64) []byte {
	return protowire.AppendFixed64(packed, math.Float64bits(v))
}

func toInts(values []uint64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
