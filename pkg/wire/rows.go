/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: rows.go
Description: Row records. Each row carries an explicit presence flag per feature and the
observed values split by value kind, so a missing cell never reads as zero or false.
*/

package wire

import (
	"fmt"

	"github.com/kleascm/akaylee-oracle/pkg/features"
	"github.com/kleascm/akaylee-oracle/pkg/model"
	"google.golang.org/protobuf/encoding/protowire"
)

// Schema lists the value kind of every feature, indexed by feature id.
type Schema []features.ValueKind

// SchemaOf derives the row schema of m.
func SchemaOf(m *model.CrossCat) (Schema, error) {
	shared, err := m.Features()
	if err != nil {
		return nil, err
	}
	schema := make(Schema, len(shared))
	for i, s := range shared {
		family, err := features.Lookup(s.Type())
		if err != nil {
			return nil, err
		}
		schema[i] = family.Kind
	}
	return schema, nil
}

// MarshalRow encodes row.
func MarshalRow(row model.Row) []byte {
	var observed, booleans, counts, reals []byte
	for _, cell := range row.Cells {
		observed = appendPackedBool(observed, cell.Observed)
		if !cell.Observed {
			continue
		}
		switch cell.Value.Kind {
		case features.BooleanValue:
			booleans = appendPackedBool(booleans, cell.Value.Bool)
		case features.CountValue:
			counts = appendPackedUint(counts, uint64(cell.Value.Count))
		case features.RealValue:
			reals = appendPackedDouble(reals, cell.Value.Real)
		}
	}
	var data []byte
	for _, packed := range []struct {
		num   protowire.Number
		bytes []byte
	}{{1, observed}, {2, booleans}, {3, counts}, {4, reals}} {
		if len(packed.bytes) > 0 {
			data = appendMessage(data, packed.num, packed.bytes)
		}
	}
	var b []byte
	b = appendVarint(b, 1, uint64(row.ID))
	b = appendMessage(b, 2, data)
	return b
}

// UnmarshalRow decodes a row against schema. Presence flags must cover every feature and
// each value list must hold exactly one entry per present cell of its kind.
func UnmarshalRow(b []byte, schema Schema) (model.Row, error) {
	var row model.Row
	var observed, booleans, counts []uint64
	var reals []float64
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			return setInt(f, &row.ID)
		case 2:
			return walkMessage(f, func(f field) error {
				var err error
				switch f.num {
				case 1:
					observed, err = f.uints(observed)
				case 2:
					booleans, err = f.uints(booleans)
				case 3:
					counts, err = f.uints(counts)
				case 4:
					reals, err = f.doubles(reals)
				}
				return err
			})
		}
		return nil
	})
	if err != nil {
		return row, err
	}
	if len(observed) != len(schema) {
		return row, malformed("row %d has %d presence flags for %d features", row.ID, len(observed), len(schema))
	}
	row.Cells = make([]model.Cell, len(schema))
	for i, kind := range schema {
		if observed[i] == 0 {
			continue
		}
		var value features.Value
		switch kind {
		case features.BooleanValue:
			if len(booleans) == 0 {
				return row, malformed("row %d is missing a boolean for feature %d", row.ID, i)
			}
			value, booleans = features.Bool(booleans[0] != 0), booleans[1:]
		case features.CountValue:
			if len(counts) == 0 {
				return row, malformed("row %d is missing a count for feature %d", row.ID, i)
			}
			value, counts = features.Count(uint32(counts[0])), counts[1:]
		case features.RealValue:
			if len(reals) == 0 {
				return row, malformed("row %d is missing a real for feature %d", row.ID, i)
			}
			value, reals = features.Real(reals[0]), reals[1:]
		default:
			return row, fmt.Errorf("unsupported value kind %v", kind)
		}
		row.Cells[i] = model.Cell{Observed: true, Value: value}
	}
	if len(booleans)+len(counts)+len(reals) > 0 {
		return row, malformed("row %d has values without presence flags", row.ID)
	}
	return row, nil
}

// WriteRows writes every row of table to a stream file.
func WriteRows(path string, table *model.Table) error {
	w, err := CreateStream(path)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(MarshalRow(row)); err != nil {
			w.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return w.Close()
}

// ReadRows reads a row stream decoded against schema.
func ReadRows(path string, schema Schema) (*model.Table, error) {
	table := &model.Table{FeatureCount: len(schema)}
	err := readAll(path, func(record []byte) error {
		row, err := UnmarshalRow(record, schema)
		if err != nil {
			return err
		}
		table.Rows = append(table.Rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, row := range table.Rows {
		if row.ID != i {
			return nil, malformed("%s: row %d has id %d", path, i, row.ID)
		}
	}
	return table, nil
}
