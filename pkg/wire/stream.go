/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stream.go
Description: File framing for engine records. Single-message files hold one record;
stream files hold varint length-prefixed records. Paths ending in .gz are gzip compressed.
*/

package wire

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxRecordSize bounds a single record so corrupt prefixes fail fast.
const maxRecordSize = 64 << 20

// StreamWriter appends length-prefixed records to a file.
type StreamWriter struct {
	file *os.File
	gz   *gzip.Writer
	buf  *bufio.Writer
}

// CreateStream creates or truncates path.
func CreateStream(path string) (*StreamWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := &StreamWriter{file: file}
	if isGzip(path) {
		w.gz = gzip.NewWriter(file)
		w.buf = bufio.NewWriter(w.gz)
	} else {
		w.buf = bufio.NewWriter(file)
	}
	return w, nil
}

// Write appends one record.
func (w *StreamWriter) Write(record []byte) error {
	if _, err := w.buf.Write(protowire.AppendVarint(nil, uint64(len(record)))); err != nil {
		return err
	}
	_, err := w.buf.Write(record)
	return err
}

// Close flushes and closes the file.
func (w *StreamWriter) Close() error {
	err := w.buf.Flush()
	if w.gz != nil {
		err = errors.Join(err, w.gz.Close())
	}
	return errors.Join(err, w.file.Close())
}

// StreamReader reads length-prefixed records from a file.
type StreamReader struct {
	file *os.File
	gz   *gzip.Reader
	buf  *bufio.Reader
}

// OpenStream opens path for reading.
func OpenStream(path string) (*StreamReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r := &StreamReader{file: file}
	if isGzip(path) {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, malformed("%s: %v", path, err)
		}
		r.gz = gz
		r.buf = bufio.NewReader(gz)
	} else {
		r.buf = bufio.NewReader(file)
	}
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *StreamReader) Next() ([]byte, error) {
	var size uint64
	for shift := uint(0); ; shift += 7 {
		c, err := r.buf.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && shift == 0 {
				return nil, io.EOF
			}
			return nil, malformed("truncated length prefix: %v", err)
		}
		if shift >= 64 {
			return nil, malformed("length prefix overflows")
		}
		size |= uint64(c&0x7f) << shift
		if c < 0x80 {
			break
		}
	}
	if size > maxRecordSize {
		return nil, malformed("record of %d bytes exceeds limit", size)
	}
	record := make([]byte, size)
	if _, err := io.ReadFull(r.buf, record); err != nil {
		return nil, malformed("truncated record: %v", err)
	}
	return record, nil
}

// Close closes the file.
func (r *StreamReader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	return errors.Join(err, r.file.Close())
}

// readAll drains a stream, decoding each record with decode.
func readAll(path string, decode func([]byte) error) error {
	r, err := OpenStream(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := decode(record); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
}

// writeFile writes a single-message file.
func writeFile(path string, msg []byte) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	var w io.Writer = file
	var gz *gzip.Writer
	if isGzip(path) {
		gz = gzip.NewWriter(file)
		w = gz
	}
	_, err = w.Write(msg)
	if gz != nil {
		err = errors.Join(err, gz.Close())
	}
	return errors.Join(err, file.Close())
}

// readFile reads a single-message file.
func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	var r io.Reader = file
	if isGzip(path) {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, malformed("%s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	}
	msg, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed("%s: %v", path, err)
	}
	return msg, nil
}

func isGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}
