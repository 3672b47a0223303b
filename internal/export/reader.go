// Package export splits tshark JSON exports into per-packet records.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Format is the layout of an export stream.
type Format int

const (
	// FormatArray is `tshark -T json`: one JSON array of packet objects.
	FormatArray Format = iota
	// FormatLines is one packet object per line.
	FormatLines
)

// Reader yields the raw bytes of each packet record in an export. Records
// are not decoded here, so repeated keys are still intact when the caller
// decodes them.
type Reader struct {
	br      *bufio.Reader
	dec     *json.Decoder
	format  Format
	started bool
	records int
}

// NewReader sniffs the export format from the first non-space byte.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	format := FormatLines
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read export")
		}
		if isSpace(b) {
			continue
		}
		if b == '[' {
			format = FormatArray
		} else if b != '{' {
			return nil, errors.Errorf("not a tshark JSON export: unexpected %q", b)
		}
		if err := br.UnreadByte(); err != nil {
			return nil, errors.Wrap(err, "read export")
		}
		break
	}
	rd := &Reader{br: br, format: format}
	if format == FormatArray {
		rd.dec = json.NewDecoder(br)
	}
	return rd, nil
}

// Next returns the next record's bytes, or io.EOF when the export is
// exhausted. The returned slice is not reused.
func (r *Reader) Next() ([]byte, error) {
	var rec []byte
	var err error
	if r.format == FormatArray {
		rec, err = r.nextElement()
	} else {
		rec, err = r.nextLine()
	}
	if err != nil {
		return nil, err
	}
	r.records++
	return rec, nil
}

func (r *Reader) nextElement() ([]byte, error) {
	if !r.started {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "read export")
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, errors.Errorf("expected '[', got %v", tok)
		}
		r.started = true
	}
	if !r.dec.More() {
		if _, err := r.dec.Token(); err != nil {
			return nil, errors.Wrap(err, "read export")
		}
		return nil, io.EOF
	}
	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return nil, errors.Wrapf(err, "read record %d", r.records+1)
	}
	return raw, nil
}

func (r *Reader) nextLine() ([]byte, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "read export")
		}
	}
}

// IsJSONExport reports whether head looks like the start of a tshark JSON
// export, the same way pcap files are recognized by their magic bytes.
func IsJSONExport(head []byte) bool {
	head = bytes.TrimLeft(head, " \t\r\n")
	return len(head) > 0 && (head[0] == '[' || head[0] == '{')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
