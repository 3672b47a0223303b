package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"sharkjson/internal/decode"
	"sharkjson/internal/models"
)

const (
	fieldSource      = "_source"
	fieldLayers      = "_source.layers"
	fieldFrame       = "frame"
	fieldProtocols   = "frame.protocols"
	fieldLength      = "frame.len"
	fieldNumber      = "frame.number"
	fieldTimeEpoch   = "frame.time_epoch"
	fieldInterfaceID = "frame.interface_id"
)

// MalformedRecordError reports a record that lacks the _source/layers/frame
// shape or one of the frame fields every packet needs.
type MalformedRecordError struct {
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return "malformed record: " + e.Field + ": " + e.Err.Error()
	}
	return "malformed record: missing " + e.Field
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Assemble splits a decoded record into its protocol layers.
//
// Layers named in frame.protocols come first, in that order; names with no
// block in the record are skipped. Blocks the chain does not name follow in
// record order. The frame block is returned separately and summarized.
// The record itself is left untouched.
func Assemble(record *decode.Object) (layers []models.Layer, frame models.Layer, summary models.FrameSummary, err error) {
	layersObj, err := layersOf(record)
	if err != nil {
		return nil, models.Layer{}, models.FrameSummary{}, err
	}

	frameVal, ok := layersObj.Get(fieldFrame)
	if !ok {
		return nil, models.Layer{}, models.FrameSummary{}, &MalformedRecordError{Field: fieldFrame}
	}
	frameObj, ok := frameVal.Object()
	if !ok {
		return nil, models.Layer{}, models.FrameSummary{}, &MalformedRecordError{
			Field: fieldFrame,
			Err:   errors.Errorf("expected object, got %s", frameVal.Kind()),
		}
	}

	chain, err := protocolChain(frameObj)
	if err != nil {
		return nil, models.Layer{}, models.FrameSummary{}, err
	}
	summary, err = summarizeFrame(frameObj)
	if err != nil {
		return nil, models.Layer{}, models.FrameSummary{}, err
	}

	consumed := map[string]bool{fieldFrame: true}
	layers = make([]models.Layer, 0, layersObj.Len()-1)
	for _, name := range chain {
		if consumed[name] {
			continue
		}
		v, ok := layersObj.Get(name)
		if !ok {
			continue
		}
		consumed[name] = true
		layers = append(layers, models.Layer{Name: name, Fields: v})
	}
	layersObj.Range(func(name string, v decode.Value) bool {
		if !consumed[name] {
			layers = append(layers, models.Layer{Name: name, Fields: v})
		}
		return true
	})

	return layers, models.Layer{Name: fieldFrame, Fields: frameVal}, summary, nil
}

// AssemblePacket is Assemble packed into a models.Packet.
func AssemblePacket(record *decode.Object) (*models.Packet, error) {
	layers, frame, summary, err := Assemble(record)
	if err != nil {
		return nil, err
	}
	return &models.Packet{Layers: layers, Frame: frame, Summary: summary}, nil
}

func layersOf(record *decode.Object) (*decode.Object, error) {
	src, ok := record.Get(fieldSource)
	if !ok {
		return nil, &MalformedRecordError{Field: fieldSource}
	}
	srcObj, ok := src.Object()
	if !ok {
		return nil, &MalformedRecordError{Field: fieldSource, Err: errors.Errorf("expected object, got %s", src.Kind())}
	}
	layers, ok := srcObj.Get("layers")
	if !ok {
		return nil, &MalformedRecordError{Field: fieldLayers}
	}
	layersObj, ok := layers.Object()
	if !ok {
		return nil, &MalformedRecordError{Field: fieldLayers, Err: errors.Errorf("expected object, got %s", layers.Kind())}
	}
	return layersObj, nil
}

func protocolChain(frame *decode.Object) ([]string, error) {
	v, ok := frame.Get(fieldProtocols)
	if !ok {
		return nil, &MalformedRecordError{Field: fieldProtocols}
	}
	s, ok := v.Text()
	if !ok {
		return nil, &MalformedRecordError{Field: fieldProtocols, Err: errors.Errorf("expected string, got %s", v.Kind())}
	}
	return strings.Split(s, ":"), nil
}

func summarizeFrame(frame *decode.Object) (models.FrameSummary, error) {
	var s models.FrameSummary

	lenVal, ok := frame.Get(fieldLength)
	if !ok {
		return s, &MalformedRecordError{Field: fieldLength}
	}
	n, err := intValue(lenVal)
	if err != nil {
		return s, &MalformedRecordError{Field: fieldLength, Err: err}
	}
	s.Length = n

	if numVal, ok := frame.Get(fieldNumber); ok {
		n, err := intValue(numVal)
		if err != nil {
			return s, &MalformedRecordError{Field: fieldNumber, Err: err}
		}
		s.Number = n
	}

	epoch, ok := frame.Get(fieldTimeEpoch)
	if !ok {
		return s, &MalformedRecordError{Field: fieldTimeEpoch}
	}
	s.SniffTime = epoch

	if iface, ok := frame.Get(fieldInterfaceID); ok && !iface.IsNull() {
		s.InterfaceID = &iface
	}
	return s, nil
}

// intValue reads an integer from a numeric string or a number literal.
// Fractional number literals are truncated; fractional strings are rejected.
func intValue(v decode.Value) (int, error) {
	s, ok := v.Text()
	if !ok {
		return 0, errors.Errorf("expected integer, got %s", v.Kind())
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if v.Kind() == decode.KindNumber {
		// NaN and the infinities fail both bounds.
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && f >= math.MinInt && f < -float64(math.MinInt) {
			return int(f), nil
		}
	}
	return 0, errors.Errorf("invalid integer %q", s)
}
