package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"sharkjson/internal/decode"
)

// Layer is one protocol's decoded fields, keyed by the tshark protocol name.
// Fields is normally an object. A protocol that appears more than once in a
// packet (IP-in-IP, say) holds a Sequence of objects when the record was
// decoded with deduplication.
type Layer struct {
	Name   string
	Fields decode.Value
}

// Objects returns each instance of the layer's field map.
func (l Layer) Objects() []*decode.Object {
	if obj, ok := l.Fields.Object(); ok {
		return []*decode.Object{obj}
	}
	var out []*decode.Object
	for _, e := range l.Fields.Elems() {
		if obj, ok := e.Object(); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Get returns the first value of a top-level field in any instance of the layer.
func (l Layer) Get(field string) (decode.Value, bool) {
	for _, obj := range l.Objects() {
		if v, ok := obj.Get(field); ok {
			return v, true
		}
	}
	return decode.Value{}, false
}

// FrameSummary is the capture metadata tshark reports in the frame block.
type FrameSummary struct {
	Number int
	Length int
	// SniffTime is frame.time_epoch exactly as tshark wrote it.
	SniffTime decode.Value
	// InterfaceID is nil when the record has no frame.interface_id.
	InterfaceID *decode.Value
}

// Time converts SniffTime ("1700000000.123456789") to a time.Time.
func (f FrameSummary) Time() (time.Time, error) {
	s, ok := f.SniffTime.Text()
	if !ok {
		return time.Time{}, strconv.ErrSyntax
	}
	return ParseEpoch(s)
}

// ParseEpoch parses a decimal epoch timestamp without losing nanoseconds to
// float rounding.
func ParseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, err
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)), nil
	}
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if hasFrac && fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		nsec, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		if strings.HasPrefix(secPart, "-") {
			nsec = -nsec
		}
	}
	return time.Unix(sec, nsec), nil
}

// Packet is an assembled tshark record.
type Packet struct {
	Layers  []Layer
	Frame   Layer
	Summary FrameSummary
}

// Layer returns the first layer with the given name.
func (p *Packet) Layer(name string) (Layer, bool) {
	for _, l := range p.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// HighestLayer is the last layer of the packet, ignoring tshark's raw
// payload pseudo-layers.
func (p *Packet) HighestLayer() (Layer, bool) {
	for i := len(p.Layers) - 1; i >= 0; i-- {
		switch p.Layers[i].Name {
		case "data", "_ws.malformed", "_ws.expert":
			continue
		}
		return p.Layers[i], true
	}
	return Layer{}, false
}

// TransportLayer returns the tcp, udp or sctp layer if there is one.
func (p *Packet) TransportLayer() (Layer, bool) {
	for _, l := range p.Layers {
		switch l.Name {
		case "tcp", "udp", "sctp":
			return l, true
		}
	}
	return Layer{}, false
}

// PacketInfo represents a parsed packet with all display data.
type PacketInfo struct {
	Number      int           `json:"number"`
	Timestamp   string        `json:"timestamp"`
	SrcAddr     string        `json:"srcAddr"`
	DstAddr     string        `json:"dstAddr"`
	Protocol    string        `json:"protocol"`
	Length      int           `json:"length"`
	Info        string        `json:"info"`
	InterfaceID string        `json:"interfaceId,omitempty"`
	Protocols   []string      `json:"protocols"`
	Layers      []LayerDetail `json:"layers"`
	FlowID      uint64        `json:"flowId,omitempty"`
}

// LayerDetail represents one protocol layer in the packet.
type LayerDetail struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Fields      []LayerField `json:"fields"`
}

// LayerField represents a single field within a protocol layer.
type LayerField struct {
	Name     string       `json:"name"`
	Value    string       `json:"value"`
	Children []LayerField `json:"children,omitempty"`
}
