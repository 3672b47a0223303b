package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkjson/internal/decode"
)

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"1700000000.123456789", time.Unix(1700000000, 123456789)},
		{"1700000000.5", time.Unix(1700000000, 500000000)},
		{"1700000000", time.Unix(1700000000, 0)},
		{" 1700000000.000001000 ", time.Unix(1700000000, 1000)},
		{"1700000000.1234567891", time.Unix(1700000000, 123456789)},
		{"-1.5", time.Unix(-1, -500000000)},
	}
	for _, tt := range tests {
		got, err := ParseEpoch(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%q: want %v, got %v", tt.in, tt.want, got)
	}

	_, err := ParseEpoch("yesterday")
	assert.Error(t, err)
}

func TestFrameSummaryTime(t *testing.T) {
	s := FrameSummary{SniffTime: decode.NumberValue("1700000000.25")}
	got, err := s.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 250000000).UnixNano(), got.UnixNano())

	_, err = FrameSummary{}.Time()
	assert.Error(t, err)
}

func objectOf(kv ...string) decode.Value {
	o := decode.NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i], decode.StringValue(kv[i+1]))
	}
	return decode.ObjectValue(o)
}

func TestLayerObjects(t *testing.T) {
	single := Layer{Name: "ip", Fields: objectOf("ip.src", "10.0.0.1")}
	assert.Len(t, single.Objects(), 1)

	double := Layer{Name: "ip", Fields: decode.SequenceValue(
		objectOf("ip.src", "10.0.0.1"),
		objectOf("ip.src", "192.168.0.1"),
	)}
	require.Len(t, double.Objects(), 2)
	v, ok := double.Get("ip.src")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", v.String())

	empty := Layer{Name: "data", Fields: decode.StringValue("raw")}
	assert.Empty(t, empty.Objects())
}

func TestPacketLayerLookups(t *testing.T) {
	p := &Packet{Layers: []Layer{
		{Name: "eth"}, {Name: "ip"}, {Name: "udp"}, {Name: "dns"}, {Name: "_ws.malformed"},
	}}
	hl, ok := p.HighestLayer()
	require.True(t, ok)
	assert.Equal(t, "dns", hl.Name)

	tl, ok := p.TransportLayer()
	require.True(t, ok)
	assert.Equal(t, "udp", tl.Name)

	_, ok = p.Layer("tcp")
	assert.False(t, ok)

	_, ok = (&Packet{}).HighestLayer()
	assert.False(t, ok)
}
