package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkjson/internal/decode"
	"sharkjson/internal/models"
)

func mustDecode(t *testing.T, in string) *decode.Object {
	t.Helper()
	obj, err := decode.Decode([]byte(in), true)
	require.NoError(t, err)
	return obj
}

func layerNames(layers []models.Layer) []string {
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}
	return names
}

const skippedChainRecord = `{"_source": {"layers": {
	"frame": {"frame.protocols": "eth:ip:tcp", "frame.len": "54", "frame.number": "7", "frame.time_epoch": "1700000000.5"},
	"tcp": {"tcp.srcport": "443"},
	"eth": {"eth.src": "00:11:22:33:44:55"}
}}}`

func TestAssembleSkipsLayersMissingFromRecord(t *testing.T) {
	layers, frame, summary, err := Assemble(mustDecode(t, skippedChainRecord))
	require.NoError(t, err)

	assert.Equal(t, []string{"eth", "tcp"}, layerNames(layers))
	assert.Equal(t, "frame", frame.Name)
	assert.Equal(t, 7, summary.Number)
	assert.Equal(t, 54, summary.Length)
	assert.Equal(t, "1700000000.5", summary.SniffTime.String())
	assert.Nil(t, summary.InterfaceID)
}

func TestAssembleAppendsUnlistedLayersOnce(t *testing.T) {
	in := `{"_source": {"layers": {
		"frame": {"frame.protocols": "eth:ip:tcp:http", "frame.len": 1514, "frame.time_epoch": "1700000000.000000001", "frame.interface_id": "0"},
		"tcp.reassembly": {"tcp.reassembled.length": "3000"},
		"eth": {}, "ip": {}, "tcp": {}, "http": {},
		"_ws.malformed": {"_ws.expert": {}}
	}}}`
	layers, _, summary, err := Assemble(mustDecode(t, in))
	require.NoError(t, err)

	assert.Equal(t, []string{"eth", "ip", "tcp", "http", "tcp.reassembly", "_ws.malformed"}, layerNames(layers))
	assert.Equal(t, 1514, summary.Length)
	require.NotNil(t, summary.InterfaceID)
	assert.Equal(t, "0", summary.InterfaceID.String())
}

func TestAssembleRepeatedChainNameConsumedOnce(t *testing.T) {
	in := `{"_source": {"layers": {
		"frame": {"frame.protocols": "eth:ip:gre:ip:udp", "frame.len": "100", "frame.time_epoch": "1"},
		"eth": {}, "ip": {"ip.src": "1.1.1.1"}, "gre": {}, "ip": {"ip.src": "10.0.0.1"}, "udp": {}
	}}}`
	layers, _, _, err := Assemble(mustDecode(t, in))
	require.NoError(t, err)

	assert.Equal(t, []string{"eth", "ip", "gre", "udp"}, layerNames(layers))
	ip := layers[1]
	require.Len(t, ip.Objects(), 2)
	assert.Equal(t, []string{"1.1.1.1", "10.0.0.1"}, FieldValues(ip, "ip.src"))
}

func TestAssembleChainOrderRoundTrips(t *testing.T) {
	in := `{"_source": {"layers": {
		"frame": {"frame.protocols": "sll:ipv6:udp:dns", "frame.len": "90", "frame.time_epoch": "1"},
		"dns": {}, "udp": {}, "extra": {}, "sll": {}
	}}}`
	layers, _, _, err := Assemble(mustDecode(t, in))
	require.NoError(t, err)

	chain := strings.Split("sll:ipv6:udp:dns", ":")
	present := map[string]bool{}
	for _, l := range layers {
		present[l.Name] = true
	}
	var want []string
	for _, name := range chain {
		if present[name] {
			want = append(want, name)
		}
	}
	var got []string
	for _, l := range layers {
		for _, name := range chain {
			if l.Name == name {
				got = append(got, l.Name)
			}
		}
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "extra", layers[len(layers)-1].Name)
}

func TestAssembleDoesNotMutateRecord(t *testing.T) {
	record := mustDecode(t, skippedChainRecord)
	src, _ := record.Get("_source")
	srcObj, _ := src.Object()
	lv, _ := srcObj.Get("layers")
	layersObj, _ := lv.Object()
	before := layersObj.Keys()

	first, _, _, err := Assemble(record)
	require.NoError(t, err)
	second, _, _, err := Assemble(record)
	require.NoError(t, err)

	assert.Equal(t, before, layersObj.Keys())
	assert.Equal(t, layerNames(first), layerNames(second))
}

func TestAssembleMissingNumberDefaultsToZero(t *testing.T) {
	in := `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "60", "frame.time_epoch": "1"}, "eth": {}}}}`
	_, _, summary, err := Assemble(mustDecode(t, in))
	require.NoError(t, err)
	assert.Zero(t, summary.Number)
}

func TestAssembleMalformedRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"no source", `{}`, "_source"},
		{"source not object", `{"_source": "x"}`, "_source"},
		{"no layers", `{"_source": {}}`, "_source.layers"},
		{"no frame", `{"_source": {"layers": {"eth": {}}}}`, "frame"},
		{"frame not object", `{"_source": {"layers": {"frame": "x"}}}`, "frame"},
		{"duplicated frame", `{"_source": {"layers": {"frame": {}, "frame": {}}}}`, "frame"},
		{"no protocols", `{"_source": {"layers": {"frame": {"frame.len": "60", "frame.time_epoch": "1"}}}}`, "frame.protocols"},
		{"no len", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.time_epoch": "1"}}}}`, "frame.len"},
		{"bad len", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "sixty", "frame.time_epoch": "1"}}}}`, "frame.len"},
		{"fractional len string", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "60.5", "frame.time_epoch": "1"}}}}`, "frame.len"},
		{"len out of range", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": 1e30, "frame.time_epoch": "1"}}}}`, "frame.len"},
		{"len overflows int", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": 99999999999999999999, "frame.time_epoch": "1"}}}}`, "frame.len"},
		{"bad number", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "60", "frame.number": "x", "frame.time_epoch": "1"}}}}`, "frame.number"},
		{"no time", `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "60"}}}}`, "frame.time_epoch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layers, _, _, err := Assemble(mustDecode(t, tt.input))
			require.Error(t, err)
			assert.Nil(t, layers)
			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre), "got %T", err)
			assert.Equal(t, tt.field, mre.Field)
		})
	}
}

func TestIntValue(t *testing.T) {
	n, err := intValue(decode.NumberValue("60"))
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	n, err = intValue(decode.NumberValue("60.0"))
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	n, err = intValue(decode.StringValue(" 42 "))
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = intValue(decode.NumberValue("-1e30"))
	assert.Error(t, err)

	_, err = intValue(decode.NumberValue("9223372036854775808"))
	assert.Error(t, err)

	_, err = intValue(decode.SequenceValue(decode.StringValue("1"), decode.StringValue("2")))
	assert.Error(t, err)
}

func TestAssembleNullInterfaceIDIsAbsent(t *testing.T) {
	in := `{"_source": {"layers": {"frame": {"frame.protocols": "eth", "frame.len": "60", "frame.time_epoch": "1", "frame.interface_id": null}, "eth": {}}}}`
	_, _, summary, err := Assemble(mustDecode(t, in))
	require.NoError(t, err)
	assert.Nil(t, summary.InterfaceID)

	pkt, err := Parse([]byte(in), decode.Options{Deduplicate: true})
	require.NoError(t, err)
	assert.Empty(t, Info(pkt, time.Time{}).InterfaceID)
}
