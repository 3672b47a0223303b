package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeKeyIsDirectionless(t *testing.T) {
	a := MakeKey("10.0.0.1", "10.0.0.2", 1234, 80, "TCP")
	b := MakeKey("10.0.0.2", "10.0.0.1", 80, 1234, "TCP")
	assert.Equal(t, a, b)

	same := MakeKey("10.0.0.1", "10.0.0.1", 9000, 53, "UDP")
	assert.Equal(t, uint16(53), same.Port1)
	assert.Equal(t, uint16(9000), same.Port2)
}

func TestTrackHandshake(t *testing.T) {
	tr := NewTracker(0, 0)
	base := time.Unix(1700000000, 0)
	client := Observation{SrcIP: "10.0.0.1", DstIP: "10.0.0.2", SrcPort: 40000, DstPort: 443, Protocol: "TCP", Length: 60}
	server := Observation{SrcIP: "10.0.0.2", DstIP: "10.0.0.1", SrcPort: 443, DstPort: 40000, Protocol: "TCP", Length: 60}

	steps := []struct {
		obs   Observation
		flags TCPFlags
		want  TCPState
	}{
		{client, TCPFlags{SYN: true}, TCPStateSynSent},
		{server, TCPFlags{SYN: true, ACK: true}, TCPStateSynReceived},
		{client, TCPFlags{ACK: true}, TCPStateEstablished},
		{client, TCPFlags{FIN: true, ACK: true}, TCPStateFinWait},
		{server, TCPFlags{ACK: true}, TCPStateClosed},
	}
	var id uint64
	for i, s := range steps {
		s.obs.Flags = s.flags
		s.obs.Seen = base.Add(time.Duration(i) * time.Millisecond)
		got := tr.Track(s.obs)
		if id == 0 {
			id = got
		}
		require.Equal(t, id, got)
		assert.Equal(t, s.want, tr.Flows()[0].TCPState, "step %d", i)
	}

	flows := tr.Flows()
	require.Len(t, flows, 1)
	f := flows[0]
	assert.Equal(t, 5, f.PacketCount)
	assert.Equal(t, 3, f.FwdPackets)
	assert.Equal(t, 2, f.RevPackets)
	assert.Equal(t, int64(300), f.ByteCount)
	assert.Equal(t, base.UnixMilli(), f.FirstSeen)
	assert.Equal(t, base.Add(4*time.Millisecond).UnixMilli(), f.LastSeen)
}

func TestTrackEvictsIdleFlowsAtCapacity(t *testing.T) {
	tr := NewTracker(2, time.Second)
	base := time.Unix(1700000000, 0)

	tr.Track(Observation{SrcIP: "a", DstIP: "b", Protocol: "UDP", Seen: base})
	tr.Track(Observation{SrcIP: "c", DstIP: "d", Protocol: "UDP", Seen: base})
	require.Equal(t, 2, tr.Len())

	tr.Track(Observation{SrcIP: "e", DstIP: "f", Protocol: "UDP", Seen: base.Add(time.Minute)})
	assert.Equal(t, 1, tr.Len())

	tr.Reset()
	assert.Zero(t, tr.Len())
}

func TestUDPFlowHasNoTCPState(t *testing.T) {
	tr := NewTracker(0, 0)
	tr.Track(Observation{SrcIP: "10.0.0.1", DstIP: "8.8.8.8", SrcPort: 5353, DstPort: 53, Protocol: "UDP"})
	assert.Empty(t, tr.Flows()[0].TCPState)
}
