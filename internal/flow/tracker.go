// Package flow groups assembled packets into bidirectional conversations.
package flow

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// TCPState represents the state of a TCP connection.
type TCPState string

const (
	TCPStateNew         TCPState = "NEW"
	TCPStateSynSent     TCPState = "SYN_SENT"
	TCPStateSynReceived TCPState = "SYN_RECEIVED"
	TCPStateEstablished TCPState = "ESTABLISHED"
	TCPStateFinWait     TCPState = "FIN_WAIT"
	TCPStateClosed      TCPState = "CLOSED"
)

const (
	DefaultMaxFlows = 10000
	DefaultIdleTime = 5 * time.Minute
)

// Key is a normalized 5-tuple. Both directions map to the same flow.
type Key struct {
	IP1      string
	IP2      string
	Port1    uint16
	Port2    uint16
	Protocol string
}

// MakeKey orders the endpoints so that A->B and B->A produce the same Key.
func MakeKey(srcIP, dstIP string, srcPort, dstPort uint16, protocol string) Key {
	if srcIP < dstIP || (srcIP == dstIP && srcPort < dstPort) {
		return Key{IP1: srcIP, IP2: dstIP, Port1: srcPort, Port2: dstPort, Protocol: protocol}
	}
	return Key{IP1: dstIP, IP2: srcIP, Port1: dstPort, Port2: srcPort, Protocol: protocol}
}

// TCPFlags holds parsed TCP flag bits.
type TCPFlags struct {
	SYN bool
	ACK bool
	FIN bool
	RST bool
	PSH bool
}

// Observation is what the tracker needs to know about one packet.
type Observation struct {
	SrcIP    string
	DstIP    string
	SrcPort  uint16
	DstPort  uint16
	Protocol string
	Length   int
	Flags    TCPFlags
	// Seen is the capture time. Flows age by capture time so that replaying
	// an old export builds the same table the live capture would have.
	Seen time.Time
}

// Flow holds statistics for a single network flow.
type Flow struct {
	ID          uint64   `json:"id"`
	SrcIP       string   `json:"srcIp"`
	DstIP       string   `json:"dstIp"`
	SrcPort     uint16   `json:"srcPort"`
	DstPort     uint16   `json:"dstPort"`
	Protocol    string   `json:"protocol"`
	PacketCount int      `json:"packetCount"`
	ByteCount   int64    `json:"byteCount"`
	FirstSeen   int64    `json:"firstSeen"` // unix ms
	LastSeen    int64    `json:"lastSeen"`  // unix ms
	TCPState    TCPState `json:"tcpState,omitempty"`
	FwdPackets  int      `json:"fwdPackets"`
	FwdBytes    int64    `json:"fwdBytes"`
	RevPackets  int      `json:"revPackets"`
	RevBytes    int64    `json:"revBytes"`
}

// Tracker maintains the flow table.
type Tracker struct {
	mu       sync.Mutex
	flows    map[Key]*Flow
	nextID   uint64
	maxFlows int
	idleTime time.Duration
}

// NewTracker creates a flow tracker. Zero limits select the defaults.
func NewTracker(maxFlows int, idleTime time.Duration) *Tracker {
	if maxFlows <= 0 {
		maxFlows = DefaultMaxFlows
	}
	if idleTime <= 0 {
		idleTime = DefaultIdleTime
	}
	return &Tracker{
		flows:    make(map[Key]*Flow),
		maxFlows: maxFlows,
		idleTime: idleTime,
	}
}

// Track records a packet and returns the ID of the flow it belongs to.
func (t *Tracker) Track(obs Observation) uint64 {
	key := MakeKey(obs.SrcIP, obs.DstIP, obs.SrcPort, obs.DstPort, obs.Protocol)
	now := obs.Seen.UnixMilli()

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.flows) >= t.maxFlows {
		t.evictIdle(now)
	}

	f, exists := t.flows[key]
	if !exists {
		t.nextID++
		f = &Flow{
			ID:        t.nextID,
			SrcIP:     obs.SrcIP,
			DstIP:     obs.DstIP,
			SrcPort:   obs.SrcPort,
			DstPort:   obs.DstPort,
			Protocol:  obs.Protocol,
			FirstSeen: now,
		}
		if obs.Protocol == "TCP" {
			f.TCPState = TCPStateNew
		}
		t.flows[key] = f
	}

	f.PacketCount++
	f.ByteCount += int64(obs.Length)
	if now > f.LastSeen {
		f.LastSeen = now
	}

	// "forward" is the direction of the first packet seen
	if obs.SrcIP == f.SrcIP && obs.SrcPort == f.SrcPort {
		f.FwdPackets++
		f.FwdBytes += int64(obs.Length)
	} else {
		f.RevPackets++
		f.RevBytes += int64(obs.Length)
	}

	if obs.Protocol == "TCP" {
		f.TCPState = advanceTCPState(f.TCPState, obs.Flags)
	}
	return f.ID
}

// Flows returns a snapshot of all active flows ordered by ID.
func (t *Tracker) Flows() []Flow {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]Flow, 0, len(t.flows))
	for _, f := range t.flows {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Len returns the number of tracked flows.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flows)
}

// Reset clears all flows.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flows = make(map[Key]*Flow)
	t.nextID = 0
}

func (t *Tracker) evictIdle(nowMs int64) {
	cutoff := nowMs - t.idleTime.Milliseconds()
	for key, f := range t.flows {
		if f.LastSeen < cutoff {
			delete(t.flows, key)
		}
	}
}

func advanceTCPState(current TCPState, flags TCPFlags) TCPState {
	if flags.RST {
		return TCPStateClosed
	}

	switch current {
	case TCPStateNew:
		if flags.SYN && !flags.ACK {
			return TCPStateSynSent
		}
	case TCPStateSynSent:
		if flags.SYN && flags.ACK {
			return TCPStateSynReceived
		}
	case TCPStateSynReceived:
		if flags.ACK && !flags.SYN {
			return TCPStateEstablished
		}
	case TCPStateEstablished:
		if flags.FIN {
			return TCPStateFinWait
		}
	case TCPStateFinWait:
		if flags.FIN || flags.ACK {
			return TCPStateClosed
		}
	}
	return current
}

// String returns a human-readable description of the flow.
func (f *Flow) String() string {
	return fmt.Sprintf("Flow#%d %s:%d <-> %s:%d [%s] pkts=%d bytes=%d",
		f.ID, f.SrcIP, f.SrcPort, f.DstIP, f.DstPort, f.Protocol, f.PacketCount, f.ByteCount)
}
