package parser

import (
	"strconv"
	"time"

	"github.com/google/gopacket/layers"

	"sharkjson/internal/flow"
	"sharkjson/internal/models"
)

// FlowTuple holds the extracted 5-tuple + TCP flags from a packet.
type FlowTuple struct {
	SrcIP    string
	DstIP    string
	SrcPort  uint16
	DstPort  uint16
	Protocol string
	Flags    flow.TCPFlags
	Valid    bool
}

// ExtractFlowTuple pulls the flow 5-tuple and TCP flags out of an assembled
// packet's ip/ipv6 and transport layers.
func ExtractFlowTuple(pkt *models.Packet) FlowTuple {
	var t FlowTuple

	// IPv4
	if ip4, ok := pkt.Layer("ip"); ok {
		t.SrcIP = FieldValue(ip4, "ip.src")
		t.DstIP = FieldValue(ip4, "ip.dst")
		t.Protocol = ipProtocolName(FieldValue(ip4, "ip.proto"))
		t.Valid = t.SrcIP != "" && t.DstIP != ""
	}

	// IPv6
	if ip6, ok := pkt.Layer("ipv6"); ok && !t.Valid {
		t.SrcIP = FieldValue(ip6, "ipv6.src")
		t.DstIP = FieldValue(ip6, "ipv6.dst")
		t.Protocol = ipProtocolName(FieldValue(ip6, "ipv6.nxt"))
		t.Valid = t.SrcIP != "" && t.DstIP != ""
	}

	// TCP
	if tcp, ok := pkt.Layer("tcp"); ok {
		t.SrcPort = port(FieldValue(tcp, "tcp.srcport"))
		t.DstPort = port(FieldValue(tcp, "tcp.dstport"))
		t.Protocol = layers.IPProtocolTCP.String()
		t.Flags = flow.TCPFlags{
			SYN: isSet(FieldValue(tcp, "tcp.flags.syn")),
			ACK: isSet(FieldValue(tcp, "tcp.flags.ack")),
			FIN: isSet(FieldValue(tcp, "tcp.flags.fin")),
			RST: isSet(FieldValue(tcp, "tcp.flags.reset")),
			PSH: isSet(FieldValue(tcp, "tcp.flags.push")),
		}
	}

	// UDP
	if udp, ok := pkt.Layer("udp"); ok {
		t.SrcPort = port(FieldValue(udp, "udp.srcport"))
		t.DstPort = port(FieldValue(udp, "udp.dstport"))
		t.Protocol = layers.IPProtocolUDP.String()
	}

	// SCTP
	if sctp, ok := pkt.Layer("sctp"); ok {
		t.SrcPort = port(FieldValue(sctp, "sctp.srcport"))
		t.DstPort = port(FieldValue(sctp, "sctp.dstport"))
		t.Protocol = layers.IPProtocolSCTP.String()
	}

	return t
}

// ipProtocolName names an IP protocol number the way gopacket does.
func ipProtocolName(s string) string {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return s
	}
	return layers.IPProtocol(n).String()
}

func port(s string) uint16 {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}

// Observation converts the tuple into flow tracker input.
func (t FlowTuple) Observation(length int, seen time.Time) flow.Observation {
	return flow.Observation{
		SrcIP:    t.SrcIP,
		DstIP:    t.DstIP,
		SrcPort:  t.SrcPort,
		DstPort:  t.DstPort,
		Protocol: t.Protocol,
		Length:   length,
		Flags:    t.Flags,
		Seen:     seen,
	}
}
