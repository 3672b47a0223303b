package parser

import (
	"fmt"
	"strings"

	"sharkjson/internal/models"
)

// summarize determines the highest-level protocol and builds address/info strings.
func summarize(pkt *models.Packet) (protocol, src, dst, info string) {
	protocol = "Unknown"
	if hl, ok := pkt.HighestLayer(); ok {
		protocol = DisplayName(hl.Name)
	}

	// HTTP
	if http, ok := pkt.Layer("http"); ok {
		protocol = "HTTP"
		if method := FieldValue(http, "http.request.method"); method != "" {
			info = strings.TrimSpace(fmt.Sprintf("%s %s %s", method,
				FieldValue(http, "http.request.uri"), FieldValue(http, "http.request.version")))
		} else if code := FieldValue(http, "http.response.code"); code != "" {
			info = strings.TrimSpace(fmt.Sprintf("%s %s %s", FieldValue(http, "http.response.version"),
				code, FieldValue(http, "http.response.phrase")))
		}
	}

	// DNS
	if dns, ok := pkt.Layer("dns"); ok {
		protocol = "DNS"
		if isSet(FieldValue(dns, "dns.flags.response")) {
			info = "Standard query response"
		} else {
			info = "Standard query"
		}
		if name := FieldValue(dns, "dns.qry.name"); name != "" {
			info += " " + name
		}
	}

	// ICMP
	if icmp, ok := pkt.Layer("icmp"); ok && info == "" {
		protocol = "ICMP"
		info = fmt.Sprintf("Type=%s Code=%s", FieldValue(icmp, "icmp.type"), FieldValue(icmp, "icmp.code"))
	}

	// TCP
	if tcp, ok := pkt.Layer("tcp"); ok {
		sport, dport := FieldValue(tcp, "tcp.srcport"), FieldValue(tcp, "tcp.dstport")
		if info == "" {
			protocol = "TCP"
			info = fmt.Sprintf("%s -> %s [%s] Seq=%s Ack=%s Win=%s Len=%s",
				sport, dport, strings.Join(tcpFlagNames(tcp), ","),
				FieldValue(tcp, "tcp.seq"), FieldValue(tcp, "tcp.ack"),
				FieldValue(tcp, "tcp.window_size_value"), FieldValue(tcp, "tcp.len"))
		}
		src, dst = ":"+sport, ":"+dport
	}

	// UDP
	if udp, ok := pkt.Layer("udp"); ok {
		sport, dport := FieldValue(udp, "udp.srcport"), FieldValue(udp, "udp.dstport")
		if info == "" {
			protocol = "UDP"
			info = fmt.Sprintf("%s -> %s Len=%s", sport, dport, FieldValue(udp, "udp.length"))
		}
		src, dst = ":"+sport, ":"+dport
	}

	// IPv4
	if ip, ok := pkt.Layer("ip"); ok {
		src = FieldValue(ip, "ip.src") + src
		dst = FieldValue(ip, "ip.dst") + dst
	} else if ip6, ok := pkt.Layer("ipv6"); ok {
		src = "[" + FieldValue(ip6, "ipv6.src") + "]" + src
		dst = "[" + FieldValue(ip6, "ipv6.dst") + "]" + dst
		if protocol == "Unknown" {
			protocol = "IPv6"
		}
	}

	// ARP
	if arp, ok := pkt.Layer("arp"); ok {
		protocol = "ARP"
		srcIP := FieldValue(arp, "arp.src.proto_ipv4")
		dstIP := FieldValue(arp, "arp.dst.proto_ipv4")
		src, dst = srcIP, dstIP
		if FieldValue(arp, "arp.opcode") == "1" {
			info = fmt.Sprintf("Who has %s? Tell %s", dstIP, srcIP)
		} else {
			info = fmt.Sprintf("%s is at %s", srcIP, FieldValue(arp, "arp.src.hw_mac"))
		}
	}

	// Ethernet fallback
	if eth, ok := pkt.Layer("eth"); ok {
		if src == "" || strings.HasPrefix(src, ":") {
			src = FieldValue(eth, "eth.src")
		}
		if dst == "" || strings.HasPrefix(dst, ":") {
			dst = FieldValue(eth, "eth.dst")
		}
	}

	return
}

func tcpFlagNames(tcp models.Layer) []string {
	var out []string
	for _, f := range []struct{ field, name string }{
		{"tcp.flags.syn", "SYN"},
		{"tcp.flags.ack", "ACK"},
		{"tcp.flags.fin", "FIN"},
		{"tcp.flags.reset", "RST"},
		{"tcp.flags.push", "PSH"},
		{"tcp.flags.urg", "URG"},
	} {
		if isSet(FieldValue(tcp, f.field)) {
			out = append(out, f.name)
		}
	}
	return out
}

// isSet reads a tshark boolean field. Older releases print 1/0, newer ones
// True/False.
func isSet(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true":
		return true
	}
	return false
}
