// Package parser turns decoded tshark records into ordered layer stacks and
// the display data the viewer shows for them.
package parser

import (
	"fmt"
	"strings"
	"time"

	"sharkjson/internal/decode"
	"sharkjson/internal/models"
)

// Parse decodes one raw tshark record and assembles its layers.
func Parse(data []byte, opts decode.Options) (*models.Packet, error) {
	record, err := opts.Decode(data)
	if err != nil {
		return nil, err
	}
	return AssemblePacket(record)
}

// Info builds the display record for an assembled packet. Timestamps are
// relative to startTime unless it is zero.
func Info(pkt *models.Packet, startTime time.Time) models.PacketInfo {
	info := models.PacketInfo{
		Number: pkt.Summary.Number,
		Length: pkt.Summary.Length,
	}

	if ts, err := pkt.Summary.Time(); err == nil {
		if startTime.IsZero() {
			info.Timestamp = ts.Format("15:04:05.000000")
		} else {
			info.Timestamp = fmt.Sprintf("%.6f", ts.Sub(startTime).Seconds())
		}
	} else {
		info.Timestamp = pkt.Summary.SniffTime.String()
	}

	if pkt.Summary.InterfaceID != nil {
		info.InterfaceID = pkt.Summary.InterfaceID.String()
	}

	if chain, ok := pkt.Frame.Get(fieldProtocols); ok {
		if s, ok := chain.Text(); ok && s != "" {
			info.Protocols = strings.Split(s, ":")
		}
	}

	info.Layers = extractLayers(pkt)
	info.Protocol, info.SrcAddr, info.DstAddr, info.Info = summarize(pkt)
	return info
}
