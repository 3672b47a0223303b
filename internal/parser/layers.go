package parser

import (
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"sharkjson/internal/decode"
	"sharkjson/internal/models"
)

// displayTypes maps tshark protocol names onto gopacket layer types so the
// viewer shows the same names a gopacket-based capture would.
var displayTypes = map[string]gopacket.LayerType{
	"eth":    layers.LayerTypeEthernet,
	"sll":    layers.LayerTypeLinuxSLL,
	"vlan":   layers.LayerTypeDot1Q,
	"arp":    layers.LayerTypeARP,
	"ip":     layers.LayerTypeIPv4,
	"ipv6":   layers.LayerTypeIPv6,
	"icmp":   layers.LayerTypeICMPv4,
	"icmpv6": layers.LayerTypeICMPv6,
	"tcp":    layers.LayerTypeTCP,
	"udp":    layers.LayerTypeUDP,
	"sctp":   layers.LayerTypeSCTP,
	"dns":    layers.LayerTypeDNS,
	"gre":    layers.LayerTypeGRE,
	"vxlan":  layers.LayerTypeVXLAN,
	"mpls":   layers.LayerTypeMPLS,
	"dhcp":   layers.LayerTypeDHCPv4,
	"ntp":    layers.LayerTypeNTP,
	"sip":    layers.LayerTypeSIP,
	"tls":    layers.LayerTypeTLS,
	"data":   gopacket.LayerTypePayload,
}

// DisplayName returns a human-readable name for a tshark protocol name.
func DisplayName(name string) string {
	if lt, ok := displayTypes[name]; ok {
		return lt.String()
	}
	if strings.HasPrefix(name, "_ws.") {
		return strings.TrimPrefix(name, "_ws.")
	}
	return strings.ToUpper(name)
}

// Details converts a layer into the field tree sent to the viewer.
func Details(layer models.Layer) models.LayerDetail {
	return models.LayerDetail{
		Name:        layer.Name,
		DisplayName: DisplayName(layer.Name),
		Fields:      fieldsOf(layer.Fields),
	}
}

func extractLayers(pkt *models.Packet) []models.LayerDetail {
	result := make([]models.LayerDetail, 0, len(pkt.Layers)+1)
	result = append(result, Details(pkt.Frame))
	for _, l := range pkt.Layers {
		result = append(result, Details(l))
	}
	return result
}

func fieldsOf(v decode.Value) []models.LayerField {
	switch v.Kind() {
	case decode.KindObject:
		obj, _ := v.Object()
		var fields []models.LayerField
		obj.Range(func(key string, fv decode.Value) bool {
			fields = append(fields, fieldEntries(key, fv)...)
			return true
		})
		return fields
	case decode.KindSequence, decode.KindArray:
		var fields []models.LayerField
		for _, e := range v.Elems() {
			fields = append(fields, fieldsOf(e)...)
		}
		return fields
	}
	if v.IsNull() {
		return nil
	}
	return []models.LayerField{{Name: "value", Value: v.String()}}
}

// fieldEntries builds the field(s) for one key. A repeated key yields one
// field per occurrence.
func fieldEntries(key string, v decode.Value) []models.LayerField {
	switch v.Kind() {
	case decode.KindSequence, decode.KindArray:
		var out []models.LayerField
		for _, e := range v.Elems() {
			out = append(out, fieldEntries(key, e)...)
		}
		return out
	case decode.KindObject:
		f := models.LayerField{Name: key, Children: fieldsOf(v)}
		if strings.ContainsAny(key, " :") {
			// text-keyed subtree, e.g. "example.com: type A, class IN"
			f.Value = key
		}
		return []models.LayerField{f}
	case decode.KindNull:
		return []models.LayerField{{Name: key}}
	}
	return []models.LayerField{{Name: key, Value: v.String()}}
}
