package capture

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LinkInfo summarises the Ethernet/IPv4/UDP framing of a record.
type LinkInfo struct {
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	Layers  []gopacket.LayerType
}

func (l LinkInfo) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", l.SrcIP, l.SrcPort, l.DstIP, l.DstPort)
}

// DecodeLinkLayer decodes the link-layer framing of a record body. It is used
// for diagnostics only; payload extraction relies on the fixed
// LINK_HEADER_SIZE offset.
func DecodeLinkLayer(data []byte) (LinkInfo, error) {
	var (
		eth     layers.Ethernet
		ip4     layers.IPv4
		udp     layers.UDP
		payload gopacket.Payload
	)
	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &ip4, &udp, &payload)
	parser.IgnoreUnsupported = true

	decoded := make([]gopacket.LayerType, 0, 4)
	if err := parser.DecodeLayers(data, &decoded); err != nil {
		return LinkInfo{Layers: decoded}, fmt.Errorf("decode link layer: %w", err)
	}

	info := LinkInfo{Layers: decoded}
	for _, lt := range decoded {
		switch lt {
		case layers.LayerTypeEthernet:
			info.SrcMAC, info.DstMAC = eth.SrcMAC, eth.DstMAC
		case layers.LayerTypeIPv4:
			info.SrcIP, info.DstIP = ip4.SrcIP, ip4.DstIP
		case layers.LayerTypeUDP:
			info.SrcPort, info.DstPort = uint16(udp.SrcPort), uint16(udp.DstPort)
		}
	}
	if info.DstPort == 0 {
		return info, fmt.Errorf("decode link layer: no UDP layer in %d bytes", len(data))
	}
	return info, nil
}
