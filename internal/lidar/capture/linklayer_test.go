package capture

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializeUDP(t *testing.T, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x60, 0x76, 0x88, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(192, 168, 1, 201),
		DstIP:    net.IPv4(255, 255, 255, 255),
	}
	udp := &layers.UDP{SrcPort: 2368, DstPort: 2368}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)))
	return buf.Bytes()
}

func TestDecodeLinkLayer(t *testing.T) {
	t.Parallel()
	frame := serializeUDP(t, make([]byte, DATA_PAYLOAD_SIZE))
	require.Len(t, frame, DATA_RECORD_LENGTH)

	info, err := DecodeLinkLayer(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(2368), info.SrcPort)
	assert.Equal(t, uint16(2368), info.DstPort)
	assert.True(t, info.SrcIP.Equal(net.IPv4(192, 168, 1, 201)))
	assert.Contains(t, info.Layers, layers.LayerTypeUDP)
	assert.Contains(t, info.String(), "192.168.1.201:2368")
}

func TestDecodeLinkLayer_Garbage(t *testing.T) {
	t.Parallel()
	_, err := DecodeLinkLayer(make([]byte, 10))
	assert.Error(t, err)
}
