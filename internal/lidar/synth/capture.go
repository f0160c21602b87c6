package synth

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
)

// Default addressing for framed packets, matching a factory-configured sensor.
var (
	SensorMAC  = net.HardwareAddr{0x60, 0x76, 0x88, 0x10, 0x20, 0x30}
	SensorIP   = net.IPv4(192, 168, 1, 201).To4()
	HostIP     = net.IPv4(255, 255, 255, 255).To4()
	DataPort   = layers.UDPPort(2368)
	PortGPS    = layers.UDPPort(8308)
	defaultTTL = uint8(64)
)

// Record is one container record. Data is the full link-layer frame.
type Record struct {
	TsSec  uint32
	TsUsec uint32 // microseconds, or nanoseconds for nanosecond containers
	Data   []byte
	// OriginalLength overrides len(Data) in the record header when non-zero.
	OriginalLength uint32
}

// Options configure WriteCapture.
type Options struct {
	Nanosecond bool
	SnapLen    uint32 // defaults to 65535
}

// Frame wraps a UDP payload in Ethernet, IPv4 and UDP headers addressed from
// the sensor to the data port.
func Frame(payload []byte) ([]byte, error) {
	return FrameTo(payload, DataPort)
}

// FrameTo wraps a UDP payload addressed to port.
func FrameTo(payload []byte, port layers.UDPPort) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       SensorMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      defaultTTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    SensorIP,
		DstIP:    HostIP,
	}
	udp := &layers.UDP{SrcPort: port, DstPort: port}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteCapture writes a version 2.4 little-endian container using pcapgo.
// Record lengths must equal len(Data); use WriteRawCapture for anything else.
func WriteCapture(w io.Writer, opts Options, records []Record) error {
	var pw *pcapgo.Writer
	if opts.Nanosecond {
		pw = pcapgo.NewWriterNanos(w)
	} else {
		pw = pcapgo.NewWriter(w)
	}
	snap := opts.SnapLen
	if snap == 0 {
		snap = 65535
	}
	if err := pw.WriteFileHeader(snap, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("write file header: %w", err)
	}

	for i, rec := range records {
		frac := time.Duration(rec.TsUsec) * time.Microsecond
		if opts.Nanosecond {
			frac = time.Duration(rec.TsUsec)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(int64(rec.TsSec), int64(frac)),
			CaptureLength: len(rec.Data),
			Length:        len(rec.Data),
		}
		if rec.OriginalLength != 0 && int(rec.OriginalLength) != len(rec.Data) {
			return fmt.Errorf("record %d: pcapgo cannot write original length %d for %d bytes", i, rec.OriginalLength, len(rec.Data))
		}
		if err := pw.WritePacket(ci, rec.Data); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}

// RawOptions describe a container header written by WriteRawCapture.
type RawOptions struct {
	Magic        uint32 // as read little-endian; the swapped magics select big-endian fields
	VersionMajor uint16
	VersionMinor uint16
	SnapLen      uint32
}

// WriteRawCapture writes a container with an arbitrary magic, version and
// byte order. Record bodies are written as given, so OriginalLength may
// describe a body that is shorter or longer than Data.
func WriteRawCapture(w io.Writer, opts RawOptions, records []Record) error {
	var order binary.ByteOrder = binary.LittleEndian
	if opts.Magic == capture.MagicMicrosecondsSwapped || opts.Magic == capture.MagicNanosecondsSwapped {
		order = binary.BigEndian
	}
	snap := opts.SnapLen
	if snap == 0 {
		snap = 65535
	}

	hdr := make([]byte, capture.GLOBAL_HEADER_SIZE)
	binary.LittleEndian.PutUint32(hdr[0:4], opts.Magic)
	order.PutUint16(hdr[4:6], opts.VersionMajor)
	order.PutUint16(hdr[6:8], opts.VersionMinor)
	order.PutUint32(hdr[16:20], snap)
	order.PutUint32(hdr[20:24], uint32(layers.LinkTypeEthernet))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("write file header: %w", err)
	}

	rh := make([]byte, capture.RECORD_HEADER_SIZE)
	for i, rec := range records {
		orig := rec.OriginalLength
		if orig == 0 {
			orig = uint32(len(rec.Data))
		}
		order.PutUint32(rh[0:4], rec.TsSec)
		order.PutUint32(rh[4:8], rec.TsUsec)
		order.PutUint32(rh[8:12], uint32(len(rec.Data)))
		order.PutUint32(rh[12:16], orig)
		if _, err := w.Write(rh); err != nil {
			return fmt.Errorf("record %d header: %w", i, err)
		}
		if _, err := w.Write(rec.Data); err != nil {
			return fmt.Errorf("record %d body: %w", i, err)
		}
	}
	return nil
}
