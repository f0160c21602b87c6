package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Capture container layout constants.
const (
	GLOBAL_HEADER_SIZE = 24 // magic + version (2×u16) + thiszone + sigfigs + snaplen + network
	RECORD_HEADER_SIZE = 16 // ts_sec + ts_usec + incl_len + orig_len
	LINK_HEADER_SIZE   = 42 // Ethernet (14) + IPv4 (20) + UDP (8)

	DATA_PAYLOAD_SIZE     = 1206 // Velodyne data packet UDP payload
	POSITION_PAYLOAD_SIZE = 512  // Velodyne GPS/position packet UDP payload

	DATA_RECORD_LENGTH     = DATA_PAYLOAD_SIZE + LINK_HEADER_SIZE     // 1248
	POSITION_RECORD_LENGTH = POSITION_PAYLOAD_SIZE + LINK_HEADER_SIZE // 554
)

// Magic numbers as they appear when read little-endian. The swapped variants
// identify big-endian containers.
const (
	MagicMicroseconds        uint32 = 0xa1b2c3d4
	MagicNanoseconds         uint32 = 0xa1b23c4d
	MagicMicrosecondsSwapped uint32 = 0xd4c3b2a1
	MagicNanosecondsSwapped  uint32 = 0x4d3cb2a1
)

// ErrUnknownFormat is returned when the global header does not carry one of
// the recognised magic numbers. The stream is unusable.
var ErrUnknownFormat = errors.New("unknown capture file format")

// GlobalHeader is the fixed header at the start of a capture container.
type GlobalHeader struct {
	Magic        uint32 // normalised to MagicMicroseconds or MagicNanoseconds
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32
	SigFigs      uint32
	SnapLen      uint32
	Network      uint32

	order binary.ByteOrder
	nanos bool
}

// ByteOrder returns the byte order of every multi-byte header field.
func (h GlobalHeader) ByteOrder() binary.ByteOrder {
	return h.order
}

// Nanosecond reports whether record timestamps carry nanoseconds rather than
// microseconds in their fractional field.
func (h GlobalHeader) Nanosecond() bool {
	return h.nanos
}

// Version formats the container version as "major.minor".
func (h GlobalHeader) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

// ParseGlobalHeader decodes a 24-byte global header.
func ParseGlobalHeader(b []byte) (GlobalHeader, error) {
	if len(b) < GLOBAL_HEADER_SIZE {
		return GlobalHeader{}, fmt.Errorf("global header too short: need %d bytes, have %d", GLOBAL_HEADER_SIZE, len(b))
	}

	h := GlobalHeader{}
	raw := binary.LittleEndian.Uint32(b[0:4])
	switch raw {
	case MagicMicroseconds:
		h.order = binary.LittleEndian
	case MagicNanoseconds:
		h.order, h.nanos = binary.LittleEndian, true
	case MagicMicrosecondsSwapped:
		h.order = binary.BigEndian
	case MagicNanosecondsSwapped:
		h.order, h.nanos = binary.BigEndian, true
	default:
		return GlobalHeader{}, fmt.Errorf("%w: magic number 0x%08x", ErrUnknownFormat, raw)
	}

	h.Magic = h.order.Uint32(b[0:4])
	h.VersionMajor = h.order.Uint16(b[4:6])
	h.VersionMinor = h.order.Uint16(b[6:8])
	h.ThisZone = int32(h.order.Uint32(b[8:12]))
	h.SigFigs = h.order.Uint32(b[12:16])
	h.SnapLen = h.order.Uint32(b[16:20])
	h.Network = h.order.Uint32(b[20:24])
	return h, nil
}

// RecordHeader precedes every record in the container.
type RecordHeader struct {
	TsSec          uint32
	TsUsec         uint32 // sub-second part in microseconds
	TsFraction     uint32 // sub-second part as recorded (µs or ns, see GlobalHeader.Nanosecond)
	CapturedLength uint32
	OriginalLength uint32
}

func (h GlobalHeader) parseRecordHeader(b []byte) RecordHeader {
	rh := RecordHeader{
		TsSec:          h.order.Uint32(b[0:4]),
		TsFraction:     h.order.Uint32(b[4:8]),
		CapturedLength: h.order.Uint32(b[8:12]),
		OriginalLength: h.order.Uint32(b[12:16]),
	}
	rh.TsUsec = rh.TsFraction
	if h.nanos {
		rh.TsUsec = rh.TsFraction / 1000
	}
	return rh
}

// Kind classifies a record by its original length.
type Kind int

const (
	KindUnknown Kind = iota
	KindData
	KindPosition
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindPosition:
		return "position"
	default:
		return "unknown"
	}
}

// Classify maps an original record length to its Kind. Only exact matches
// qualify.
func Classify(originalLength uint32) Kind {
	switch originalLength {
	case DATA_RECORD_LENGTH:
		return KindData
	case POSITION_RECORD_LENGTH:
		return KindPosition
	default:
		return KindUnknown
	}
}

// Record is one classified container record. Data holds the full record body
// including the link-layer header.
type Record struct {
	Header RecordHeader
	Kind   Kind
	Data   []byte
}

// Payload returns the bytes following the link-layer header.
func (r *Record) Payload() []byte {
	if len(r.Data) < LINK_HEADER_SIZE {
		return nil
	}
	return r.Data[LINK_HEADER_SIZE:]
}
