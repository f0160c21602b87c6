package velodyne

import (
	"encoding/binary"
	"fmt"
)

/*
Velodyne Data Packet Layout

Every data packet carries 1206 bytes of UDP payload and has the same shape for
all three supported sensors. Fields are little-endian.

PACKET STRUCTURE (1206 bytes total):
├── Data Blocks (1200 bytes) - 12 blocks × 100 bytes each, starting at offset 0
│   └── Each block: 2-byte flag (0xEEFF upper / 0xDDFF lower) + 2-byte azimuth
│       + 32 returns × 3 bytes (2-byte range tick + 1-byte reflectivity)
├── Device timestamp (4 bytes) - microseconds past the hour, offset 1200
└── Factory bytes (2 bytes) - offset 1204; the high byte identifies the model

How the 12 blocks map onto firing sequences depends on the model: the 32-beam
sensors fire every beam once per block, while the VLP-16 fires its 16 beams
twice per block. See decoder.go.
*/

const (
	PACKET_SIZE        = 1206
	BLOCKS_PER_PACKET  = 12
	RETURNS_PER_BLOCK  = 32
	BYTES_PER_RETURN   = 3
	BLOCK_HEADER_SIZE  = 4                                                      // flag + azimuth
	BLOCK_SIZE         = BLOCK_HEADER_SIZE + RETURNS_PER_BLOCK*BYTES_PER_RETURN // 100
	TIMESTAMP_OFFSET   = BLOCKS_PER_PACKET * BLOCK_SIZE                         // 1200
	FACTORY_OFFSET     = TIMESTAMP_OFFSET + 4                                   // 1204
	FLAG_UPPER_BLOCK   = 0xEEFF
	FLAG_LOWER_BLOCK   = 0xDDFF
	ROTATION_MAX_UNITS = 36000 // azimuth ticks per revolution (0.01°)
)

// Return is one beam reading.
type Return struct {
	Distance     uint16 // range tick, 2 mm per LSB (0 = no return)
	Reflectivity uint8
}

// Firing is one azimuth sample with up to 32 beam readings. For the VLP-16
// only the first 16 slots are populated.
type Firing struct {
	Flag    uint16
	Azimuth uint16 // 0.01° ticks
	Returns [RETURNS_PER_BLOCK]Return
}

// Packet is a decoded data packet.
type Packet struct {
	Blocks          [BLOCKS_PER_PACKET]Firing
	DeviceTimestamp uint32
	Factory         uint16
}

// ModelByte returns the high byte of the factory field.
func (p *Packet) ModelByte() byte {
	return byte(p.Factory >> 8)
}

// ParsePacket decodes a data packet payload into pkt, overwriting every field.
func ParsePacket(data []byte, pkt *Packet) error {
	if len(data) < PACKET_SIZE {
		return fmt.Errorf("data packet too short: need %d bytes, have %d", PACKET_SIZE, len(data))
	}

	for b := 0; b < BLOCKS_PER_PACKET; b++ {
		off := b * BLOCK_SIZE
		blk := &pkt.Blocks[b]
		blk.Flag = binary.LittleEndian.Uint16(data[off : off+2])
		blk.Azimuth = binary.LittleEndian.Uint16(data[off+2 : off+4])

		off += BLOCK_HEADER_SIZE
		for r := 0; r < RETURNS_PER_BLOCK; r++ {
			blk.Returns[r] = Return{
				Distance:     binary.LittleEndian.Uint16(data[off : off+2]),
				Reflectivity: data[off+2],
			}
			off += BYTES_PER_RETURN
		}
	}

	pkt.DeviceTimestamp = binary.LittleEndian.Uint32(data[TIMESTAMP_OFFSET : TIMESTAMP_OFFSET+4])
	pkt.Factory = binary.LittleEndian.Uint16(data[FACTORY_OFFSET : FACTORY_OFFSET+2])
	return nil
}

// EncodePacket is the inverse of ParsePacket.
func EncodePacket(pkt *Packet) []byte {
	data := make([]byte, PACKET_SIZE)
	for b := 0; b < BLOCKS_PER_PACKET; b++ {
		off := b * BLOCK_SIZE
		blk := &pkt.Blocks[b]
		binary.LittleEndian.PutUint16(data[off:off+2], blk.Flag)
		binary.LittleEndian.PutUint16(data[off+2:off+4], blk.Azimuth)

		off += BLOCK_HEADER_SIZE
		for r := 0; r < RETURNS_PER_BLOCK; r++ {
			binary.LittleEndian.PutUint16(data[off:off+2], blk.Returns[r].Distance)
			data[off+2] = blk.Returns[r].Reflectivity
			off += BYTES_PER_RETURN
		}
	}
	binary.LittleEndian.PutUint32(data[TIMESTAMP_OFFSET:TIMESTAMP_OFFSET+4], pkt.DeviceTimestamp)
	binary.LittleEndian.PutUint16(data[FACTORY_OFFSET:FACTORY_OFFSET+2], pkt.Factory)
	return data
}
