package velodyne

import "fmt"

// Decoder writes the firing sequences of one packet into a scan.
type Decoder interface {
	// Decode fills the firings contributed by the packet at packetIndex
	// within the scan.
	Decode(pkt *Packet, scan *Scan, packetIndex int) error
}

// NewDecoder returns the decoder for model. Unknown hardware is decoded as
// HDL-32E.
func NewDecoder(model HardwareModel) Decoder {
	if model == ModelVLP16 {
		return &interleavedDecoder{}
	}
	return directDecoder{}
}

// directDecoder maps each hardware block onto one firing sequence. All 32
// beams of a block fire together (HDL-32E, VLP-32C).
type directDecoder struct{}

func (directDecoder) Decode(pkt *Packet, scan *Scan, packetIndex int) error {
	base := packetIndex * BLOCKS_PER_PACKET
	if packetIndex < 0 || base+BLOCKS_PER_PACKET > len(scan.Firings) {
		return fmt.Errorf("packet %d exceeds scan capacity %d", packetIndex, len(scan.Firings))
	}
	copy(scan.Firings[base:base+BLOCKS_PER_PACKET], pkt.Blocks[:])
	return nil
}

// VLP-16 beams per firing sequence.
const vlp16Beams = 16

// interleavedDecoder splits each VLP-16 hardware block into two firing
// sequences of 16 beams. The even sequence carries the block's own azimuth;
// the odd sequence is placed half way to the next block's azimuth. The last
// block of a packet has no successor and reuses the half-delta computed for
// the block before it in the same packet.
type interleavedDecoder struct {
	azimuthChange int
}

func (d *interleavedDecoder) Decode(pkt *Packet, scan *Scan, packetIndex int) error {
	const perPacket = 2 * BLOCKS_PER_PACKET
	base := packetIndex * perPacket
	if packetIndex < 0 || base+perPacket > len(scan.Firings) {
		return fmt.Errorf("packet %d exceeds scan capacity %d", packetIndex, len(scan.Firings))
	}

	for k := 0; k < BLOCKS_PER_PACKET; k++ {
		blk := &pkt.Blocks[k]

		even := &scan.Firings[base+2*k]
		*even = Firing{Flag: blk.Flag, Azimuth: blk.Azimuth}
		copy(even.Returns[:vlp16Beams], blk.Returns[:vlp16Beams])

		if k < BLOCKS_PER_PACKET-1 {
			d.azimuthChange = (int(pkt.Blocks[k+1].Azimuth) - int(blk.Azimuth)) / 2
		}

		odd := &scan.Firings[base+2*k+1]
		*odd = Firing{Flag: even.Flag, Azimuth: uint16(int(even.Azimuth) + d.azimuthChange)}
		copy(odd.Returns[:vlp16Beams], blk.Returns[vlp16Beams:])
	}
	return nil
}
