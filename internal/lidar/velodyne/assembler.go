package velodyne

import (
	"errors"
	"fmt"
)

// ErrScanExhausted is returned when a full scan could not be assembled,
// normally because the capture has no more data packets. The scan passed to
// the failed read is discarded.
var ErrScanExhausted = errors.New("scan exhausted")

// PacketSource yields data packets in capture order together with their
// capture timestamp in microseconds.
type PacketSource interface {
	NextPacket(pkt *Packet) (timestampUs uint64, err error)
}

// Assembler accumulates packets from a PacketSource into scans. The hardware
// model is detected from the first packet it reads and stays fixed afterwards.
type Assembler struct {
	src      PacketSource
	model    HardwareModel
	detected bool
	decoder  Decoder
	pkt      Packet

	// OnDetect, if set, is called once with the detected model and the
	// packet it was detected from.
	OnDetect func(model HardwareModel, pkt *Packet)
}

// NewAssembler creates an assembler reading from src.
func NewAssembler(src PacketSource) *Assembler {
	return &Assembler{src: src}
}

// Model returns the detected hardware model and whether detection has run.
func (a *Assembler) Model() (HardwareModel, bool) {
	return a.model, a.detected
}

// Assemble reads exactly Configuration.BlocksPerScan packets into scan. On
// any failure the scan is discarded and the returned error wraps
// ErrScanExhausted together with the underlying cause.
func (a *Assembler) Assemble(scan *Scan) error {
	ts, err := a.src.NextPacket(&a.pkt)
	if err != nil {
		scan.discard()
		return fmt.Errorf("%w: %w", ErrScanExhausted, err)
	}
	if !a.detected {
		a.detect()
	}

	cfg := a.model.Profile().Configuration
	scan.reset(a.model)

	for i := 0; i < cfg.BlocksPerScan; i++ {
		if i > 0 {
			ts, err = a.src.NextPacket(&a.pkt)
			if err != nil {
				scan.discard()
				return fmt.Errorf("%w after %d of %d packets: %w", ErrScanExhausted, i, cfg.BlocksPerScan, err)
			}
		}
		if err := a.decoder.Decode(&a.pkt, scan, i); err != nil {
			scan.discard()
			return fmt.Errorf("%w: %w", ErrScanExhausted, err)
		}
		scan.BlockTimestampsUs[i] = ts
	}

	scan.TimestampUs = scan.BlockTimestampsUs[cfg.BlocksPerScan-1]
	tracef("assembled %s scan: %d packets, %d firings, ts=%dus",
		a.model, cfg.BlocksPerScan, len(scan.Firings), scan.TimestampUs)
	return nil
}

func (a *Assembler) detect() {
	a.model = Detect(a.pkt.ModelByte())
	a.detected = true
	a.decoder = NewDecoder(a.model)

	if a.model == ModelUnknown {
		opsf("unknown hardware factory byte 0x%02x, decoding with %s profile",
			a.pkt.ModelByte(), a.model.Profile().Model)
	} else {
		diagf("detected %s (factory byte 0x%02x)", a.model, a.pkt.ModelByte())
	}
	if a.OnDetect != nil {
		a.OnDetect(a.model, &a.pkt)
	}
}
