package synth

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

// SweepOptions describe a synthetic recording of a spinning sensor.
type SweepOptions struct {
	Model velodyne.HardwareModel
	// FactoryByte overrides the model's factory byte when non-zero, which
	// allows recordings from unsupported hardware.
	FactoryByte byte
	Scans       int
	// RangeMeters is the nominal distance of the surrounding surface. The
	// surface is lobed so that range varies with azimuth.
	RangeMeters float64
	// DropoutEvery zeroes every Nth return; zero disables dropouts.
	DropoutEvery int
	Start        time.Time
	// PacketInterval is the capture-time spacing of data packets.
	PacketInterval time.Duration
	// PositionEvery inserts a position packet after every Nth data packet;
	// zero disables them.
	PositionEvery int
}

// DefaultSweepOptions returns a one-scan HDL-32E recording at 10 m with a
// packet interval matching a 600 RPM spin.
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		Model:          velodyne.ModelHDL32,
		Scans:          1,
		RangeMeters:    10,
		DropoutEvery:   7,
		Start:          time.Unix(1_700_000_000, 0),
		PacketInterval: 553 * time.Microsecond,
	}
}

// Sweep builds the data packets for opts.Scans full rotations, in order.
func Sweep(opts SweepOptions) []*velodyne.Packet {
	cfg := opts.Model.Profile().Configuration
	total := cfg.BlocksPerScan * opts.Scans
	blocksPerRev := float64(cfg.BlocksPerScan * velodyne.BLOCKS_PER_PACKET)
	step := velodyne.ROTATION_MAX_UNITS / blocksPerRev

	factory := opts.FactoryByte
	if factory == 0 {
		factory = opts.Model.FactoryByte()
	}

	pkts := make([]*velodyne.Packet, total)
	n := 0
	for p := 0; p < total; p++ {
		pkt := &velodyne.Packet{
			DeviceTimestamp: uint32(int64(p) * opts.PacketInterval.Microseconds()),
			Factory:         uint16(factory)<<8 | 0x37,
		}
		for b := range pkt.Blocks {
			global := p*velodyne.BLOCKS_PER_PACKET + b
			az := math.Mod(step*float64(global), velodyne.ROTATION_MAX_UNITS)
			blk := &pkt.Blocks[b]
			blk.Flag = velodyne.FLAG_UPPER_BLOCK
			blk.Azimuth = uint16(az)

			theta := az * 2 * math.Pi / velodyne.ROTATION_MAX_UNITS
			r := opts.RangeMeters * (1 + 0.25*math.Sin(3*theta))
			tick := uint16(math.Min(r/velodyne.MetersPerTick, math.MaxUint16))
			for i := range blk.Returns {
				n++
				if opts.DropoutEvery > 0 && n%opts.DropoutEvery == 0 {
					continue
				}
				blk.Returns[i] = velodyne.Return{Distance: tick, Reflectivity: uint8(8 * i)}
			}
		}
		pkts[p] = pkt
	}
	return pkts
}

// SweepRecords frames the packets of Sweep into container records with
// capture timestamps starting at opts.Start.
func SweepRecords(opts SweepOptions) ([]Record, error) {
	pkts := Sweep(opts)
	records := make([]Record, 0, len(pkts))
	ts := opts.Start
	for i, pkt := range pkts {
		frame, err := Frame(velodyne.EncodePacket(pkt))
		if err != nil {
			return nil, fmt.Errorf("packet %d: %w", i, err)
		}
		records = append(records, recordAt(ts, frame))

		if opts.PositionEvery > 0 && (i+1)%opts.PositionEvery == 0 {
			pos, err := FrameTo(make([]byte, capture.POSITION_PAYLOAD_SIZE), PortGPS)
			if err != nil {
				return nil, fmt.Errorf("position after packet %d: %w", i, err)
			}
			records = append(records, recordAt(ts, pos))
		}
		ts = ts.Add(opts.PacketInterval)
	}
	return records, nil
}

func recordAt(t time.Time, data []byte) Record {
	return Record{
		TsSec:  uint32(t.Unix()),
		TsUsec: uint32(t.Nanosecond() / 1000),
		Data:   data,
	}
}
