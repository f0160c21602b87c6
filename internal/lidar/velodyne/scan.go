package velodyne

// Scan is one full rotation of assembled firings. A Scan is reused from one
// read to the next; after a failed read it is discarded and holds no firings.
type Scan struct {
	Model             HardwareModel
	TimestampUs       uint64   // timestamp of the last packet in the scan
	BlockTimestampsUs []uint64 // one entry per packet
	Firings           []Firing // len == Profile().Configuration.FiringCapacity()
}

// Profile returns the decoding profile of the scan's model.
func (s *Scan) Profile() *Profile {
	return s.Model.Profile()
}

// Valid reports whether the scan holds a fully assembled rotation.
func (s *Scan) Valid() bool {
	return len(s.Firings) > 0
}

// reset sizes the scan for model and zeroes every firing, reusing the
// existing backing arrays where they are large enough.
func (s *Scan) reset(model HardwareModel) {
	cfg := model.Profile().Configuration
	s.Model = model
	s.TimestampUs = 0

	if cap(s.Firings) < cfg.FiringCapacity() {
		s.Firings = make([]Firing, cfg.FiringCapacity())
	} else {
		s.Firings = s.Firings[:cfg.FiringCapacity()]
		clear(s.Firings)
	}

	if cap(s.BlockTimestampsUs) < cfg.BlocksPerScan {
		s.BlockTimestampsUs = make([]uint64, cfg.BlocksPerScan)
	} else {
		s.BlockTimestampsUs = s.BlockTimestampsUs[:cfg.BlocksPerScan]
		clear(s.BlockTimestampsUs)
	}
}

func (s *Scan) discard() {
	s.TimestampUs = 0
	s.Firings = s.Firings[:0]
	s.BlockTimestampsUs = s.BlockTimestampsUs[:0]
}
