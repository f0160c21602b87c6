package velodyne

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/timescale"
)

// ErrSessionClosed is returned by reads on a closed session.
var ErrSessionClosed = errors.New("session closed")

// Session owns one opened capture: the file handle, the timestamp mode
// resolved at open, and the scan assembly state. A Session is not safe for
// concurrent use.
type Session struct {
	ID   string
	Path string

	reader    *capture.Reader
	decision  timescale.Decision
	assembler *Assembler
	last      *capture.Record
	scans     int
	closed    bool
}

// OpenSession opens the capture at path and resolves its timestamp mode.
// Missing or unreadable files and unrecognised formats fail here.
func OpenSession(path string) (*Session, error) {
	r, err := capture.Open(path)
	if err != nil {
		return nil, err
	}
	return newSession(path, r), nil
}

// NewSession wraps an already opened reader. The session takes ownership of
// the reader and closes it on Close.
func NewSession(r *capture.Reader) *Session {
	return newSession("", r)
}

func newSession(path string, r *capture.Reader) *Session {
	h := r.Header()
	s := &Session{
		ID:       uuid.NewString(),
		Path:     path,
		reader:   r,
		decision: timescale.Arbitrate(h.VersionMajor, h.VersionMinor, r),
	}
	s.assembler = NewAssembler(s)
	s.assembler.OnDetect = s.logLinkLayer
	diagf("session %s: capture version %s, timestamps %s", s.ID, h.Version(), s.decision)
	return s
}

// Mode returns the timestamp mode fixed at open.
func (s *Session) Mode() timescale.Mode {
	return s.decision.Mode
}

// Decision returns the full timestamp arbitration outcome.
func (s *Session) Decision() timescale.Decision {
	return s.decision
}

// Model returns the detected hardware model, and false until the first scan
// has been read.
func (s *Session) Model() (HardwareModel, bool) {
	return s.assembler.Model()
}

// Header returns the capture's global header.
func (s *Session) Header() capture.GlobalHeader {
	return s.reader.Header()
}

// Stats returns the underlying record counters.
func (s *Session) Stats() capture.Stats {
	return s.reader.Stats()
}

// Scans returns the number of scans assembled so far.
func (s *Session) Scans() int {
	return s.scans
}

// NextPacket implements PacketSource over the capture's data records.
func (s *Session) NextPacket(pkt *Packet) (uint64, error) {
	rec, err := s.reader.NextData()
	if err != nil {
		return 0, err
	}
	if err := ParsePacket(rec.Payload(), pkt); err != nil {
		return 0, err
	}
	s.last = rec
	return s.decision.Mode.Microseconds(rec.Header.TsSec, rec.Header.TsUsec), nil
}

// ReadScan assembles the next scan into scan. The error wraps
// ErrScanExhausted when the capture runs out, and io.EOF in that case.
func (s *Session) ReadScan(scan *Scan) error {
	if s.closed {
		return fmt.Errorf("%w: %w", ErrScanExhausted, ErrSessionClosed)
	}
	if err := s.assembler.Assemble(scan); err != nil {
		if errors.Is(err, io.EOF) {
			diagf("session %s: end of capture after %d scans (%+v)", s.ID, s.scans, s.reader.Stats())
		} else {
			opsf("session %s: read scan: %v", s.ID, err)
		}
		return err
	}
	s.scans++
	return nil
}

// Close releases the capture file. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.reader.Close()
}

func (s *Session) logLinkLayer(model HardwareModel, _ *Packet) {
	if s.last == nil {
		return
	}
	info, err := capture.DecodeLinkLayer(s.last.Data)
	if err != nil {
		diagf("session %s: %s stream, link layer not decodable: %v", s.ID, model, err)
		return
	}
	diagf("session %s: %s stream from %s", s.ID, model, info)
}
