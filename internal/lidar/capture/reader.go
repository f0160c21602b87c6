package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Stats counts the records a Reader has seen. PeekHeaders never changes it.
type Stats struct {
	Data     int
	Position int
	Skipped  int
}

// Reader iterates the records of a capture container. It is not safe for
// concurrent use.
type Reader struct {
	rs     io.ReadSeeker
	closer io.Closer
	header GlobalHeader
	stats  Stats
	hdrBuf [RECORD_HEADER_SIZE]byte
	closed bool
}

// Open opens the capture file at path and validates its global header.
// The file is closed again if validation fails.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read capture %s: %w", path, err)
	}
	r.closer = f
	diagf("opened %s: version %s, snaplen %d, network %d, nanosecond=%v",
		path, r.header.Version(), r.header.SnapLen, r.header.Network, r.header.Nanosecond())
	return r, nil
}

// NewReader reads the global header from rs and positions the reader at the
// first record. A header shorter than GLOBAL_HEADER_SIZE is an I/O error; an
// unrecognised magic number yields an error wrapping ErrUnknownFormat.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	buf := make([]byte, GLOBAL_HEADER_SIZE)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, fmt.Errorf("read global header: %w", err)
	}
	h, err := ParseGlobalHeader(buf)
	if err != nil {
		opsf("rejecting capture: %v", err)
		return nil, err
	}
	return &Reader{rs: rs, header: h}, nil
}

// Header returns the parsed global header.
func (r *Reader) Header() GlobalHeader {
	return r.header
}

// Stats returns the record counters accumulated by Next.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next data or position record. Records of any other length
// are skipped by seeking past their body. io.EOF is returned at the end of the
// stream, including when a header or body is truncated.
func (r *Reader) Next() (*Record, error) {
	if r.closed {
		return nil, os.ErrClosed
	}
	for {
		rh, err := r.readRecordHeader()
		if err != nil {
			return nil, err
		}

		kind := Classify(rh.OriginalLength)
		if kind == KindUnknown {
			r.stats.Skipped++
			tracef("skipping record with original length %d", rh.OriginalLength)
			if _, err := r.rs.Seek(int64(rh.OriginalLength), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip record body: %w", err)
			}
			continue
		}

		data := make([]byte, rh.OriginalLength)
		if _, err := io.ReadFull(r.rs, data); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				diagf("truncated %s record at end of capture", kind)
				return nil, io.EOF
			}
			return nil, err
		}

		switch kind {
		case KindData:
			r.stats.Data++
		case KindPosition:
			r.stats.Position++
		}
		return &Record{Header: rh, Kind: kind, Data: data}, nil
	}
}

// NextData returns the next data record, passing over position records.
func (r *Reader) NextData() (*Record, error) {
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec.Kind == KindData {
			return rec, nil
		}
	}
}

// PeekHeaders collects up to max headers of qualifying (data or position)
// records ahead of the current position, then restores the position. Unknown
// records are passed over and do not count towards max.
func (r *Reader) PeekHeaders(max int) ([]RecordHeader, error) {
	if r.closed {
		return nil, os.ErrClosed
	}
	start, err := r.rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("peek: locate position: %w", err)
	}

	var hdrs []RecordHeader
	var peekErr error
	for len(hdrs) < max {
		rh, err := r.readRecordHeader()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				peekErr = err
			}
			break
		}
		if Classify(rh.OriginalLength) != KindUnknown {
			hdrs = append(hdrs, rh)
		}
		if _, err := r.rs.Seek(int64(rh.OriginalLength), io.SeekCurrent); err != nil {
			peekErr = err
			break
		}
	}

	if _, err := r.rs.Seek(start, io.SeekStart); err != nil {
		return hdrs, fmt.Errorf("peek: restore position: %w", err)
	}
	return hdrs, peekErr
}

// Close releases the underlying file, if the reader owns one. Close is
// idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) readRecordHeader() (RecordHeader, error) {
	if _, err := io.ReadFull(r.rs, r.hdrBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return RecordHeader{}, io.EOF
		}
		return RecordHeader{}, err
	}
	return r.header.parseRecordHeader(r.hdrBuf[:]), nil
}
