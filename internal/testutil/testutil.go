// Package testutil provides shared test utilities and fixtures.
//
// The fixtures write synthetic captures into a per-test temporary directory
// so that tests exercise the same file-opening path as a real replay.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/lidar.replay/internal/lidar/synth"
)

// WriteCapture writes records as a pcapgo container under t.TempDir and
// returns its path.
func WriteCapture(t *testing.T, opts synth.Options, records []synth.Record) string {
	t.Helper()
	var buf bytes.Buffer
	if err := synth.WriteCapture(&buf, opts, records); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return WriteFile(t, "capture.pcap", buf.Bytes())
}

// WriteSweep writes the synthetic sweep described by opts and returns the
// capture path.
func WriteSweep(t *testing.T, opts synth.SweepOptions) string {
	t.Helper()
	records, err := synth.SweepRecords(opts)
	if err != nil {
		t.Fatalf("sweep records: %v", err)
	}
	return WriteCapture(t, synth.Options{}, records)
}

// WriteFile writes data to name under a fresh t.TempDir and returns the path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
