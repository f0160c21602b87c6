package testutil

import (
	"os"
	"testing"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/synth"
)

func TestWriteSweep(t *testing.T) {
	t.Parallel()

	opts := synth.DefaultSweepOptions()
	opts.PositionEvery = 10
	path := WriteSweep(t, opts)

	r, err := capture.Open(path)
	if err != nil {
		t.Fatalf("open sweep: %v", err)
	}
	defer r.Close()

	for {
		if _, err := r.Next(); err != nil {
			break
		}
	}
	st := r.Stats()
	if st.Data != 181 {
		t.Errorf("data records = %d, want 181", st.Data)
	}
	if st.Position != 18 {
		t.Errorf("position records = %d, want 18", st.Position)
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := WriteFile(t, "blob.bin", []byte{1, 2, 3})
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("len = %d, want 3", len(data))
	}

	if _, err := capture.Open(path); err == nil {
		t.Error("expected error opening a 3-byte capture")
	}
}
