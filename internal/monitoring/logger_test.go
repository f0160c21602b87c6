package monitoring

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
	"github.com/banshee-data/lidar.replay/internal/lidar/sink"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, format)
	})
	Logf("replaying %s", "a.pcap")
	if len(got) != 1 || got[0] != "replaying %s" {
		t.Errorf("custom logger saw %v", got)
	}

	// nil installs a no-op.
	SetLogger(nil)
	Logf("dropped")
	if len(got) != 1 {
		t.Errorf("no-op logger reached the previous logger: %v", got)
	}
}

func TestConfigureLogging(t *testing.T) {
	var buf bytes.Buffer

	w, err := ConfigureLogging("diag", &buf)
	if err != nil {
		t.Fatalf("ConfigureLogging: %v", err)
	}
	defer ConfigureLogging("off", nil)

	if w.Ops == nil || w.Diag == nil {
		t.Error("diag level should enable ops and diag")
	}
	if w.Trace != nil {
		t.Error("diag level should leave trace disabled")
	}

	// Frames flow through the sink logger on the diag stream.
	if err := sink.Logger.Deliver(&replay.Frame{Sequence: 42}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "[sink] ") || !strings.Contains(out, "frame 42") {
		t.Errorf("expected sink diag line, got %q", out)
	}
}

func TestConfigureLogging_UnknownLevel(t *testing.T) {
	if _, err := ConfigureLogging("chatty", io.Discard); err == nil {
		t.Error("expected error for unknown level")
	}
}
