package lidar

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLogWriters(t *testing.T) {
	var buf bytes.Buffer

	tests := []struct {
		level            string
		ops, diag, trace bool
		wantErr          bool
	}{
		{"off", false, false, false, false},
		{"", true, false, false, false},
		{"ops", true, false, false, false},
		{" DIAG ", true, true, false, false},
		{"trace", true, true, true, false},
		{"verbose", false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			w, err := NewLogWriters(tt.level, &buf)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogWriters(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if got := w.Ops != nil; got != tt.ops {
				t.Errorf("Ops set = %v, want %v", got, tt.ops)
			}
			if got := w.Diag != nil; got != tt.diag {
				t.Errorf("Diag set = %v, want %v", got, tt.diag)
			}
			if got := w.Trace != nil; got != tt.trace {
				t.Errorf("Trace set = %v, want %v", got, tt.trace)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	if l := NewLogger("[x] ", nil); l != nil {
		t.Error("NewLogger(nil) should return nil")
	}

	var buf bytes.Buffer
	l := NewLogger("[capture] ", &buf)
	if l == nil {
		t.Fatal("NewLogger returned nil for a writer")
	}
	l.Printf("test message: %d", 42)

	out := buf.String()
	if !strings.HasPrefix(out, "[capture] ") {
		t.Errorf("output = %q, want [capture] prefix", out)
	}
	if !strings.Contains(out, "test message: 42") {
		t.Errorf("output = %q, want to contain 'test message: 42'", out)
	}
}
