package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.SensorKind == nil || *cfg.SensorKind != "velodyne" {
		t.Errorf("Expected SensorKind 'velodyne', got %v", cfg.SensorKind)
	}
	if cfg.MaxRangeMeters == nil || *cfg.MaxRangeMeters != 120 {
		t.Errorf("Expected MaxRangeMeters 120, got %v", cfg.MaxRangeMeters)
	}
	if cfg.TargetFrameDuration == nil || *cfg.TargetFrameDuration != "33ms" {
		t.Errorf("Expected TargetFrameDuration '33ms', got %v", cfg.TargetFrameDuration)
	}
	if cfg.StopOnExhausted == nil || *cfg.StopOnExhausted != false {
		t.Errorf("Expected StopOnExhausted false, got %v", cfg.StopOnExhausted)
	}

	// The defaults file must agree with the built-in fallbacks.
	empty := EmptyReplayConfig()
	if cfg.GetSensorKind() != empty.GetSensorKind() {
		t.Errorf("GetSensorKind() = %q, fallback %q", cfg.GetSensorKind(), empty.GetSensorKind())
	}
	if cfg.GetMaxRangeMeters() != empty.GetMaxRangeMeters() {
		t.Errorf("GetMaxRangeMeters() = %f, fallback %f", cfg.GetMaxRangeMeters(), empty.GetMaxRangeMeters())
	}
	if cfg.GetVerticalFovDegrees() != empty.GetVerticalFovDegrees() {
		t.Errorf("GetVerticalFovDegrees() = %f, fallback %f", cfg.GetVerticalFovDegrees(), empty.GetVerticalFovDegrees())
	}
	if cfg.GetSpinRPM() != empty.GetSpinRPM() {
		t.Errorf("GetSpinRPM() = %f, fallback %f", cfg.GetSpinRPM(), empty.GetSpinRPM())
	}
	if cfg.GetReplaySpeed() != empty.GetReplaySpeed() {
		t.Errorf("GetReplaySpeed() = %f, fallback %f", cfg.GetReplaySpeed(), empty.GetReplaySpeed())
	}
	if cfg.GetTargetFrameDuration() != empty.GetTargetFrameDuration() {
		t.Errorf("GetTargetFrameDuration() = %v, fallback %v", cfg.GetTargetFrameDuration(), empty.GetTargetFrameDuration())
	}
	if cfg.GetMaxFrames() != empty.GetMaxFrames() {
		t.Errorf("GetMaxFrames() = %d, fallback %d", cfg.GetMaxFrames(), empty.GetMaxFrames())
	}
	if cfg.GetSnapshotEvery() != empty.GetSnapshotEvery() {
		t.Errorf("GetSnapshotEvery() = %d, fallback %d", cfg.GetSnapshotEvery(), empty.GetSnapshotEvery())
	}
	if cfg.GetSnapshotMaxPoints() != empty.GetSnapshotMaxPoints() {
		t.Errorf("GetSnapshotMaxPoints() = %d, fallback %d", cfg.GetSnapshotMaxPoints(), empty.GetSnapshotMaxPoints())
	}
	if cfg.GetChartMaxPoints() != empty.GetChartMaxPoints() {
		t.Errorf("GetChartMaxPoints() = %d, fallback %d", cfg.GetChartMaxPoints(), empty.GetChartMaxPoints())
	}
	if cfg.GetLogLevel() != empty.GetLogLevel() {
		t.Errorf("GetLogLevel() = %q, fallback %q", cfg.GetLogLevel(), empty.GetLogLevel())
	}
}

func TestEmptyReplayConfigDefaults(t *testing.T) {
	cfg := EmptyReplayConfig()

	if got := cfg.GetSensorKind(); got != "velodyne" {
		t.Errorf("GetSensorKind() = %q, want velodyne", got)
	}
	if got := cfg.GetMaxRangeMeters(); got != 120 {
		t.Errorf("GetMaxRangeMeters() = %f, want 120", got)
	}
	if got := cfg.GetVerticalFovDegrees(); got != 30 {
		t.Errorf("GetVerticalFovDegrees() = %f, want 30", got)
	}
	if got := cfg.GetSpinRPM(); got != 600 {
		t.Errorf("GetSpinRPM() = %f, want 600", got)
	}
	if got := cfg.GetTargetFrameDuration(); got != 33*time.Millisecond {
		t.Errorf("GetTargetFrameDuration() = %v, want 33ms", got)
	}
	if got := cfg.GetStopOnExhausted(); got {
		t.Errorf("GetStopOnExhausted() = %v, want false", got)
	}
	if got := cfg.GetLogLevel(); got != "ops" {
		t.Errorf("GetLogLevel() = %q, want ops", got)
	}
}

func TestLoadReplayConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "replay.json")

	testJSON := `{
  "sensor_kind": "velodyne_vlp",
  "replay_speed": 4,
  "target_frame_duration": "100ms",
  "stop_on_exhausted": true,
  "max_frames": 25
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadReplayConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetSensorKind(); got != "velodyne_vlp" {
		t.Errorf("GetSensorKind() = %q, want velodyne_vlp", got)
	}
	// Omitted fields fall back to defaults.
	if got := cfg.GetMaxRangeMeters(); got != 120 {
		t.Errorf("GetMaxRangeMeters() = %f, want 120", got)
	}

	sc := cfg.SchedulerConfig()
	if sc.ReplaySpeed != 4 {
		t.Errorf("ReplaySpeed = %f, want 4", sc.ReplaySpeed)
	}
	if sc.TargetFrameDuration != 100*time.Millisecond {
		t.Errorf("TargetFrameDuration = %v, want 100ms", sc.TargetFrameDuration)
	}
	if !sc.StopOnExhausted {
		t.Error("StopOnExhausted = false, want true")
	}
	if sc.MaxFrames != 25 {
		t.Errorf("MaxFrames = %d, want 25", sc.MaxFrames)
	}
	if sc.Clock == nil {
		t.Error("Clock should default to the real clock")
	}
}

func TestLoadReplayConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	write := func(name, body string) string {
		t.Helper()
		p := filepath.Join(tmpDir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantSub string
	}{
		{"missing", filepath.Join(tmpDir, "nope.json"), "stat"},
		{"extension", write("replay.yaml", "{}"), ".json extension"},
		{"invalid json", write("bad.json", `{"replay_speed": "fast"`), "parse"},
		{"invalid value", write("spin.json", `{"spin_rpm": 0}`), "spin_rpm"},
		{"too large", write("big.json", `{"log_level":"ops"}`+strings.Repeat(" ", 1024*1024)), "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadReplayConfig(tt.path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	str := func(s string) *string { return &s }
	f64 := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }

	tests := []struct {
		name    string
		cfg     ReplayConfig
		wantErr bool
	}{
		{"empty", ReplayConfig{}, false},
		{"kind mixed case", ReplayConfig{SensorKind: str(" Velodyne_HDL ")}, false},
		{"unknown kind", ReplayConfig{SensorKind: str("ouster")}, true},
		{"range floor", ReplayConfig{MaxRangeMeters: f64(0.01)}, false},
		{"range below floor", ReplayConfig{MaxRangeMeters: f64(0)}, false},
		{"range nan", ReplayConfig{MaxRangeMeters: f64(math.NaN())}, true},
		{"fov zero", ReplayConfig{VerticalFovDegrees: f64(0)}, true},
		{"fov too wide", ReplayConfig{VerticalFovDegrees: f64(181)}, true},
		{"spin negative", ReplayConfig{SpinRPM: f64(-600)}, true},
		{"speed below floor", ReplayConfig{ReplaySpeed: f64(0.005)}, false},
		{"speed nan", ReplayConfig{ReplaySpeed: f64(math.NaN())}, true},
		{"speed ok", ReplayConfig{ReplaySpeed: f64(0.5)}, false},
		{"bad duration", ReplayConfig{TargetFrameDuration: str("soon")}, true},
		{"negative duration", ReplayConfig{TargetFrameDuration: str("-1s")}, true},
		{"snapshot every negative", ReplayConfig{SnapshotEvery: i(-1)}, true},
		{"snapshot points zero", ReplayConfig{SnapshotMaxPoints: i(0)}, true},
		{"chart points zero", ReplayConfig{ChartMaxPoints: i(0)}, true},
		{"log level", ReplayConfig{LogLevel: str("trace")}, false},
		{"bad log level", ReplayConfig{LogLevel: str("verbose")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetTargetFrameDurationFallback(t *testing.T) {
	bad := "later"
	cfg := &ReplayConfig{TargetFrameDuration: &bad}
	if got := cfg.GetTargetFrameDuration(); got != 33*time.Millisecond {
		t.Errorf("GetTargetFrameDuration() = %v, want 33ms on parse error", got)
	}
}

func TestBelowFloorValuesAreClamped(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "slow.json")
	body := `{"max_range_meters": 0, "replay_speed": 0.005}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadReplayConfig(path)
	if err != nil {
		t.Fatalf("LoadReplayConfig() error = %v", err)
	}
	if got := cfg.GetMaxRangeMeters(); got != 0.01 {
		t.Errorf("GetMaxRangeMeters() = %f, want 0.01", got)
	}
	if got := cfg.GetReplaySpeed(); got != 0.01 {
		t.Errorf("GetReplaySpeed() = %f, want 0.01", got)
	}
	if got := cfg.SchedulerConfig().ReplaySpeed; got != 0.01 {
		t.Errorf("SchedulerConfig().ReplaySpeed = %f, want 0.01", got)
	}
}
