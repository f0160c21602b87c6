// Command pcap-inspect summarises a Velodyne capture file: container header,
// timestamp mode, record counts, detected hardware and scan timing.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/lidar.replay/internal/lidar/geometry"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
	"github.com/banshee-data/lidar.replay/internal/monitoring"
)

// Report is the summary printed for one capture.
type Report struct {
	Path             string  `json:"path"`
	Session          string  `json:"session"`
	Version          string  `json:"version"`
	ByteOrder        string  `json:"byte_order"`
	Nanosecond       bool    `json:"nanosecond"`
	TimestampMode    string  `json:"timestamp_mode"`
	Decision         string  `json:"decision"`
	Model            string  `json:"model"`
	Scans            int     `json:"scans"`
	Points           int     `json:"points"`
	DataRecords      int     `json:"data_records"`
	PositionRecords  int     `json:"position_records"`
	SkippedRecords   int     `json:"skipped_records"`
	FirstScanUs      uint64  `json:"first_scan_us"`
	LastScanUs       uint64  `json:"last_scan_us"`
	MeanScanPeriodUs float64 `json:"mean_scan_period_us"`
	StopReason       string  `json:"stop_reason"`
}

func main() {
	pcapFile := flag.String("pcap", "", "Path to the capture file (required)")
	maxScans := flag.Int("scans", 0, "Stop after this many scans (0 = whole file)")
	maxRange := flag.Float64("max-range", geometry.DefaultMaxRangeMeters, "Range ceiling used when counting points")
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	logLevel := flag.String("log-level", "ops", "Log level: off, ops, diag or trace")
	flag.Parse()

	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}
	if _, err := monitoring.ConfigureLogging(*logLevel, os.Stderr); err != nil {
		log.Fatal(err)
	}

	rep, err := inspect(*pcapFile, *maxScans, *maxRange)
	if err != nil {
		log.Fatalf("Inspect failed: %v", err)
	}
	if err := writeReport(os.Stdout, rep, *asJSON); err != nil {
		log.Fatal(err)
	}
}

// inspect reads up to maxScans scans (all when maxScans <= 0) from path.
func inspect(path string, maxScans int, maxRange float64) (*Report, error) {
	s, err := velodyne.OpenSession(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	h := s.Header()
	rep := &Report{
		Path:       path,
		Session:    s.ID,
		Version:    h.Version(),
		ByteOrder:  h.ByteOrder().String(),
		Nanosecond: h.Nanosecond(),
		Model:      velodyne.ModelUnknown.String(),
	}
	d := s.Decision()
	rep.TimestampMode = d.Mode.String()
	rep.Decision = d.String()

	recon := geometry.NewReconstructor(maxRange, geometry.DefaultSpinRPM)
	var (
		scan  velodyne.Scan
		cloud geometry.PointCloud
	)
	for maxScans <= 0 || rep.Scans < maxScans {
		if err := s.ReadScan(&scan); err != nil {
			if !errors.Is(err, velodyne.ErrScanExhausted) {
				return nil, err
			}
			rep.StopReason = err.Error()
			break
		}
		if rep.Scans == 0 {
			rep.FirstScanUs = scan.TimestampUs
		}
		rep.LastScanUs = scan.TimestampUs
		rep.Scans++
		cloud = recon.PopulateCloud(&scan, cloud[:0])
		rep.Points += len(cloud)
	}
	if rep.StopReason == "" {
		rep.StopReason = fmt.Sprintf("scan limit %d reached", maxScans)
	}

	if m, ok := s.Model(); ok {
		rep.Model = m.String()
	}
	if rep.Scans > 1 && rep.LastScanUs >= rep.FirstScanUs {
		rep.MeanScanPeriodUs = float64(rep.LastScanUs-rep.FirstScanUs) / float64(rep.Scans-1)
	}
	st := s.Stats()
	rep.DataRecords, rep.PositionRecords, rep.SkippedRecords = st.Data, st.Position, st.Skipped
	return rep, nil
}

func writeReport(w io.Writer, rep *Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	_, err := fmt.Fprintf(w, `capture:    %s
session:    %s
container:  v%s, %s, nanosecond=%t
timestamps: %s
model:      %s
records:    %d data, %d position, %d skipped
scans:      %d (%d points)
scan span:  %d..%d us, mean period %.0f us
stopped:    %s
`,
		rep.Path, rep.Session,
		rep.Version, rep.ByteOrder, rep.Nanosecond,
		rep.Decision, rep.Model,
		rep.DataRecords, rep.PositionRecords, rep.SkippedRecords,
		rep.Scans, rep.Points,
		rep.FirstScanUs, rep.LastScanUs, rep.MeanScanPeriodUs,
		rep.StopReason)
	return err
}
