// Command gen-capture writes a synthetic Velodyne capture file for testing
// replay without sensor hardware.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/synth"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

// genOptions selects the sweep and the container it is written into.
type genOptions struct {
	sweep     synth.SweepOptions
	nanos     bool
	version   string // "" writes the default 2.4 container
	bigEndian bool
}

func main() {
	output := flag.String("o", "sample.pcap", "output path")
	model := flag.String("model", "hdl32", "hardware model: vlp16, hdl32 or vlp32c")
	factory := flag.Uint("factory", 0, "override the factory byte (e.g. 0x99 for unsupported hardware)")
	scans := flag.Int("scans", 10, "number of full rotations")
	rangeMeters := flag.Float64("range", 10, "nominal surface range in meters")
	positionEvery := flag.Int("position-every", 0, "insert a position packet after every Nth data packet")
	nanos := flag.Bool("nanos", false, "write nanosecond timestamps")
	version := flag.String("version", "", "container version major.minor, e.g. 2.2 (default 2.4)")
	bigEndian := flag.Bool("big-endian", false, "write big-endian header fields")
	flag.Parse()

	m, err := velodyne.ParseModel(*model)
	if err != nil {
		log.Fatal(err)
	}
	if *factory > 0xff {
		log.Fatalf("-factory must fit in one byte, got %#x", *factory)
	}

	opts := genOptions{
		sweep:     synth.DefaultSweepOptions(),
		nanos:     *nanos,
		version:   *version,
		bigEndian: *bigEndian,
	}
	opts.sweep.Model = m
	opts.sweep.FactoryByte = byte(*factory)
	opts.sweep.Scans = *scans
	opts.sweep.RangeMeters = *rangeMeters
	opts.sweep.PositionEvery = *positionEvery

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	w := bufio.NewWriter(f)
	n, err := generate(w, opts)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s (%s, %d scans, %d records)", *output, m, *scans, n)
}

// generate writes the sweep described by opts to w and returns the number of
// records written.
func generate(w io.Writer, opts genOptions) (int, error) {
	if opts.sweep.Scans < 1 {
		return 0, fmt.Errorf("scans must be positive, got %d", opts.sweep.Scans)
	}
	records, err := synth.SweepRecords(opts.sweep)
	if err != nil {
		return 0, err
	}
	if opts.nanos {
		for i := range records {
			records[i].TsUsec *= 1000
		}
	}

	if opts.version == "" && !opts.bigEndian {
		return len(records), synth.WriteCapture(w, synth.Options{Nanosecond: opts.nanos}, records)
	}

	major, minor, err := parseVersion(opts.version)
	if err != nil {
		return 0, err
	}
	raw := synth.RawOptions{VersionMajor: major, VersionMinor: minor}
	switch {
	case opts.nanos && opts.bigEndian:
		raw.Magic = capture.MagicNanosecondsSwapped
	case opts.nanos:
		raw.Magic = capture.MagicNanoseconds
	case opts.bigEndian:
		raw.Magic = capture.MagicMicrosecondsSwapped
	default:
		raw.Magic = capture.MagicMicroseconds
	}
	return len(records), synth.WriteRawCapture(w, raw, records)
}

func parseVersion(s string) (uint16, uint16, error) {
	if s == "" {
		return 2, 4, nil
	}
	majorStr, minorStr, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("version must be major.minor, got %q", s)
	}
	major, err := strconv.ParseUint(majorStr, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid major version %q: %w", majorStr, err)
	}
	minor, err := strconv.ParseUint(minorStr, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minor version %q: %w", minorStr, err)
	}
	return uint16(major), uint16(minor), nil
}
