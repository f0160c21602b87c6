package velodyne_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/synth"
	"github.com/banshee-data/lidar.replay/internal/lidar/timescale"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

func writeSweep(t *testing.T, opts synth.SweepOptions) string {
	t.Helper()
	records, err := synth.SweepRecords(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, synth.WriteCapture(&buf, synth.Options{}, records))

	path := filepath.Join(t.TempDir(), "sweep.pcap")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestSession_ReadsScansUntilExhausted(t *testing.T) {
	t.Parallel()
	opts := synth.DefaultSweepOptions()
	opts.Model = velodyne.ModelVLP16
	opts.Scans = 2
	opts.PositionEvery = 10
	path := writeSweep(t, opts)

	s, err := velodyne.OpenSession(path)
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, timescale.Corrected, s.Mode(), s.Decision().String())
	_, detected := s.Model()
	assert.False(t, detected)

	var scan velodyne.Scan
	require.NoError(t, s.ReadScan(&scan))
	assert.Equal(t, velodyne.ModelVLP16, scan.Model)
	assert.Len(t, scan.Firings, 76*24)

	start := opts.Start
	wantFirst := timescale.Corrected.Microseconds(uint32(start.Unix()), 0)
	assert.Equal(t, wantFirst, scan.BlockTimestampsUs[0])
	assert.Equal(t, scan.BlockTimestampsUs[75], scan.TimestampUs)

	require.NoError(t, s.ReadScan(&scan))
	assert.Equal(t, 2, s.Scans())

	err = s.ReadScan(&scan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, velodyne.ErrScanExhausted))
	assert.True(t, errors.Is(err, io.EOF))
	assert.False(t, scan.Valid())

	stats := s.Stats()
	assert.Equal(t, 2*76, stats.Data)
	assert.Equal(t, 2*76/10, stats.Position)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.ReadScan(&scan), velodyne.ErrSessionClosed)
}

func TestSession_LegacyTimestamps(t *testing.T) {
	t.Parallel()
	pkts := synth.Sweep(synth.DefaultSweepOptions())
	records := make([]synth.Record, 0, len(pkts))
	for i, pkt := range pkts {
		frame, err := synth.Frame(velodyne.EncodePacket(pkt))
		require.NoError(t, err)
		records = append(records, synth.Record{TsSec: 10, TsUsec: uint32(i / 2), Data: frame})
	}

	var buf bytes.Buffer
	require.NoError(t, synth.WriteRawCapture(&buf, synth.RawOptions{
		Magic: capture.MagicMicrosecondsSwapped, VersionMajor: 2, VersionMinor: 2,
	}, records))
	r, err := capture.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	s := velodyne.NewSession(r)
	defer s.Close()
	assert.Equal(t, timescale.Legacy, s.Mode())

	var scan velodyne.Scan
	require.NoError(t, s.ReadScan(&scan))
	assert.Equal(t, velodyne.ModelHDL32, scan.Model)
	assert.Equal(t, uint64(10_000+1000*(180/2)), scan.TimestampUs)
}

func TestOpenSession_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := velodyne.OpenSession(filepath.Join(dir, "missing.pcap"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.pcap")
	require.NoError(t, os.WriteFile(bad, make([]byte, 64), 0o644))
	_, err = velodyne.OpenSession(bad)
	assert.ErrorIs(t, err, capture.ErrUnknownFormat)
}
