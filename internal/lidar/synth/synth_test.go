package synth

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"github.com/banshee-data/lidar.replay/internal/lidar/velodyne"
)

func TestFrame_ProducesDataRecordLength(t *testing.T) {
	t.Parallel()
	frame, err := Frame(make([]byte, velodyne.PACKET_SIZE))
	require.NoError(t, err)
	assert.Len(t, frame, capture.DATA_RECORD_LENGTH)

	info, err := capture.DecodeLinkLayer(frame)
	require.NoError(t, err)
	assert.Equal(t, uint16(DataPort), info.DstPort)
}

func TestSweep_Layout(t *testing.T) {
	t.Parallel()
	opts := DefaultSweepOptions()
	opts.Model = velodyne.ModelVLP16
	opts.Scans = 2

	pkts := Sweep(opts)
	require.Len(t, pkts, 2*76)
	assert.Equal(t, velodyne.FactoryVLP16, pkts[0].ModelByte())
	assert.Equal(t, uint16(velodyne.FLAG_UPPER_BLOCK), pkts[0].Blocks[0].Flag)
	assert.Less(t, pkts[0].Blocks[0].Azimuth, pkts[0].Blocks[1].Azimuth)
	for _, pkt := range pkts {
		for _, blk := range pkt.Blocks {
			assert.Less(t, int(blk.Azimuth), velodyne.ROTATION_MAX_UNITS)
		}
	}
}

func TestSweep_FactoryOverride(t *testing.T) {
	t.Parallel()
	opts := DefaultSweepOptions()
	opts.FactoryByte = 0x99
	pkts := Sweep(opts)
	assert.Equal(t, byte(0x99), pkts[0].ModelByte())
}

func TestWriteCapture_RoundTripsThroughReader(t *testing.T) {
	t.Parallel()
	opts := DefaultSweepOptions()
	opts.PositionEvery = 50
	records, err := SweepRecords(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCapture(&buf, Options{}, records))

	r, err := capture.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "2.4", r.Header().Version())
	assert.False(t, r.Header().Nanosecond())

	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, records[0].TsSec, first.Header.TsSec)
	assert.Equal(t, records[0].TsUsec, first.Header.TsUsec)

	var pkt velodyne.Packet
	require.NoError(t, velodyne.ParsePacket(first.Payload(), &pkt))
	assert.Equal(t, velodyne.FactoryHDL32, pkt.ModelByte())

	for {
		if _, err := r.Next(); errors.Is(err, io.EOF) {
			break
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 181, r.Stats().Data)
	assert.Equal(t, 181/50, r.Stats().Position)
}

func TestWriteCapture_Nanosecond(t *testing.T) {
	t.Parallel()
	frame, err := Frame(make([]byte, velodyne.PACKET_SIZE))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCapture(&buf, Options{Nanosecond: true}, []Record{{TsSec: 3, TsUsec: 123456789, Data: frame}}))

	r, err := capture.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, r.Header().Nanosecond())

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(123456789), rec.Header.TsFraction)
	assert.Equal(t, uint32(123456), rec.Header.TsUsec)
}

func TestWriteRawCapture_BigEndianVersion(t *testing.T) {
	t.Parallel()
	frame, err := Frame(make([]byte, velodyne.PACKET_SIZE))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = WriteRawCapture(&buf, RawOptions{Magic: capture.MagicMicrosecondsSwapped, VersionMajor: 2, VersionMinor: 2}, []Record{
		{TsSec: 1, TsUsec: 2, Data: []byte{1, 2, 3}},
		{TsSec: 1, TsUsec: 3, Data: frame},
	})
	require.NoError(t, err)

	r, err := capture.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "2.2", r.Header().Version())

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), rec.Header.TsUsec)
	assert.Equal(t, 1, r.Stats().Skipped)
}
