package sink

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
)

// FrameSummary is what ChartRecorder keeps of each delivered frame.
type FrameSummary struct {
	Sequence      uint64
	TimestampUs   uint64
	Points        int
	MeanRange     float64
	StdDevRange   float64
	MeanIntensity float64
}

// ChartRecorder accumulates per-frame statistics and the most recent cloud,
// and renders them as an HTML page.
type ChartRecorder struct {
	title     string
	maxPoints int

	frames []FrameSummary
	lastXY [][2]float32
	last   uint64

	ranges      []float64
	intensities []float64
}

// NewChartRecorder creates a recorder. At most maxPoints points of the
// latest frame are kept for the scatter view.
func NewChartRecorder(title string, maxPoints int) *ChartRecorder {
	if maxPoints < 1 {
		maxPoints = 5000
	}
	return &ChartRecorder{title: title, maxPoints: maxPoints}
}

// Frames returns the per-frame summaries recorded so far.
func (cr *ChartRecorder) Frames() []FrameSummary {
	return append([]FrameSummary(nil), cr.frames...)
}

// Deliver implements replay.FrameSink. The frame is summarised and the
// retained points are copied before returning.
func (cr *ChartRecorder) Deliver(frame *replay.Frame) error {
	cr.ranges = cr.ranges[:0]
	cr.intensities = cr.intensities[:0]
	for _, p := range frame.Cloud {
		r := math.Sqrt(float64(p.X)*float64(p.X) + float64(p.Y)*float64(p.Y) + float64(p.Z)*float64(p.Z))
		cr.ranges = append(cr.ranges, r)
		cr.intensities = append(cr.intensities, float64(p.Intensity))
	}

	s := FrameSummary{Sequence: frame.Sequence, TimestampUs: frame.TimestampUs, Points: len(frame.Cloud)}
	if len(cr.ranges) > 0 {
		s.MeanRange, s.StdDevRange = stat.MeanStdDev(cr.ranges, nil)
		s.MeanIntensity = stat.Mean(cr.intensities, nil)
	}
	if len(cr.ranges) < 2 {
		s.StdDevRange = 0
	}
	cr.frames = append(cr.frames, s)

	stride := 1
	if n := len(frame.Cloud); n > cr.maxPoints {
		stride = (n + cr.maxPoints - 1) / cr.maxPoints
	}
	cr.lastXY = cr.lastXY[:0]
	for i := 0; i < len(frame.Cloud); i += stride {
		cr.lastXY = append(cr.lastXY, [2]float32{frame.Cloud[i].X, frame.Cloud[i].Y})
	}
	cr.last = frame.Sequence
	return nil
}

// Render writes the HTML page: points and mean range per frame, and a
// top-down scatter of the latest frame.
func (cr *ChartRecorder) Render(w io.Writer) error {
	x := make([]string, 0, len(cr.frames))
	counts := make([]opts.LineData, 0, len(cr.frames))
	means := make([]opts.LineData, 0, len(cr.frames))
	for _, f := range cr.frames {
		x = append(x, strconv.FormatUint(f.Sequence, 10))
		counts = append(counts, opts.LineData{Value: f.Points})
		means = append(means, opts.LineData{Value: f.MeanRange})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: cr.title, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: cr.title, Subtitle: fmt.Sprintf("frames=%d", len(cr.frames))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).
		AddSeries("points", counts).
		AddSeries("mean range (m)", means)

	pad := 1.0
	data := make([]opts.ScatterData, 0, len(cr.lastXY))
	for _, xy := range cr.lastXY {
		pad = math.Max(pad, math.Max(math.Abs(float64(xy[0])), math.Abs(float64(xy[1]))))
		data = append(data, opts.ScatterData{Value: []interface{}{xy[0], xy[1]}})
	}
	pad = math.Ceil(pad)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Latest frame (top-down)", Subtitle: fmt.Sprintf("frame=%d points=%d", cr.last, len(data))}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	page := components.NewPage()
	page.AddCharts(line, scatter)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile renders the page to path.
func (cr *ChartRecorder) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := cr.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	diagf("wrote chart for %d frames to %s", len(cr.frames), path)
	return nil
}
