package sink

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidar.replay/internal/lidar/replay"
)

// PlotSnapshotter writes a top-down PNG scatter of every Nth frame.
type PlotSnapshotter struct {
	outputDir string
	every     uint64
	maxPoints int
	written   []string
}

// NewPlotSnapshotter creates the output directory and returns a snapshotter
// that renders frames whose sequence is a multiple of every. At most
// maxPoints points are drawn per image; larger clouds are strided.
func NewPlotSnapshotter(outputDir string, every, maxPoints int) (*PlotSnapshotter, error) {
	if every < 1 {
		every = 1
	}
	if maxPoints < 1 {
		maxPoints = 20000
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &PlotSnapshotter{outputDir: outputDir, every: uint64(every), maxPoints: maxPoints}, nil
}

// Written returns the paths of the images written so far.
func (ps *PlotSnapshotter) Written() []string {
	return append([]string(nil), ps.written...)
}

// Deliver implements replay.FrameSink.
func (ps *PlotSnapshotter) Deliver(frame *replay.Frame) error {
	if frame.Sequence%ps.every != 0 {
		return nil
	}

	stride := 1
	if n := len(frame.Cloud); n > ps.maxPoints {
		stride = (n + ps.maxPoints - 1) / ps.maxPoints
	}
	pts := make(plotter.XYs, 0, len(frame.Cloud)/stride+1)
	for i := 0; i < len(frame.Cloud); i += stride {
		p := frame.Cloud[i]
		pts = append(pts, plotter.XY{X: float64(p.X), Y: float64(p.Y)})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Frame %d - %s (%d points, stride %d)", frame.Sequence, frame.Model, len(frame.Cloud), stride)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	if len(pts) > 0 {
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("frame %d scatter: %w", frame.Sequence, err)
		}
		scatter.GlyphStyle.Radius = vg.Points(0.6)
		scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 158, B: 137, A: 255}
		p.Add(scatter)
	}

	file := filepath.Join(ps.outputDir, fmt.Sprintf("frame_%06d.png", frame.Sequence))
	if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	ps.written = append(ps.written, file)
	tracef("wrote %s (%d points drawn)", file, len(pts))
	return nil
}
