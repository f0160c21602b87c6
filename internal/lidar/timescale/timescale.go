// Package timescale decides how record timestamps of a capture container are
// converted to microseconds.
//
// Older writers stored the sub-second field in milliseconds, which is scaled
// by 1000 on read (Legacy). Newer writers store true microseconds (Corrected).
// Version 2.4 containers were produced by both and are resolved by sampling
// inter-record deltas.
package timescale

import (
	"fmt"
	"math"

	"github.com/banshee-data/lidar.replay/internal/lidar/capture"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mode selects the timestamp conversion.
type Mode int

const (
	Legacy Mode = iota
	Corrected
)

func (m Mode) String() string {
	switch m {
	case Legacy:
		return "legacy"
	case Corrected:
		return "corrected"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Microseconds converts a record timestamp to microseconds.
//
// Legacy: 1000·sec + 1000·usec.
// Corrected: (1e6·sec + usec) mod (2^32 − 1).
func (m Mode) Microseconds(sec, usec uint32) uint64 {
	if m == Corrected {
		return (uint64(sec)*1_000_000 + uint64(usec)) % math.MaxUint32
	}
	return uint64(sec)*1000 + uint64(usec)*1000
}

// MaxSamples bounds the number of record headers inspected for version 2.4.
const MaxSamples = 100

// Version threshold. Containers newer than this are Corrected, older Legacy.
const (
	thresholdMajor = 2
	thresholdMinor = 4
)

// Heuristic bounds on inter-record deltas, in raw sub-second units.
const (
	correctedMinDelta  = 5
	correctedMaxDelta  = 25
	correctedMeanDelta = 7

	legacyMinDelta  = 1
	legacyMaxDelta  = 5
	legacyMeanDelta = 3
)

// HeaderSampler provides record headers ahead of the current read position
// without consuming them. *capture.Reader satisfies it.
type HeaderSampler interface {
	PeekHeaders(max int) ([]capture.RecordHeader, error)
}

// Confidence grades how a Decision was reached.
type Confidence int

const (
	// ConfidenceLow: too few samples or a tied vote, default applied.
	ConfidenceLow Confidence = iota
	// ConfidenceMedium: the statistics disagreed and a majority vote decided.
	ConfidenceMedium
	// ConfidenceHigh: the version decided, or every statistic agreed.
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	default:
		return "high"
	}
}

// Decision records the outcome of arbitration and the evidence behind it.
type Decision struct {
	Mode       Mode
	Confidence Confidence
	Samples    int // number of deltas, zero when decided by version
	Min        float64
	Max        float64
	Mean       float64
}

func (d Decision) String() string {
	if d.Samples == 0 {
		return fmt.Sprintf("%s (%s confidence)", d.Mode, d.Confidence)
	}
	return fmt.Sprintf("%s (%s confidence, %d deltas, min=%.0f max=%.0f mean=%.2f)",
		d.Mode, d.Confidence, d.Samples, d.Min, d.Max, d.Mean)
}

// Determine returns the timestamp mode for a container of the given version.
func Determine(major, minor uint16, sampler HeaderSampler) Mode {
	return Arbitrate(major, minor, sampler).Mode
}

// Arbitrate resolves the timestamp mode and reports how it was decided.
// Versions above 2.4 are Corrected, below are Legacy. For exactly 2.4 the
// sampler supplies up to MaxSamples qualifying headers; the position of the
// underlying reader is left unchanged.
func Arbitrate(major, minor uint16, sampler HeaderSampler) Decision {
	switch {
	case major > thresholdMajor || (major == thresholdMajor && minor > thresholdMinor):
		d := Decision{Mode: Corrected, Confidence: ConfidenceHigh}
		diagf("version %d.%d: %s", major, minor, d)
		return d
	case major < thresholdMajor || minor < thresholdMinor:
		d := Decision{Mode: Legacy, Confidence: ConfidenceHigh}
		diagf("version %d.%d: %s", major, minor, d)
		return d
	}

	if sampler == nil {
		opsf("version %d.%d: no header sampler, defaulting to %s", major, minor, Legacy)
		return Decision{Mode: Legacy, Confidence: ConfidenceLow}
	}
	hdrs, err := sampler.PeekHeaders(MaxSamples)
	if err != nil {
		opsf("version %d.%d: sampling headers: %v", major, minor, err)
	}

	d := Decide(Deltas(hdrs))
	diagf("version %d.%d: %s", major, minor, d)
	return d
}

// Deltas returns the differences between consecutive sub-second fields,
// computed in unsigned 32-bit arithmetic. A wrap at the second boundary
// therefore appears as a very large delta.
func Deltas(hdrs []capture.RecordHeader) []float64 {
	if len(hdrs) < 2 {
		return nil
	}
	out := make([]float64, 0, len(hdrs)-1)
	for i := 1; i < len(hdrs); i++ {
		out = append(out, float64(hdrs[i].TsUsec-hdrs[i-1].TsUsec))
	}
	return out
}

// Decide applies the delta heuristic. Fewer than two deltas default to Legacy
// with low confidence.
func Decide(deltas []float64) Decision {
	if len(deltas) < 2 {
		return Decision{Mode: Legacy, Confidence: ConfidenceLow, Samples: len(deltas)}
	}

	d := Decision{
		Samples: len(deltas),
		Min:     floats.Min(deltas),
		Max:     floats.Max(deltas),
		Mean:    stat.Mean(deltas, nil),
	}

	if d.Min >= correctedMinDelta && d.Max >= correctedMaxDelta && d.Mean >= correctedMeanDelta {
		d.Mode, d.Confidence = Corrected, ConfidenceHigh
		return d
	}
	if d.Min <= legacyMinDelta && d.Max <= legacyMaxDelta && d.Mean <= legacyMeanDelta {
		d.Mode, d.Confidence = Legacy, ConfidenceHigh
		return d
	}

	corrected := countTrue(d.Min >= correctedMinDelta, d.Max >= correctedMaxDelta, d.Mean >= correctedMeanDelta)
	legacy := countTrue(d.Min <= legacyMinDelta, d.Max <= legacyMaxDelta, d.Mean <= legacyMeanDelta)
	switch {
	case corrected > legacy:
		d.Mode, d.Confidence = Corrected, ConfidenceMedium
	case legacy > corrected:
		d.Mode, d.Confidence = Legacy, ConfidenceMedium
	default:
		d.Mode, d.Confidence = Legacy, ConfidenceLow
		opsf("delta statistics inconclusive (min=%.0f max=%.0f mean=%.2f), choosing %s", d.Min, d.Max, d.Mean, Legacy)
	}
	tracef("delta votes: corrected=%d legacy=%d", corrected, legacy)
	return d
}

func countTrue(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}
