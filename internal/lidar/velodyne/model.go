package velodyne

import (
	"fmt"
	"math"
)

// HardwareModel identifies the sensor that recorded a capture.
type HardwareModel int

const (
	ModelUnknown HardwareModel = iota
	ModelVLP16
	ModelHDL32
	ModelVLP32C
)

// Factory byte values (high byte of the packet's factory field).
const (
	FactoryVLP16  byte = 0x22
	FactoryHDL32  byte = 0x21
	FactoryVLP32C byte = 0x28
)

func (m HardwareModel) String() string {
	switch m {
	case ModelVLP16:
		return "VLP-16"
	case ModelHDL32:
		return "HDL-32E"
	case ModelVLP32C:
		return "VLP-32C"
	default:
		return "unknown"
	}
}

// Detect maps a factory byte to a hardware model.
func Detect(factory byte) HardwareModel {
	switch factory {
	case FactoryVLP16:
		return ModelVLP16
	case FactoryHDL32:
		return ModelHDL32
	case FactoryVLP32C:
		return ModelVLP32C
	default:
		return ModelUnknown
	}
}

// FactoryByte returns the factory byte a sensor of model m reports. Unknown
// returns zero.
func (m HardwareModel) FactoryByte() byte {
	switch m {
	case ModelVLP16:
		return FactoryVLP16
	case ModelHDL32:
		return FactoryHDL32
	case ModelVLP32C:
		return FactoryVLP32C
	default:
		return 0
	}
}

// Configuration describes how packets map onto a scan.
type Configuration struct {
	BlocksPerScan           int // data packets per scan
	FiringSequencesPerBlock int // firing sequences contributed by one packet
	NumBeams                int
}

// FiringCapacity is the number of firings in a full scan.
func (c Configuration) FiringCapacity() int {
	return c.BlocksPerScan * c.FiringSequencesPerBlock
}

// Profile is the fixed decoding and calibration data for a model.
type Profile struct {
	Model                      HardwareModel
	Configuration              Configuration
	MetersPerTick              float64
	MicrosecondsPerLaserFiring float64
	VerticalAnglesRad          [RETURNS_PER_BLOCK]float64 // unused slots are zero
}

// MetersPerTick is the range resolution shared by all supported models.
const MetersPerTick = 0.002

var vlp16Profile = Profile{
	Model:                      ModelVLP16,
	Configuration:              Configuration{BlocksPerScan: 76, FiringSequencesPerBlock: 24, NumBeams: 16},
	MetersPerTick:              MetersPerTick,
	MicrosecondsPerLaserFiring: 2.304,
	VerticalAnglesRad: [RETURNS_PER_BLOCK]float64{
		-0.261799, 0.0174533, -0.226893, 0.0523599, -0.191986, 0.0872665, -0.15708, 0.122173,
		-0.122173, 0.15708, -0.0872665, 0.191986, -0.0523599, 0.226893, -0.0174533, 0.261799,
	},
}

var hdl32Profile = Profile{
	Model:                      ModelHDL32,
	Configuration:              Configuration{BlocksPerScan: 181, FiringSequencesPerBlock: 12, NumBeams: 32},
	MetersPerTick:              MetersPerTick,
	MicrosecondsPerLaserFiring: 1.152,
	VerticalAnglesRad: [RETURNS_PER_BLOCK]float64{
		-0.535293, -0.162839, -0.511905, -0.139626, -0.488692, -0.116239, -0.465305, -0.093026,
		-0.442092, -0.069813, -0.418879, -0.046600, -0.395666, -0.023213, -0.372279, 0.0,
		-0.349066, 0.023213, -0.325853, 0.046600, -0.302466, 0.069813, -0.279253, 0.093026,
		-0.256040, 0.116413, -0.232652, 0.139626, -0.209440, 0.162839, -0.186227, 0.186227,
	},
}

var vlp32cProfile = Profile{
	Model:                      ModelVLP32C,
	Configuration:              Configuration{BlocksPerScan: 151, FiringSequencesPerBlock: 12, NumBeams: 32},
	MetersPerTick:              MetersPerTick,
	MicrosecondsPerLaserFiring: 1.152,
	VerticalAnglesRad: degreesToRadians([RETURNS_PER_BLOCK]float64{
		-25, -1, -1.667, -15.639, -11.31, 0, -0.667, -8.843,
		-7.254, 0.333, -0.333, -6.148, -5.333, 1.333, 0.667, -4,
		-4.667, 1.667, 1, -3.667, -3.333, 3.333, 2.333, -2.667,
		-3, 7, 4.667, -2.333, -2, 15, 10.333, -1.333,
	}),
}

func degreesToRadians(deg [RETURNS_PER_BLOCK]float64) [RETURNS_PER_BLOCK]float64 {
	var out [RETURNS_PER_BLOCK]float64
	for i, d := range deg {
		out[i] = d * math.Pi / 180
	}
	return out
}

// Profile returns the decoding profile for m. Unknown hardware uses the
// HDL-32E profile.
func (m HardwareModel) Profile() *Profile {
	switch m {
	case ModelVLP16:
		return &vlp16Profile
	case ModelVLP32C:
		return &vlp32cProfile
	default:
		return &hdl32Profile
	}
}

// ParseModel accepts the names produced by String as well as the short forms
// "vlp16", "hdl32" and "vlp32c".
func ParseModel(s string) (HardwareModel, error) {
	switch s {
	case "VLP-16", "vlp16":
		return ModelVLP16, nil
	case "HDL-32E", "hdl32":
		return ModelHDL32, nil
	case "VLP-32C", "vlp32c":
		return ModelVLP32C, nil
	default:
		return ModelUnknown, fmt.Errorf("unknown hardware model %q", s)
	}
}
