package flowgen

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Arrival process names accepted in Config.Arrival.
const (
	ArrivalPoisson  = "poisson"
	ArrivalConstant = "constant"
	ArrivalGamma    = "gamma"
)

// ArrivalSampler generates inter-arrival gaps between consecutive flows.
type ArrivalSampler interface {
	// SampleIAT returns the next gap in ticks. Always >= 1.
	SampleIAT(rng *rand.Rand) int64
}

// PoissonSampler draws exponential gaps (CV=1).
type PoissonSampler struct {
	mean float64
}

func (s *PoissonSampler) SampleIAT(rng *rand.Rand) int64 {
	return atLeastOne(rng.ExpFloat64() * s.mean)
}

// ConstantSampler always returns the mean gap.
type ConstantSampler struct {
	mean float64
}

func (s *ConstantSampler) SampleIAT(_ *rand.Rand) int64 {
	return atLeastOne(s.mean)
}

// GammaSampler draws Gamma-distributed gaps. CV > 1 gives bursty arrivals,
// which is what makes components merge in chains.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // mean·CV²
}

func (s *GammaSampler) SampleIAT(rng *rand.Rand) int64 {
	return atLeastOne(gammaRand(rng, s.shape, s.scale))
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

func atLeastOne(v float64) int64 {
	if v < 1 {
		return 1
	}
	return int64(v)
}

// NewArrivalSampler creates the sampler for process with the given mean gap
// in ticks. cv is only used by the gamma process.
func NewArrivalSampler(process string, mean, cv float64) (ArrivalSampler, error) {
	if mean <= 0 {
		return nil, fmt.Errorf("mean inter-arrival must be positive, got %v", mean)
	}
	switch process {
	case ArrivalPoisson, "":
		return &PoissonSampler{mean: mean}, nil
	case ArrivalConstant:
		return &ConstantSampler{mean: mean}, nil
	case ArrivalGamma:
		if cv <= 0 {
			return nil, fmt.Errorf("gamma arrivals need a positive cv, got %v", cv)
		}
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{mean: mean}, nil
		}
		return &GammaSampler{shape: shape, scale: mean * cv * cv}, nil
	default:
		return nil, fmt.Errorf("unknown arrival process %q", process)
	}
}
