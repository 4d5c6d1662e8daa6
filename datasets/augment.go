package datasets

import (
	"fmt"
	"math"
	"math/rand"
)

// Mixup appends n synthetic training examples built as convex combinations of
// random pairs of existing observations. The mixing coefficient is drawn from
// Beta(alpha, alpha) per synthetic example and applied identically to the
// features, the teacher-forcing prior and the (now soft) targets.
func Mixup(x, prior, y Array, n int, alpha float64, rng *rand.Rand) (Array, Array, Array, error) {
	if !SameLen(x, prior, y) {
		return Array{}, Array{}, Array{}, fmt.Errorf("mixup inputs disagree on observation count: %d, %d, %d",
			x.Len(), prior.Len(), y.Len())
	}
	if x.Len() < 2 {
		return Array{}, Array{}, Array{}, fmt.Errorf("mixup needs at least 2 observations, have %d", x.Len())
	}
	if alpha <= 0 {
		return Array{}, Array{}, Array{}, fmt.Errorf("mixup alpha must be positive, got %v", alpha)
	}

	base := x.Len()
	outX := growArray(x, n)
	outPrior := growArray(prior, n)
	outY := growArray(y, n)

	for k := 0; k < n; k++ {
		i := rng.Intn(base)
		j := rng.Intn(base - 1)
		if j >= i {
			j++
		}
		lam := sampleBeta(alpha, alpha, rng)
		mixInto(outX.Obs(base+k), x.Obs(i), x.Obs(j), lam)
		mixInto(outPrior.Obs(base+k), prior.Obs(i), prior.Obs(j), lam)
		mixInto(outY.Obs(base+k), y.Obs(i), y.Obs(j), lam)
	}
	return outX, outPrior, outY, nil
}

// TimeJitter crops each trial's time axis (the trailing dimension) to
// T - 2*maxJitter, with an independently random crop offset per trial. Input
// shape is trials x channels x timepoints.
func TimeJitter(x Array, maxJitter int, rng *rand.Rand) (Array, error) {
	return cropTime(x, maxJitter, func() int { return rng.Intn(2*maxJitter + 1) })
}

// CenterCrop trims maxJitter timepoints from both ends of every trial so that
// held-out data keeps the same time-axis length as jittered training data.
func CenterCrop(x Array, maxJitter int) (Array, error) {
	return cropTime(x, maxJitter, func() int { return maxJitter })
}

func cropTime(x Array, maxJitter int, offset func() int) (Array, error) {
	if len(x.Shape) != 3 {
		return Array{}, fmt.Errorf("time crop needs a 3-D trials x channels x timepoints array, got shape %v", x.Shape)
	}
	trials, channels, t := x.Shape[0], x.Shape[1], x.Shape[2]
	if maxJitter <= 0 {
		return Array{}, fmt.Errorf("jitter must be positive, got %d", maxJitter)
	}
	outT := t - 2*maxJitter
	if outT <= 0 {
		return Array{}, fmt.Errorf("jitter %d leaves no timepoints (have %d)", maxJitter, t)
	}

	out := NewArray(trials, channels, outT)
	for i := 0; i < trials; i++ {
		off := offset()
		src := x.Obs(i)
		dst := out.Obs(i)
		for c := 0; c < channels; c++ {
			copy(dst[c*outT:(c+1)*outT], src[c*t+off:c*t+off+outT])
		}
	}
	return out, nil
}

func growArray(a Array, extra int) Array {
	out := NewArray(append([]int{a.Len() + extra}, a.Shape[1:]...)...)
	copy(out.Data, a.Data)
	return out
}

func mixInto(dst, a, b []float64, lam float64) {
	for i := range dst {
		dst[i] = lam*a[i] + (1-lam)*b[i]
	}
}

// sampleBeta draws from Beta(a, b) via two gamma variates.
func sampleBeta(a, b float64, rng *rand.Rand) float64 {
	ga := sampleGamma(a, rng)
	gb := sampleGamma(b, rng)
	if ga+gb == 0 {
		return 0.5
	}
	return ga / (ga + gb)
}

// sampleGamma draws from Gamma(shape, 1) using Marsaglia-Tsang, boosting
// shapes below one.
func sampleGamma(shape float64, rng *rand.Rand) float64 {
	if shape < 1 {
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return sampleGamma(shape+1, rng) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		var xn, v float64
		for {
			xn = rng.NormFloat64()
			v = 1 + c*xn
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*xn*xn*xn*xn {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*xn*xn+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
