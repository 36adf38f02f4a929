package aggregate

import (
	"math"
	"sort"
)

// Sharpen is an optional contrast-sharpening pre-aggregation pass. It is not
// called by the default pipeline; it is kept available for callers that want
// the legacy behavior. Requires at least 4 probabilities.
func Sharpen(probs []float64, confidences []float64) []float64 {
	n := len(probs)
	if n < 4 {
		out := make([]float64, n)
		copy(out, probs)
		return out
	}

	sorted := make([]float64, n)
	copy(sorted, probs)
	sort.Float64s(sorted)
	median := percentile(sorted, 0.5)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	sigma := iqr / 1.349
	if sigma <= 0 {
		sigma = 1e-6
	}

	stdev := stddev(probs, mean(probs))
	gamma := math.Min(2.5, 1.45*(1+math.Max(0, (0.06-stdev)*10)))

	logits := make([]float64, n)
	shiftedLogits := make([]float64, n)
	originalMean := 0.0
	for i, p := range probs {
		l := logit(p)
		logits[i] = l
		z := (p - median) / sigma
		c := clampF(confidences[i], 0.3, 0.92)
		shiftedLogits[i] = l + gamma*z*(0.6+0.4*c)
		originalMean += p
	}
	originalMean /= float64(n)

	c := bisectConstant(shiftedLogits, originalMean, -6, 6, 28)

	out := make([]float64, n)
	for i, l := range shiftedLogits {
		sharpened := sigmoidF(l - c)
		if confidences[i] < 0.5 {
			out[i] = clampF(0.8*probs[i]+0.2*sharpened, 0.02, 0.98)
		} else {
			out[i] = clampF(sharpened, 0.02, 0.98)
		}
	}
	return out
}

func bisectConstant(logits []float64, targetMean float64, lo, hi float64, iterations int) float64 {
	meanAt := func(c float64) float64 {
		sum := 0.0
		for _, l := range logits {
			sum += sigmoidF(l - c)
		}
		return sum / float64(len(logits))
	}
	for i := 0; i < iterations; i++ {
		mid := (lo + hi) / 2
		if meanAt(mid) > targetMean {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func logit(p float64) float64 {
	p = clampF(p, 1e-6, 1-1e-6)
	return math.Log(p / (1 - p))
}

func sigmoidF(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
