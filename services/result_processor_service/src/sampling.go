package resultprocessor

import (
	"fmt"
	"math/rand"
)

// applySampling thins results down per cfg, returning the sample plus the
// metadata block describing what it did. No-op (method "none" or the set
// already fits) returns results unchanged.
func applySampling(results []Row, cfg SamplingConfig, rng *rand.Rand) ([]Row, SamplingMetadata) {
	if len(results) <= cfg.SampleSize || cfg.Method == SamplingNone {
		return results, SamplingMetadata{Sampled: false, SampleSize: len(results)}
	}

	required := cfg.RequiredSampleSize(len(results))

	var sampled []Row
	switch cfg.Method {
	case SamplingRandom:
		sampled = randomSample(results, required, rng)
	case SamplingSystematic:
		sampled = systematicSample(results, required, rng)
	case SamplingStratified:
		if cfg.StratifyBy != "" {
			sampled = stratifiedSample(results, cfg.StratifyBy, required, rng)
		} else {
			sampled = randomSample(results, required, rng)
		}
	case SamplingTopN:
		sampled = results[:required]
	default:
		sampled = randomSample(results, required, rng)
	}

	return sampled, SamplingMetadata{
		Sampled:         true,
		Method:          cfg.Method,
		SampleSize:      len(sampled),
		OriginalSize:    len(results),
		ConfidenceLevel: cfg.ConfidenceLevel,
		MarginOfError:   cfg.MarginOfError,
	}
}

func randomSample(results []Row, n int, rng *rand.Rand) []Row {
	if n >= len(results) {
		return results
	}
	idx := rng.Perm(len(results))[:n]
	out := make([]Row, n)
	for i, j := range idx {
		out[i] = results[j]
	}
	return out
}

// systematicSample walks results at a fixed interval from a random offset,
// mirroring the Python's `results[start::interval][:required]`.
func systematicSample(results []Row, n int, rng *rand.Rand) []Row {
	interval := len(results) / n
	if interval < 1 {
		interval = 1
	}
	start := 0
	if interval > 1 {
		start = rng.Intn(interval)
	}
	var out []Row
	for i := start; i < len(results) && len(out) < n; i += interval {
		out = append(out, results[i])
	}
	return out
}

// stratifiedSample groups rows by stratifyColumn and samples proportionally
// from each group, then randomly trims an over-allocation, mirroring
// _stratified_sampling.
func stratifiedSample(results []Row, stratifyColumn string, n int, rng *rand.Rand) []Row {
	strata := make(map[string][]Row)
	for _, r := range results {
		key := "unknown"
		if v, ok := r[stratifyColumn]; ok && v != nil {
			key = toStringKey(v)
		}
		strata[key] = append(strata[key], r)
	}

	total := len(results)
	var out []Row
	for _, group := range strata {
		want := int(float64(len(group)) / float64(total) * float64(n))
		if want < 1 {
			want = 1
		}
		if want >= len(group) {
			out = append(out, group...)
		} else {
			out = append(out, randomSample(group, want, rng)...)
		}
	}

	if len(out) > n {
		out = randomSample(out, n, rng)
	}
	return out
}

func toStringKey(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
