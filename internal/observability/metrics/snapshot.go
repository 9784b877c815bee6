package metrics

import (
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Snapshot summarises chat metrics for the /stats endpoint.
type Snapshot struct {
	Turns      int64            `json:"turns"`
	ByOutcome  map[string]int64 `json:"by_outcome"`
	ByPath     map[string]int64 `json:"by_path"`
	P90Ms      float64          `json:"p90_ms"`
	P95Ms      float64          `json:"p95_ms"`
	Fallbacks  int64            `json:"fallbacks"`
	Conflicts  int64            `json:"context_conflicts"`
	RateLimits int64            `json:"rate_limited"`
}

// Collect reads the chat metric families from gatherer. Missing families
// leave their fields zero.
func Collect(gatherer prometheus.Gatherer) Snapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	snap := Snapshot{ByOutcome: map[string]int64{}, ByPath: map[string]int64{}}
	mfs, err := gatherer.Gather()
	if err != nil {
		return snap
	}

	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case "oncall_chat_turns_total":
			for _, metric := range mf.Metric {
				n := int64(metric.GetCounter().GetValue())
				snap.Turns += n
				snap.ByOutcome[labelValue(metric, "outcome")] += n
				snap.ByPath[labelValue(metric, "path")] += n
			}
		case "oncall_chat_turn_latency_seconds":
			snap.P90Ms, snap.P95Ms = latencyQuantiles(mf)
		case "oncall_chat_fallback_total":
			snap.Fallbacks = sumCounters(mf)
		case "oncall_chat_context_conflicts_total":
			snap.Conflicts = sumCounters(mf)
		case "oncall_chat_rate_limited_total":
			snap.RateLimits = sumCounters(mf)
		}
	}
	return snap
}

func sumCounters(mf *dto.MetricFamily) int64 {
	var total float64
	for _, metric := range mf.Metric {
		total += metric.GetCounter().GetValue()
	}
	return int64(total)
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// latencyQuantiles merges the per-outcome histograms and interpolates p90/p95.
func latencyQuantiles(mf *dto.MetricFamily) (float64, float64) {
	cumulativeByUpper := map[float64]uint64{}
	var total uint64
	for _, metric := range mf.Metric {
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		total += h.GetSampleCount()
		for _, b := range h.Bucket {
			if b == nil {
				continue
			}
			cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if total == 0 || len(cumulativeByUpper) == 0 {
		return 0, 0
	}
	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)
	p90 := quantile(0.90, total, uppers, cumulativeByUpper)
	p95 := quantile(0.95, total, uppers, cumulativeByUpper)
	return p90 * 1000, p95 * 1000
}

func quantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper = upper
			prevCum = cum
			continue
		}
		if math.IsInf(upper, 1) {
			return prevUpper
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/bucketCount, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return prevUpper
}
