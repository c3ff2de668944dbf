// Package temporal buckets posts by minute and flags anomalous volume
// bursts using a robust statistic.
package temporal

import (
	"math"
	"sort"
	"time"

	"github.com/okian/campwatch/internal/domain/model"
)

// MAD-based robust z-score parameters.
const (
	// madScale makes the MAD a consistent estimator of the standard
	// deviation under normality.
	madScale = 0.6745

	// anomalyCutoff is the standard robust-outlier threshold on |z|.
	anomalyCutoff = 3.5
)

// Aggregate groups posts by minute bucket and returns the volume series
// ascending by bucket start. Posts without a resolvable bucket are
// ignored. The z-score is the MAD-based robust score; a bucket is
// anomalous when |z| exceeds the cutoff.
//
// A mean/stddev z-score would be inflated by the very bursts being
// detected, which is why the median/MAD pair is used instead.
//
// Zero qualifying posts yield an empty series, never an error.
func Aggregate(posts []model.Post) []model.TimeBucket {
	counts := make(map[time.Time]int)
	for _, p := range posts {
		if !p.HasBucket() {
			continue
		}
		counts[p.Bucket]++
	}
	if len(counts) == 0 {
		return nil
	}

	starts := make([]time.Time, 0, len(counts))
	for b := range counts {
		starts = append(starts, b)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	values := make([]float64, len(starts))
	for i, b := range starts {
		values[i] = float64(counts[b])
	}

	med := median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)
	if mad == 0 {
		mad = 1.0 // avoid division by zero for flat series
	}

	buckets := make([]model.TimeBucket, len(starts))
	for i, b := range starts {
		z := madScale * (values[i] - med) / mad
		buckets[i] = model.TimeBucket{
			BucketStart: b,
			Count:       counts[b],
			ZScore:      z,
			IsAnomaly:   math.Abs(z) > anomalyCutoff,
		}
	}
	return buckets
}

// median returns the median of values. The input is not modified.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
