package insights

import (
	"math"
	"sort"
	"time"

	"github.com/saturnino-fabrica-de-software/sereno/internal/domain"
)

// trendWindow is the inclusive lookback used for trend classification.
const trendWindow = 7 * 24 * time.Hour

// trendBand is the half-average delta below/above which the trend counts as
// improving/worsening.
const trendBand = 0.3

var stressValue = map[domain.StressLevel]float64{
	domain.StressLow:    1,
	domain.StressMedium: 2,
	domain.StressHigh:   3,
}

// ComputeTrend reduces the stored scan history into the 7-day trend
// classification. History order does not matter; entries are sorted by
// creation time before the first/second half comparison.
func ComputeTrend(history []domain.Scan, now time.Time) domain.StressTrend {
	cutoff := now.Add(-trendWindow)

	recent := make([]domain.Scan, 0, len(history))
	for _, scan := range history {
		if !scan.CreatedAt.Before(cutoff) {
			recent = append(recent, scan)
		}
	}

	if len(recent) == 0 {
		return domain.StressTrend{
			Trend:     domain.TrendInsufficientData,
			AvgStress: nil,
			PeakTimes: []int{},
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.Before(recent[j].CreatedAt)
	})

	// Odd counts: the second half absorbs the extra element.
	mid := len(recent) / 2
	firstAvg := averageStress(recent[:mid])
	secondAvg := averageStress(recent[mid:])
	overallAvg := averageStress(recent)

	trend := domain.TrendStable
	switch {
	case len(recent) < 2:
		trend = domain.TrendStable
	case secondAvg < firstAvg-trendBand:
		trend = domain.TrendImproving
	case secondAvg > firstAvg+trendBand:
		trend = domain.TrendWorsening
	}

	avg := stressFromValue(overallAvg)

	// A single scan has an empty first half; comparing against it would
	// fabricate a rate, so it stays at zero along with the stable trend.
	rate := 0
	if len(recent) >= 2 {
		rate = int(math.Round((firstAvg - secondAvg) * 33.3))
	}

	return domain.StressTrend{
		Trend:              trend,
		AvgStress:          &avg,
		PeakTimes:          peakTimes(recent),
		TotalScansThisWeek: len(recent),
		ImprovementRate:    rate,
	}
}

func averageStress(scans []domain.Scan) float64 {
	if len(scans) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scans {
		sum += stressValue[s.StressLevel]
	}
	return sum / float64(len(scans))
}

func stressFromValue(v float64) domain.StressLevel {
	switch {
	case v >= 2.5:
		return domain.StressHigh
	case v >= 1.5:
		return domain.StressMedium
	default:
		return domain.StressLow
	}
}

// peakTimes returns the top-3 hours of day by count of High-stress scans.
// Ties break by first-encountered order in the time-sorted history.
func peakTimes(scans []domain.Scan) []int {
	counts := make(map[int]int)
	order := make([]int, 0, 24)
	for _, s := range scans {
		if s.StressLevel != domain.StressHigh {
			continue
		}
		hour := s.CreatedAt.Hour()
		if _, seen := counts[hour]; !seen {
			order = append(order, hour)
		}
		counts[hour]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > 3 {
		order = order[:3]
	}
	return order
}
