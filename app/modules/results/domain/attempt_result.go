package resultsdomain

import (
	"cmp"
	"math"
	"slices"
)

// AttemptResult uses the registry encoding: positive values are successful
// (centiseconds, moves or a multi-blind encoding), 0 is skipped, -1 DNF, -2 DNS.
type AttemptResult int64

const (
	Skipped AttemptResult = 0
	DNF     AttemptResult = -1
	DNS     AttemptResult = -2
)

// tenMinutes in centiseconds; averages above it are rounded to whole seconds.
const tenMinutes AttemptResult = 60000

// Complete reports whether the attempt result is a success.
func (r AttemptResult) Complete() bool {
	return r > 0
}

// Valid reports whether r is a recognised encoding.
func (r AttemptResult) Valid() bool {
	return r >= DNS
}

// Better reports whether r is strictly better than other. Unsuccessful values
// are never better than anything.
func (r AttemptResult) Better(other AttemptResult) bool {
	if !r.Complete() {
		return false
	}
	if !other.Complete() {
		return true
	}
	return r < other
}

// monotonic maps the value onto an ordering where lower is better and every
// unsuccessful value is worst.
func (r AttemptResult) monotonic() int64 {
	if r.Complete() {
		return int64(r)
	}
	return math.MaxInt64
}

// BestOf returns the best successful value, DNF if something was attempted
// but nothing succeeded (all-DNS included), and Skipped when nothing was
// attempted.
func BestOf(results []AttemptResult) AttemptResult {
	var attempted []AttemptResult
	for _, r := range results {
		if r != Skipped {
			attempted = append(attempted, r)
		}
	}
	if len(attempted) == 0 {
		return Skipped
	}
	best := AttemptResult(0)
	for _, r := range attempted {
		if r.Complete() && (best == 0 || r < best) {
			best = r
		}
	}
	if best > 0 {
		return best
	}
	return DNF
}

// AverageOf computes the average (of 5) or mean (of 3) for the event. It
// returns Skipped when the average cannot be computed: the event has no
// averages, the attempt count is not 3 or 5, or an attempt is missing.
func AverageOf(eventCode string, results []AttemptResult, expectedAttempts int) AttemptResult {
	if eventCode == "333mbf" {
		return Skipped
	}
	if len(results) != expectedAttempts || slices.Contains(results, Skipped) {
		return Skipped
	}

	switch len(results) {
	case 3:
		if slices.ContainsFunc(results, func(r AttemptResult) bool { return !r.Complete() }) {
			return DNF
		}
		return meanOf(eventCode, results)
	case 5:
		sorted := slices.Clone(results)
		slices.SortFunc(sorted, func(a, b AttemptResult) int {
			return cmp.Compare(a.monotonic(), b.monotonic())
		})
		middle := sorted[1:4]
		if slices.ContainsFunc(middle, func(r AttemptResult) bool { return !r.Complete() }) {
			return DNF
		}
		return meanOf(eventCode, middle)
	default:
		return Skipped
	}
}

func meanOf(eventCode string, values []AttemptResult) AttemptResult {
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	if eventCode == "333fm" {
		return AttemptResult(math.Round(float64(sum) * 100 / float64(len(values))))
	}
	mean := float64(sum) / float64(len(values))
	if AttemptResult(mean) > tenMinutes {
		return AttemptResult(math.Round(mean/100) * 100)
	}
	return AttemptResult(math.Round(mean))
}
