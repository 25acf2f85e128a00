package resultsdomain

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// rankingKey holds the monotonic sort statistic followed by the tiebreaker.
type rankingKey [2]int64

func keyFor(r *Result, sortBy SortBy) (rankingKey, error) {
	switch sortBy {
	case SortByBest:
		return rankingKey{r.Best.monotonic(), 0}, nil
	case SortByAverage:
		return rankingKey{r.Average.monotonic(), r.Best.monotonic()}, nil
	default:
		return rankingKey{}, ErrUnrecognizedSortKey
	}
}

func compareKeys(a, b rankingKey) int {
	if c := cmp.Compare(a[0], b[0]); c != 0 {
		return c
	}
	return cmp.Compare(a[1], b[1])
}

// Rank assigns rankings to every result. Results without attempts get a nil
// ranking. Equal keys share a rank and consume positions, so the rank of a
// result is always 1 + the number of strictly better results. Only the
// Ranking field is written.
func Rank(results []*Result, sortBy SortBy) error {
	type keyed struct {
		result *Result
		key    rankingKey
	}

	ranked := make([]keyed, 0, len(results))
	for _, r := range results {
		if r.Empty() {
			r.Ranking = nil
			continue
		}
		key, err := keyFor(r, sortBy)
		if err != nil {
			return err
		}
		ranked = append(ranked, keyed{result: r, key: key})
	}

	slices.SortStableFunc(ranked, func(a, b keyed) int {
		return compareKeys(a.key, b.key)
	})

	for i, k := range ranked {
		ranking := i + 1
		if i > 0 && ranked[i-1].key == k.key {
			ranking = *ranked[i-1].result.Ranking
		}
		k.result.Ranking = &ranking
	}
	return nil
}

// SortResults orders results by ranking with unranked results last, breaking
// ties by competitor name using locale-aware collation.
func SortResults(results []*Result, names map[int]string) {
	collator := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(results, func(a, b *Result) int {
		if c := compareRankings(a.Ranking, b.Ranking); c != 0 {
			return c
		}
		if c := collator.CompareString(names[a.CompetitorID], names[b.CompetitorID]); c != 0 {
			return c
		}
		return cmp.Compare(a.CompetitorID, b.CompetitorID)
	})
}

func compareRankings(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

// sortedByRanking returns the ranked results ordered by ranking. The input is
// not modified.
func sortedByRanking(results []*Result) []*Result {
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		if r.Ranking != nil {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *Result) int {
		return cmp.Compare(*a.Ranking, *b.Ranking)
	})
	return out
}
