package resultsdomain

import (
	"fmt"
	"slices"
)

// maxAdvancingPercent caps how many results of a round may advance.
const maxAdvancingPercent = 75

// finalRoundPodium is the implicit qualification size of a round without an
// advancement condition.
const finalRoundPodium = 3

// MissingQualifying is the outcome of MissingQualifyingIDs. Qualifying
// competitors may be added to the round; adding one of them removes the
// Excess competitors.
type MissingQualifying struct {
	Qualifying []int `json:"qualifying_ids"`
	Excess     []int `json:"excess_ids"`
}

// QualifyingResults returns the results that satisfy the advancement
// condition, ordered by ranking. Without a condition the round is a final and
// the podium qualifies. At most 75% of the results qualify and a tied block is
// never split: if it does not fit under the cap, none of it qualifies.
func QualifyingResults(results []*Result, cond *AdvancementCondition, sortBy SortBy) ([]*Result, error) {
	ranked := sortedByRanking(results)

	if cond == nil {
		var out []*Result
		for _, r := range ranked {
			if r.Best.Complete() && *r.Ranking <= finalRoundPodium {
				out = append(out, r)
			}
		}
		return out, nil
	}

	maxQualifying := len(results) * maxAdvancingPercent / 100
	firstNonQualifying := 1
	if len(ranked) > maxQualifying {
		firstNonQualifying = *ranked[maxQualifying].Ranking
	} else if len(ranked) > 0 {
		firstNonQualifying = *ranked[len(ranked)-1].Ranking + 1
	}

	var out []*Result
	for _, r := range ranked {
		if *r.Ranking >= firstNonQualifying || !r.Best.Complete() {
			continue
		}
		ok, err := satisfiesCondition(r, cond, len(results), sortBy)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func satisfiesCondition(r *Result, cond *AdvancementCondition, count int, sortBy SortBy) (bool, error) {
	switch cond.Type {
	case AdvancementRanking:
		return int64(*r.Ranking) <= cond.Level, nil
	case AdvancementPercent:
		return int64(*r.Ranking) <= int64(count)*cond.Level/100, nil
	case AdvancementAttemptResult:
		value, err := r.Stat(sortBy)
		if err != nil {
			return false, err
		}
		// Unsuccessful values never satisfy the threshold.
		return value.Complete() && value.Better(AttemptResult(cond.Level)), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnrecognizedConditionType, cond.Type)
	}
}

// AdvancingResults returns the results of round whose competitors move on.
// Once the next round is open its membership is authoritative, which covers
// manual overrides; otherwise the qualification rule decides.
func AdvancingResults(c *Competition, round *Round) ([]*Result, error) {
	if next := c.NextRound(round.ID); next != nil && next.Open() {
		inNext := idSet(next.CompetitorIDs())
		var out []*Result
		for _, r := range round.Results {
			if _, ok := inNext[r.CompetitorID]; ok {
				out = append(out, r)
			}
		}
		return out, nil
	}
	return QualifyingResults(round.Results, round.AdvancementCondition, round.Format.SortBy)
}

// PersonIDsForRound returns who belongs in round when it opens: accepted
// registrants for round 1, the advancing competitors of the previous round
// otherwise.
func PersonIDsForRound(c *Competition, round *Round) ([]int, error) {
	if round.ID.Number == 1 {
		var ids []int
		for _, comp := range c.Competitors {
			if comp.AcceptedFor(round.ID.EventCode) {
				ids = append(ids, comp.RegistrantID)
			}
		}
		return ids, nil
	}
	prev := c.PreviousRound(round.ID)
	if prev == nil {
		return nil, fmt.Errorf("%w: previous round of %s", ErrRoundNotFound, round.ID)
	}
	advancing, err := AdvancingResults(c, prev)
	if err != nil {
		return nil, err
	}
	return competitorIDs(advancing), nil
}

// SimulateExclusion returns a re-ranked copy of results in which the excluded
// competitors have no attempts. The input results are not modified.
func SimulateExclusion(results []*Result, excludedIDs []int, sortBy SortBy) ([]*Result, error) {
	excluded := idSet(excludedIDs)
	simulated := make([]*Result, len(results))
	for i, r := range results {
		if _, ok := excluded[r.CompetitorID]; ok {
			simulated[i] = &Result{ID: r.ID, CompetitorID: r.CompetitorID}
			continue
		}
		cp := *r
		cp.Ranking = nil
		simulated[i] = &cp
	}
	if err := Rank(simulated, sortBy); err != nil {
		return nil, err
	}
	return simulated, nil
}

// QualifyingIDsIgnoring answers who would qualify from round if the ignored
// competitors had not competed.
func QualifyingIDsIgnoring(round *Round, ignoredIDs []int) ([]int, error) {
	simulated, err := SimulateExclusion(round.Results, ignoredIDs, round.Format.SortBy)
	if err != nil {
		return nil, err
	}
	qualifying, err := QualifyingResults(simulated, round.AdvancementCondition, round.Format.SortBy)
	if err != nil {
		return nil, err
	}
	return competitorIDs(qualifying), nil
}

// AlreadyQuitResults returns results ranked at or above the worst advancing
// ranking whose competitors are nevertheless not advancing.
func AlreadyQuitResults(results, advancing []*Result) []*Result {
	if len(advancing) == 0 {
		return nil
	}
	worst := 0
	for _, r := range advancing {
		if r.Ranking != nil && *r.Ranking > worst {
			worst = *r.Ranking
		}
	}
	advancingIDs := idSet(competitorIDs(advancing))
	var out []*Result
	for _, r := range sortedByRanking(results) {
		if *r.Ranking > worst {
			continue
		}
		if _, ok := advancingIDs[r.CompetitorID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// NextQualifyingToRound returns the competitors that would fill one vacated
// slot of round. Several ids are returned when they are tied.
func NextQualifyingToRound(c *Competition, round *Round) ([]int, error) {
	prev := c.PreviousRound(round.ID)
	if prev == nil {
		return nil, nil
	}
	advancing, err := AdvancingResults(c, prev)
	if err != nil {
		return nil, err
	}
	alreadyQuit := AlreadyQuitResults(prev.Results, advancing)
	alreadyQuitIDs := competitorIDs(alreadyQuit)

	ignored := slices.Clone(alreadyQuitIDs)
	if best := sortedByRanking(advancing); len(best) > 0 {
		ignored = append(ignored, best[0].CompetitorID)
	}

	hypothetical, err := QualifyingIDsIgnoring(prev, ignored)
	if err != nil {
		return nil, err
	}
	return without(hypothetical, competitorIDs(advancing), alreadyQuitIDs), nil
}

// MissingQualifyingIDs returns who may be added to round and who would have
// to be removed to make room.
func MissingQualifyingIDs(c *Competition, round *Round) (MissingQualifying, error) {
	if round.ID.Number == 1 {
		registered, err := PersonIDsForRound(c, round)
		if err != nil {
			return MissingQualifying{}, err
		}
		return MissingQualifying{
			Qualifying: without(registered, round.CompetitorIDs()),
			Excess:     []int{},
		}, nil
	}

	prev := c.PreviousRound(round.ID)
	if prev == nil {
		return MissingQualifying{}, fmt.Errorf("%w: previous round of %s", ErrRoundNotFound, round.ID)
	}
	advancing, err := AdvancingResults(c, prev)
	if err != nil {
		return MissingQualifying{}, err
	}
	advancingIDs := competitorIDs(advancing)
	alreadyQuitIDs := competitorIDs(AlreadyQuitResults(prev.Results, advancing))

	qualifyingIfQuitIgnored, err := QualifyingIDsIgnoring(prev, alreadyQuitIDs)
	if err != nil {
		return MissingQualifying{}, err
	}
	newlyQualifying := without(qualifyingIfQuitIgnored, advancingIDs, alreadyQuitIDs)

	switch {
	case len(newlyQualifying) > 0:
		// A slot is free: quitters may come back and the next in line may join.
		return MissingQualifying{
			Qualifying: append(slices.Clone(alreadyQuitIDs), newlyQualifying...),
			Excess:     []int{},
		}, nil
	case len(alreadyQuitIDs) > 0:
		// No free slot. Bringing one quitter back pushes someone out.
		qualifyingIfOneBack, err := QualifyingIDsIgnoring(prev, alreadyQuitIDs[1:])
		if err != nil {
			return MissingQualifying{}, err
		}
		return MissingQualifying{
			Qualifying: alreadyQuitIDs,
			Excess:     without(advancingIDs, qualifyingIfOneBack),
		}, nil
	default:
		return MissingQualifying{Qualifying: []int{}, Excess: []int{}}, nil
	}
}

func idSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// without returns ids minus every id in the excluded lists, keeping order.
func without(ids []int, excluded ...[]int) []int {
	drop := make(map[int]struct{})
	for _, list := range excluded {
		for _, id := range list {
			drop[id] = struct{}{}
		}
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
