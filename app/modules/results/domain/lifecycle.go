package resultsdomain

import (
	"fmt"
	"slices"
	"time"
)

const (
	// minResultsForNextRound is the number of finished results a round needs
	// before a subsequent round may be opened.
	minResultsForNextRound = 8

	unfinishedTolerancePercent = 10
	activeWindow               = 15 * time.Minute
	activeUpdates              = 3
)

// RoundState is the lifecycle state of a round.
type RoundState string

const (
	RoundClosed   RoundState = "closed"
	RoundOpen     RoundState = "open"
	RoundFinished RoundState = "finished"
)

// Met reports whether one of the attempts within the cutoff window beats
// the cutoff value.
func (c *Cutoff) Met(attempts []AttemptResult) bool {
	if c == nil {
		return true
	}
	for i, a := range attempts {
		if i >= c.NumberOfAttempts {
			break
		}
		if a.Better(c.AttemptResult) {
			return true
		}
	}
	return false
}

// Finished reports whether the result needs no further attempts: either every
// attempt of the format is entered, or the cutoff was missed and the cutoff
// attempts are all in.
func (r *Result) Finished(round *Round) bool {
	n := len(r.Attempts)
	if n >= round.Format.NumberOfAttempts {
		return true
	}
	return round.Cutoff != nil && n == round.Cutoff.NumberOfAttempts && !round.Cutoff.Met(r.AttemptResults())
}

// State derives the round state. A round with a few stragglers counts as
// finished once fewer than 10% of its results are unfinished and nobody has
// entered results recently.
func (r *Round) State(now time.Time) RoundState {
	if !r.Open() {
		return RoundClosed
	}
	unfinished := 0
	for _, res := range r.Results {
		if !res.Finished(r) {
			unfinished++
		}
	}
	if unfinished == 0 {
		return RoundFinished
	}
	if unfinished*100 < len(r.Results)*unfinishedTolerancePercent && !r.active(now) {
		return RoundFinished
	}
	return RoundOpen
}

func (r *Round) active(now time.Time) bool {
	since := now.Add(-activeWindow)
	recent := 0
	for _, res := range r.Results {
		if !res.Empty() && res.UpdatedAt.After(since) {
			recent++
		}
	}
	return recent >= activeUpdates
}

// Lifecycle applies round transitions to a competition in place. Callers pass
// a private copy and keep it only when the transition succeeds.
type Lifecycle struct {
	Records *RecordsSnapshot
	Now     func() time.Time
}

// NewLifecycle returns a Lifecycle using the wall clock.
func NewLifecycle(records *RecordsSnapshot) *Lifecycle {
	return &Lifecycle{Records: records, Now: time.Now}
}

func (l *Lifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

// OpenRound fills the round with one empty result per qualifying competitor.
func (l *Lifecycle) OpenRound(c *Competition, id RoundID) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	if round.Open() {
		return nil, ErrAlreadyOpen
	}

	if prev := c.PreviousRound(id); prev != nil {
		prev.Results = slices.DeleteFunc(prev.Results, (*Result).Empty)
		if len(prev.Results) < minResultsForNextRound {
			return nil, ErrPreviousRoundInsufficient
		}
	}

	ids, err := PersonIDsForRound(c, round)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoQualifiers
	}

	now := l.now()
	round.Results = make([]*Result, 0, len(ids))
	for _, competitorID := range ids {
		round.Results = append(round.Results, newEmptyResult(competitorID, now))
	}
	if err := Rank(round.Results, round.Format.SortBy); err != nil {
		return nil, err
	}
	SortResults(round.Results, c.competitorNames())
	c.UpdatedAt = now
	return round, nil
}

// ClearRound removes every result of the round.
func (l *Lifecycle) ClearRound(c *Competition, id RoundID) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	if next := c.NextRound(id); next != nil && next.Open() {
		return nil, ErrNextRoundOpen
	}
	round.Results = []*Result{}
	c.UpdatedAt = l.now()
	return round, nil
}

// QuitCompetitor removes the competitor from the round. With replace the
// competitors next in line from the previous round take the free slot.
func (l *Lifecycle) QuitCompetitor(c *Competition, id RoundID, competitorID int, replace bool) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	if round.Result(competitorID) == nil {
		return nil, ErrCompetitorNotInRound
	}

	// Replacements are decided against the round as it was before the quit.
	var replacements []int
	if replace {
		if replacements, err = NextQualifyingToRound(c, round); err != nil {
			return nil, err
		}
	}

	round.Results = removeCompetitors(round.Results, competitorID)
	now := l.now()
	for _, newID := range replacements {
		if round.Result(newID) == nil {
			round.Results = append(round.Results, newEmptyResult(newID, now))
		}
	}
	if err := l.finalize(c, round); err != nil {
		return nil, err
	}
	return round, nil
}

// AddCompetitor adds a missing qualifier to the round, dropping whoever no
// longer fits.
func (l *Lifecycle) AddCompetitor(c *Competition, id RoundID, competitorID int) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	missing, err := MissingQualifyingIDs(c, round)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(missing.Qualifying, competitorID) {
		return nil, ErrCompetitorNotQualified
	}

	round.Results = removeCompetitors(round.Results, missing.Excess...)
	round.Results = append(round.Results, newEmptyResult(competitorID, l.now()))
	if err := l.finalize(c, round); err != nil {
		return nil, err
	}
	return round, nil
}

// EnterAttempts replaces the attempts of a competitor's result and recomputes
// the round.
func (l *Lifecycle) EnterAttempts(c *Competition, id RoundID, competitorID int, attempts []Attempt, enteredBy *int) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	result := round.Result(competitorID)
	if result == nil {
		return nil, ErrCompetitorNotInRound
	}

	normalized := NormalizeAttempts(id.EventCode, round.TimeLimit, attempts)
	if err := ValidateAttempts(round, normalized); err != nil {
		return nil, err
	}

	values := make([]AttemptResult, len(normalized))
	for i, a := range normalized {
		values[i] = a.Result
	}
	result.Attempts = normalized
	result.Best = BestOf(values)
	result.Average = AverageOf(id.EventCode, values, round.Format.NumberOfAttempts)
	result.UpdatedAt = l.now()
	result.EnteredBy = enteredBy

	if err := l.finalize(c, round); err != nil {
		return nil, err
	}
	return round, nil
}

// RemoveNoShows removes several competitors at once. Either every id is
// removed or nothing is.
func (l *Lifecycle) RemoveNoShows(c *Competition, id RoundID, competitorIDs []int) (*Round, error) {
	round, err := c.Round(id)
	if err != nil {
		return nil, err
	}
	for _, competitorID := range competitorIDs {
		if round.Result(competitorID) == nil {
			return nil, fmt.Errorf("%w: %d", ErrCompetitorNotInRound, competitorID)
		}
	}
	round.Results = removeCompetitors(round.Results, competitorIDs...)
	if err := l.finalize(c, round); err != nil {
		return nil, err
	}
	return round, nil
}

// finalize reranks and resorts the round and refreshes record tags from this
// round onward.
func (l *Lifecycle) finalize(c *Competition, round *Round) error {
	if err := Rank(round.Results, round.Format.SortBy); err != nil {
		return err
	}
	SortResults(round.Results, c.competitorNames())
	if event := c.Event(round.ID.EventCode); event != nil {
		ComputeRecordTags(event, round.ID.Number, c.Competitors, l.Records)
	}
	c.UpdatedAt = l.now()
	return nil
}

func removeCompetitors(results []*Result, competitorIDs ...int) []*Result {
	drop := idSet(competitorIDs)
	return slices.DeleteFunc(results, func(r *Result) bool {
		_, ok := drop[r.CompetitorID]
		return ok
	})
}

// NormalizeAttempts applies the time limit and trims trailing skipped attempts.
// The input slice is not modified.
func NormalizeAttempts(eventCode string, limit *TimeLimit, attempts []Attempt) []Attempt {
	out := slices.Clone(attempts)
	if out == nil {
		out = []Attempt{}
	}
	if limit != nil && limit.Centiseconds > 0 && eventCode != "333fm" && eventCode != "333mbf" {
		var total AttemptResult
		for i := range out {
			if !out[i].Result.Complete() {
				continue
			}
			value := out[i].Result
			if limit.Cumulative {
				total += value
				value = total
			}
			if value >= limit.Centiseconds {
				out[i].Result = DNF
			}
		}
	}
	for len(out) > 0 && out[len(out)-1].Result == Skipped {
		out = out[:len(out)-1]
	}
	return out
}

// ValidateAttempts checks the attempt list against the round format and cutoff.
func ValidateAttempts(round *Round, attempts []Attempt) error {
	if len(attempts) > round.Format.NumberOfAttempts {
		return fmt.Errorf("%w: %d attempts for format %s", ErrInvalidAttempts, len(attempts), round.Format.ID)
	}
	values := make([]AttemptResult, len(attempts))
	for i, a := range attempts {
		if !a.Result.Valid() {
			return fmt.Errorf("%w: unknown attempt result %d", ErrInvalidAttempts, a.Result)
		}
		values[i] = a.Result
	}
	if round.Cutoff != nil && len(values) > round.Cutoff.NumberOfAttempts && !round.Cutoff.Met(values) {
		return fmt.Errorf("%w: cutoff not met", ErrInvalidAttempts)
	}
	return nil
}
