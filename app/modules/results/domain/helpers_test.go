package resultsdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func testLifecycle(records *RecordsSnapshot) *Lifecycle {
	return &Lifecycle{Records: records, Now: func() time.Time { return fixedNow }}
}

func intPtr(v int) *int { return &v }

func polishCompetitor(id int, name string, events ...string) Competitor {
	return Competitor{
		RegistrantID: id,
		Name:         name,
		Country:      Country{ID: "Poland", ISO2: "PL", ContinentID: "_Europe"},
		Registration: Registration{Status: RegistrationAccepted, EventCodes: events},
	}
}

// resultWithBest builds a one-attempt result with the given best.
func resultWithBest(competitorID int, best AttemptResult) *Result {
	return &Result{
		ID:           uuid.New(),
		CompetitorID: competitorID,
		Attempts:     []Attempt{{Result: best}},
		Best:         best,
		UpdatedAt:    fixedNow.Add(-time.Hour),
	}
}

func emptyResult(competitorID int) *Result {
	return newEmptyResult(competitorID, fixedNow.Add(-time.Hour))
}

// chainCompetition builds a 333 competition with n competitors where
// competitor i scored i*100 in round 1. Round 2 exists and is closed.
func chainCompetition(n int, cond *AdvancementCondition) *Competition {
	format, _ := FormatByID("1")
	c := &Competition{ID: "TestOpen2026", Name: "Test Open 2026"}
	r1 := &Round{ID: RoundID{EventCode: "333", Number: 1}, Format: format, AdvancementCondition: cond}
	r2 := &Round{ID: RoundID{EventCode: "333", Number: 2}, Format: format, Results: []*Result{}}
	for i := 1; i <= n; i++ {
		c.Competitors = append(c.Competitors, polishCompetitor(i, fmt.Sprintf("Competitor %02d", i), "333"))
		r1.Results = append(r1.Results, resultWithBest(i, AttemptResult(i*100)))
	}
	if err := Rank(r1.Results, format.SortBy); err != nil {
		panic(err)
	}
	c.Events = []*Event{{Code: "333", Rounds: []*Round{r1, r2}}}
	return c
}

func fillRound(round *Round, ids ...int) {
	round.Results = round.Results[:0]
	for _, id := range ids {
		round.Results = append(round.Results, emptyResult(id))
	}
}

func rankings(results []*Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		if r.Ranking == nil {
			out[i] = 0
			continue
		}
		out[i] = *r.Ranking
	}
	return out
}
