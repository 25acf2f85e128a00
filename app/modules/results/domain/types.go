package resultsdomain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Competition is the root aggregate. It is replaced as a whole document after
// every lifecycle operation.
type Competition struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Events      []*Event     `json:"events"`
	Competitors []Competitor `json:"competitors"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Event holds the round chain for a single event type.
type Event struct {
	Code   string   `json:"event_code"`
	Rounds []*Round `json:"rounds"`
}

// Round is identified by (event code, round number). An empty result list means
// the round is not open.
type Round struct {
	ID                   RoundID               `json:"id"`
	Format               Format                `json:"format"`
	AdvancementCondition *AdvancementCondition `json:"advancement_condition,omitempty"`
	Cutoff               *Cutoff               `json:"cutoff,omitempty"`
	TimeLimit            *TimeLimit            `json:"time_limit,omitempty"`
	Results              []*Result             `json:"results"`
}

// Attempt is a single trial entered for a result.
type Attempt struct {
	Result         AttemptResult `json:"result"`
	Reconstruction string        `json:"reconstruction,omitempty"`
}

// Result belongs to exactly one round and one competitor.
type Result struct {
	ID               uuid.UUID     `json:"id"`
	CompetitorID     int           `json:"competitor_id"`
	Attempts         []Attempt     `json:"attempts"`
	Best             AttemptResult `json:"best"`
	Average          AttemptResult `json:"average"`
	Ranking          *int          `json:"ranking"`
	SingleRecordTag  RecordTag     `json:"single_record_tag,omitempty"`
	AverageRecordTag RecordTag     `json:"average_record_tag,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at"`
	EnteredBy        *int          `json:"entered_by,omitempty"`
}

// AdvancementConditionType selects how qualification is decided.
type AdvancementConditionType string

const (
	AdvancementRanking       AdvancementConditionType = "ranking"
	AdvancementPercent       AdvancementConditionType = "percent"
	AdvancementAttemptResult AdvancementConditionType = "attemptResult"
)

// AdvancementCondition describes who moves on to the next round.
type AdvancementCondition struct {
	Type  AdvancementConditionType `json:"type"`
	Level int64                    `json:"level"`
}

// Cutoff limits the attempts of competitors whose first attempts are not
// competitive enough.
type Cutoff struct {
	NumberOfAttempts int           `json:"number_of_attempts"`
	AttemptResult    AttemptResult `json:"attempt_result"`
}

// TimeLimit bounds a single attempt, or the sum of attempts when cumulative.
type TimeLimit struct {
	Centiseconds AttemptResult `json:"centiseconds"`
	Cumulative   bool          `json:"cumulative"`
}

// RegistrationStatus of a competitor.
type RegistrationStatus string

const (
	RegistrationAccepted RegistrationStatus = "accepted"
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationDeleted  RegistrationStatus = "deleted"
)

// Role granted to a competitor for this competition.
type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleDelegate    Role = "delegate"
	RoleScorekeeper Role = "scorekeeper"
)

// Country carries both the registry identifier used for national records and
// the continent used for continental records.
type Country struct {
	ID          string `json:"id"`
	ISO2        string `json:"iso2"`
	ContinentID string `json:"continent_id"`
}

// Registration lists the events a competitor signed up for.
type Registration struct {
	Status     RegistrationStatus `json:"status"`
	EventCodes []string           `json:"event_codes"`
}

// PersonalBest is a historical official best prior to this competition.
type PersonalBest struct {
	EventCode string        `json:"event_code"`
	Type      StatType      `json:"type"`
	Best      AttemptResult `json:"best"`
}

// Competitor is a registered person.
type Competitor struct {
	RegistrantID  int            `json:"registrant_id"`
	WCAID         string         `json:"wca_id,omitempty"`
	Name          string         `json:"name"`
	Country       Country        `json:"country"`
	Registration  Registration   `json:"registration"`
	Roles         []Role         `json:"roles,omitempty"`
	PersonalBests []PersonalBest `json:"personal_bests,omitempty"`
}

// AcceptedFor reports whether the competitor is accepted and registered for the event.
func (c *Competitor) AcceptedFor(eventCode string) bool {
	return c.Registration.Status == RegistrationAccepted && slices.Contains(c.Registration.EventCodes, eventCode)
}

// HasRole reports whether the competitor holds the given role.
func (c *Competitor) HasRole(role Role) bool {
	return slices.Contains(c.Roles, role)
}

// Event returns the event with the given code, or nil.
func (c *Competition) Event(code string) *Event {
	for _, e := range c.Events {
		if e.Code == code {
			return e
		}
	}
	return nil
}

// Round returns the round with the given id.
func (c *Competition) Round(id RoundID) (*Round, error) {
	event := c.Event(id.EventCode)
	if event == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	for _, r := range event.Rounds {
		if r.ID.Number == id.Number {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
}

// PreviousRound returns the round before id in the same event, or nil for round 1.
func (c *Competition) PreviousRound(id RoundID) *Round {
	if id.Number <= 1 {
		return nil
	}
	prev, err := c.Round(RoundID{EventCode: id.EventCode, Number: id.Number - 1})
	if err != nil {
		return nil
	}
	return prev
}

// NextRound returns the round after id in the same event, or nil for the final.
func (c *Competition) NextRound(id RoundID) *Round {
	next, err := c.Round(RoundID{EventCode: id.EventCode, Number: id.Number + 1})
	if err != nil {
		return nil
	}
	return next
}

// Competitor looks up a competitor by registrant id.
func (c *Competition) Competitor(registrantID int) (*Competitor, bool) {
	for i := range c.Competitors {
		if c.Competitors[i].RegistrantID == registrantID {
			return &c.Competitors[i], true
		}
	}
	return nil, false
}

func (c *Competition) competitorNames() map[int]string {
	names := make(map[int]string, len(c.Competitors))
	for _, comp := range c.Competitors {
		names[comp.RegistrantID] = comp.Name
	}
	return names
}

// Open reports whether the round has any results.
func (r *Round) Open() bool {
	return len(r.Results) > 0
}

// Result returns the result of the given competitor, or nil.
func (r *Round) Result(competitorID int) *Result {
	for _, res := range r.Results {
		if res.CompetitorID == competitorID {
			return res
		}
	}
	return nil
}

// CompetitorIDs returns the competitor ids of the round's results in list order.
func (r *Round) CompetitorIDs() []int {
	return competitorIDs(r.Results)
}

// Empty reports whether no attempt has been entered for the result yet.
func (r *Result) Empty() bool {
	return len(r.Attempts) == 0
}

// AttemptResults returns the bare attempt values.
func (r *Result) AttemptResults() []AttemptResult {
	out := make([]AttemptResult, len(r.Attempts))
	for i, a := range r.Attempts {
		out[i] = a.Result
	}
	return out
}

// Stat returns the value of the statistic the round is sorted by.
func (r *Result) Stat(sortBy SortBy) (AttemptResult, error) {
	switch sortBy {
	case SortByBest:
		return r.Best, nil
	case SortByAverage:
		return r.Average, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedSortKey, sortBy)
	}
}

func newEmptyResult(competitorID int, now time.Time) *Result {
	return &Result{
		ID:           uuid.New(),
		CompetitorID: competitorID,
		Attempts:     []Attempt{},
		UpdatedAt:    now,
	}
}

func competitorIDs(results []*Result) []int {
	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.CompetitorID
	}
	return ids
}
