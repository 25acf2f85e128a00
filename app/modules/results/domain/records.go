package resultsdomain

import (
	"cmp"
	"slices"
	"strconv"
	"time"
)

// RecordTag is the badge shown next to a result statistic.
type RecordTag string

const (
	RecordTagNone RecordTag = ""
	RecordTagWR   RecordTag = "WR"
	RecordTagCR   RecordTag = "CR"
	RecordTagNR   RecordTag = "NR"
	RecordTagPB   RecordTag = "PB"
)

// StatType distinguishes single and average records.
type StatType string

const (
	StatSingle  StatType = "single"
	StatAverage StatType = "average"
)

// ScopeKind is the area a record applies to.
type ScopeKind string

const (
	ScopeWorld     ScopeKind = "world"
	ScopeContinent ScopeKind = "continent"
	ScopeCountry   ScopeKind = "country"
	ScopePerson    ScopeKind = "person"
)

// Scope is a record area; ID is empty for the world scope.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// RecordKey addresses one best value.
type RecordKey struct {
	Scope     Scope    `json:"scope"`
	EventCode string   `json:"event_code"`
	Type      StatType `json:"type"`
}

// RecordEntry is the serialisable form of a snapshot record.
type RecordEntry struct {
	RecordKey
	Value AttemptResult `json:"value"`
}

// RecordsSnapshot is an immutable, time-stamped view of the official records.
type RecordsSnapshot struct {
	fetchedAt time.Time
	records   map[RecordKey]AttemptResult
}

// NewRecordsSnapshot builds a snapshot. When several entries share a key the
// best value wins; unsuccessful values are ignored.
func NewRecordsSnapshot(fetchedAt time.Time, entries []RecordEntry) *RecordsSnapshot {
	records := make(map[RecordKey]AttemptResult, len(entries))
	for _, e := range entries {
		if !e.Value.Complete() {
			continue
		}
		if current, ok := records[e.RecordKey]; !ok || e.Value < current {
			records[e.RecordKey] = e.Value
		}
	}
	return &RecordsSnapshot{fetchedAt: fetchedAt, records: records}
}

// EmptyRecordsSnapshot has no records and a zero timestamp.
func EmptyRecordsSnapshot() *RecordsSnapshot {
	return NewRecordsSnapshot(time.Time{}, nil)
}

// FetchedAt is when the records were obtained from the registry.
func (s *RecordsSnapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Len is the number of records in the snapshot.
func (s *RecordsSnapshot) Len() int {
	return len(s.records)
}

// Record looks up a single record.
func (s *RecordsSnapshot) Record(key RecordKey) (AttemptResult, bool) {
	v, ok := s.records[key]
	return v, ok
}

// Entries returns the records in a stable order.
func (s *RecordsSnapshot) Entries() []RecordEntry {
	out := make([]RecordEntry, 0, len(s.records))
	for k, v := range s.records {
		out = append(out, RecordEntry{RecordKey: k, Value: v})
	}
	slices.SortFunc(out, func(a, b RecordEntry) int {
		return cmp.Or(
			cmp.Compare(a.EventCode, b.EventCode),
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.Scope.Kind, b.Scope.Kind),
			cmp.Compare(a.Scope.ID, b.Scope.ID),
		)
	})
	return out
}

type scopedTag struct {
	scope Scope
	tag   RecordTag
}

func tagScopes(comp *Competitor, competitorID int) []scopedTag {
	scopes := []scopedTag{{scope: Scope{Kind: ScopeWorld}, tag: RecordTagWR}}
	if comp != nil && comp.Country.ContinentID != "" {
		scopes = append(scopes, scopedTag{scope: Scope{Kind: ScopeContinent, ID: comp.Country.ContinentID}, tag: RecordTagCR})
	}
	if comp != nil && comp.Country.ID != "" {
		scopes = append(scopes, scopedTag{scope: Scope{Kind: ScopeCountry, ID: comp.Country.ID}, tag: RecordTagNR})
	}
	return append(scopes, scopedTag{scope: personScope(competitorID), tag: RecordTagPB})
}

func personScope(competitorID int) Scope {
	return Scope{Kind: ScopePerson, ID: strconv.Itoa(competitorID)}
}

// bestValues tracks the best value per scope while walking the round chain.
type bestValues map[RecordKey]AttemptResult

func (b bestValues) fold(key RecordKey, value AttemptResult) {
	if !value.Complete() {
		return
	}
	if current, ok := b[key]; !ok || value < current {
		b[key] = value
	}
}

// ComputeRecordTags recomputes record tags for the round numbered
// fromRoundNumber and every later round of the event. Earlier rounds only
// contribute their values. A value earns the tag of the highest-priority scope
// (world, continent, country, person) where it ties or beats the best known
// value and is also the best of its round within that scope, so ties all get
// the tag. Area scopes are only eligible when the snapshot has a record for
// them; values from earlier rounds raise the bar but never make an area known.
// The person scope without a prior value yields PB.
func ComputeRecordTags(event *Event, fromRoundNumber int, competitors []Competitor, snapshot *RecordsSnapshot) {
	if snapshot == nil {
		snapshot = EmptyRecordsSnapshot()
	}
	byID := make(map[int]*Competitor, len(competitors))
	for i := range competitors {
		byID[competitors[i].RegistrantID] = &competitors[i]
	}

	best := make(bestValues)
	official := make(map[RecordKey]struct{})
	for key, value := range snapshot.records {
		if key.EventCode == event.Code && value.Complete() {
			best.fold(key, value)
			official[key] = struct{}{}
		}
	}
	for _, comp := range competitors {
		if comp.Registration.Status != RegistrationAccepted {
			continue
		}
		for _, pb := range comp.PersonalBests {
			if pb.EventCode != event.Code {
				continue
			}
			best.fold(RecordKey{Scope: personScope(comp.RegistrantID), EventCode: event.Code, Type: pb.Type}, pb.Best)
		}
	}

	rounds := slices.Clone(event.Rounds)
	slices.SortFunc(rounds, func(a, b *Round) int { return cmp.Compare(a.ID.Number, b.ID.Number) })

	for _, round := range rounds {
		if round.ID.Number >= fromRoundNumber {
			tagRound(event.Code, round, byID, best, official)
		}
		foldRound(event.Code, round, byID, best)
	}
}

func tagRound(eventCode string, round *Round, byID map[int]*Competitor, best bestValues, official map[RecordKey]struct{}) {
	roundBest := make(bestValues)
	foldRound(eventCode, round, byID, roundBest)

	for _, r := range round.Results {
		comp := byID[r.CompetitorID]
		r.SingleRecordTag = recordTag(eventCode, StatSingle, r.Best, tagScopes(comp, r.CompetitorID), best, roundBest, official)
		r.AverageRecordTag = recordTag(eventCode, StatAverage, r.Average, tagScopes(comp, r.CompetitorID), best, roundBest, official)
	}
}

func recordTag(eventCode string, stat StatType, value AttemptResult, scopes []scopedTag, best, roundBest bestValues, official map[RecordKey]struct{}) RecordTag {
	if !value.Complete() {
		return RecordTagNone
	}
	for _, st := range scopes {
		key := RecordKey{Scope: st.scope, EventCode: eventCode, Type: stat}
		if value > roundBest[key] {
			continue
		}
		if st.scope.Kind != ScopePerson {
			if _, ok := official[key]; !ok {
				continue
			}
		}
		current, known := best[key]
		if !known || value <= current {
			return st.tag
		}
	}
	return RecordTagNone
}

func foldRound(eventCode string, round *Round, byID map[int]*Competitor, best bestValues) {
	for _, r := range round.Results {
		for _, st := range tagScopes(byID[r.CompetitorID], r.CompetitorID) {
			best.fold(RecordKey{Scope: st.scope, EventCode: eventCode, Type: StatSingle}, r.Best)
			best.fold(RecordKey{Scope: st.scope, EventCode: eventCode, Type: StatAverage}, r.Average)
		}
	}
}
