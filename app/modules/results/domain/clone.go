package resultsdomain

import "slices"

// Clone returns a deep copy of the competition. Lifecycle transitions run on
// a clone so that a failed transition leaves the cached document untouched.
func (c *Competition) Clone() *Competition {
	if c == nil {
		return nil
	}
	out := *c
	out.Events = make([]*Event, len(c.Events))
	for i, e := range c.Events {
		out.Events[i] = e.Clone()
	}
	out.Competitors = make([]Competitor, len(c.Competitors))
	for i, comp := range c.Competitors {
		comp.Registration.EventCodes = slices.Clone(comp.Registration.EventCodes)
		comp.Roles = slices.Clone(comp.Roles)
		comp.PersonalBests = slices.Clone(comp.PersonalBests)
		out.Competitors[i] = comp
	}
	return &out
}

func (e *Event) Clone() *Event {
	out := *e
	out.Rounds = make([]*Round, len(e.Rounds))
	for i, r := range e.Rounds {
		out.Rounds[i] = r.Clone()
	}
	return &out
}

func (r *Round) Clone() *Round {
	out := *r
	if r.AdvancementCondition != nil {
		cond := *r.AdvancementCondition
		out.AdvancementCondition = &cond
	}
	if r.Cutoff != nil {
		cutoff := *r.Cutoff
		out.Cutoff = &cutoff
	}
	if r.TimeLimit != nil {
		limit := *r.TimeLimit
		out.TimeLimit = &limit
	}
	out.Results = make([]*Result, len(r.Results))
	for i, res := range r.Results {
		out.Results[i] = res.Clone()
	}
	return &out
}

func (r *Result) Clone() *Result {
	out := *r
	out.Attempts = slices.Clone(r.Attempts)
	if r.Ranking != nil {
		ranking := *r.Ranking
		out.Ranking = &ranking
	}
	if r.EnteredBy != nil {
		enteredBy := *r.EnteredBy
		out.EnteredBy = &enteredBy
	}
	return &out
}
