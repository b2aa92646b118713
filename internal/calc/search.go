package calc

import "fmt"

// Direction is the way a goal predicate becomes true as EVs grow.
type Direction int

const (
	// Ascending goals hold from some EV upward. The search returns the
	// smallest EV for which the goal holds.
	Ascending Direction = iota
	// Descending goals hold from some EV downward. The search returns the
	// largest EV for which the goal still holds.
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// SearchStatus classifies a search result.
type SearchStatus string

const (
	SearchFound      SearchStatus = "found"
	SearchSatisfied  SearchStatus = "already-satisfied"
	SearchNoSolution SearchStatus = "no-solution"
)

// SearchResult is the answer of an EV search.
type SearchResult struct {
	Found  bool         `json:"found"`
	Value  int          `json:"value"`
	Status SearchStatus `json:"status"`
	Limit  int          `json:"limit"`
	Probes int          `json:"probes"`
}

// Probe evaluates the goal at one EV value.
type Probe func(ev int) (bool, error)

// SearchMinimalEV binary-searches the EV values 0, 4, ..., limit for the
// boundary of a monotonic goal. Both endpoints are probed first. An
// ascending goal that holds at 0 but fails at limit (or the mirror case for
// descending) cannot be monotonic and yields a SearchAssumptionError.
func SearchMinimalEV(limit int, dir Direction, probe Probe) (SearchResult, error) {
	if limit < 0 || limit > MaxEV {
		return SearchResult{}, validationf("limit", "%d is outside 0..%d", limit, MaxEV)
	}
	limit -= limit % EVStep
	res := SearchResult{Limit: limit}
	eval := func(idx int) (bool, error) {
		res.Probes++
		ok, err := probe(idx * EVStep)
		if err != nil {
			return false, fmt.Errorf("probe at %d EVs: %w", idx*EVStep, err)
		}
		return ok, nil
	}

	hi := limit / EVStep
	atMin, err := eval(0)
	if err != nil {
		return res, err
	}
	atMax := atMin
	if hi > 0 {
		if atMax, err = eval(hi); err != nil {
			return res, err
		}
	}

	// From here on atMin is the goal at the cheap end of the range.
	if dir == Descending {
		atMin, atMax = atMax, atMin
	}
	switch {
	case atMin && atMax:
		res.Found, res.Status = true, SearchSatisfied
		if dir == Descending {
			res.Value = limit
		}
		return res, nil
	case atMin && !atMax:
		if dir == Descending {
			atMin, atMax = atMax, atMin
		}
		return res, &SearchAssumptionError{Direction: dir, AtMin: atMin, AtMax: atMax}
	case !atMin && !atMax:
		res.Status = SearchNoSolution
		return res, nil
	}

	// Invariant: goal fails at lo and holds at hi in the ascending frame.
	lo := 0
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		idx := mid
		if dir == Descending {
			idx = limit/EVStep - mid
		}
		ok, err := eval(idx)
		if err != nil {
			return res, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid
		}
	}
	res.Found, res.Status = true, SearchFound
	if dir == Descending {
		res.Value = (limit/EVStep - hi) * EVStep
	} else {
		res.Value = hi * EVStep
	}
	return res, nil
}

// Role selects which combatant of a request a search varies.
type Role string

const (
	AttackerRole Role = "attacker"
	DefenderRole Role = "defender"
)

// Goal is a predicate over a calculation result.
type Goal func(Result) bool

// Survive holds when no roll knocks out the defender.
func Survive(r Result) bool { return r.Outcome.Survives() }

// OHKO holds when every roll knocks out the defender.
func OHKO(r Result) bool { return r.Outcome.OHKO() }

// TwoHKO holds when two minimum rolls knock out the defender from full HP.
func TwoHKO(r Result) bool {
	return r.DefenderHP > 0 && 2*r.MinDamage >= r.DefenderHP
}

// SearchEV varies one EV of one combatant in req and searches for the
// boundary of goal. The range stops where the combatant's total would
// exceed the EV budget.
func (e *Engine) SearchEV(req Request, role Role, stat Stat, goal Goal, dir Direction) (SearchResult, error) {
	target := &req.Attacker
	if role == DefenderRole {
		target = &req.Defender
	}
	if err := target.Validate(); err != nil {
		return SearchResult{}, prefixField(string(role), err)
	}
	limit := EVLimit(target.EVs, stat)
	return SearchMinimalEV(limit, dir, func(ev int) (bool, error) {
		probe := req
		if role == DefenderRole {
			probe.Defender.EVs = probe.Defender.EVs.With(stat, ev)
		} else {
			probe.Attacker.EVs = probe.Attacker.EVs.With(stat, ev)
		}
		res, err := e.Calculate(probe)
		if err != nil {
			return false, err
		}
		return goal(res), nil
	})
}
