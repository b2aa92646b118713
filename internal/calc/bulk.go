package calc

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BulkResult is the cheapest HP and defensive EV split that survives a hit.
type BulkResult struct {
	Found       bool   `json:"found"`
	HP          int    `json:"hp"`
	Defense     int    `json:"defense"`
	DefenseStat Stat   `json:"-"`
	StatName    string `json:"defenseStat"`
	Total       int    `json:"total"`
	Result      Result `json:"result"`
}

// SearchBulk finds the split of HP and Def (or SpD for special moves)
// investment with the smallest total that survives req. The HP and
// defensive EVs already on the defender are replaced; the rest of the
// spread is kept and counts against the budget. One defensive search runs
// per HP value, concurrently. Ties go to the split with less HP.
func (e *Engine) SearchBulk(ctx context.Context, req Request) (BulkResult, error) {
	if err := req.Defender.Validate(); err != nil {
		return BulkResult{}, prefixField("defender", err)
	}
	defStat := req.Move.EffectiveCategory().Defense()
	base := req.Defender.EVs.With(HP, 0).With(defStat, 0)
	hpLimit := EVLimit(base, HP)

	found := make([]*SearchResult, hpLimit/EVStep+1)
	violations := make([]error, len(found))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range found {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			probe := req
			probe.Defender.EVs = base.With(HP, i*EVStep)
			res, err := e.SearchEV(probe, DefenderRole, defStat, Survive, Ascending)
			if errors.Is(err, ErrSearchAssumption) {
				// Not fatal for the other HP values.
				violations[i] = err
				return nil
			}
			if err != nil {
				return err
			}
			if res.Found {
				found[i] = &res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BulkResult{}, err
	}

	best := BulkResult{DefenseStat: defStat, StatName: defStat.String()}
	for i, res := range found {
		if res == nil {
			continue
		}
		total := i*EVStep + res.Value
		if !best.Found || total < best.Total {
			best.Found, best.HP, best.Defense, best.Total = true, i*EVStep, res.Value, total
		}
	}
	if !best.Found {
		return best, errors.Join(violations...)
	}

	final := req
	final.Defender.EVs = base.With(HP, best.HP).With(defStat, best.Defense)
	r, err := e.Calculate(final)
	if err != nil {
		return best, err
	}
	best.Result = r
	return best, nil
}
