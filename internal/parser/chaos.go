package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// ParseChaos converts a Smogon chaos JSON document into a usage snapshot.
// Pokemon are ranked by raw count. Usage percent is the share of team slots:
// raw / (battles * 2) * 100.
func (p *Parser) ParseChaos(data []byte, format, month string, elo int, fetchedAt time.Time) (*core.UsageSnapshot, error) {
	var doc chaosFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding chaos stats: %w", err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("chaos stats for %s %s/%d have no data", format, month, elo)
	}

	battles := int(doc.Info.Battles)
	snap := &core.UsageSnapshot{
		Format:    format,
		Month:     month,
		Elo:       elo,
		Battles:   battles,
		FetchedAt: fetchedAt,
	}

	for name, raw := range doc.Data {
		u := core.PokemonUsage{
			Pokemon:   name,
			PokemonID: dex.ToID(name),
			RawCount:  int(raw.RawCount),
			Abilities: shares(raw.Abilities),
			Items:     shares(raw.Items),
			Moves:     shares(raw.Moves),
			Teammates: shares(raw.Teammates),
			TeraTypes: shares(raw.TeraTypes),
			Spreads:   p.spreads(name, raw.Spreads),
			Counters:  counters(raw.Counters),
		}
		if battles > 0 {
			u.UsagePercent = raw.RawCount / float64(battles*2) * 100
		}
		snap.Pokemon = append(snap.Pokemon, u)
	}

	sort.Slice(snap.Pokemon, func(i, j int) bool {
		a, b := snap.Pokemon[i], snap.Pokemon[j]
		if a.RawCount != b.RawCount {
			return a.RawCount > b.RawCount
		}
		return a.Pokemon < b.Pokemon
	})
	for i := range snap.Pokemon {
		snap.Pokemon[i].Rank = i + 1
	}
	return snap, nil
}

// shares turns a weight map into entries sorted by weight with their
// percentage of the total. Empty names, such as the blank move slot, are
// dropped.
func shares(m map[string]float64) []core.Share {
	var total float64
	for _, v := range m {
		total += v
	}
	if total == 0 {
		total = 1
	}
	out := make([]core.Share, 0, len(m))
	for name, v := range m {
		if name == "" {
			continue
		}
		out = append(out, core.Share{Name: name, Count: v, Percent: v / total * 100})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (p *Parser) spreads(pokemon string, m map[string]float64) []core.SpreadUsage {
	all := shares(m)
	out := make([]core.SpreadUsage, 0, min(len(all), MaxSpreads))
	for _, s := range all {
		if len(out) == MaxSpreads {
			break
		}
		nature, evs, err := ParseSmogonSpread(s.Name)
		if err != nil {
			p.logger.Debug("Skipping spread", "pokemon", pokemon, "error", err)
			continue
		}
		out = append(out, core.SpreadUsage{Nature: nature, EVs: evs, Count: s.Count, Percent: s.Percent})
	}
	return out
}

// counters ranks entries by score, the lower bound of the win rate at four
// standard deviations. Malformed entries are dropped.
func counters(m map[string][]float64) []core.Counter {
	out := make([]core.Counter, 0, len(m))
	for name, v := range m {
		if name == "" || len(v) < 3 {
			continue
		}
		out = append(out, core.Counter{
			Name:       name,
			Encounters: v[0],
			Score:      (v[1] - 4*v[2]) * 100,
			WinPercent: v[1] * 100,
			StdDev:     v[2] * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > MaxCounters {
		out = out[:MaxCounters]
	}
	return out
}
