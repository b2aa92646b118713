package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/vgccalc/vgccalc/pkg/core"
)

// MaxSpreads is the number of EV spreads kept per Pokemon.
const MaxSpreads = 50

// MaxCounters is the number of checks and counters kept per Pokemon.
const MaxCounters = 20

// Parser provides pure text -> core struct conversion.
// It has zero external dependencies beyond a logger.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

var statAliases = map[string]int{
	"hp":  0,
	"atk": 1, "attack": 1,
	"def": 2, "defense": 2,
	"spa": 3, "spatk": 3, "sp.atk": 3, "specialattack": 3,
	"spd": 4, "spdef": 4, "sp.def": 4, "specialdefense": 4,
	"spe": 5, "speed": 5,
}

var spreadPrefix = regexp.MustCompile(`(?i)^(evs?|ivs?):\s*`)

func setStat(l *core.StatLine, i, v int) {
	switch i {
	case 0:
		l.HP = v
	case 1:
		l.Atk = v
	case 2:
		l.Def = v
	case 3:
		l.SpA = v
	case 4:
		l.SpD = v
	case 5:
		l.Spe = v
	}
}

func uniform(v int) core.StatLine {
	return core.StatLine{HP: v, Atk: v, Def: v, SpA: v, SpD: v, Spe: v}
}

// ParseStatSpread reads either the compact "252/4/0/252/0/0" form (HP, Atk,
// Def, SpA, SpD, Spe) or the Showdown "252 HP / 4 Def" form. Stats the
// string does not name get def. An optional "EVs:" or "IVs:" prefix is
// accepted.
func ParseStatSpread(s string, def int) (core.StatLine, error) {
	s = strings.TrimSpace(spreadPrefix.ReplaceAllString(strings.TrimSpace(s), ""))
	out := uniform(def)
	if s == "" {
		return out, nil
	}

	parts := strings.Split(s, "/")
	if compact, ok := parseCompact(parts); ok {
		return compact, nil
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return core.StatLine{}, fmt.Errorf("malformed stat entry %q", part)
		}
		v, err := strconv.Atoi(fields[0])
		if err != nil {
			return core.StatLine{}, fmt.Errorf("malformed stat value in %q", part)
		}
		name := strings.ToLower(strings.Join(fields[1:], ""))
		i, ok := statAliases[name]
		if !ok {
			return core.StatLine{}, fmt.Errorf("unknown stat %q", strings.Join(fields[1:], " "))
		}
		setStat(&out, i, v)
	}
	return out, nil
}

func parseCompact(parts []string) (core.StatLine, bool) {
	if len(parts) != 6 {
		return core.StatLine{}, false
	}
	var out core.StatLine
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return core.StatLine{}, false
		}
		setStat(&out, i, v)
	}
	return out, true
}

// ParseEVs parses an EV spread. Unnamed stats are 0.
func ParseEVs(s string) (core.StatLine, error) {
	return ParseStatSpread(s, 0)
}

// ParseIVs parses an IV spread. Unnamed stats are 31.
func ParseIVs(s string) (core.StatLine, error) {
	return ParseStatSpread(s, 31)
}

var smogonSpread = regexp.MustCompile(`^(\w+):(\d+)/(\d+)/(\d+)/(\d+)/(\d+)/(\d+)$`)

// ParseSmogonSpread parses a usage statistics spread such as
// "Careful:252/4/140/0/76/36".
func ParseSmogonSpread(s string) (nature string, evs core.StatLine, err error) {
	m := smogonSpread.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", core.StatLine{}, fmt.Errorf("malformed spread %q", s)
	}
	for i := 0; i < 6; i++ {
		v, _ := strconv.Atoi(m[i+2])
		setStat(&evs, i, v)
	}
	return m[1], evs, nil
}
