package calc

import (
	"encoding/json"
	"strings"
)

// Nature raises one stat by 10% and lowers another by 10%. A neutral
// nature has Plus == Minus.
type Nature struct {
	Name  string
	Plus  Stat
	Minus Stat
}

// Neutral is the default nature.
var Neutral = Nature{Name: "Hardy", Plus: Atk, Minus: Atk}

var natures = map[string]Nature{}

func init() {
	table := []Nature{
		{"Hardy", Atk, Atk}, {"Lonely", Atk, Def}, {"Brave", Atk, Spe}, {"Adamant", Atk, SpA}, {"Naughty", Atk, SpD},
		{"Bold", Def, Atk}, {"Docile", Def, Def}, {"Relaxed", Def, Spe}, {"Impish", Def, SpA}, {"Lax", Def, SpD},
		{"Timid", Spe, Atk}, {"Hasty", Spe, Def}, {"Serious", Spe, Spe}, {"Jolly", Spe, SpA}, {"Naive", Spe, SpD},
		{"Modest", SpA, Atk}, {"Mild", SpA, Def}, {"Quiet", SpA, Spe}, {"Bashful", SpA, SpA}, {"Rash", SpA, SpD},
		{"Calm", SpD, Atk}, {"Gentle", SpD, Def}, {"Sassy", SpD, Spe}, {"Careful", SpD, SpA}, {"Quirky", SpD, SpD},
	}
	for _, n := range table {
		natures[strings.ToLower(n.Name)] = n
	}
}

// ParseNature looks up a nature by name. An empty name is neutral.
func ParseNature(name string) (Nature, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Neutral, nil
	}
	n, ok := natures[key]
	if !ok {
		return Neutral, validationf("nature", "unknown nature %q", name)
	}
	return n, nil
}

// NatureFor returns the nature that raises plus and lowers minus, or
// Neutral when plus == minus.
func NatureFor(plus, minus Stat) Nature {
	for _, n := range natures {
		if n.Plus == plus && n.Minus == minus && plus != minus {
			return n
		}
	}
	return Neutral
}

// IsNeutral reports whether the nature changes no stat.
func (n Nature) IsNeutral() bool {
	return n.Plus == n.Minus
}

// Multiplier is 11/10, 9/10 or 1 for s.
func (n Nature) Multiplier(s Stat) Ratio {
	if n.IsNeutral() || s == HP {
		return One
	}
	switch s {
	case n.Plus:
		return R(11, 10)
	case n.Minus:
		return R(9, 10)
	}
	return One
}

// Sign is "+", "-" or "" for display in spreads.
func (n Nature) Sign(s Stat) string {
	if n.IsNeutral() {
		return ""
	}
	switch s {
	case n.Plus:
		return "+"
	case n.Minus:
		return "-"
	}
	return ""
}

func (n Nature) String() string {
	if n.Name == "" {
		return Neutral.Name
	}
	return n.Name
}

// MarshalJSON encodes the nature as its name.
func (n Nature) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON decodes a nature name.
func (n *Nature) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseNature(name)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
