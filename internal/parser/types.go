package parser

// chaosFile is the Smogon "chaos" usage statistics document. Only the
// fields used by vgccalc are declared.
type chaosFile struct {
	Info chaosInfo               `json:"info"`
	Data map[string]chaosPokemon `json:"data"`
}

type chaosInfo struct {
	Metagame string  `json:"metagame"`
	Cutoff   float64 `json:"cutoff"`
	Battles  float64 `json:"number of battles"`
}

type chaosPokemon struct {
	RawCount  float64            `json:"Raw count"`
	Abilities map[string]float64 `json:"Abilities"`
	Items     map[string]float64 `json:"Items"`
	Moves     map[string]float64 `json:"Moves"`
	Teammates map[string]float64 `json:"Teammates"`
	Spreads   map[string]float64 `json:"Spreads"`
	TeraTypes map[string]float64 `json:"Tera Types"`
	// Each entry is [encounters, KOed or switched fraction, std dev].
	Counters map[string][]float64 `json:"Checks and Counters"`
}
