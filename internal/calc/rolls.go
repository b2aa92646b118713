package calc

// RollCount is the number of damage rolls, one per percentage in 85..100.
const RollCount = 16

// BaseDamage is floor(floor(floor(2L/5+2) * P * A / D) / 50) + 2.
func BaseDamage(attack, defense, power, level int) int {
	if defense < 1 {
		defense = 1
	}
	return (2*level/5+2)*power*attack/defense/50 + 2
}

// GenerateRolls produces the 16 damage values for one hit. Roll n scales
// the base damage by (85+n)%, then applies the whole chain with one floor.
// Every roll is at least 1 unless the chain holds an exact 0 or the move
// has no power, in which case every roll is 0.
func GenerateRolls(attack, defense, power, level int, chain Chain) []int {
	rolls := make([]int, RollCount)
	if power <= 0 || chain.IsZero() {
		return rolls
	}
	base := BaseDamage(attack, defense, power, level)
	for n := range rolls {
		d := chain.Apply(base * (85 + n) / 100)
		if d < 1 {
			d = 1
		}
		rolls[n] = d
	}
	return rolls
}

// HitMode selects how the rolls of a multi-hit move are aggregated.
type HitMode string

const (
	// HitFirst reports the first hit only.
	HitFirst HitMode = "first"
	// HitSum adds every hit roll by roll, assuming the maximum hit count.
	HitSum HitMode = "sum"
)

// ParseHitMode normalises a hit mode. Empty input is HitFirst.
func ParseHitMode(s string) (HitMode, error) {
	switch HitMode(s) {
	case "", HitFirst:
		return HitFirst, nil
	case HitSum, "summed", "total":
		return HitSum, nil
	}
	return HitFirst, validationf("hitMode", "unknown hit mode %q", s)
}

// Aggregate reduces per-hit roll arrays according to mode.
func Aggregate(perHit [][]int, mode HitMode) []int {
	if len(perHit) == 0 {
		return make([]int, RollCount)
	}
	out := make([]int, len(perHit[0]))
	copy(out, perHit[0])
	if mode != HitSum {
		return out
	}
	for _, rolls := range perHit[1:] {
		for i := range out {
			out[i] += rolls[i]
		}
	}
	return out
}
