package calc

import (
	"fmt"
	"math/big"
)

// Ratio is an exact rational multiplier. The zero value is treated as 1.
type Ratio struct {
	Num int64 `json:"num"`
	Den int64 `json:"den"`
}

// Common multipliers.
var (
	One         = Ratio{1, 1}
	Zero        = Ratio{0, 1}
	Quarter     = Ratio{1, 4}
	Half        = Ratio{1, 2}
	ThreeFourth = Ratio{3, 4}
	ThreeHalves = Ratio{3, 2}
	Double      = Ratio{2, 1}
	Quadruple   = Ratio{4, 1}
)

// R builds a ratio.
func R(num, den int64) Ratio {
	return Ratio{Num: num, Den: den}
}

// IsZero reports an exact 0 multiplier. The zero value is not zero, it is 1.
func (r Ratio) IsZero() bool {
	return r.Den != 0 && r.Num == 0
}

func (r Ratio) norm() Ratio {
	if r.Den == 0 {
		return One
	}
	return r
}

// Mul multiplies two ratios.
func (r Ratio) Mul(o Ratio) Ratio {
	r, o = r.norm(), o.norm()
	return Ratio{r.Num * o.Num, r.Den * o.Den}
}

// Float is for display only.
func (r Ratio) Float() float64 {
	r = r.norm()
	return float64(r.Num) / float64(r.Den)
}

// Cmp compares r with o.
func (r Ratio) Cmp(o Ratio) int {
	r, o = r.norm(), o.norm()
	return big.NewRat(r.Num, r.Den).Cmp(big.NewRat(o.Num, o.Den))
}

// Apply returns floor(v * r).
func (r Ratio) Apply(v int) int {
	r = r.norm()
	return int(int64(v) * r.Num / r.Den)
}

func (r Ratio) String() string {
	r = r.norm()
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
