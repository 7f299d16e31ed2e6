package tinykernel

// Fixed is a Q17.14 signed fixed-point number: the stored integer x
// represents the value x/FixedScale. Used exclusively by the MLFQS
// recomputation (recent_cpu, load_avg); grounded on the original kernel's
// ffloat.c, which this mirrors exactly (add/sub on the raw integer,
// multiply/divide via a 64-bit intermediate, round biased away from zero).
type Fixed int32

// FixedScale is FRAC, 2^14, the fixed-point scale factor (§6).
const FixedScale = 1 << 14

// FixedFromInt converts an integer to Fixed.
func FixedFromInt(n int) Fixed {
	return Fixed(int64(n) * FixedScale)
}

// Add returns f+g.
func (f Fixed) Add(g Fixed) Fixed {
	return f + g
}

// Sub returns f-g.
func (f Fixed) Sub(g Fixed) Fixed {
	return f - g
}

// Mul returns f*g, rounding toward zero.
func (f Fixed) Mul(g Fixed) Fixed {
	return Fixed(int64(f) * int64(g) / FixedScale)
}

// Div returns f/g, rounding toward zero.
func (f Fixed) Div(g Fixed) Fixed {
	return Fixed(int64(f) * FixedScale / int64(g))
}

// ToInt truncates toward zero, discarding the fractional part.
func (f Fixed) ToInt() int {
	return int(f) / FixedScale
}

// Round converts to the nearest integer, rounding half away from zero.
func (f Fixed) Round() int {
	if f >= 0 {
		return int(f+FixedScale/2) / FixedScale
	}
	return int(f-FixedScale/2) / FixedScale
}
