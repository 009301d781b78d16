package snapshot

// PosBetween returns a fractional order key strictly between a and b when
// possible. Callers minting `_pos` for a new child pass the neighbors'
// positions; either bound may be omitted by passing ok=false.
func PosBetween(a float64, aOK bool, b float64, bOK bool) float64 {
	switch {
	case !aOK && !bOK:
		return 1
	case !aOK:
		return b - 1
	case !bOK:
		return a + 1
	}
	return a + (b-a)/2
}
