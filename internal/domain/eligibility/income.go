package eligibility

// Income bracket codes used by the eligibility and application forms.
const (
	BracketUnder150K  = "below_1_5l"
	Bracket150KTo300K = "1_5l_3l"
	Bracket300KTo500K = "3l_5l"
	Bracket500KTo1M   = "5l_10l"
	BracketOver1M     = "above_10l"
)

var bracketLowerBounds = map[string]float64{
	BracketUnder150K:  0,
	Bracket150KTo300K: 150000,
	Bracket300KTo500K: 300000,
	Bracket500KTo1M:   500000,
	BracketOver1M:     1000000,
}

// IncomeFromBracket returns the lower bound of an income bracket code.
// Unknown codes return 0, which scores in the lowest income branch.
func IncomeFromBracket(code string) float64 {
	return bracketLowerBounds[normalize(code)]
}

// Brackets lists the bracket codes in ascending order.
func Brackets() []string {
	return []string{BracketUnder150K, Bracket150KTo300K, Bracket300KTo500K, Bracket500KTo1M, BracketOver1M}
}
