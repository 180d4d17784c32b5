package domain

const (
	// MaxFeeBps is the upper bound for any configured fee (10%).
	MaxFeeBps = int64(1000)

	// FeeDenominator converts basis points to a fraction.
	FeeDenominator = int64(10000)
)

// SplitFee divides a gross payment into protocol fee and merchant net.
// The fee always rounds down, so the remainder stays with the merchant.
// The quotient and remainder are scaled separately so the product never
// overflows, whatever the amount.
func SplitFee(amount, feeBps int64) (fee int64, net int64) {
	q, r := amount/FeeDenominator, amount%FeeDenominator
	fee = q*feeBps + r*feeBps/FeeDenominator
	return fee, amount - fee
}
