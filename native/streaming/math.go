package streaming

import (
	"math/big"

	"github.com/holiman/uint256"
)

const maxFeePercent = 10

// watchCost computes pricePerSecond * watchSeconds with overflow detection.
// Prices are unbounded big integers, so the product is evaluated in 256-bit
// space and rejected rather than wrapped when it does not fit.
func watchCost(pricePerSecond *big.Int, watchSeconds uint64) (*big.Int, error) {
	if pricePerSecond == nil || pricePerSecond.Sign() <= 0 || watchSeconds == 0 {
		return nil, ErrInvalidInput
	}
	price, overflow := uint256.FromBig(pricePerSecond)
	if overflow {
		return nil, ErrOverflow
	}
	seconds := new(uint256.Int).SetUint64(watchSeconds)
	cost, overflow := new(uint256.Int).MulOverflow(price, seconds)
	if overflow {
		return nil, ErrOverflow
	}
	return cost.ToBig(), nil
}

// splitFee divides a total cost into the platform fee and the creator share.
// The fee is floor(total * percent / 100) and the creator share is the exact
// complement, so fee + earnings always equals total with no rounding loss.
func splitFee(totalCost *big.Int, feePercent uint32) (fee *big.Int, earnings *big.Int) {
	if totalCost == nil || totalCost.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	if feePercent == 0 {
		return big.NewInt(0), new(big.Int).Set(totalCost)
	}
	fee = new(big.Int).Mul(totalCost, big.NewInt(int64(feePercent)))
	fee = fee.Div(fee, big.NewInt(100))
	earnings = new(big.Int).Sub(totalCost, fee)
	return fee, earnings
}
