package types

import "math/big"

// Account holds the spendable ledger balance for an address. Viewers prepay
// into it and creator payouts settle into it; no operation may drive Balance
// negative.
type Account struct {
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}
