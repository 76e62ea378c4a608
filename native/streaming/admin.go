package streaming

import (
	"fmt"
	"math/big"
)

// SetPlatformFee updates the platform fee percentage. Only the owner may call
// it and the value is capped at 10; a rejected update leaves the previous
// value in force.
func (e *Engine) SetPlatformFee(caller [20]byte, percent uint32) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.isOwner(caller) {
		return ErrUnauthorized
	}
	if percent > maxFeePercent {
		return ErrFeeOutOfRange
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	params, err := e.loadParams()
	if err != nil {
		return err
	}
	params.FeePercent = percent
	if err := e.state.StreamingParamsPut(params); err != nil {
		return err
	}
	e.emit(FeeUpdatedEvent(fmt.Sprintf("%d", percent)))
	return nil
}

// PlatformFee reports the current fee percentage.
func (e *Engine) PlatformFee() (uint32, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	params, err := e.loadParams()
	if err != nil {
		return 0, err
	}
	return params.FeePercent, nil
}

// CollectedFees reports the accumulated platform fee pool.
func (e *Engine) CollectedFees() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(params.FeePool), nil
}

// WithdrawPlatformFees drains the collected fee pool to the owner's account.
// The pool holds exactly the funds attributable to neither viewer balances
// nor creator payouts. A router veto leaves the pool intact.
func (e *Engine) WithdrawPlatformFees(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if !e.isOwner(caller) {
		return nil, ErrUnauthorized
	}
	unlock := e.accounts.lock(e.owner)
	defer unlock()
	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(params.FeePool)
	if amount.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.router.Route(e.owner, new(big.Int).Set(amount)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	ownerAcc, err := e.state.GetAccount(e.owner[:])
	if err != nil {
		return nil, err
	}
	ownerAcc = ensureAccount(ownerAcc)
	ownerAcc.Balance = new(big.Int).Add(ownerAcc.Balance, amount)
	if err := e.state.PutAccount(e.owner[:], ownerAcc); err != nil {
		return nil, err
	}
	params.FeePool = big.NewInt(0)
	if err := e.state.StreamingParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(FeeWithdrawnEvent(hexAddr(e.owner), amount.String()))
	return amount, nil
}
