package streaming

import (
	"math/big"
	"strings"
)

// Register creates a creator record with a fixed price per second and appends
// it to the enumerable creator list. The price is immutable afterwards.
func (e *Engine) Register(addr [20]byte, name string, pricePerSecond *big.Int) (*Creator, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	trimmed := strings.TrimSpace(name)
	if isZeroAddress(addr) || trimmed == "" {
		return nil, ErrInvalidInput
	}
	if pricePerSecond == nil || pricePerSecond.Sign() <= 0 {
		return nil, ErrInvalidInput
	}
	unlock := e.accounts.lock(addr)
	defer unlock()

	if _, ok, err := e.state.StreamingCreatorGet(addr); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyRegistered
	}
	creator := &Creator{
		Address:        addr,
		Name:           trimmed,
		PricePerSecond: new(big.Int).Set(pricePerSecond),
		TotalEarnings:  big.NewInt(0),
		IsActive:       true,
		RegisteredAt:   e.now(),
	}
	if err := e.state.StreamingCreatorPut(creator); err != nil {
		return nil, err
	}
	e.globalMu.Lock()
	err := e.state.StreamingCreatorListAppend(addr)
	e.globalMu.Unlock()
	if err != nil {
		return nil, err
	}
	e.emit(CreatorRegisteredEvent(hexAddr(addr), creator.Name, creator.PricePerSecond.String()))
	return creator.Clone(), nil
}

// PauseCreator deactivates a creator. Only the platform owner may pause, and
// there is no reactivation path. Pausing an already paused creator is a no-op.
func (e *Engine) PauseCreator(caller [20]byte, addr [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if !e.isOwner(caller) {
		return ErrUnauthorized
	}
	unlock := e.accounts.lock(addr)
	defer unlock()

	creator, ok, err := e.state.StreamingCreatorGet(addr)
	if err != nil {
		return err
	}
	if !ok || creator == nil {
		return ErrNotRegistered
	}
	if !creator.IsActive {
		return nil
	}
	creator.IsActive = false
	if err := e.state.StreamingCreatorPut(creator); err != nil {
		return err
	}
	e.emit(CreatorPausedEvent(hexAddr(addr)))
	return nil
}

// CreatorInfo returns a read-only view of a creator. Unknown addresses read
// as a zero-value record with registered=false rather than failing.
func (e *Engine) CreatorInfo(addr [20]byte) (*Creator, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, ErrNilState
	}
	creator, ok, err := e.state.StreamingCreatorGet(addr)
	if err != nil {
		return nil, false, err
	}
	if !ok || creator == nil {
		return &Creator{
			Address:        addr,
			PricePerSecond: big.NewInt(0),
			TotalEarnings:  big.NewInt(0),
		}, false, nil
	}
	return creator.Clone(), true, nil
}

// ListCreators returns every registered creator address in registration order.
func (e *Engine) ListCreators() ([][20]byte, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	return e.state.StreamingCreatorList()
}

// TotalCreators reports how many creators have ever registered.
func (e *Engine) TotalCreators() (uint64, error) {
	list, err := e.ListCreators()
	if err != nil {
		return 0, err
	}
	return uint64(len(list)), nil
}
