package streaming

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"streampay/core/events"
	"streampay/core/types"
)

const defaultFeePercent = 5

// engineState is the persistence surface the engine runs against.
// Implementations must return defensive copies: a record obtained from a
// getter is owned by the caller until written back.
type engineState interface {
	StreamingCreatorGet(addr [20]byte) (*Creator, bool, error)
	StreamingCreatorPut(creator *Creator) error
	StreamingCreatorList() ([][20]byte, error)
	StreamingCreatorListAppend(addr [20]byte) error
	StreamingStreamGet(id uint64) (*Stream, bool, error)
	StreamingStreamPut(stream *Stream) error
	StreamingActiveStreams() ([]uint64, error)
	StreamingActiveStreamAdd(id uint64) error
	StreamingActiveStreamRemove(id uint64) error
	StreamingWatchTimeGet(viewer [20]byte, creator [20]byte) (uint64, error)
	StreamingWatchTimePut(viewer [20]byte, creator [20]byte, seconds uint64) error
	StreamingParamsGet() (*Params, bool, error)
	StreamingParamsPut(params *Params) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// PayoutRouter delivers creator earnings to their payable destination. The
// ledger credits the destination account itself; the router is the hook for
// external payment rails and may veto a settlement by returning an error, in
// which case the whole settlement rolls back.
type PayoutRouter interface {
	Route(destination [20]byte, amount *big.Int) error
}

// NoopRouter accepts every payout, leaving funds in ledger custody.
type NoopRouter struct{}

// Route implements the PayoutRouter interface.
func (NoopRouter) Route([20]byte, *big.Int) error { return nil }

// Engine wires pay-per-second settlement logic with persistence and event
// emission. Each account is guarded by its own lock; registry records, the
// active stream set, and the parameter block share a single global lock that
// is always acquired after any account locks.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	router   PayoutRouter
	nowFn    func() int64
	owner    [20]byte
	accounts *addressLocks
	globalMu sync.Mutex
}

// NewEngine constructs a settlement engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		router:   NoopRouter{},
		accounts: newAddressLocks(),
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPayoutRouter configures the payout delivery hook.
func (e *Engine) SetPayoutRouter(router PayoutRouter) {
	if router == nil {
		e.router = NoopRouter{}
		return
	}
	e.router = router
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetOwner configures the platform owner authorized for admin operations.
func (e *Engine) SetOwner(owner [20]byte) { e.owner = owner }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) isOwner(caller [20]byte) bool {
	return !isZeroAddress(e.owner) && caller == e.owner
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// loadParams returns the persisted parameter block, falling back to defaults
// before the first write. Callers must hold globalMu.
func (e *Engine) loadParams() (*Params, error) {
	params, ok, err := e.state.StreamingParamsGet()
	if err != nil {
		return nil, err
	}
	if !ok || params == nil {
		params = &Params{FeePercent: defaultFeePercent}
	}
	if params.FeePool == nil {
		params.FeePool = big.NewInt(0)
	}
	if params.NextStreamID == 0 {
		params.NextStreamID = 1
	}
	return params, nil
}

// Deposit credits a viewer balance, creating the account lazily. The new
// balance is visible to every subsequent settlement.
func (e *Engine) Deposit(viewer [20]byte, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if isZeroAddress(viewer) || amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidInput
	}
	unlock := e.accounts.lock(viewer)
	defer unlock()

	acc, err := e.state.GetAccount(viewer[:])
	if err != nil {
		return nil, err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := e.state.PutAccount(viewer[:], acc); err != nil {
		return nil, err
	}
	e.emit(DepositedEvent(hexAddr(viewer), amount.String(), acc.Balance.String()))
	return new(big.Int).Set(acc.Balance), nil
}

// Pay settles one pay-per-second charge: it debits the viewer, credits the
// creator minus the platform fee, and records the watch time. Every check and
// mutation happens under the locks of both accounts; on any failure, payout
// routing included, nothing is persisted.
func (e *Engine) Pay(viewer [20]byte, creator [20]byte, watchSeconds uint64, attached *big.Int) (*PaymentReceipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if isZeroAddress(viewer) {
		return nil, ErrInvalidInput
	}
	if attached == nil {
		attached = big.NewInt(0)
	}
	if attached.Sign() < 0 {
		return nil, ErrInvalidInput
	}
	unlock := e.accounts.lockPair(viewer, creator)
	defer unlock()

	creatorRec, ok, err := e.state.StreamingCreatorGet(creator)
	if err != nil {
		return nil, err
	}
	if !ok || creatorRec == nil {
		return nil, ErrNotRegistered
	}
	if !creatorRec.IsActive {
		return nil, ErrCreatorInactive
	}
	if watchSeconds == 0 {
		return nil, ErrInvalidInput
	}
	totalCost, err := watchCost(creatorRec.PricePerSecond, watchSeconds)
	if err != nil {
		return nil, err
	}

	e.globalMu.Lock()
	params, err := e.loadParams()
	e.globalMu.Unlock()
	if err != nil {
		return nil, err
	}
	platformFee, creatorEarnings := splitFee(totalCost, params.FeePercent)

	viewerAcc, err := e.state.GetAccount(viewer[:])
	if err != nil {
		return nil, err
	}
	viewerAcc = ensureAccount(viewerAcc)
	available := new(big.Int).Add(viewerAcc.Balance, attached)
	if available.Cmp(totalCost) < 0 {
		return nil, ErrInsufficientBalance
	}
	// A creator watching their own stream settles against a single account:
	// alias the records so the debit is not lost when the credit writes back.
	creatorAcc := viewerAcc
	if creator != viewer {
		creatorAcc, err = e.state.GetAccount(creator[:])
		if err != nil {
			return nil, err
		}
		creatorAcc = ensureAccount(creatorAcc)
	}
	watched, err := e.state.StreamingWatchTimeGet(viewer, creator)
	if err != nil {
		return nil, err
	}
	if watched+watchSeconds < watched {
		return nil, ErrOverflow
	}

	// The router is the single externally-failable step. It runs before any
	// write so a veto leaves the ledger untouched.
	if err := e.router.Route(creator, new(big.Int).Set(creatorEarnings)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	viewerAcc.Balance = new(big.Int).Sub(available, totalCost)
	if err := e.state.PutAccount(viewer[:], viewerAcc); err != nil {
		return nil, err
	}
	creatorAcc.Balance = new(big.Int).Add(creatorAcc.Balance, creatorEarnings)
	if err := e.state.PutAccount(creator[:], creatorAcc); err != nil {
		return nil, err
	}
	creatorRec.TotalEarnings = new(big.Int).Add(creatorRec.TotalEarnings, creatorEarnings)
	if watched == 0 {
		creatorRec.SubscriberCount++
	}
	if err := e.state.StreamingCreatorPut(creatorRec); err != nil {
		return nil, err
	}
	if err := e.state.StreamingWatchTimePut(viewer, creator, watched+watchSeconds); err != nil {
		return nil, err
	}
	// Re-load under the lock: settlements over disjoint accounts commit fees
	// concurrently and must not clobber each other's pool increments.
	e.globalMu.Lock()
	committed, err := e.loadParams()
	if err == nil {
		committed.FeePool = new(big.Int).Add(committed.FeePool, platformFee)
		err = e.state.StreamingParamsPut(committed)
	}
	e.globalMu.Unlock()
	if err != nil {
		return nil, err
	}

	if attached.Sign() > 0 {
		credited := new(big.Int).Add(viewerAcc.Balance, totalCost)
		e.emit(DepositedEvent(hexAddr(viewer), attached.String(), credited.String()))
	}
	e.emit(PaymentProcessedEvent(hexAddr(viewer), hexAddr(creator), totalCost.String(), fmt.Sprintf("%d", watchSeconds)))
	e.emit(CreatorPaidOutEvent(hexAddr(creator), creatorEarnings.String()))

	return &PaymentReceipt{
		Viewer:          viewer,
		Creator:         creator,
		WatchSeconds:    watchSeconds,
		TotalCost:       totalCost,
		PlatformFee:     platformFee,
		CreatorEarnings: creatorEarnings,
		PaidAt:          e.now(),
	}, nil
}

// ViewerBalance reports the spendable balance for an address. Unknown
// addresses read as zero rather than failing.
func (e *Engine) ViewerBalance(viewer [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.state.GetAccount(viewer[:])
	if err != nil {
		return nil, err
	}
	acc = ensureAccount(acc)
	return new(big.Int).Set(acc.Balance), nil
}

// WatchTime reports the cumulative seconds a viewer has paid for with one
// creator. Unknown pairs read as zero.
func (e *Engine) WatchTime(viewer [20]byte, creator [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.StreamingWatchTimeGet(viewer, creator)
}
