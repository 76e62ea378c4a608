package streaming

import "errors"

var (
	// ErrNilState is returned when the engine is used before a state backend
	// has been configured.
	ErrNilState = errors.New("streaming engine: state not configured")
	// ErrInvalidInput flags malformed arguments (empty name or title,
	// non-positive price, amount, or watch duration).
	ErrInvalidInput = errors.New("streaming engine: invalid input")
	// ErrAlreadyRegistered is returned when an address registers twice.
	ErrAlreadyRegistered = errors.New("streaming engine: creator already registered")
	// ErrNotRegistered is returned for operations against an unknown creator.
	ErrNotRegistered = errors.New("streaming engine: creator not registered")
	// ErrCreatorInactive is returned when a paused creator is paid or starts
	// a stream.
	ErrCreatorInactive = errors.New("streaming engine: creator inactive")
	// ErrUnauthorized is returned when the caller does not own the resource
	// or is not the platform owner.
	ErrUnauthorized = errors.New("streaming engine: caller not authorized")
	// ErrStreamNotFound is returned for an unknown stream id.
	ErrStreamNotFound = errors.New("streaming engine: stream not found")
	// ErrStreamEnded is returned when ending a stream that already ended.
	ErrStreamEnded = errors.New("streaming engine: stream already ended")
	// ErrStreamNotLive is returned when joining or leaving an ended stream.
	ErrStreamNotLive = errors.New("streaming engine: stream not live")
	// ErrInsufficientBalance is returned when a payment exceeds the viewer's
	// available balance.
	ErrInsufficientBalance = errors.New("streaming engine: insufficient balance")
	// ErrOverflow is returned when the watch cost exceeds the representable
	// range.
	ErrOverflow = errors.New("streaming engine: cost overflow")
	// ErrFeeOutOfRange is returned when the platform fee is set above the cap.
	ErrFeeOutOfRange = errors.New("streaming engine: fee percentage out of range")
	// ErrNothingToWithdraw is returned when the collected fee pool is empty.
	ErrNothingToWithdraw = errors.New("streaming engine: nothing to withdraw")
	// ErrTransferFailed wraps payout router failures; the settlement that
	// triggered it is rolled back in full.
	ErrTransferFailed = errors.New("streaming engine: transfer failed")
)
