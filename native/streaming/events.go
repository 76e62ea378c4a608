package streaming

import (
	"streampay/core/events"
	"streampay/core/types"
)

const (
	// EventTypeCreatorRegistered is emitted when a creator joins the ledger.
	EventTypeCreatorRegistered = "streaming.creator.registered"
	// EventTypeCreatorPaused is emitted when the owner pauses a creator.
	EventTypeCreatorPaused = "streaming.creator.paused"
	// EventTypeStreamStarted is emitted when a creator goes live.
	EventTypeStreamStarted = "streaming.stream.started"
	// EventTypeStreamEnded is emitted when a live stream ends.
	EventTypeStreamEnded = "streaming.stream.ended"
	// EventTypeDeposited is emitted when funds are credited to a viewer.
	EventTypeDeposited = "streaming.funds.deposited"
	// EventTypePaymentProcessed is emitted for every settled payment.
	EventTypePaymentProcessed = "streaming.payment.processed"
	// EventTypeCreatorPaidOut is emitted when earnings reach a creator.
	EventTypeCreatorPaidOut = "streaming.creator.paidout"
	// EventTypeFeeUpdated is emitted when the owner changes the platform fee.
	EventTypeFeeUpdated = "streaming.fee.updated"
	// EventTypeFeeWithdrawn is emitted when the owner drains the fee pool.
	EventTypeFeeWithdrawn = "streaming.fee.withdrawn"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Payload() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// CreatorRegisteredEvent announces a new creator and their fixed price.
func CreatorRegisteredEvent(creator string, name string, pricePerSecond string) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorRegistered,
		Attributes: map[string]string{
			"creator":        creator,
			"name":           name,
			"pricePerSecond": pricePerSecond,
		},
	}
}

// CreatorPausedEvent records an owner pausing a creator.
func CreatorPausedEvent(creator string) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorPaused,
		Attributes: map[string]string{
			"creator": creator,
		},
	}
}

// StreamStartedEvent announces a new live stream.
func StreamStartedEvent(streamID string, creator string, title string) *types.Event {
	return &types.Event{
		Type: EventTypeStreamStarted,
		Attributes: map[string]string{
			"streamId": streamID,
			"creator":  creator,
			"title":    title,
		},
	}
}

// StreamEndedEvent records the terminal transition of a stream.
func StreamEndedEvent(streamID string, creator string) *types.Event {
	return &types.Event{
		Type: EventTypeStreamEnded,
		Attributes: map[string]string{
			"streamId": streamID,
			"creator":  creator,
		},
	}
}

// DepositedEvent records funds credited to a viewer balance.
func DepositedEvent(viewer string, amount string, balance string) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"viewer":  viewer,
			"amount":  amount,
			"balance": balance,
		},
	}
}

// PaymentProcessedEvent records one settled pay-per-second charge.
func PaymentProcessedEvent(viewer string, creator string, totalCost string, watchSeconds string) *types.Event {
	return &types.Event{
		Type: EventTypePaymentProcessed,
		Attributes: map[string]string{
			"viewer":       viewer,
			"creator":      creator,
			"totalCost":    totalCost,
			"watchSeconds": watchSeconds,
		},
	}
}

// CreatorPaidOutEvent records earnings routed to a creator.
func CreatorPaidOutEvent(creator string, earnings string) *types.Event {
	return &types.Event{
		Type: EventTypeCreatorPaidOut,
		Attributes: map[string]string{
			"creator":  creator,
			"earnings": earnings,
		},
	}
}

// FeeUpdatedEvent records a platform fee change.
func FeeUpdatedEvent(percent string) *types.Event {
	return &types.Event{
		Type: EventTypeFeeUpdated,
		Attributes: map[string]string{
			"percent": percent,
		},
	}
}

// FeeWithdrawnEvent records the owner draining the collected fee pool.
func FeeWithdrawnEvent(owner string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeFeeWithdrawn,
		Attributes: map[string]string{
			"owner":  owner,
			"amount": amount,
		},
	}
}
