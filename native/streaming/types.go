package streaming

import "math/big"

// Creator describes a registered broadcaster. PricePerSecond is fixed at
// registration time and expressed in the smallest currency unit.
type Creator struct {
	Address         [20]byte `json:"address"`
	Name            string   `json:"name"`
	PricePerSecond  *big.Int `json:"pricePerSecond"`
	TotalEarnings   *big.Int `json:"totalEarnings"`
	IsActive        bool     `json:"isActive"`
	SubscriberCount uint64   `json:"subscriberCount"`
	RegisteredAt    int64    `json:"registeredAt"`
}

// Clone returns a deep copy of the creator record.
func (c *Creator) Clone() *Creator {
	if c == nil {
		return nil
	}
	clone := *c
	if c.PricePerSecond != nil {
		clone.PricePerSecond = new(big.Int).Set(c.PricePerSecond)
	}
	if c.TotalEarnings != nil {
		clone.TotalEarnings = new(big.Int).Set(c.TotalEarnings)
	}
	return &clone
}

// Stream is a single live session. A stream ends exactly once and its id is
// never reused.
type Stream struct {
	ID          uint64   `json:"id"`
	Creator     [20]byte `json:"creator"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartTime   int64    `json:"startTime"`
	IsLive      bool     `json:"isLive"`
	ViewerCount uint64   `json:"viewerCount"`
}

// Clone returns a copy of the stream record.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Params holds the process-wide settlement parameters. FeePool is the balance
// held by the ledger that belongs to neither viewers nor creators.
type Params struct {
	FeePercent   uint32   `json:"feePercent"`
	FeePool      *big.Int `json:"feePool"`
	NextStreamID uint64   `json:"nextStreamId"`
}

// Clone returns a deep copy of the parameter record.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	clone := *p
	if p.FeePool != nil {
		clone.FeePool = new(big.Int).Set(p.FeePool)
	}
	return &clone
}

// PaymentReceipt summarises one successful settlement.
type PaymentReceipt struct {
	Viewer          [20]byte `json:"viewer"`
	Creator         [20]byte `json:"creator"`
	WatchSeconds    uint64   `json:"watchSeconds"`
	TotalCost       *big.Int `json:"totalCost"`
	PlatformFee     *big.Int `json:"platformFee"`
	CreatorEarnings *big.Int `json:"creatorEarnings"`
	PaidAt          int64    `json:"paidAt"`
}
