package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"streampay/core/events"
	"streampay/native/streaming"
	"streampay/observability"
)

type registerCreatorParams struct {
	Caller         string `json:"caller"`
	Name           string `json:"name"`
	PricePerSecond string `json:"pricePerSecond"`
}

type startStreamParams struct {
	Caller      string `json:"caller"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type endStreamParams struct {
	Caller   string `json:"caller"`
	StreamID uint64 `json:"streamId"`
}

type depositFundsParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type processPaymentParams struct {
	Caller       string `json:"caller"`
	Creator      string `json:"creator"`
	WatchSeconds uint64 `json:"watchSeconds"`
	Attached     string `json:"attached,omitempty"`
}

type viewerBalanceParams struct {
	Viewer string `json:"viewer"`
}

type watchTimeParams struct {
	Viewer  string `json:"viewer"`
	Creator string `json:"creator"`
}

type creatorInfoParams struct {
	Creator string `json:"creator"`
}

type updatePlatformFeeParams struct {
	Caller  string `json:"caller"`
	Percent uint32 `json:"percent"`
}

type ownerOnlyParams struct {
	Caller string `json:"caller"`
}

type pauseCreatorParams struct {
	Caller  string `json:"caller"`
	Creator string `json:"creator"`
}

type listEventsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type creatorResult struct {
	Address         string `json:"address"`
	Name            string `json:"name"`
	PricePerSecond  string `json:"pricePerSecond"`
	TotalEarnings   string `json:"totalEarnings"`
	IsActive        bool   `json:"isActive"`
	SubscriberCount uint64 `json:"subscriberCount"`
	RegisteredAt    int64  `json:"registeredAt"`
	Registered      bool   `json:"registered"`
}

type streamResult struct {
	ID          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   int64  `json:"startTime"`
	IsLive      bool   `json:"isLive"`
	ViewerCount uint64 `json:"viewerCount"`
}

type paymentResult struct {
	Viewer          string `json:"viewer"`
	Creator         string `json:"creator"`
	WatchSeconds    uint64 `json:"watchSeconds"`
	TotalCost       string `json:"totalCost"`
	PlatformFee     string `json:"platformFee"`
	CreatorEarnings string `json:"creatorEarnings"`
	PaidAt          int64  `json:"paidAt"`
}

func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed params", streaming.ErrInvalidInput)
	}
	return nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%w: amount must be a base-10 integer", streaming.ErrInvalidInput)
	}
	return amount, nil
}

func hexAddress(addr [20]byte) string {
	return "0x" + fmt.Sprintf("%x", addr[:])
}

func (s *Server) handleRegisterCreator(raw json.RawMessage) (interface{}, error) {
	var params registerCreatorParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	price, err := parseAmount(params.PricePerSecond)
	if err != nil {
		return nil, err
	}
	creator, err := s.engine.Register(caller, params.Name, price)
	if err != nil {
		return nil, err
	}
	return creatorView(creator, true), nil
}

func (s *Server) handleStartStream(raw json.RawMessage) (interface{}, error) {
	var params startStreamParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	stream, err := s.engine.StartStream(caller, params.Title, params.Description)
	if err != nil {
		return nil, err
	}
	return streamView(stream), nil
}

func (s *Server) handleEndStream(raw json.RawMessage) (interface{}, error) {
	var params endStreamParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.EndStream(params.StreamID, caller); err != nil {
		return nil, err
	}
	return map[string]bool{"ended": true}, nil
}

func (s *Server) handleDepositFunds(raw json.RawMessage) (interface{}, error) {
	var params depositFundsParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, err
	}
	balance, err := s.engine.Deposit(caller, amount)
	if err != nil {
		return nil, err
	}
	return map[string]string{"balance": balance.String()}, nil
}

func (s *Server) handleProcessPayment(raw json.RawMessage) (interface{}, error) {
	var params processPaymentParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		return nil, err
	}
	attached, err := parseAmount(params.Attached)
	if err != nil {
		return nil, err
	}
	receipt, err := s.engine.Pay(caller, creator, params.WatchSeconds, attached)
	if err != nil {
		return nil, err
	}
	observability.Settlement().RecordPayment(receipt.PlatformFee.Sign() > 0)
	return paymentResult{
		Viewer:          hexAddress(receipt.Viewer),
		Creator:         hexAddress(receipt.Creator),
		WatchSeconds:    receipt.WatchSeconds,
		TotalCost:       receipt.TotalCost.String(),
		PlatformFee:     receipt.PlatformFee.String(),
		CreatorEarnings: receipt.CreatorEarnings.String(),
		PaidAt:          receipt.PaidAt,
	}, nil
}

func (s *Server) handleGetViewerBalance(raw json.RawMessage) (interface{}, error) {
	var params viewerBalanceParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	viewer, err := parseAddress(params.Viewer)
	if err != nil {
		return nil, err
	}
	balance, err := s.engine.ViewerBalance(viewer)
	if err != nil {
		return nil, err
	}
	return map[string]string{"balance": balance.String()}, nil
}

func (s *Server) handleGetWatchTime(raw json.RawMessage) (interface{}, error) {
	var params watchTimeParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	viewer, err := parseAddress(params.Viewer)
	if err != nil {
		return nil, err
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		return nil, err
	}
	seconds, err := s.engine.WatchTime(viewer, creator)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"watchSeconds": seconds}, nil
}

func (s *Server) handleGetActiveStreams(json.RawMessage) (interface{}, error) {
	ids, err := s.engine.ActiveStreams()
	if err != nil {
		return nil, err
	}
	streams := make([]streamResult, 0, len(ids))
	for _, id := range ids {
		stream, err := s.engine.StreamInfo(id)
		if err != nil {
			return nil, err
		}
		streams = append(streams, streamView(stream))
	}
	return streams, nil
}

func (s *Server) handleGetCreatorInfo(raw json.RawMessage) (interface{}, error) {
	var params creatorInfoParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	addr, err := parseAddress(params.Creator)
	if err != nil {
		return nil, err
	}
	creator, registered, err := s.engine.CreatorInfo(addr)
	if err != nil {
		return nil, err
	}
	return creatorView(creator, registered), nil
}

func (s *Server) handleGetTotalCreators(json.RawMessage) (interface{}, error) {
	total, err := s.engine.TotalCreators()
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"total": total}, nil
}

func (s *Server) handleUpdatePlatformFee(raw json.RawMessage) (interface{}, error) {
	var params updatePlatformFeeParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.SetPlatformFee(caller, params.Percent); err != nil {
		return nil, err
	}
	return map[string]uint32{"percent": params.Percent}, nil
}

func (s *Server) handleWithdrawPlatformFees(raw json.RawMessage) (interface{}, error) {
	var params ownerOnlyParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	amount, err := s.engine.WithdrawPlatformFees(caller)
	if err != nil {
		return nil, err
	}
	return map[string]string{"withdrawn": amount.String()}, nil
}

func (s *Server) handlePauseCreator(raw json.RawMessage) (interface{}, error) {
	var params pauseCreatorParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, err
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		return nil, err
	}
	if err := s.engine.PauseCreator(caller, creator); err != nil {
		return nil, err
	}
	return map[string]bool{"paused": true}, nil
}

func (s *Server) handleListEvents(raw json.RawMessage) (interface{}, error) {
	var params listEventsParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return []events.Entry{}, nil
	}
	return s.journal.Entries(params.Cursor), nil
}

func creatorView(creator *streaming.Creator, registered bool) creatorResult {
	view := creatorResult{Registered: registered}
	if creator == nil {
		return view
	}
	view.Address = hexAddress(creator.Address)
	view.Name = creator.Name
	view.IsActive = creator.IsActive
	view.SubscriberCount = creator.SubscriberCount
	view.RegisteredAt = creator.RegisteredAt
	if creator.PricePerSecond != nil {
		view.PricePerSecond = creator.PricePerSecond.String()
	}
	if creator.TotalEarnings != nil {
		view.TotalEarnings = creator.TotalEarnings.String()
	}
	return view
}

func streamView(stream *streaming.Stream) streamResult {
	if stream == nil {
		return streamResult{}
	}
	return streamResult{
		ID:          stream.ID,
		Creator:     hexAddress(stream.Creator),
		Title:       stream.Title,
		Description: stream.Description,
		StartTime:   stream.StartTime,
		IsLive:      stream.IsLive,
		ViewerCount: stream.ViewerCount,
	}
}
