package streaming

import (
	"fmt"
	"strings"
)

// StartStream opens a live session for a registered, active creator and
// allocates the next stream id. Ids start at 1, only ever grow, and a failed
// start never consumes one.
func (e *Engine) StartStream(creator [20]byte, title string, description string) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	unlock := e.accounts.lock(creator)
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
	if isBlank(title) {
		return nil, ErrInvalidInput
	}

	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	stream := &Stream{
		ID:          params.NextStreamID,
		Creator:     creator,
		Title:       title,
		Description: description,
		StartTime:   e.now(),
		IsLive:      true,
	}
	if err := e.state.StreamingStreamPut(stream); err != nil {
		return nil, err
	}
	if err := e.state.StreamingActiveStreamAdd(stream.ID); err != nil {
		return nil, err
	}
	params.NextStreamID++
	if err := e.state.StreamingParamsPut(params); err != nil {
		return nil, err
	}
	e.emit(StreamStartedEvent(formatStreamID(stream.ID), hexAddr(creator), stream.Title))
	return stream.Clone(), nil
}

// EndStream terminates a live session. Only the stream's creator may end it,
// and the transition happens exactly once; a failed call changes nothing.
func (e *Engine) EndStream(streamID uint64, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	stream, ok, err := e.state.StreamingStreamGet(streamID)
	if err != nil {
		return err
	}
	if !ok || stream == nil {
		return ErrStreamNotFound
	}
	if stream.Creator != caller {
		return ErrUnauthorized
	}
	if !stream.IsLive {
		return ErrStreamEnded
	}
	stream.IsLive = false
	if err := e.state.StreamingStreamPut(stream); err != nil {
		return err
	}
	if err := e.state.StreamingActiveStreamRemove(streamID); err != nil {
		return err
	}
	e.emit(StreamEndedEvent(formatStreamID(streamID), hexAddr(stream.Creator)))
	return nil
}

// ActiveStreams returns the ids of every live stream. Membership is exact;
// ordering carries no meaning.
func (e *Engine) ActiveStreams() ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	return e.state.StreamingActiveStreams()
}

// StreamInfo returns a read-only view of one stream.
func (e *Engine) StreamInfo(streamID uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	stream, ok, err := e.state.StreamingStreamGet(streamID)
	if err != nil {
		return nil, err
	}
	if !ok || stream == nil {
		return nil, ErrStreamNotFound
	}
	return stream.Clone(), nil
}

// JoinStream bumps the presence counter of a live stream. Presence feeds
// discovery only and moves no funds, so it is not journaled.
func (e *Engine) JoinStream(streamID uint64) error {
	return e.adjustViewerCount(streamID, 1)
}

// LeaveStream drops the presence counter of a live stream, never below zero.
func (e *Engine) LeaveStream(streamID uint64) error {
	return e.adjustViewerCount(streamID, -1)
}

func (e *Engine) adjustViewerCount(streamID uint64, delta int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	stream, ok, err := e.state.StreamingStreamGet(streamID)
	if err != nil {
		return err
	}
	if !ok || stream == nil {
		return ErrStreamNotFound
	}
	if !stream.IsLive {
		return ErrStreamNotLive
	}
	if delta > 0 {
		stream.ViewerCount++
	} else if stream.ViewerCount > 0 {
		stream.ViewerCount--
	}
	return e.state.StreamingStreamPut(stream)
}

func formatStreamID(id uint64) string {
	return fmt.Sprintf("%d", id)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
