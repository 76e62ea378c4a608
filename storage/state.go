package storage

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"streampay/core/types"
	"streampay/native/streaming"
)

const (
	creatorPrefix    = "streaming/creator/"
	creatorIndexKey  = "streaming/creator-index"
	streamPrefix     = "streaming/stream/"
	activeStreamsKey = "streaming/active"
	watchTimePrefix  = "streaming/watch/"
	paramsKey        = "streaming/params"
	accountPrefix    = "account/"
)

// State adapts a key-value Database into the settlement engine's persistence
// surface. Records are JSON-encoded under stable key prefixes; every getter
// decodes a fresh copy, so callers never alias stored data.
type State struct {
	db Database
}

// NewState wraps a database for use as engine state.
func NewState(db Database) *State {
	return &State{db: db}
}

func (s *State) getJSON(key string, out interface{}) (bool, error) {
	raw, err := s.db.Get([]byte(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *State) putJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", key, err)
	}
	return s.db.Put([]byte(key), raw)
}

func creatorKey(addr [20]byte) string {
	return creatorPrefix + hex.EncodeToString(addr[:])
}

func streamKey(id uint64) string {
	return streamPrefix + strconv.FormatUint(id, 10)
}

func watchTimeKey(viewer [20]byte, creator [20]byte) string {
	return watchTimePrefix + hex.EncodeToString(viewer[:]) + "/" + hex.EncodeToString(creator[:])
}

func accountKey(addr []byte) string {
	return accountPrefix + hex.EncodeToString(addr)
}

// StreamingCreatorGet loads a creator record.
func (s *State) StreamingCreatorGet(addr [20]byte) (*streaming.Creator, bool, error) {
	creator := &streaming.Creator{}
	ok, err := s.getJSON(creatorKey(addr), creator)
	if err != nil || !ok {
		return nil, false, err
	}
	return creator, true, nil
}

// StreamingCreatorPut stores a creator record.
func (s *State) StreamingCreatorPut(creator *streaming.Creator) error {
	if creator == nil {
		return nil
	}
	return s.putJSON(creatorKey(creator.Address), creator)
}

// StreamingCreatorList returns every registered address in insertion order.
func (s *State) StreamingCreatorList() ([][20]byte, error) {
	var encoded []string
	if _, err := s.getJSON(creatorIndexKey, &encoded); err != nil {
		return nil, err
	}
	list := make([][20]byte, 0, len(encoded))
	for _, entry := range encoded {
		raw, err := hex.DecodeString(entry)
		if err != nil || len(raw) != 20 {
			return nil, fmt.Errorf("storage: corrupt creator index entry %q", entry)
		}
		var addr [20]byte
		copy(addr[:], raw)
		list = append(list, addr)
	}
	return list, nil
}

// StreamingCreatorListAppend appends an address to the registration index.
func (s *State) StreamingCreatorListAppend(addr [20]byte) error {
	var encoded []string
	if _, err := s.getJSON(creatorIndexKey, &encoded); err != nil {
		return err
	}
	encoded = append(encoded, hex.EncodeToString(addr[:]))
	return s.putJSON(creatorIndexKey, encoded)
}

// StreamingStreamGet loads a stream record.
func (s *State) StreamingStreamGet(id uint64) (*streaming.Stream, bool, error) {
	stream := &streaming.Stream{}
	ok, err := s.getJSON(streamKey(id), stream)
	if err != nil || !ok {
		return nil, false, err
	}
	return stream, true, nil
}

// StreamingStreamPut stores a stream record.
func (s *State) StreamingStreamPut(stream *streaming.Stream) error {
	if stream == nil {
		return nil
	}
	return s.putJSON(streamKey(stream.ID), stream)
}

// StreamingActiveStreams returns the ids of every live stream.
func (s *State) StreamingActiveStreams() ([]uint64, error) {
	var ids []uint64
	if _, err := s.getJSON(activeStreamsKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// StreamingActiveStreamAdd inserts an id into the active set.
func (s *State) StreamingActiveStreamAdd(id uint64) error {
	ids, err := s.StreamingActiveStreams()
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	return s.putJSON(activeStreamsKey, ids)
}

// StreamingActiveStreamRemove drops an id from the active set via
// swap-and-pop; the set carries no ordering guarantee.
func (s *State) StreamingActiveStreamRemove(id uint64) error {
	ids, err := s.StreamingActiveStreams()
	if err != nil {
		return err
	}
	for i, existing := range ids {
		if existing == id {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			return s.putJSON(activeStreamsKey, ids)
		}
	}
	return nil
}

// StreamingWatchTimeGet returns the cumulative paid seconds for a pair.
func (s *State) StreamingWatchTimeGet(viewer [20]byte, creator [20]byte) (uint64, error) {
	var seconds uint64
	if _, err := s.getJSON(watchTimeKey(viewer, creator), &seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}

// StreamingWatchTimePut stores the cumulative paid seconds for a pair.
func (s *State) StreamingWatchTimePut(viewer [20]byte, creator [20]byte, seconds uint64) error {
	return s.putJSON(watchTimeKey(viewer, creator), seconds)
}

// StreamingParamsGet loads the parameter block.
func (s *State) StreamingParamsGet() (*streaming.Params, bool, error) {
	params := &streaming.Params{}
	ok, err := s.getJSON(paramsKey, params)
	if err != nil || !ok {
		return nil, false, err
	}
	return params, true, nil
}

// StreamingParamsPut stores the parameter block.
func (s *State) StreamingParamsPut(params *streaming.Params) error {
	if params == nil {
		return nil
	}
	return s.putJSON(paramsKey, params)
}

// GetAccount loads a ledger account, or nil when the address is unknown.
func (s *State) GetAccount(addr []byte) (*types.Account, error) {
	account := &types.Account{}
	ok, err := s.getJSON(accountKey(addr), account)
	if err != nil || !ok {
		return nil, err
	}
	return account, nil
}

// PutAccount stores a ledger account.
func (s *State) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return nil
	}
	return s.putJSON(accountKey(addr), account)
}
