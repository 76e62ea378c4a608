package storage

import (
	"errors"
	"math/big"
	"testing"

	"streampay/core/types"
	"streampay/native/streaming"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func TestMemDBMissReturnsNotFound(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("round trip failed: %q %v", got, err)
	}
}

func TestStateCreatorRoundTrip(t *testing.T) {
	state := NewState(NewMemDB())
	addr := testAddr(0x01)

	if _, ok, err := state.StreamingCreatorGet(addr); err != nil || ok {
		t.Fatalf("unknown creator should miss cleanly: ok=%v err=%v", ok, err)
	}

	creator := &streaming.Creator{
		Address:        addr,
		Name:           "alice",
		PricePerSecond: big.NewInt(100),
		TotalEarnings:  big.NewInt(4_750),
		IsActive:       true,
		RegisteredAt:   123,
	}
	if err := state.StreamingCreatorPut(creator); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	loaded, ok, err := state.StreamingCreatorGet(addr)
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if loaded.Name != "alice" || loaded.PricePerSecond.Cmp(big.NewInt(100)) != 0 || loaded.TotalEarnings.Cmp(big.NewInt(4_750)) != 0 {
		t.Fatalf("round trip mangled record: %+v", loaded)
	}

	// Mutating the loaded copy must not leak back into storage.
	loaded.TotalEarnings.SetInt64(0)
	again, _, _ := state.StreamingCreatorGet(addr)
	if again.TotalEarnings.Cmp(big.NewInt(4_750)) != 0 {
		t.Fatalf("stored record aliased a returned copy")
	}
}

func TestStateCreatorIndexOrder(t *testing.T) {
	state := NewState(NewMemDB())
	expected := [][20]byte{testAddr(9), testAddr(3), testAddr(7)}
	for _, addr := range expected {
		if err := state.StreamingCreatorListAppend(addr); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	list, err := state.StreamingCreatorList()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != len(expected) {
		t.Fatalf("unexpected length %d", len(list))
	}
	for i := range expected {
		if list[i] != expected[i] {
			t.Fatalf("index order broken at %d", i)
		}
	}
}

func TestStateActiveStreamSet(t *testing.T) {
	state := NewState(NewMemDB())
	for _, id := range []uint64{1, 2, 3} {
		if err := state.StreamingActiveStreamAdd(id); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	// Duplicate adds collapse.
	if err := state.StreamingActiveStreamAdd(2); err != nil {
		t.Fatalf("duplicate add failed: %v", err)
	}
	if err := state.StreamingActiveStreamRemove(2); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	// Removing an absent id is harmless.
	if err := state.StreamingActiveStreamRemove(42); err != nil {
		t.Fatalf("absent remove failed: %v", err)
	}
	ids, err := state.StreamingActiveStreams()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 live ids, got %v", ids)
	}
	for _, id := range ids {
		if id == 2 {
			t.Fatalf("removed id still present: %v", ids)
		}
	}
}

func TestStateWatchTimeCompositeKey(t *testing.T) {
	state := NewState(NewMemDB())
	viewer := testAddr(0x01)
	creatorA := testAddr(0x02)
	creatorB := testAddr(0x03)

	if err := state.StreamingWatchTimePut(viewer, creatorA, 120); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if got, _ := state.StreamingWatchTimeGet(viewer, creatorA); got != 120 {
		t.Fatalf("unexpected watch time %d", got)
	}
	if got, _ := state.StreamingWatchTimeGet(viewer, creatorB); got != 0 {
		t.Fatalf("pairs must not collide, got %d", got)
	}
	if got, _ := state.StreamingWatchTimeGet(creatorA, viewer); got != 0 {
		t.Fatalf("key must be direction-sensitive, got %d", got)
	}
}

func TestStateAccountsAndParams(t *testing.T) {
	state := NewState(NewMemDB())
	addr := testAddr(0x05)

	acc, err := state.GetAccount(addr[:])
	if err != nil || acc != nil {
		t.Fatalf("unknown account should be nil: %v %v", acc, err)
	}
	if err := state.PutAccount(addr[:], &types.Account{Balance: big.NewInt(500)}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	acc, err = state.GetAccount(addr[:])
	if err != nil || acc == nil || acc.Balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("account round trip failed: %+v %v", acc, err)
	}

	if _, ok, err := state.StreamingParamsGet(); err != nil || ok {
		t.Fatalf("params should start absent: ok=%v err=%v", ok, err)
	}
	params := &streaming.Params{FeePercent: 5, FeePool: big.NewInt(250), NextStreamID: 4}
	if err := state.StreamingParamsPut(params); err != nil {
		t.Fatalf("params put failed: %v", err)
	}
	loaded, ok, err := state.StreamingParamsGet()
	if err != nil || !ok {
		t.Fatalf("params get failed: ok=%v err=%v", ok, err)
	}
	if loaded.FeePercent != 5 || loaded.FeePool.Cmp(big.NewInt(250)) != 0 || loaded.NextStreamID != 4 {
		t.Fatalf("params round trip mangled: %+v", loaded)
	}
}

func TestLevelDBBackedState(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open leveldb: %v", err)
	}
	defer db.Close()

	state := NewState(db)
	stream := &streaming.Stream{ID: 1, Creator: testAddr(0x01), Title: "live", IsLive: true, StartTime: 99}
	if err := state.StreamingStreamPut(stream); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	loaded, ok, err := state.StreamingStreamGet(1)
	if err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if loaded.Title != "live" || !loaded.IsLive || loaded.StartTime != 99 {
		t.Fatalf("leveldb round trip mangled: %+v", loaded)
	}
	if _, err := db.Get([]byte("absent")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("leveldb miss should map to ErrNotFound, got %v", err)
	}
}
