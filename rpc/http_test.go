package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"streampay/core/events"
	"streampay/native/streaming"
	"streampay/storage"
)

const (
	ownerHex   = "0x00000000000000000000000000000000000000aa"
	creatorHex = "0x0000000000000000000000000000000000000001"
	viewerHex  = "0x0000000000000000000000000000000000000002"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	state := storage.NewState(storage.NewMemDB())
	journal := events.NewJournal(128)
	engine := streaming.NewEngine()
	engine.SetState(state)
	engine.SetEmitter(journal)

	var owner [20]byte
	owner[19] = 0xAA
	engine.SetOwner(owner)

	srv := httptest.NewServer(NewServer(engine, journal, nil))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method string, params interface{}) rpcResponse {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func mustSucceed(t *testing.T, resp rpcResponse) map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal result: %v", err)
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("result not an object: %s", raw)
	}
	return out
}

func TestSettlementFlowOverRPC(t *testing.T) {
	srv := newTestServer(t)

	result := mustSucceed(t, call(t, srv, "streaming_registerCreator", map[string]interface{}{
		"caller":         creatorHex,
		"name":           "alice",
		"pricePerSecond": "100",
	}))
	if result["pricePerSecond"] != "100" || result["isActive"] != true {
		t.Fatalf("unexpected register result: %v", result)
	}

	mustSucceed(t, call(t, srv, "streaming_depositFunds", map[string]interface{}{
		"caller": viewerHex,
		"amount": "10000",
	}))

	payment := mustSucceed(t, call(t, srv, "streaming_processPayment", map[string]interface{}{
		"caller":       viewerHex,
		"creator":      creatorHex,
		"watchSeconds": 50,
	}))
	if payment["totalCost"] != "5000" || payment["platformFee"] != "250" || payment["creatorEarnings"] != "4750" {
		t.Fatalf("unexpected payment result: %v", payment)
	}

	balance := mustSucceed(t, call(t, srv, "streaming_getViewerBalance", map[string]interface{}{
		"viewer": viewerHex,
	}))
	if balance["balance"] != "5000" {
		t.Fatalf("unexpected balance: %v", balance)
	}

	watch := mustSucceed(t, call(t, srv, "streaming_getWatchTime", map[string]interface{}{
		"viewer":  viewerHex,
		"creator": creatorHex,
	}))
	if watch["watchSeconds"] != float64(50) {
		t.Fatalf("unexpected watch time: %v", watch)
	}

	info := mustSucceed(t, call(t, srv, "streaming_getCreatorInfo", map[string]interface{}{
		"creator": creatorHex,
	}))
	if info["totalEarnings"] != "4750" || info["registered"] != true {
		t.Fatalf("unexpected creator info: %v", info)
	}

	withdrawn := mustSucceed(t, call(t, srv, "streaming_withdrawPlatformFees", map[string]interface{}{
		"caller": ownerHex,
	}))
	if withdrawn["withdrawn"] != "250" {
		t.Fatalf("unexpected withdrawal: %v", withdrawn)
	}
}

func TestRPCErrorMapping(t *testing.T) {
	srv := newTestServer(t)

	resp := call(t, srv, "streaming_processPayment", map[string]interface{}{
		"caller":       viewerHex,
		"creator":      creatorHex,
		"watchSeconds": 10,
	})
	if resp.Error == nil || resp.Error.Code != codeNotRegistered {
		t.Fatalf("expected not-registered code, got %+v", resp.Error)
	}

	mustSucceed(t, call(t, srv, "streaming_registerCreator", map[string]interface{}{
		"caller":         creatorHex,
		"name":           "alice",
		"pricePerSecond": "100",
	}))
	resp = call(t, srv, "streaming_processPayment", map[string]interface{}{
		"caller":       viewerHex,
		"creator":      creatorHex,
		"watchSeconds": 10,
	})
	if resp.Error == nil || resp.Error.Code != codeInsufficient {
		t.Fatalf("expected insufficient-balance code, got %+v", resp.Error)
	}

	resp = call(t, srv, "streaming_updatePlatformFee", map[string]interface{}{
		"caller":  ownerHex,
		"percent": 11,
	})
	if resp.Error == nil || resp.Error.Code != codeOutOfRange {
		t.Fatalf("expected out-of-range code, got %+v", resp.Error)
	}

	resp = call(t, srv, "streaming_updatePlatformFee", map[string]interface{}{
		"caller":  viewerHex,
		"percent": 3,
	})
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized code, got %+v", resp.Error)
	}

	resp = call(t, srv, "streaming_nope", nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found code, got %+v", resp.Error)
	}
}

func TestRPCStreamLifecycleAndEvents(t *testing.T) {
	srv := newTestServer(t)

	mustSucceed(t, call(t, srv, "streaming_registerCreator", map[string]interface{}{
		"caller":         creatorHex,
		"name":           "alice",
		"pricePerSecond": "1",
	}))
	stream := mustSucceed(t, call(t, srv, "streaming_startStream", map[string]interface{}{
		"caller": creatorHex,
		"title":  "launch day",
	}))
	if stream["id"] != float64(1) || stream["isLive"] != true {
		t.Fatalf("unexpected stream result: %v", stream)
	}

	resp := call(t, srv, "streaming_endStream", map[string]interface{}{
		"caller":   viewerHex,
		"streamId": 1,
	})
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("stranger end should be unauthorized, got %+v", resp.Error)
	}
	mustSucceed(t, call(t, srv, "streaming_endStream", map[string]interface{}{
		"caller":   creatorHex,
		"streamId": 1,
	}))
	resp = call(t, srv, "streaming_endStream", map[string]interface{}{
		"caller":   creatorHex,
		"streamId": 1,
	})
	if resp.Error == nil || resp.Error.Code != codeStreamEnded {
		t.Fatalf("double end should fail, got %+v", resp.Error)
	}

	eventsResp := call(t, srv, "streaming_listEvents", map[string]interface{}{})
	if eventsResp.Error != nil {
		t.Fatalf("list events failed: %+v", eventsResp.Error)
	}
	raw, _ := json.Marshal(eventsResp.Result)
	var entries []map[string]interface{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("events result not a list: %s", raw)
	}
	want := []string{
		streaming.EventTypeCreatorRegistered,
		streaming.EventTypeStreamStarted,
		streaming.EventTypeStreamEnded,
	}
	if len(entries) != len(want) {
		t.Fatalf("unexpected event count: %s", raw)
	}
	for i, entry := range entries {
		if entry["type"] != want[i] {
			t.Fatalf("event %d: want %s got %v", i, want[i], entry["type"])
		}
		if entry["sequence"] != float64(i+1) {
			t.Fatalf("event %d has sequence %v", i, entry["sequence"])
		}
	}
}

func TestRPCRejectsMalformedRequests(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != codeParseError {
		t.Fatalf("expected parse error, got %+v", decoded.Error)
	}

	getResp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET should be rejected, got %d", getResp.StatusCode)
	}

	badAddr := call(t, srv, "streaming_getViewerBalance", map[string]interface{}{
		"viewer": "0x1234",
	})
	if badAddr.Error == nil || badAddr.Error.Code != codeInvalidParams {
		t.Fatalf("short address should be invalid params, got %+v", badAddr.Error)
	}
}
