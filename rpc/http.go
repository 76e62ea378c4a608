package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"streampay/core/events"
	"streampay/native/streaming"
	"streampay/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotRegistered  = -32010
	codeInactive       = -32011
	codeAlreadyExists  = -32012
	codeNotFound       = -32013
	codeStreamEnded    = -32014
	codeInsufficient   = -32020
	codeOverflow       = -32021
	codeOutOfRange     = -32022
	codeNothingToDo    = -32023
	codeTransferFailed = -32024
)

// Server exposes the settlement engine over a single JSON-RPC 2.0 endpoint.
// The transport supplies caller identity in the request parameters; signature
// verification belongs to collaborating infrastructure in front of it.
type Server struct {
	engine  *streaming.Engine
	journal *events.Journal
	log     *slog.Logger
}

// NewServer wires an RPC server around the engine and its event journal.
func NewServer(engine *streaming.Engine, journal *events.Journal, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{engine: engine, journal: journal, log: log}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.writeError(w, nil, codeParseError, "unable to read request body")
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		s.writeError(w, req.ID, codeInvalidRequest, "invalid JSON-RPC request")
		return
	}

	handler, ok := s.handlers()[req.Method]
	if !ok {
		s.writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
		return
	}

	start := time.Now()
	result, err := handler(req.Params)
	observability.Settlement().ObserveRequest(req.Method, err != nil, time.Since(start))
	if err != nil {
		code, message := mapError(err)
		s.log.Warn("rpc request failed", "method", req.Method, "code", code, "error", err)
		s.writeError(w, req.ID, code, message)
		return
	}
	s.writeResult(w, req.ID, result)
}

type handlerFunc func(params json.RawMessage) (interface{}, error)

func (s *Server) handlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		"streaming_registerCreator":      s.handleRegisterCreator,
		"streaming_startStream":          s.handleStartStream,
		"streaming_endStream":            s.handleEndStream,
		"streaming_depositFunds":         s.handleDepositFunds,
		"streaming_processPayment":       s.handleProcessPayment,
		"streaming_getViewerBalance":     s.handleGetViewerBalance,
		"streaming_getWatchTime":         s.handleGetWatchTime,
		"streaming_getActiveStreams":     s.handleGetActiveStreams,
		"streaming_getCreatorInfo":       s.handleGetCreatorInfo,
		"streaming_getTotalCreators":     s.handleGetTotalCreators,
		"streaming_updatePlatformFee":    s.handleUpdatePlatformFee,
		"streaming_withdrawPlatformFees": s.handleWithdrawPlatformFees,
		"streaming_pauseCreator":         s.handlePauseCreator,
		"streaming_listEvents":           s.handleListEvents,
	}
}

func (s *Server) writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &rpcError{Code: code, Message: message}})
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, streaming.ErrInvalidInput):
		return codeInvalidParams, err.Error()
	case errors.Is(err, streaming.ErrUnauthorized):
		return codeUnauthorized, err.Error()
	case errors.Is(err, streaming.ErrNotRegistered):
		return codeNotRegistered, err.Error()
	case errors.Is(err, streaming.ErrCreatorInactive):
		return codeInactive, err.Error()
	case errors.Is(err, streaming.ErrAlreadyRegistered):
		return codeAlreadyExists, err.Error()
	case errors.Is(err, streaming.ErrStreamNotFound), errors.Is(err, streaming.ErrStreamNotLive):
		return codeNotFound, err.Error()
	case errors.Is(err, streaming.ErrStreamEnded):
		return codeStreamEnded, err.Error()
	case errors.Is(err, streaming.ErrInsufficientBalance):
		return codeInsufficient, err.Error()
	case errors.Is(err, streaming.ErrOverflow):
		return codeOverflow, err.Error()
	case errors.Is(err, streaming.ErrFeeOutOfRange):
		return codeOutOfRange, err.Error()
	case errors.Is(err, streaming.ErrNothingToWithdraw):
		return codeNothingToDo, err.Error()
	case errors.Is(err, streaming.ErrTransferFailed):
		return codeTransferFailed, err.Error()
	default:
		return codeServerError, err.Error()
	}
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return addr, fmt.Errorf("%w: address must be 20 hex bytes", streaming.ErrInvalidInput)
	}
	copy(addr[:], raw)
	return addr, nil
}
