// Package rpctest provides a stub Solana JSON-RPC node for tests.
package rpctest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Call is one JSON-RPC request received by the stub.
type Call struct {
	Method string
	Params []json.RawMessage
}

// RPCError is returned to the client in place of a result.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server answers getSignaturesForAddress and getTransaction from canned data.
//
// Signatures is the raw JSON result for getSignaturesForAddress (an empty
// list when unset). Transactions maps a signature string to the raw JSON
// result for getTransaction; unknown signatures get a null result.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	Signatures   json.RawMessage
	Transactions map[string]json.RawMessage
	Errors       map[string]*RPCError
	calls        []Call
}

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewServer starts a stub node that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		Transactions: map[string]json.RawMessage{},
		Errors:       map[string]*RPCError{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Calls returns every request received so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor returns the requests received for method.
func (s *Server) CallsFor(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Params: req.Params})
	resp := response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr, ok := s.Errors[req.Method]; ok {
		resp.Error = rpcErr
	} else {
		resp.Result = s.result(req)
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// result must be called with s.mu held.
func (s *Server) result(req request) json.RawMessage {
	switch req.Method {
	case "getSignaturesForAddress":
		if len(s.Signatures) == 0 {
			return json.RawMessage(`[]`)
		}
		return s.Signatures
	case "getTransaction":
		var sig string
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params[0], &sig)
		}
		if tx, ok := s.Transactions[sig]; ok {
			return tx
		}
		return json.RawMessage(`null`)
	default:
		return json.RawMessage(`null`)
	}
}
