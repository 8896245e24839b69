package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"

	"github.com/ethereum/go-ethereum"
)

func TestSupportsSubscriptions(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"ws://localhost:8546", true},
		{"wss://mainnet.example.test/ws", true},
		{"http://localhost:8545", false},
		{"https://mainnet.example.test", false},
		{"/var/run/geth.ipc", true},
		{"/var/run/geth.sock", false},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			c := &Client{endpoint: tt.endpoint}
			if got := c.SupportsSubscriptions(); got != tt.want {
				t.Fatalf("SupportsSubscriptions(%q) = %v, want %v", tt.endpoint, got, tt.want)
			}
		})
	}
}

type fakeRPCError struct{ code int }

func (e fakeRPCError) Error() string  { return "execution reverted" }
func (e fakeRPCError) ErrorCode() int { return e.code }

func TestWrapErrClassification(t *testing.T) {
	if wrapErr("op", nil) != nil {
		t.Fatal("nil error must stay nil")
	}

	var bcErr *errs.BlockchainError
	if err := wrapErr("op", ethereum.NotFound); !errors.As(err, &bcErr) {
		t.Fatalf("NotFound: got %T, want BlockchainError", err)
	}
	if err := wrapErr("op", fakeRPCError{code: 3}); !errors.As(err, &bcErr) {
		t.Fatalf("rpc error: got %T, want BlockchainError", err)
	}
	if err := wrapErr("op", errors.New("connection refused")); !errs.IsNetwork(err) {
		t.Fatalf("transport error: got %T, want NetworkError", err)
	}
}

// fakeNodeServer answers single JSON-RPC calls over HTTP. respond returns the
// result for a method, or a non-empty message to answer with an RPC error.
func fakeNodeServer(t *testing.T, respond func(method string) (any, string)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read rpc request: %v", err)
			return
		}
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad rpc request %s: %v", body, err)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		result, errMsg := respond(req.Method)
		if errMsg != "" {
			resp["error"] = map[string]any{"code": -32000, "message": errMsg}
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("write rpc response: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	client, err := Dial(context.Background(), server.URL, 1, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

var testTxHash = "0x" + strings.Repeat("ab", 32)

func legacyTxJSON(mined bool) map[string]any {
	tx := map[string]any{
		"hash":     testTxHash,
		"nonce":    "0x1",
		"from":     "0x1111111111111111111111111111111111111111",
		"to":       "0x2222222222222222222222222222222222222222",
		"value":    "0x1",
		"gas":      "0x5208",
		"gasPrice": "0x1",
		"input":    "0x",
		"v":        "0x1c",
		"r":        "0x1",
		"s":        "0x1",
	}
	if mined {
		tx["blockHash"] = "0x" + strings.Repeat("cd", 32)
		tx["blockNumber"] = "0x10"
		tx["transactionIndex"] = "0x0"
	} else {
		tx["blockHash"] = nil
		tx["blockNumber"] = nil
	}
	return tx
}

func TestTransactionByHashReceiptFailure(t *testing.T) {
	client := fakeNodeServer(t, func(method string) (any, string) {
		switch method {
		case "eth_getTransactionByHash":
			return legacyTxJSON(true), ""
		case "eth_getTransactionReceipt":
			return nil, "receipt unavailable"
		}
		return nil, "unexpected method " + method
	})

	// A mined transaction whose receipt lookup fails must error, not come
	// back looking pending.
	_, err := client.TransactionByHash(context.Background(), testTxHash)
	var bcErr *errs.BlockchainError
	if !errors.As(err, &bcErr) {
		t.Fatalf("got %T (%v), want BlockchainError", err, err)
	}
}

func TestTransactionByHashPendingSkipsReceipt(t *testing.T) {
	client := fakeNodeServer(t, func(method string) (any, string) {
		switch method {
		case "eth_getTransactionByHash":
			return legacyTxJSON(false), ""
		case "eth_getTransactionReceipt":
			return nil, "receipt must not be fetched for a pending transaction"
		}
		return nil, "unexpected method " + method
	})

	tx, err := client.TransactionByHash(context.Background(), testTxHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Pending() {
		t.Fatalf("got block %d, want pending", tx.BlockNumber)
	}
}
