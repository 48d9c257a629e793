package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func rpcTestServer(t *testing.T, handler func(req rpcRequest) (interface{}, *jsonRPCError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		result, rpcErr := handler(req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
		if req.Method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", req.Method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
				"lastValidBlockHeight": uint64(3090),
			},
		}, nil
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background(), CommitmentConfirmed)
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}

	if bh.Hash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %q", bh.Hash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("lastValidBlockHeight = %d, want 3090", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_SendTransaction_SingleWireCall(t *testing.T) {
	var calls atomic.Int64
	server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
		calls.Add(1)
		return nil, &jsonRPCError{
			Code:    -32002,
			Message: "Transaction simulation failed: Attempt to debit an account but found no record of a prior credit.",
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.SendTransaction(context.Background(), []byte{1, 2, 3}, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	if calls.Load() != 1 {
		t.Errorf("sendTransaction made %d wire calls, want 1", calls.Load())
	}
}

func TestHTTPClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    ErrorKind
	}{
		{"blockhash not found", "Transaction simulation failed: Blockhash not found", KindBlockhashNotFound},
		{"insufficient lamports", "Transfer: insufficient lamports 100, need 5000000", KindInsufficientFunds},
		{"insufficient funds", "insufficient funds for rent", KindInsufficientFunds},
		{"simulation failed", "Transaction simulation failed: Error processing Instruction 2", KindSimulationFailed},
		{"generic", "Node is behind by 150 slots", KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
				return nil, &jsonRPCError{Code: -32002, Message: tt.message}
			})
			defer server.Close()

			client := NewHTTPClient(server.URL)
			_, err := client.SendTransaction(context.Background(), []byte{1}, nil)
			if err == nil {
				t.Fatal("expected error")
			}

			if got := Kind(err); got != tt.want {
				t.Errorf("Kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHTTPClient_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	_, err := client.SendTransaction(context.Background(), []byte{1}, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	if got := Kind(err); got != KindRateLimited {
		t.Errorf("Kind = %s, want %s", got, KindRateLimited)
	}
}

func TestHTTPClient_GetBalance(t *testing.T) {
	server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
		if req.Method != "getBalance" {
			t.Errorf("expected method getBalance, got %s", req.Method)
		}
		return map[string]interface{}{"value": uint64(2_500_000_000)}, nil
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bal, err := client.GetBalance(context.Background(), "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if bal != 2_500_000_000 {
		t.Errorf("balance = %d, want 2500000000", bal)
	}
}

func TestHTTPClient_GetTokenAccountBalance(t *testing.T) {
	server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
		return map[string]interface{}{
			"value": map[string]interface{}{"amount": "771000000000", "decimals": 6},
		}, nil
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	amt, err := client.GetTokenAccountBalance(context.Background(), "7Np41oeYqPefeNQEHSv1UDhYrehxin3NStELsSKCT4K2")
	if err != nil {
		t.Fatalf("GetTokenAccountBalance: %v", err)
	}
	if amt != 771_000_000_000 {
		t.Errorf("amount = %d, want 771000000000", amt)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcTestServer(t, func(req rpcRequest) (interface{}, *jsonRPCError) {
		return map[string]interface{}{"value": nil}, nil
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for missing account, got %+v", info)
	}
}

func TestKind_UnclassifiedDefaultsToNetwork(t *testing.T) {
	if got := Kind(errors.New("dial tcp: connection refused")); got != KindNetwork {
		t.Errorf("Kind = %s, want %s", got, KindNetwork)
	}
}
