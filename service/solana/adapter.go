package solana

import (
	"context"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// realRPCClient adapts the solana-go RPC client to our RPCClient interface.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient that talks JSON-RPC to rpcURL.
// For premium RPC endpoints that require API keys, include the key in the URL:
// - Helius: https://mainnet.helius-rpc.com/?api-key=YOUR-KEY
// - QuickNode: https://YOUR-ENDPOINT.quiknode.pro/YOUR-KEY/
// - Alchemy: https://solana-mainnet.g.alchemy.com/v2/YOUR-KEY
//
// A non-zero timeout bounds every HTTP round trip.
func NewRPCClient(rpcURL string, timeout time.Duration) RPCClient {
	httpClient := &http.Client{Timeout: timeout}
	transport := jsonrpc.NewClientWithOpts(rpcURL, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient,
	})
	return &realRPCClient{
		client: rpc.NewWithCustomRPCClient(transport),
	}
}

// GetSignaturesForAddress decodes the response into SignatureRecords rather
// than rpc.TransactionSignature so that signature strings reach the caller
// undecoded.
func (r *realRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*SignatureRecord, error) {
	params := []interface{}{address.String()}
	if opts != nil {
		obj := map[string]interface{}{}
		if opts.Limit != nil {
			obj["limit"] = *opts.Limit
		}
		if !opts.Before.IsZero() {
			obj["before"] = opts.Before.String()
		}
		if !opts.Until.IsZero() {
			obj["until"] = opts.Until.String()
		}
		if opts.Commitment != "" {
			obj["commitment"] = opts.Commitment
		}
		if opts.MinContextSlot != nil {
			obj["minContextSlot"] = *opts.MinContextSlot
		}
		if len(obj) > 0 {
			params = append(params, obj)
		}
	}

	var out []*SignatureRecord
	if err := r.client.RPCCallForInto(ctx, &out, "getSignaturesForAddress", params); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTransaction issues getTransaction directly because rpc.Client rejects
// the json encoding. A null result is reported as rpc.ErrNotFound.
func (r *realRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	params := []interface{}{signature.String()}
	if opts != nil {
		obj := map[string]interface{}{}
		if opts.Encoding != "" {
			obj["encoding"] = opts.Encoding
		}
		if opts.Commitment != "" {
			obj["commitment"] = opts.Commitment
		}
		if opts.MaxSupportedTransactionVersion != nil {
			obj["maxSupportedTransactionVersion"] = *opts.MaxSupportedTransactionVersion
		}
		if len(obj) > 0 {
			params = append(params, obj)
		}
	}

	var out *rpc.GetTransactionResult
	if err := r.client.RPCCallForInto(ctx, &out, "getTransaction", params); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, rpc.ErrNotFound
	}

	// JSON decoding leaves every message marked legacy.
	if out.Version != rpc.LegacyTransactionVersion && out.Transaction != nil {
		if tx, err := out.Transaction.GetTransaction(); err == nil && tx != nil {
			tx.Message.SetVersion(solana.MessageVersionV0)
		}
	}
	return out, nil
}
