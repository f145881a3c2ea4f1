package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/brojonat/lasttx/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*SignatureRecord, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Client looks up the latest transaction of a wallet.
// It wraps the RPC client with domain-specific operations.
type Client struct {
	rpc        RPCClient
	logger     *slog.Logger
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics (e.g. rpc host)
	commitment rpc.CommitmentType
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// WithCommitment sets the commitment level sent with both RPC calls.
// An empty commitment leaves the choice to the node.
func (c *Client) WithCommitment(commitment rpc.CommitmentType) *Client {
	c.commitment = commitment
	return c
}

// GetLatestTransaction validates address, looks up its latest signature and
// fetches the transaction for it.
//
// A wallet with no signatures is not an error: the returned Result has a nil
// Signature. Errors are one of *InvalidAddressError, *LookupError,
// *SignatureParseError or *FetchError.
func (c *Client) GetLatestTransaction(ctx context.Context, address string) (*Result, error) {
	wallet, err := ParseWallet(address)
	if err != nil {
		return nil, err
	}

	res := &Result{Wallet: wallet}

	res.Signature, err = c.LatestSignature(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if res.Signature == nil {
		return res, nil
	}

	res.Transaction, err = c.FetchTransaction(ctx, res.Signature.Signature)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// LatestSignature returns the most recent signature for wallet, or nil if
// the wallet has none.
func (c *Client) LatestSignature(ctx context.Context, wallet solana.PublicKey) (*SignatureRecord, error) {
	limit := SignatureLookupLimit
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: c.commitment,
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"wallet", wallet.String(),
		"limit", limit,
		"commitment", c.commitment,
	)

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, wallet, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetSignaturesForAddress", status, c.endpoint, duration)
		if err == nil {
			c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(signatures)))
		}
	}

	if err != nil {
		c.logger.DebugContext(ctx, "failed to get signatures",
			"wallet", wallet.String(),
			"error", err,
		)
		return nil, &LookupError{Address: wallet.String(), Err: err}
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"wallet", wallet.String(),
		"count", len(signatures),
		"duration", duration,
	)

	return latest(signatures), nil
}

// latest picks the entry treated as most recent: the last element of the
// response. The node returns signatures newest-first and the query is capped
// at SignatureLookupLimit, so with a one-entry window the tail is the newest
// signature.
func latest(signatures []*SignatureRecord) *SignatureRecord {
	if len(signatures) == 0 {
		return nil
	}
	return signatures[len(signatures)-1]
}

// FetchTransaction decodes signature and fetches the full transaction for it.
// It returns (nil, nil) when the node has no record of the transaction.
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*rpc.GetTransactionResult, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}

	// Fetch full transaction details with support for versioned transactions
	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingJSON,
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	c.logger.DebugContext(ctx, "calling GetTransaction", "signature", signature)

	start := time.Now()
	result, err := c.rpc.GetTransaction(ctx, sig, opts)
	duration := time.Since(start).Seconds()

	if errors.Is(err, rpc.ErrNotFound) {
		err = nil
		result = nil
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordRPCCall("GetTransaction", status, c.endpoint, duration)
	}

	if err != nil {
		c.logger.DebugContext(ctx, "failed to get transaction",
			"signature", signature,
			"error", err,
		)
		return nil, &FetchError{Signature: signature, Err: err}
	}

	outcome := "found"
	if result == nil {
		outcome = "not_found"
	}
	if c.metrics != nil {
		c.metrics.RecordTransactionFetched(c.endpoint, outcome)
	}
	c.logger.DebugContext(ctx, "fetched transaction",
		"signature", signature,
		"outcome", outcome,
		"duration", duration,
	)

	return result, nil
}
