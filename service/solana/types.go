package solana

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureLookupLimit caps getSignaturesForAddress to the single latest entry.
const SignatureLookupLimit = 1

// SignatureRecord is one entry of a getSignaturesForAddress response.
// The signature is kept in its textual form; decoding it is a separate step
// performed by FetchTransaction.
type SignatureRecord struct {
	Signature          string                     `json:"signature"`
	Slot               uint64                     `json:"slot"`
	BlockTime          *solana.UnixTimeSeconds    `json:"blockTime,omitempty"`
	Err                interface{}                `json:"err"`
	Memo               *string                    `json:"memo"`
	ConfirmationStatus rpc.ConfirmationStatusType `json:"confirmationStatus,omitempty"`
}

// Time returns the block time of the record, or the zero time if the node
// did not report one.
func (s *SignatureRecord) Time() time.Time {
	if s == nil || s.BlockTime == nil {
		return time.Time{}
	}
	return s.BlockTime.Time()
}

// Result is the outcome of one latest-transaction lookup.
//
// Signature is nil when the wallet has no transactions. Transaction is nil
// when a signature was found but the node has no record for it (pruned or not
// yet confirmed at the requested commitment).
type Result struct {
	Wallet      solana.PublicKey
	Signature   *SignatureRecord
	Transaction *rpc.GetTransactionResult
}

// Found reports whether a latest signature exists for the wallet.
func (r *Result) Found() bool {
	return r != nil && r.Signature != nil
}

// Summary is a flattened view of a fetched transaction.
type Summary struct {
	Signature        string
	Slot             uint64
	BlockTime        time.Time
	Status           string
	Fee              uint64
	Version          string
	ComputeUnits     *uint64
	InstructionCount int
	FeePayer         *string
	Amount           uint64
	TokenMint        *string // nil for native SOL transfers
	Memo             *string
	FromAddress      *string
}
