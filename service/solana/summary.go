package solana

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Programs whose instructions Summarize understands.
var (
	SystemProgramID     = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	TokenProgramID      = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ProgramID  = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	MemoProgramIDSPL    = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
	MemoProgramIDLegacy = solana.MustPublicKeyFromBase58("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo")
)

// Instruction discriminators.
const (
	SystemProgramTransferInstruction       = uint32(2)
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// Summarize flattens a signature record and its fetched transaction into a
// Summary. result may be nil, in which case only the signature metadata is
// filled in.
func Summarize(sig *SignatureRecord, result *rpc.GetTransactionResult) (*Summary, error) {
	if sig == nil {
		return nil, fmt.Errorf("no signature to summarize")
	}

	s := &Summary{
		Signature: sig.Signature,
		Slot:      sig.Slot,
		BlockTime: sig.Time(),
		Status:    "success",
	}
	if sig.Err != nil {
		s.Status = fmt.Sprintf("failed: %v", sig.Err)
	}

	if result == nil {
		return s, nil
	}

	if result.Slot != 0 {
		s.Slot = result.Slot
	}
	if result.BlockTime != nil {
		s.BlockTime = result.BlockTime.Time()
	}
	s.Version = versionString(result.Version)

	if result.Meta != nil {
		s.Fee = result.Meta.Fee
		s.ComputeUnits = result.Meta.ComputeUnitsConsumed
		if result.Meta.Err != nil {
			s.Status = fmt.Sprintf("failed: %v", result.Meta.Err)
		}
	}

	if result.Transaction == nil {
		return s, nil
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return s, fmt.Errorf("failed to decode transaction: %w", err)
	}

	accountKeys := tx.Message.AccountKeys
	s.InstructionCount = len(tx.Message.Instructions)
	if len(accountKeys) > 0 {
		payer := accountKeys[0].String()
		s.FeePayer = &payer
	}

	// Failed transactions moved no funds.
	if sig.Err != nil || (result.Meta != nil && result.Meta.Err != nil) {
		return s, nil
	}

	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		program := accountKeys[ix.ProgramIDIndex]

		if program.Equals(MemoProgramIDSPL) || program.Equals(MemoProgramIDLegacy) {
			if memo := decodeMemo(ix.Data); memo != "" {
				s.Memo = &memo
			}
			continue
		}

		if t, ok := decodeTransfer(program, ix, accountKeys); ok {
			s.Amount = t.amount
			s.TokenMint = keyString(t.mint)
			s.FromAddress = keyString(t.from)
		}
	}

	return s, nil
}

func versionString(v rpc.TransactionVersion) string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "unknown"
	}
	return string(trimQuotes(b))
}

func trimQuotes(b []byte) []byte {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return b[1 : len(b)-1]
	}
	return b
}

// transfer is the value movement decoded from one instruction. mint is nil
// for native SOL.
type transfer struct {
	amount uint64
	mint   *solana.PublicKey
	from   *solana.PublicKey
}

// decodeTransfer recognises System Program transfers and SPL Token
// Transfer/TransferChecked on either token program.
func decodeTransfer(program solana.PublicKey, ix solana.CompiledInstruction, keys []solana.PublicKey) (transfer, bool) {
	switch {
	case program.Equals(SystemProgramID):
		// u32 discriminator, u64 lamports. Accounts: from, to.
		if len(ix.Data) < 12 || binary.LittleEndian.Uint32(ix.Data[0:4]) != SystemProgramTransferInstruction {
			return transfer{}, false
		}
		return transfer{
			amount: binary.LittleEndian.Uint64(ix.Data[4:12]),
			from:   accountAt(ix, keys, 0),
		}, true

	case program.Equals(TokenProgramID), program.Equals(Token2022ProgramID):
		if len(ix.Data) < 9 {
			return transfer{}, false
		}
		amount := binary.LittleEndian.Uint64(ix.Data[1:9])

		switch ix.Data[0] {
		case TokenProgramTransferInstruction:
			// Accounts: source, destination, owner. No mint.
			return transfer{amount: amount, from: accountAt(ix, keys, 2)}, true
		case TokenProgramTransferCheckedInstruction:
			// Extra u8 decimals. Accounts: source, mint, destination, owner.
			mint := accountAt(ix, keys, 1)
			if len(ix.Data) < 10 || mint == nil {
				return transfer{}, false
			}
			return transfer{amount: amount, mint: mint, from: accountAt(ix, keys, 3)}, true
		}
	}
	return transfer{}, false
}

// accountAt resolves the pos-th account of ix against the static keys.
// Accounts loaded from lookup tables resolve to nil.
func accountAt(ix solana.CompiledInstruction, keys []solana.PublicKey, pos int) *solana.PublicKey {
	if pos >= len(ix.Accounts) || int(ix.Accounts[pos]) >= len(keys) {
		return nil
	}
	key := keys[ix.Accounts[pos]]
	return &key
}

func keyString(k *solana.PublicKey) *string {
	if k == nil {
		return nil
	}
	str := k.String()
	return &str
}

// decodeMemo returns memo data as text. Clients often base64 the memo, so
// data that decodes cleanly as base64 without NUL bytes is unwrapped.
func decodeMemo(data []byte) string {
	if decoded, err := base64.StdEncoding.DecodeString(string(data)); err == nil && bytes.IndexByte(decoded, 0) < 0 {
		return string(decoded)
	}
	return string(data)
}
