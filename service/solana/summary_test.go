package solana

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/brojonat/lasttx/service/solana/rpctest"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a TransactionResultEnvelope from a Transaction.
// Since TransactionResultEnvelope has unexported fields, we use JSON marshaling.
func makeTransactionEnvelope(tx *solana.Transaction) (*rpc.TransactionResultEnvelope, error) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	var temp struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	temp.Transaction = txJSON

	envelopeJSON, err := json.Marshal(temp)
	if err != nil {
		return nil, err
	}

	var result rpc.GetTransactionResult
	if err := json.Unmarshal(envelopeJSON, &result); err != nil {
		return nil, err
	}

	return result.Transaction, nil
}

func TestSummarize_FixtureTransfer(t *testing.T) {
	var result rpc.GetTransactionResult
	require.NoError(t, json.Unmarshal(rpctest.TransferTransaction(testSig1, 4321, 1700000000), &result))

	sig := &SignatureRecord{Signature: testSig1, Slot: 4321}
	s, err := Summarize(sig, &result)
	require.NoError(t, err)

	assert.Equal(t, testSig1, s.Signature)
	assert.Equal(t, uint64(4321), s.Slot)
	assert.Equal(t, int64(1700000000), s.BlockTime.Unix())
	assert.Equal(t, "success", s.Status)
	assert.Equal(t, uint64(5000), s.Fee)
	require.NotNil(t, s.ComputeUnits)
	assert.Equal(t, uint64(150), *s.ComputeUnits)
	assert.Equal(t, 1, s.InstructionCount)
	require.NotNil(t, s.FeePayer)
	assert.Equal(t, rpctest.FeePayer, *s.FeePayer)
	assert.Equal(t, uint64(rpctest.TransferLamports), s.Amount)
	require.NotNil(t, s.FromAddress)
	assert.Equal(t, rpctest.FeePayer, *s.FromAddress)
	assert.Nil(t, s.TokenMint)
	assert.Nil(t, s.Memo)
}

func TestSummarize_SignatureOnly(t *testing.T) {
	bt := solana.UnixTimeSeconds(1700000000)
	sig := &SignatureRecord{Signature: testSig2, Slot: 99, BlockTime: &bt}

	s, err := Summarize(sig, nil)
	require.NoError(t, err)
	assert.Equal(t, testSig2, s.Signature)
	assert.Equal(t, uint64(99), s.Slot)
	assert.Equal(t, bt.Time(), s.BlockTime)
	assert.Equal(t, "success", s.Status)
	assert.Zero(t, s.InstructionCount)
}

func TestSummarize_NilSignature(t *testing.T) {
	_, err := Summarize(nil, nil)
	assert.Error(t, err)
}

func TestSummarize_Failed(t *testing.T) {
	sig := &SignatureRecord{
		Signature: testSig1,
		Slot:      100,
		Err:       map[string]interface{}{"InstructionError": []interface{}{0, "InsufficientFunds"}},
	}

	s, err := Summarize(sig, &rpc.GetTransactionResult{})
	require.NoError(t, err)
	assert.Contains(t, s.Status, "failed")
	assert.Contains(t, s.Status, "InsufficientFunds")
	assert.Zero(t, s.Amount)
}

func TestSummarize_SPLTransferWithMemo(t *testing.T) {
	sourceTokenAccount := solana.MustPublicKeyFromBase58(rpctest.Recipient)
	mintAddr := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v") // USDC mainnet
	destTokenAccount := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	authority := solana.MustPublicKeyFromBase58(rpctest.FeePayer)

	transferData := make([]byte, 10)
	transferData[0] = TokenProgramTransferCheckedInstruction
	binary.LittleEndian.PutUint64(transferData[1:9], 1000000) // 1 USDC (6 decimals)
	transferData[9] = 6

	memoText := `{"order_id": "42"}`

	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{authority, sourceTokenAccount, mintAddr, destTokenAccount, TokenProgramID, MemoProgramIDSPL},
			Instructions: []solana.CompiledInstruction{
				{
					ProgramIDIndex: 4,
					Accounts:       []uint16{1, 2, 3, 0}, // source, mint, dest, authority
					Data:           transferData,
				},
				{
					ProgramIDIndex: 5,
					Accounts:       []uint16{},
					Data:           []byte(memoText),
				},
			},
		},
	}

	envelope, err := makeTransactionEnvelope(tx)
	require.NoError(t, err)

	s, err := Summarize(&SignatureRecord{Signature: testSig3}, &rpc.GetTransactionResult{Transaction: envelope})
	require.NoError(t, err)
	assert.Equal(t, 2, s.InstructionCount)
	assert.Equal(t, uint64(1000000), s.Amount)
	require.NotNil(t, s.TokenMint)
	assert.Equal(t, mintAddr.String(), *s.TokenMint)
	require.NotNil(t, s.FromAddress)
	assert.Equal(t, authority.String(), *s.FromAddress)
	require.NotNil(t, s.Memo)
	assert.Equal(t, memoText, *s.Memo)
}

func TestDecodeMemo(t *testing.T) {
	assert.Equal(t, "test payment", decodeMemo([]byte("test payment")))

	encoded := base64.StdEncoding.EncodeToString([]byte("secret message"))
	assert.Equal(t, "secret message", decodeMemo([]byte(encoded)))

	// Valid base64 whose payload carries NUL bytes stays as sent.
	assert.Equal(t, "AAAA", decodeMemo([]byte("AAAA")))
}

func TestDecodeTransfer_System(t *testing.T) {
	fromAddr := solana.MustPublicKeyFromBase58(rpctest.FeePayer)
	toAddr := solana.MustPublicKeyFromBase58(rpctest.Recipient)
	keys := []solana.PublicKey{fromAddr, toAddr, SystemProgramID}

	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], SystemProgramTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], 2000000000)

	got, ok := decodeTransfer(SystemProgramID, solana.CompiledInstruction{ProgramIDIndex: 2, Accounts: []uint16{0, 1}, Data: data}, keys)
	require.True(t, ok)
	assert.Equal(t, uint64(2000000000), got.amount)
	assert.Nil(t, got.mint)
	require.NotNil(t, got.from)
	assert.Equal(t, fromAddr, *got.from)

	_, ok = decodeTransfer(SystemProgramID, solana.CompiledInstruction{Data: []byte{2, 0, 0}}, keys)
	assert.False(t, ok, "truncated data")

	createAccount := make([]byte, 12)
	_, ok = decodeTransfer(SystemProgramID, solana.CompiledInstruction{Data: createAccount}, keys)
	assert.False(t, ok, "discriminator 0 is CreateAccount")
}

func TestDecodeTransfer_Token(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58(rpctest.FeePayer)
	source := solana.MustPublicKeyFromBase58(rpctest.Recipient)
	dest := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	keys := []solana.PublicKey{owner, source, dest, TokenProgramID}

	plain := make([]byte, 9)
	plain[0] = TokenProgramTransferInstruction
	binary.LittleEndian.PutUint64(plain[1:9], 5000000)

	got, ok := decodeTransfer(Token2022ProgramID, solana.CompiledInstruction{ProgramIDIndex: 3, Accounts: []uint16{1, 2, 0}, Data: plain}, keys)
	require.True(t, ok)
	assert.Equal(t, uint64(5000000), got.amount)
	assert.Nil(t, got.mint)
	require.NotNil(t, got.from)
	assert.Equal(t, owner, *got.from)

	// TransferChecked without its mint account cannot be attributed.
	checked := append([]byte{TokenProgramTransferCheckedInstruction}, plain[1:]...)
	checked = append(checked, 6)
	_, ok = decodeTransfer(TokenProgramID, solana.CompiledInstruction{Data: checked}, keys)
	assert.False(t, ok)

	_, ok = decodeTransfer(TokenProgramID, solana.CompiledInstruction{Data: []byte{99, 0, 0, 0, 0, 0, 0, 0, 0}}, keys)
	assert.False(t, ok, "unknown token instruction")

	_, ok = decodeTransfer(MemoProgramIDSPL, solana.CompiledInstruction{Data: plain}, keys)
	assert.False(t, ok, "not a transfer program")
}

func TestParseWalletAndSignature(t *testing.T) {
	pk, err := ParseWallet(testWallet)
	require.NoError(t, err)
	assert.Equal(t, testWallet, pk.String())

	_, err = ParseWallet("0OIl")
	var invalid *InvalidAddressError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "0OIl", invalid.Address)
	assert.NotNil(t, invalid.Unwrap())

	sig, err := ParseSignature(testSig1)
	require.NoError(t, err)
	assert.Equal(t, testSig1, sig.String())

	_, err = ParseSignature("ABC123")
	var parseErr *SignatureParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ABC123", parseErr.Signature)
}
