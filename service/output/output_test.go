package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/brojonat/lasttx/service/solana"
	"github.com/brojonat/lasttx/service/solana/rpctest"
	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	testWallet = "11111111111111111111111111111111"
	testSig    = "3AQaVpvJWvsJAZSJpecnq7Qg2dPZdfGSehx315rYjEQNiYQUGguwj4ixeyUQphqA2ZiixQRuFKF8AsBKVF4cTcUR"
)

func newPrinter(format string) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Out: &out, Err: &errOut, Format: format, NoColor: true}, &out, &errOut
}

func emptyResult() *solana.Result {
	return &solana.Result{Wallet: sol.MustPublicKeyFromBase58(testWallet)}
}

func fixtureResult(t *testing.T) *solana.Result {
	t.Helper()
	var tx rpc.GetTransactionResult
	require.NoError(t, json.Unmarshal(rpctest.TransferTransaction(testSig, 1000, 1700000000), &tx))
	bt := sol.UnixTimeSeconds(1700000000)
	return &solana.Result{
		Wallet:      sol.MustPublicKeyFromBase58(testWallet),
		Signature:   &solana.SignatureRecord{Signature: testSig, Slot: 1000, BlockTime: &bt},
		Transaction: &tx,
	}
}

func TestResult_NoTransactions(t *testing.T) {
	for _, format := range []string{FormatText, FormatSummary} {
		t.Run(format, func(t *testing.T) {
			p, out, errOut := newPrinter(format)
			p.Result(emptyResult())

			assert.Equal(t, NoTransactionsMessage+"\n", out.String())
			assert.Empty(t, errOut.String())
		})
	}
}

func TestResult_Text(t *testing.T) {
	p, out, errOut := newPrinter(FormatText)
	p.Result(fixtureResult(t))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "Latest Transaction Signature: "+testSig+"\n"))
	assert.Contains(t, got, "Transaction Details: {")
	assert.Contains(t, got, `"slot": 1000`)
	assert.Contains(t, got, `"fee": 5000`)
	assert.Empty(t, errOut.String())
}

func TestResult_TextTransactionNotFound(t *testing.T) {
	res := fixtureResult(t)
	res.Transaction = nil

	p, out, _ := newPrinter(FormatText)
	p.Result(res)

	assert.Equal(t,
		"Latest Transaction Signature: "+testSig+"\nTransaction Details: "+notFoundDetails+"\n",
		out.String())
}

func TestResult_JSON(t *testing.T) {
	p, out, _ := newPrinter(FormatJSON)
	p.Result(fixtureResult(t))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, testWallet, doc["wallet"])

	sig, ok := doc["latest_signature"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testSig, sig["signature"])

	tx, ok := doc["transaction"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1000), tx["slot"])
}

func TestResult_JSONEmpty(t *testing.T) {
	p, out, _ := newPrinter(FormatJSON)
	p.Result(emptyResult())

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Nil(t, doc["latest_signature"])
	assert.Nil(t, doc["transaction"])
}

func TestResult_YAML(t *testing.T) {
	p, out, _ := newPrinter(FormatYAML)
	p.Result(fixtureResult(t))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, testWallet, doc["wallet"])

	sig, ok := doc["latest_signature"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, testSig, sig["signature"])
}

func TestResult_Summary(t *testing.T) {
	p, out, errOut := newPrinter(FormatSummary)
	p.Result(fixtureResult(t))

	got := out.String()
	assert.Contains(t, got, "Signature")
	assert.Contains(t, got, testSig)
	assert.Contains(t, got, "2023-11-14T22:13:20Z")
	assert.Contains(t, got, "Fee (lamports)")
	assert.Contains(t, got, "5000")
	assert.Contains(t, got, rpctest.FeePayer)
	assert.Contains(t, got, "SOL")
	assert.Empty(t, errOut.String())
}

func TestResult_JQFilter(t *testing.T) {
	code, err := CompileFilter(`.latest_signature.signature`)
	require.NoError(t, err)

	p, out, _ := newPrinter(FormatText)
	p.Filter = code
	p.Result(fixtureResult(t))

	assert.Equal(t, testSig+"\n", out.String())
}

func TestResult_JQFilterStructured(t *testing.T) {
	code, err := CompileFilter(`{slot: .transaction.slot, fee: .transaction.meta.fee}`)
	require.NoError(t, err)

	p, out, _ := newPrinter(FormatJSON)
	p.Filter = code
	p.Result(fixtureResult(t))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, float64(1000), got["slot"])
	assert.Equal(t, float64(5000), got["fee"])
}

func TestResult_JQRuntimeError(t *testing.T) {
	code, err := CompileFilter(`.wallet | error`)
	require.NoError(t, err)

	p, out, errOut := newPrinter(FormatText)
	p.Filter = code
	p.Result(emptyResult())

	assert.Empty(t, out.String())
	assert.True(t, strings.HasPrefix(errOut.String(), "jq: "))
}

func TestCompileFilter_Invalid(t *testing.T) {
	_, err := CompileFilter(`.[`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}

func TestError_SingleLine(t *testing.T) {
	p, out, errOut := newPrinter(FormatText)
	p.Error(errors.New("first\nsecond"))

	assert.Empty(t, out.String())
	assert.Equal(t, "Error: first; second\n", errOut.String())
}

func TestError_Color(t *testing.T) {
	var errOut bytes.Buffer
	p := &Printer{Out: &bytes.Buffer{}, Err: &errOut}
	p.Error(errors.New("boom"))

	assert.Contains(t, errOut.String(), "\x1b[31m")
	assert.Contains(t, errOut.String(), "boom")
}

func TestUsage(t *testing.T) {
	p, _, errOut := newPrinter(FormatText)
	p.Usage("lasttx")
	assert.Equal(t, "Usage: lasttx <WALLET_ADDRESS>\n", errOut.String())
}

func TestValidFormat(t *testing.T) {
	for _, f := range Formats {
		assert.True(t, ValidFormat(f), f)
	}
	assert.False(t, ValidFormat("xml"))
	assert.False(t, ValidFormat(""))
}
