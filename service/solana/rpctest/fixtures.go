package rpctest

import (
	"encoding/json"
	"fmt"
)

// Keys used by the fixture transaction.
const (
	FeePayer        = "CKBpvrSKeN8si8avyK8jTycSvxKbHC5waDPdShctejA6"
	Recipient       = "9iLDbQJeKcjDHkamKpF8E9oyBTj1611rexBpWuUgy7u1"
	RecentBlockhash = "CuyDjuYwnkphHpWJjHRLErtVxcrWCYWS8nerQLg836RS"
	SystemProgram   = "11111111111111111111111111111111"

	// TransferLamports is the amount moved by the fixture transfer.
	TransferLamports = 1000000
	// transferData is the base58 System Program Transfer instruction for
	// TransferLamports.
	transferData = "3Bxs4Bc3VYuGVB19"
)

// SignatureEntries builds a getSignaturesForAddress result listing sigs in
// the given order. Slots increase from 1000 so entries are distinguishable.
func SignatureEntries(sigs ...string) json.RawMessage {
	entries := make([]map[string]interface{}, 0, len(sigs))
	for i, sig := range sigs {
		entries = append(entries, map[string]interface{}{
			"signature":          sig,
			"slot":               1000 + i,
			"blockTime":          1700000000 + i,
			"err":                nil,
			"memo":               nil,
			"confirmationStatus": "finalized",
		})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	return data
}

// TransferTransaction builds a getTransaction result (json encoding) for a
// legacy System Program transfer of TransferLamports from FeePayer to
// Recipient.
func TransferTransaction(signature string, slot uint64, blockTime int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
  "slot": %d,
  "blockTime": %d,
  "version": "legacy",
  "meta": {
    "err": null,
    "fee": 5000,
    "preBalances": [10000000, 0, 1],
    "postBalances": [8995000, 1000000, 1],
    "innerInstructions": [],
    "preTokenBalances": [],
    "postTokenBalances": [],
    "logMessages": [
      "Program %[4]s invoke [1]",
      "Program %[4]s success"
    ],
    "rewards": [],
    "status": {"Ok": null},
    "computeUnitsConsumed": 150
  },
  "transaction": {
    "signatures": ["%[3]s"],
    "message": {
      "accountKeys": ["%[5]s", "%[6]s", "%[4]s"],
      "header": {
        "numRequiredSignatures": 1,
        "numReadonlySignedAccounts": 0,
        "numReadonlyUnsignedAccounts": 1
      },
      "recentBlockhash": "%[7]s",
      "instructions": [
        {"programIdIndex": 2, "accounts": [0, 1], "data": "%[8]s"}
      ]
    }
  }
}`, slot, blockTime, signature, SystemProgram, FeePayer, Recipient, RecentBlockhash, transferData))
}
