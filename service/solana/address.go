package solana

import (
	"github.com/gagliardetto/solana-go"
)

// ParseWallet decodes a base58 wallet address.
func ParseWallet(address string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, &InvalidAddressError{Address: address, Err: err}
	}
	return pk, nil
}

// ParseSignature decodes a base58 transaction signature.
func ParseSignature(signature string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return solana.Signature{}, &SignatureParseError{Signature: signature, Err: err}
	}
	return sig, nil
}
