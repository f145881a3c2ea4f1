package solana

import "fmt"

// InvalidAddressError is returned when a wallet address does not decode to a
// 32-byte public key.
type InvalidAddressError struct {
	Address string
	Err     error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("Invalid wallet address '%s': %v", e.Address, e.Err)
}

func (e *InvalidAddressError) Unwrap() error { return e.Err }

// LookupError is returned when getSignaturesForAddress fails.
type LookupError struct {
	Address string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("Failed to fetch signatures for wallet '%s': %v", e.Address, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// SignatureParseError is returned when a signature reported by the node does
// not decode to a 64-byte signature.
type SignatureParseError struct {
	Signature string
	Err       error
}

func (e *SignatureParseError) Error() string {
	return fmt.Sprintf("Failed to parse signature '%s': %v", e.Signature, e.Err)
}

func (e *SignatureParseError) Unwrap() error { return e.Err }

// FetchError is returned when getTransaction fails.
type FetchError struct {
	Signature string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("Failed to get transaction details for signature '%s': %v", e.Signature, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
