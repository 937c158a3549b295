// Package wallet signs and submits swap transactions.
//
// The engine never talks to a key directly; everything goes through the
// Signer interface so the daemon's keyed signer can be swapped for another
// signing backend.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Signer signs and submits transactions on behalf of one address.
type Signer interface {
	// Address returns the signing address.
	Address() common.Address

	// SignAndSend signs a transaction to the given contract and submits it,
	// returning the transaction hash.
	SignAndSend(ctx context.Context, chainID uint64, to common.Address, data []byte, value *big.Int) (common.Hash, error)

	// WaitForConfirmation blocks until the transaction is mined, returning
	// an error if it reverted or the context expired.
	WaitForConfirmation(ctx context.Context, chainID uint64, hash common.Hash) error
}
