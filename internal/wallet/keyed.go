package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/moodswap/moodswapd/pkg/logging"
)

// ErrReverted means the transaction was mined but failed.
var ErrReverted = errors.New("transaction reverted")

// gasMarginPct is the headroom added to gas estimates.
const gasMarginPct = 20

// KeyedSigner signs with a local private key over per-chain RPC clients.
type KeyedSigner struct {
	key     *ecdsa.PrivateKey
	addr    common.Address
	clients map[uint64]*ethclient.Client
	log     *logging.Logger
}

// NewKeyedSigner creates a signer from a hex-encoded private key.
func NewKeyedSigner(hexKey string, clients map[uint64]*ethclient.Client, log *logging.Logger) (*KeyedSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyedSigner{
		key:     key,
		addr:    crypto.PubkeyToAddress(key.PublicKey),
		clients: clients,
		log:     log.Component("wallet"),
	}, nil
}

// ReadKeyFile reads a hex private key from a file, tolerating whitespace
// and an optional 0x prefix.
func ReadKeyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Address returns the signing address.
func (s *KeyedSigner) Address() common.Address {
	return s.addr
}

// SignAndSend builds, signs, and submits a legacy transaction.
func (s *KeyedSigner) SignAndSend(ctx context.Context, chainID uint64, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	client, ok := s.clients[chainID]
	if !ok {
		return common.Hash{}, fmt.Errorf("no client for chain %d", chainID)
	}
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := client.PendingNonceAt(ctx, s.addr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("gas price: %w", err)
	}
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.addr,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	gas += gas * gasMarginPct / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}

	s.log.Info("transaction submitted", "chain", chainID, "hash", signed.Hash().Hex(), "nonce", nonce)
	return signed.Hash(), nil
}

// WaitForConfirmation waits for the transaction to be mined.
func (s *KeyedSigner) WaitForConfirmation(ctx context.Context, chainID uint64, hash common.Hash) error {
	client, ok := s.clients[chainID]
	if !ok {
		return fmt.Errorf("no client for chain %d", chainID)
	}

	receipt, err := bind.WaitMinedHash(ctx, client, hash)
	if err != nil {
		return fmt.Errorf("wait mined %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}

	s.log.Info("transaction confirmed", "chain", chainID, "hash", hash.Hex(), "block", receipt.BlockNumber)
	return nil
}
