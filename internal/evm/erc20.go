// Package evm wraps per-chain Ethereum RPC access: ERC-20 reads, approval
// calldata, and Multicall3 batching.
package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// MaxUint256 is the unlimited-approval amount (2^256 - 1).
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

const erc20ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("parse erc20 abi: %v", err))
	}
}

// PackBalanceOf builds balanceOf(owner) calldata.
func PackBalanceOf(owner common.Address) []byte {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		panic(fmt.Sprintf("pack balanceOf: %v", err))
	}
	return data
}

// UnpackBalanceOf decodes a balanceOf return value.
func UnpackBalanceOf(data []byte) (*big.Int, error) {
	out, err := erc20ABI.Unpack("balanceOf", data)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackAllowance builds allowance(owner, spender) calldata.
func PackAllowance(owner, spender common.Address) []byte {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		panic(fmt.Sprintf("pack allowance: %v", err))
	}
	return data
}

// UnpackAllowance decodes an allowance return value.
func UnpackAllowance(data []byte) (*big.Int, error) {
	out, err := erc20ABI.Unpack("allowance", data)
	if err != nil {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// PackApprove builds approve(spender, amount) calldata.
func PackApprove(spender common.Address, amount *big.Int) []byte {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		panic(fmt.Sprintf("pack approve: %v", err))
	}
	return data
}
