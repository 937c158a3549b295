package evm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const multicall3ABIJSON = `[
	{"inputs":[{"components":[{"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}],"name":"calls","type":"tuple[]"}],"name":"aggregate3","outputs":[{"components":[{"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}],"name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}
]`

var multicall3ABI abi.ABI

func init() {
	var err error
	multicall3ABI, err = abi.JSON(strings.NewReader(multicall3ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("parse multicall3 abi: %v", err))
	}
}

// Call3 is one call in an aggregate3 batch.
type Call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}

// Call3Result is the outcome of one call in an aggregate3 batch.
type Call3Result struct {
	Success    bool
	ReturnData []byte
}

// PackAggregate3 builds aggregate3 calldata for a batch of calls.
func PackAggregate3(calls []Call3) ([]byte, error) {
	args := make([]struct {
		Target       common.Address
		AllowFailure bool
		CallData     []byte
	}, len(calls))
	for i, c := range calls {
		args[i].Target = c.Target
		args[i].AllowFailure = c.AllowFailure
		args[i].CallData = c.CallData
	}
	data, err := multicall3ABI.Pack("aggregate3", args)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate3: %w", err)
	}
	return data, nil
}

// UnpackAggregate3 decodes an aggregate3 return value.
func UnpackAggregate3(data []byte) ([]Call3Result, error) {
	out, err := multicall3ABI.Unpack("aggregate3", data)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	raw := *abi.ConvertType(out[0], new([]struct {
		Success    bool
		ReturnData []byte
	})).(*[]struct {
		Success    bool
		ReturnData []byte
	})

	results := make([]Call3Result, len(raw))
	for i, r := range raw {
		results[i] = Call3Result{Success: r.Success, ReturnData: r.ReturnData}
	}
	return results, nil
}
