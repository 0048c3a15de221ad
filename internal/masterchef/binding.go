package masterchef

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the chain query surface the bindings need. chain.Client
// satisfies it; tests substitute fakes.
type Backend interface {
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, addr common.Address, blockNumber *big.Int) ([]byte, error)
}

// Binding exposes the MasterChef calls and log filter used by the scan.
type Binding struct {
	backend Backend
	address common.Address
	abi     abi.ABI
	pid     *big.Int
}

// NewBinding builds a Binding and validates the ABI carries the required
// event and methods. A missing entry is a configuration error.
func NewBinding(backend Backend, address common.Address, chefABI abi.ABI, pid uint64) (*Binding, error) {
	if _, ok := chefABI.Events["Deposit"]; !ok {
		return nil, fmt.Errorf("contract abi is missing Deposit event")
	}
	for _, method := range []string{"poolInfo", "userInfo"} {
		if _, ok := chefABI.Methods[method]; !ok {
			return nil, fmt.Errorf("contract abi is missing %s method", method)
		}
	}
	return &Binding{
		backend: backend,
		address: address,
		abi:     chefABI,
		pid:     new(big.Int).SetUint64(pid),
	}, nil
}

func (b *Binding) Address() common.Address {
	return b.address
}

// FilterDeposits fetches Deposit logs for the binding's pid over the
// inclusive [fromBlock, toBlock] range and decodes them.
func (b *Binding) FilterDeposits(ctx context.Context, fromBlock, toBlock uint64) ([]DepositEntry, error) {
	event := b.abi.Events["Deposit"]
	topics := [][]common.Hash{
		{event.ID},
		{}, // any user
		{common.BigToHash(b.pid)},
	}

	logs, err := b.backend.FilterLogs(ctx, fromBlock, toBlock, []common.Address{b.address}, topics)
	if err != nil {
		return nil, err
	}

	entries := make([]DepositEntry, 0, len(logs))
	for _, log := range logs {
		entry, err := DecodeDeposit(b.abi, log)
		if err != nil {
			return nil, fmt.Errorf("decode deposit (block %d, log %d): %w", log.BlockNumber, log.Index, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DepositEntry is one decoded Deposit log.
type DepositEntry struct {
	User        common.Address
	Pid         *big.Int
	Amount      *big.Int
	BlockNumber uint64
}

// DecodeDeposit decodes a Deposit log's indexed user/pid topics and
// non-indexed amount.
func DecodeDeposit(chefABI abi.ABI, log types.Log) (DepositEntry, error) {
	if len(log.Topics) != 3 {
		return DepositEntry{}, fmt.Errorf("unexpected topic count %d", len(log.Topics))
	}

	values, err := chefABI.Unpack("Deposit", log.Data)
	if err != nil {
		return DepositEntry{}, fmt.Errorf("unpack Deposit: %w", err)
	}
	if len(values) != 1 {
		return DepositEntry{}, fmt.Errorf("unexpected Deposit data arity %d", len(values))
	}
	amount, err := asBigInt(values[0])
	if err != nil {
		return DepositEntry{}, fmt.Errorf("amount: %w", err)
	}

	return DepositEntry{
		User:        common.BytesToAddress(log.Topics[1].Bytes()),
		Pid:         new(big.Int).SetBytes(log.Topics[2].Bytes()),
		Amount:      amount,
		BlockNumber: log.BlockNumber,
	}, nil
}

// PoolInfo returns the LP token address registered for the binding's pid.
func (b *Binding) PoolInfo(ctx context.Context) (common.Address, error) {
	values, err := b.call(ctx, "poolInfo", b.pid)
	if err != nil {
		return common.Address{}, err
	}
	if len(values) == 0 {
		return common.Address{}, fmt.Errorf("poolInfo returned no values")
	}
	lpToken, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("poolInfo lpToken: %w", err)
	}
	return lpToken, nil
}

// UserInfo returns the live staked amount and reward debt for addr.
func (b *Binding) UserInfo(ctx context.Context, addr common.Address) (amount, rewardDebt *big.Int, err error) {
	values, err := b.call(ctx, "userInfo", b.pid, addr)
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("userInfo returned %d values", len(values))
	}
	amount, err = asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("userInfo amount: %w", err)
	}
	rewardDebt, err = asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("userInfo rewardDebt: %w", err)
	}
	return amount, rewardDebt, nil
}

func (b *Binding) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return callMethod(ctx, b.backend, b.address, b.abi, method, args...)
}

// PairBinding exposes the LP pair calls used for valuation.
type PairBinding struct {
	backend Backend
	address common.Address
	abi     abi.ABI
}

// NewPairBinding builds a PairBinding, validating the required methods.
func NewPairBinding(backend Backend, address common.Address, lpABI abi.ABI) (*PairBinding, error) {
	for _, method := range []string{"getReserves", "balanceOf", "totalSupply"} {
		if _, ok := lpABI.Methods[method]; !ok {
			return nil, fmt.Errorf("lp abi is missing %s method", method)
		}
	}
	return &PairBinding{backend: backend, address: address, abi: lpABI}, nil
}

func (p *PairBinding) Address() common.Address {
	return p.address
}

// GetReserves returns both reserve slots of the pair.
func (p *PairBinding) GetReserves(ctx context.Context) (reserve0, reserve1 *big.Int, err error) {
	values, err := callMethod(ctx, p.backend, p.address, p.abi, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) != 3 {
		return nil, nil, fmt.Errorf("unexpected getReserves arity %d", len(values))
	}
	reserve0, err = asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err = asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

// BalanceOf returns owner's pair token balance.
func (p *PairBinding) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	values, err := callMethod(ctx, p.backend, p.address, p.abi, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf arity %d", len(values))
	}
	return asBigInt(values[0])
}

// TotalSupply returns the pair token total supply.
func (p *PairBinding) TotalSupply(ctx context.Context) (*big.Int, error) {
	values, err := callMethod(ctx, p.backend, p.address, p.abi, "totalSupply")
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected totalSupply arity %d", len(values))
	}
	return asBigInt(values[0])
}

// IsContract reports whether addr has deployed code.
func IsContract(ctx context.Context, backend Backend, addr common.Address) (bool, error) {
	code, err := backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("get code %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

func callMethod(ctx context.Context, backend Backend, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
