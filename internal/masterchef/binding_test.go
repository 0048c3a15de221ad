package masterchef

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	chefAddr = common.HexToAddress("0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")
	pairAddr = common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	userAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

// fakeBackend records filter arguments and serves canned call outputs keyed
// by method selector.
type fakeBackend struct {
	logs          []types.Log
	lastAddresses []common.Address
	lastTopics    [][]common.Hash
	lastFrom      uint64
	lastTo        uint64
	outputs       map[string][]byte
	code          map[common.Address][]byte
}

func (f *fakeBackend) FilterLogs(_ context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error) {
	f.lastFrom, f.lastTo = fromBlock, toBlock
	f.lastAddresses = addresses
	f.lastTopics = topics
	return f.logs, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	selector := hex.EncodeToString(msg.Data[:4])
	out, ok := f.outputs[selector]
	if !ok {
		return nil, ethereum.NotFound
	}
	return out, nil
}

func (f *fakeBackend) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	return f.code[addr], nil
}

func selectorOf(t *testing.T, id []byte) string {
	t.Helper()
	return hex.EncodeToString(id[:4])
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func depositLog(t *testing.T, pid, amount int64, block uint64) types.Log {
	t.Helper()
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	data, err := chefABI.Events["Deposit"].Inputs.NonIndexed().Pack(big.NewInt(amount))
	if err != nil {
		t.Fatalf("pack deposit: %v", err)
	}
	return types.Log{
		Address:     chefAddr,
		BlockNumber: block,
		Topics: []common.Hash{
			chefABI.Events["Deposit"].ID,
			topicFromAddress(userAddr),
			common.BigToHash(big.NewInt(pid)),
		},
		Data: data,
	}
}

func TestDecodeDeposit(t *testing.T) {
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	entry, err := DecodeDeposit(chefABI, depositLog(t, 3, 777, 1234))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry.User != userAddr {
		t.Fatalf("user %s, want %s", entry.User.Hex(), userAddr.Hex())
	}
	if entry.Pid.Int64() != 3 {
		t.Fatalf("pid %d, want 3", entry.Pid.Int64())
	}
	if entry.Amount.Int64() != 777 {
		t.Fatalf("amount %d, want 777", entry.Amount.Int64())
	}
	if entry.BlockNumber != 1234 {
		t.Fatalf("block %d, want 1234", entry.BlockNumber)
	}
}

func TestDecodeDepositBadTopics(t *testing.T) {
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	log := depositLog(t, 3, 777, 1234)
	log.Topics = log.Topics[:2]
	if _, err := DecodeDeposit(chefABI, log); err == nil {
		t.Fatalf("expected error for missing pid topic")
	}
}

func TestFilterDepositsTopicLayout(t *testing.T) {
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	backend := &fakeBackend{logs: []types.Log{depositLog(t, 7, 42, 500)}}
	binding, err := NewBinding(backend, chefAddr, chefABI, 7)
	if err != nil {
		t.Fatalf("binding: %v", err)
	}

	entries, err := binding.FilterDeposits(context.Background(), 400, 500)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(entries) != 1 || entries[0].Amount.Int64() != 42 {
		t.Fatalf("entries mismatch: %+v", entries)
	}

	if backend.lastFrom != 400 || backend.lastTo != 500 {
		t.Fatalf("range [%d, %d], want [400, 500]", backend.lastFrom, backend.lastTo)
	}
	if len(backend.lastAddresses) != 1 || backend.lastAddresses[0] != chefAddr {
		t.Fatalf("address filter mismatch: %v", backend.lastAddresses)
	}
	if len(backend.lastTopics) != 3 {
		t.Fatalf("topic positions %d, want 3", len(backend.lastTopics))
	}
	if backend.lastTopics[0][0] != chefABI.Events["Deposit"].ID {
		t.Fatalf("topic0 is not the Deposit signature")
	}
	if len(backend.lastTopics[1]) != 0 {
		t.Fatalf("user topic should be a wildcard")
	}
	if backend.lastTopics[2][0] != common.BigToHash(big.NewInt(7)) {
		t.Fatalf("pid topic mismatch")
	}
}

func TestPoolInfoAndUserInfo(t *testing.T) {
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	poolOut, err := chefABI.Methods["poolInfo"].Outputs.Pack(pairAddr, big.NewInt(10), big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("pack poolInfo output: %v", err)
	}
	userOut, err := chefABI.Methods["userInfo"].Outputs.Pack(big.NewInt(55), big.NewInt(6))
	if err != nil {
		t.Fatalf("pack userInfo output: %v", err)
	}

	backend := &fakeBackend{outputs: map[string][]byte{
		selectorOf(t, chefABI.Methods["poolInfo"].ID): poolOut,
		selectorOf(t, chefABI.Methods["userInfo"].ID): userOut,
	}}

	binding, err := NewBinding(backend, chefAddr, chefABI, 0)
	if err != nil {
		t.Fatalf("binding: %v", err)
	}

	lpToken, err := binding.PoolInfo(context.Background())
	if err != nil {
		t.Fatalf("poolInfo: %v", err)
	}
	if lpToken != pairAddr {
		t.Fatalf("lp token %s, want %s", lpToken.Hex(), pairAddr.Hex())
	}

	amount, rewardDebt, err := binding.UserInfo(context.Background(), userAddr)
	if err != nil {
		t.Fatalf("userInfo: %v", err)
	}
	if amount.Int64() != 55 || rewardDebt.Int64() != 6 {
		t.Fatalf("userInfo = (%d, %d), want (55, 6)", amount.Int64(), rewardDebt.Int64())
	}
}

func TestPairCalls(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	reservesOut, err := pairABI.Methods["getReserves"].Outputs.Pack(big.NewInt(2000), big.NewInt(4000), uint32(0))
	if err != nil {
		t.Fatalf("pack getReserves output: %v", err)
	}
	balanceOut, err := pairABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(500))
	if err != nil {
		t.Fatalf("pack balanceOf output: %v", err)
	}
	supplyOut, err := pairABI.Methods["totalSupply"].Outputs.Pack(big.NewInt(1000))
	if err != nil {
		t.Fatalf("pack totalSupply output: %v", err)
	}

	backend := &fakeBackend{outputs: map[string][]byte{
		selectorOf(t, pairABI.Methods["getReserves"].ID): reservesOut,
		selectorOf(t, pairABI.Methods["balanceOf"].ID):   balanceOut,
		selectorOf(t, pairABI.Methods["totalSupply"].ID): supplyOut,
	}}

	pair, err := NewPairBinding(backend, pairAddr, pairABI)
	if err != nil {
		t.Fatalf("pair binding: %v", err)
	}

	r0, r1, err := pair.GetReserves(context.Background())
	if err != nil {
		t.Fatalf("getReserves: %v", err)
	}
	if r0.Int64() != 2000 || r1.Int64() != 4000 {
		t.Fatalf("reserves (%d, %d), want (2000, 4000)", r0.Int64(), r1.Int64())
	}

	balance, err := pair.BalanceOf(context.Background(), chefAddr)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if balance.Int64() != 500 {
		t.Fatalf("balance %d, want 500", balance.Int64())
	}

	supply, err := pair.TotalSupply(context.Background())
	if err != nil {
		t.Fatalf("totalSupply: %v", err)
	}
	if supply.Int64() != 1000 {
		t.Fatalf("supply %d, want 1000", supply.Int64())
	}
}

func TestIsContract(t *testing.T) {
	deployed := common.HexToAddress("0x2222222222222222222222222222222222222222")
	backend := &fakeBackend{code: map[common.Address][]byte{
		deployed: {0x60, 0x80},
	}}

	isContract, err := IsContract(context.Background(), backend, deployed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isContract {
		t.Fatalf("address with code should be a contract")
	}

	isContract, err = IsContract(context.Background(), backend, userAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isContract {
		t.Fatalf("address without code should be an EOA")
	}
}

func TestNewBindingValidatesABI(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	if _, err := NewBinding(&fakeBackend{}, chefAddr, pairABI, 0); err == nil {
		t.Fatalf("expected error for abi without Deposit event")
	}
	chefABI, err := ChefABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	if _, err := NewPairBinding(&fakeBackend{}, pairAddr, chefABI); err == nil {
		t.Fatalf("expected error for abi without getReserves")
	}
}
