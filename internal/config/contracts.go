package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"holderScope/internal/masterchef"
)

// defaultChunkSize matches the provider-friendly getLogs span most public
// endpoints accept without truncation.
const defaultChunkSize = 4999

// PoolConfig describes the reference pool used to price the staked token.
type PoolConfig struct {
	Address string `json:"address"`
	// ABI optionally overrides the built-in LP pair ABI.
	ABI json.RawMessage `json:"abi,omitempty"`
	// RefToken selects which reserve slot (0 or 1) is the reference asset.
	RefToken int `json:"ref_token"`
	// NormFactor divides the raw reserve units into the valuation scale.
	NormFactor decimal.Decimal `json:"norm_factor"`
}

// ContractConfig is one immutable scan descriptor, loaded once per run.
type ContractConfig struct {
	Name       string `json:"name"`
	Blockchain string `json:"blockchain"`
	Address    string `json:"address"`
	// ABI optionally overrides the built-in MasterChef ABI.
	ABI json.RawMessage `json:"abi,omitempty"`
	Pid uint64          `json:"pid"`
	// NBlocks is the scan window size in blocks, counted backward from the
	// end block. Defaults to ChunkSize.
	NBlocks uint64 `json:"n_blocks,omitempty"`
	// ChunkSize is the base getLogs span. Defaults to 4999.
	ChunkSize uint64 `json:"chunk_size,omitempty"`
	// MinAmount drops positions staked below this raw amount. Defaults to 0.
	MinAmount decimal.Decimal `json:"min_amount,omitempty"`
	Enabled   bool            `json:"enabled"`
	// EndBlock pins the scan's upper bound; 0 means the chain head.
	EndBlock uint64     `json:"end_block,omitempty"`
	Pool     PoolConfig `json:"lp"`
}

// LoadContracts reads the ordered contract list from a JSON file and applies
// defaults. Order is preserved: entries are processed strictly sequentially.
func LoadContracts(path string) ([]ContractConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contracts file: %w", err)
	}

	var contracts []ContractConfig
	if err := json.Unmarshal(data, &contracts); err != nil {
		return nil, fmt.Errorf("parse contracts file: %w", err)
	}

	for i := range contracts {
		applyDefaults(&contracts[i])
	}
	return contracts, nil
}

func applyDefaults(c *ContractConfig) {
	if c.ChunkSize == 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.NBlocks == 0 {
		c.NBlocks = c.ChunkSize
	}
}

// Validate checks the descriptor. A failure here is fatal for this entry.
func (c ContractConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("contract name is required")
	}
	if c.Blockchain == "" {
		return fmt.Errorf("blockchain is required")
	}
	if !common.IsHexAddress(c.Address) {
		return fmt.Errorf("invalid contract address: %q", c.Address)
	}
	if c.NBlocks < c.ChunkSize {
		return fmt.Errorf("n_blocks (%d) is expected to be >= chunk_size (%d)", c.NBlocks, c.ChunkSize)
	}
	if c.MinAmount.IsNegative() {
		return fmt.Errorf("min_amount must not be negative")
	}
	if !common.IsHexAddress(c.Pool.Address) {
		return fmt.Errorf("invalid lp address: %q", c.Pool.Address)
	}
	if c.Pool.RefToken != 0 && c.Pool.RefToken != 1 {
		return fmt.Errorf("ref_token should be 0 or 1 (%d)", c.Pool.RefToken)
	}
	if !c.Pool.NormFactor.IsPositive() {
		return fmt.Errorf("norm_factor must be positive")
	}
	return nil
}

// ContractAddress returns the checksummed contract address.
func (c ContractConfig) ContractAddress() common.Address {
	return common.HexToAddress(c.Address)
}

// PoolAddress returns the checksummed reference pool address.
func (c ContractConfig) PoolAddress() common.Address {
	return common.HexToAddress(c.Pool.Address)
}

// ChefABI returns the contract ABI, falling back to the built-in MasterChef
// ABI when the entry carries none.
func (c ContractConfig) ChefABI() (abi.ABI, error) {
	if len(c.ABI) == 0 {
		return masterchef.ChefABI()
	}
	parsed, err := abi.JSON(bytes.NewReader(c.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}
	return parsed, nil
}

// PairABI returns the pool ABI, falling back to the built-in pair ABI.
func (c ContractConfig) PairABI() (abi.ABI, error) {
	if len(c.Pool.ABI) == 0 {
		return masterchef.PairABI()
	}
	parsed, err := abi.JSON(bytes.NewReader(c.Pool.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse lp abi: %w", err)
	}
	return parsed, nil
}
