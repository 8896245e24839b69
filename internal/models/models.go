package models

import (
	"math/big"
	"time"
)

// Block is a normalized view of a chain block. Transactions are populated
// only when the block was fetched with full bodies.
type Block struct {
	Number       uint64        `json:"number"`
	Hash         string        `json:"hash"`
	ParentHash   string        `json:"parent_hash"`
	Timestamp    time.Time     `json:"timestamp"`
	Miner        string        `json:"miner"`
	GasUsed      uint64        `json:"gas_used"`
	GasLimit     uint64        `json:"gas_limit"`
	BaseFee      *big.Int      `json:"base_fee,omitempty"`
	TxCount      int           `json:"tx_count"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// Transaction is the source-agnostic transaction shape shared by the RPC and
// indexed-API adapters. Numeric amounts stay as *big.Int; hex/decimal string
// conversion belongs to the adapters.
type Transaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"` // empty for contract creation
	Value       *big.Int  `json:"value"`
	Nonce       uint64    `json:"nonce"`
	Gas         uint64    `json:"gas"`
	GasPrice    *big.Int  `json:"gas_price,omitempty"`
	Input       string    `json:"input,omitempty"` // 0x-prefixed calldata
	BlockNumber uint64    `json:"block_number"`    // 0 while pending
	BlockHash   string    `json:"block_hash,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Method      string    `json:"method,omitempty"`
	Failed      bool      `json:"failed,omitempty"`
}

// Pending reports whether the transaction has not been mined yet.
func (t *Transaction) Pending() bool { return t.BlockNumber == 0 }

// Receipt carries the execution outcome of a mined transaction.
type Receipt struct {
	TxHash            string   `json:"tx_hash"`
	Status            uint64   `json:"status"`
	BlockNumber       uint64   `json:"block_number"`
	GasUsed           uint64   `json:"gas_used"`
	EffectiveGasPrice *big.Int `json:"effective_gas_price"`
	ContractAddress   string   `json:"contract_address,omitempty"`
	LogCount          int      `json:"log_count"`
}

// AddressInfo is the composite account view assembled from three independent
// backend calls (balance, nonce, code probe).
type AddressInfo struct {
	Address          string    `json:"address"`
	Balance          *big.Int  `json:"balance"`
	TransactionCount uint64    `json:"transaction_count"`
	IsContract       bool      `json:"is_contract"`
	LastUpdated      time.Time `json:"last_updated"`
}

// TransferKind tags an entry in a transaction's unified transfer list.
type TransferKind string

const (
	TransferNative   TransferKind = "native"
	TransferToken    TransferKind = "token"
	TransferInternal TransferKind = "internal"
)

// Transfer is one value movement observed inside a transaction. TxHash,
// BlockNumber and Timestamp are populated for list views; inside a
// TransactionDetails they are redundant with the parent and may be zero.
type Transfer struct {
	Kind          TransferKind `json:"kind"`
	From          string       `json:"from"`
	To            string       `json:"to"`
	Value         *big.Int     `json:"value"`
	TxHash        string       `json:"tx_hash,omitempty"`
	BlockNumber   uint64       `json:"block_number,omitempty"`
	Timestamp     time.Time    `json:"timestamp,omitempty"`
	TokenAddress  string       `json:"token_address,omitempty"`
	TokenName     string       `json:"token_name,omitempty"`
	TokenSymbol   string       `json:"token_symbol,omitempty"`
	TokenDecimals uint8        `json:"token_decimals,omitempty"`
}

// TransactionDetails is the fully assembled transaction view: base fields,
// receipt-derived computations, and the ordered transfer list with the
// primary native transfer at index 0 when value > 0.
type TransactionDetails struct {
	Transaction
	Status            uint64     `json:"status"`
	Confirmations     uint64     `json:"confirmations"`
	GasUsed           uint64     `json:"gas_used"`
	EffectiveGasPrice *big.Int   `json:"effective_gas_price,omitempty"`
	Fee               *big.Int   `json:"fee,omitempty"`
	Transfers         []Transfer `json:"transfers"`
}

// TokenBalance is one row of an address's ERC-20 holdings.
type TokenBalance struct {
	TokenAddress string   `json:"token_address"`
	Name         string   `json:"name,omitempty"`
	Symbol       string   `json:"symbol,omitempty"`
	Decimals     uint8    `json:"decimals"`
	Balance      *big.Int `json:"balance"`
}

// GasPrices holds the three fee tiers derived from the node's suggested price.
type GasPrices struct {
	Slow      *big.Int  `json:"slow"`
	Standard  *big.Int  `json:"standard"`
	Fast      *big.Int  `json:"fast"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractInfo describes what the code probe and indexed API know about a
// deployed contract.
type ContractInfo struct {
	Address   string `json:"address"`
	CodeSize  int    `json:"code_size"`
	IsERC20   bool   `json:"is_erc20,omitempty"`
	Name      string `json:"name,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Decimals  uint8  `json:"decimals,omitempty"`
	Creator   string `json:"creator,omitempty"`
	CreateTx  string `json:"create_tx,omitempty"`
	Destroyed bool   `json:"destroyed,omitempty"`
}
