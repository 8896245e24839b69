package scanapi

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/Belloabraham121/warpscan/internal/models"
)

// knownChains maps the chain ids the UI offers by name. Anything else is
// passed through to the API numerically.
var knownChains = map[uint64]string{
	1:        "mainnet",
	10:       "optimism",
	56:       "bsc",
	137:      "polygon",
	8453:     "base",
	42161:    "arbitrum",
	11155111: "sepolia",
}

// ChainName returns the short name for a known chain id, or the decimal id.
func ChainName(id uint64) string {
	if name, ok := knownChains[id]; ok {
		return name
	}
	return strconv.FormatUint(id, 10)
}

// txRow is one row of the account txlist action. Every numeric arrives as a
// decimal string.
type txRow struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	Nonce           string `json:"nonce"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasPrice        string `json:"gasPrice"`
	GasUsed         string `json:"gasUsed"`
	IsError         string `json:"isError"`
	TxReceiptStatus string `json:"txreceipt_status"`
	Input           string `json:"input"`
	ContractAddress string `json:"contractAddress"`
	FunctionName    string `json:"functionName"`
	MethodID        string `json:"methodId"`
	Method          string `json:"method"`
}

// valid reports whether the row carries the fields a list entry cannot live
// without. Invalid rows are dropped individually, never the whole batch.
func (r *txRow) valid() bool {
	return r.Hash != "" && r.From != ""
}

func (r *txRow) toTransaction() models.Transaction {
	return models.Transaction{
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       decimalBig(r.Value),
		Nonce:       decimalUint(r.Nonce),
		Gas:         decimalUint(r.Gas),
		GasPrice:    decimalBig(r.GasPrice),
		Input:       r.Input,
		BlockNumber: decimalUint(r.BlockNumber),
		Timestamp:   unixTime(r.TimeStamp),
		Method:      r.methodLabel(),
		Failed:      r.IsError == "1" || r.TxReceiptStatus == "0",
	}
}

// methodLabel resolves the human-readable method via the fallback chain:
// explicit function name, method id field, generic method field, first four
// bytes of calldata, empty.
func (r *txRow) methodLabel() string {
	if r.FunctionName != "" {
		if idx := strings.IndexByte(r.FunctionName, '('); idx > 0 {
			return r.FunctionName[:idx]
		}
		return r.FunctionName
	}
	if r.MethodID != "" {
		return r.MethodID
	}
	if r.Method != "" {
		return r.Method
	}
	if len(r.Input) >= 10 && strings.HasPrefix(r.Input, "0x") && r.Input != "0x" {
		return r.Input[:10]
	}
	return ""
}

// tokenTxRow is one row of the tokentx action.
type tokenTxRow struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

func (r *tokenTxRow) valid() bool {
	return r.Hash != "" && r.From != ""
}

func (r *tokenTxRow) toTransfer() models.Transfer {
	return models.Transfer{
		Kind:          models.TransferToken,
		From:          r.From,
		To:            r.To,
		Value:         decimalBig(r.Value),
		TxHash:        r.Hash,
		BlockNumber:   decimalUint(r.BlockNumber),
		Timestamp:     unixTime(r.TimeStamp),
		TokenAddress:  r.ContractAddress,
		TokenName:     r.TokenName,
		TokenSymbol:   r.TokenSymbol,
		TokenDecimals: uint8(decimalUint(r.TokenDecimal)),
	}
}

// internalTxRow is one row of the txlistinternal action.
type internalTxRow struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	IsError     string `json:"isError"`
	ErrCode     string `json:"errCode"`
	TraceID     string `json:"traceId"`
}

func (r *internalTxRow) valid() bool {
	return r.From != ""
}

func (r *internalTxRow) toTransfer() models.Transfer {
	return models.Transfer{
		Kind:        models.TransferInternal,
		From:        r.From,
		To:          r.To,
		Value:       decimalBig(r.Value),
		TxHash:      r.Hash,
		BlockNumber: decimalUint(r.BlockNumber),
		Timestamp:   unixTime(r.TimeStamp),
	}
}

// tokenBalanceRow is one row of the addresstokenbalance action.
type tokenBalanceRow struct {
	TokenAddress  string `json:"TokenAddress"`
	TokenName     string `json:"TokenName"`
	TokenSymbol   string `json:"TokenSymbol"`
	TokenQuantity string `json:"TokenQuantity"`
	TokenDivisor  string `json:"TokenDivisor"`
}

func (r *tokenBalanceRow) valid() bool {
	return r.TokenAddress != "" && r.TokenQuantity != ""
}

func (r *tokenBalanceRow) toTokenBalance() models.TokenBalance {
	return models.TokenBalance{
		TokenAddress: r.TokenAddress,
		Name:         r.TokenName,
		Symbol:       r.TokenSymbol,
		Decimals:     uint8(decimalUint(r.TokenDivisor)),
		Balance:      decimalBig(r.TokenQuantity),
	}
}

func decimalBig(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func decimalUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func unixTime(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
