package handler

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/explorer"
	"github.com/Belloabraham121/warpscan/internal/metrics"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// ExplorerHandler exposes the data service reads over HTTP for headless use
// and debugging; the terminal front end calls the service directly.
type ExplorerHandler struct {
	service *explorer.Service
}

func NewExplorerHandler(service *explorer.Service) *ExplorerHandler {
	return &ExplorerHandler{service: service}
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var (
		validation *errs.ValidationError
		network    *errs.NetworkError
		blockchain *errs.BlockchainError
		parse      *errs.ParseError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &network):
		return http.StatusServiceUnavailable
	case errors.As(err, &blockchain):
		return http.StatusBadGateway
	case errors.As(err, &parse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *ExplorerHandler) respond(c *gin.Context, start time.Time, data any, err error) {
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), strconv.Itoa(status)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath()).Observe(time.Since(start).Seconds())

	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(status, data)
}

func (h *ExplorerHandler) GetAddressInfo(c *gin.Context) {
	start := time.Now()
	info, err := h.service.GetAddressInfo(c.Request.Context(), c.Param("address"))
	h.respond(c, start, info, err)
}

func (h *ExplorerHandler) GetAddressTransactions(c *gin.Context) {
	start := time.Now()
	txs, err := h.service.GetAddressTransactions(c.Request.Context(), c.Param("address"))
	h.respond(c, start, gin.H{"data": txs}, err)
}

func (h *ExplorerHandler) GetTokenTransfers(c *gin.Context) {
	start := time.Now()
	transfers, err := h.service.GetTokenTransfers(c.Request.Context(), c.Param("address"))
	h.respond(c, start, gin.H{"data": transfers}, err)
}

func (h *ExplorerHandler) GetInternalTransactions(c *gin.Context) {
	start := time.Now()
	transfers, err := h.service.GetInternalTransactions(c.Request.Context(), c.Param("address"))
	h.respond(c, start, gin.H{"data": transfers}, err)
}

func (h *ExplorerHandler) GetTokenBalances(c *gin.Context) {
	start := time.Now()
	balances, err := h.service.GetTokenBalances(c.Request.Context(), c.Param("address"))
	h.respond(c, start, gin.H{"data": balances}, err)
}

func (h *ExplorerHandler) ResolveName(c *gin.Context) {
	start := time.Now()
	name, err := h.service.ResolveName(c.Request.Context(), c.Param("address"))
	h.respond(c, start, gin.H{"name": name}, err)
}

func (h *ExplorerHandler) GetTransaction(c *gin.Context) {
	start := time.Now()
	details, err := h.service.GetTransactionDetails(c.Request.Context(), c.Param("hash"))
	h.respond(c, start, details, err)
}

func (h *ExplorerHandler) GetLatestBlock(c *gin.Context) {
	start := time.Now()
	block, err := h.service.GetLatestBlock(c.Request.Context())
	h.respond(c, start, block, err)
}

func (h *ExplorerHandler) GetBlock(c *gin.Context) {
	start := time.Now()
	number, err := strconv.ParseUint(c.Param("number"), 10, 64)
	if err != nil {
		h.respond(c, start, nil, &errs.ValidationError{Field: "block number", Reason: "not a decimal number"})
		return
	}
	block, svcErr := h.service.GetBlockByNumber(c.Request.Context(), number)
	h.respond(c, start, block, svcErr)
}

func (h *ExplorerHandler) GetGasPrices(c *gin.Context) {
	start := time.Now()
	prices, err := h.service.GetGasPrices(c.Request.Context())
	h.respond(c, start, prices, err)
}

func (h *ExplorerHandler) EstimateGas(c *gin.Context) {
	start := time.Now()

	var req struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Value string `json:"value"`
		Data  string `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, start, nil, &errs.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	value := new(big.Int)
	if req.Value != "" {
		if _, ok := value.SetString(req.Value, 10); !ok {
			h.respond(c, start, nil, &errs.ValidationError{Field: "value", Reason: "not a decimal amount"})
			return
		}
	}
	var data []byte
	if req.Data != "" {
		decoded, err := decodeHexData(req.Data)
		if err != nil {
			h.respond(c, start, nil, &errs.ValidationError{Field: "data", Reason: "not hex calldata"})
			return
		}
		data = decoded
	}

	gas, err := h.service.EstimateGas(c.Request.Context(), req.From, req.To, value, data)
	h.respond(c, start, gin.H{"gas": gas}, err)
}

func decodeHexData(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func (h *ExplorerHandler) GetCacheStats(c *gin.Context) {
	start := time.Now()
	h.respond(c, start, h.service.CacheStats(), nil)
}

func (h *ExplorerHandler) ClearCache(c *gin.Context) {
	start := time.Now()
	h.service.ClearCache()
	h.respond(c, start, gin.H{"status": "cleared"}, nil)
}
