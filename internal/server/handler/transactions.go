package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/chainbook/internal/domain"
	"github.com/alanyoungcy/chainbook/internal/metrics"
	"github.com/alanyoungcy/chainbook/internal/service"
)

// maxTxBody bounds the accepted transaction payload size.
const maxTxBody = 1 << 20

// TransactionService defines the methods the transaction handler requires
// from the service layer.
type TransactionService interface {
	SubmitTransaction(ctx context.Context, tx *domain.Transaction) (service.SubmitResult, error)
	Balance(ctx context.Context, account, asset domain.ObjectID) int64
}

// TransactionHandler accepts transactions and serves balance reads.
type TransactionHandler struct {
	txs    TransactionService
	logger *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler with the given service
// and logger.
func NewTransactionHandler(txs TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{txs: txs, logger: logger}
}

// submitRequest is the wire form of a transaction: tagged operations plus
// the proposal marker.
type submitRequest struct {
	Operations []domain.TaggedOp `json:"operations"`
	IsProposed bool              `json:"is_proposed"`
}

// Submit applies a transaction against the chain state.
// POST /api/transactions
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed transaction")
		return
	}
	if len(req.Operations) == 0 {
		writeError(w, http.StatusBadRequest, "transaction has no operations")
		return
	}

	tx := &domain.Transaction{IsProposed: req.IsProposed}
	for i, tagged := range req.Operations {
		raw, err := json.Marshal(tagged)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed operation")
			return
		}
		op, err := domain.DecodeOperationJSON(raw)
		if err != nil {
			h.logger.InfoContext(r.Context(), "handler: rejected operation",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tx.Operations = append(tx.Operations, op)
	}

	result, err := h.txs.SubmitTransaction(r.Context(), tx)
	if errors.Is(err, domain.ErrInvalidOperation) {
		metrics.TransactionsTotal.WithLabelValues("rejected").Inc()
		writeOpError(w, err)
		return
	}
	if err != nil {
		metrics.TransactionsTotal.WithLabelValues("error").Inc()
		h.logger.ErrorContext(r.Context(), "handler: submit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to apply transaction")
		return
	}

	metrics.TransactionsTotal.WithLabelValues("applied").Inc()
	writeJSON(w, http.StatusOK, result)
}

// GetBalance reads one account balance.
// GET /api/accounts/{id}/balance?asset=1.2.0
func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := pathID(r, domain.TypeAccount)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed account id")
		return
	}

	asset, err := domain.ParseID(r.URL.Query().Get("asset"))
	if err != nil || !asset.IsType(domain.TypeAsset) {
		writeError(w, http.StatusBadRequest, "malformed asset id")
		return
	}

	amount := h.txs.Balance(r.Context(), account, asset)
	writeJSON(w, http.StatusOK, map[string]any{
		"account": account,
		"asset":   asset,
		"amount":  amount,
	})
}
