package services

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/walletly/backend/internal/store"
)

// TransactionService serves the transaction history screen. Records are
// append-only and returned in insertion order.
type TransactionService struct {
	ledger *store.LedgerStore
}

func NewTransactionService(ledger *store.LedgerStore) *TransactionService {
	return &TransactionService{ledger: ledger}
}

// ListTransactions returns the full top-up history
// @Summary List transactions
// @Description Get all recorded top-up transactions, oldest first
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Return only the most recent N records"
// @Success 200 {object} object{transactions=[]models.Transaction,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := ts.ledger.LoadTransactions(r.Context())
	if err != nil {
		log.Printf("[TRANSACTIONS] Failed to load history: %v", err)
		SendErrorResponse(w, "Failed to load transactions", http.StatusInternalServerError, nil)
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(txs) {
			txs = txs[len(txs)-limit:]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}
