package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walletly/backend/internal/models"
	"github.com/walletly/backend/internal/store"
)

func TestTransactionService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	ledger := store.NewLedgerStore(store.NewMemoryKV())
	service := NewTransactionService(ledger)

	seed := []models.Transaction{
		{ID: 1, MethodName: "Visa", Amount: 10, Date: "1/1/2025, 9:00:00 AM"},
		{ID: 2, MethodName: "Visa", Amount: 20, Date: "1/2/2025, 9:00:00 AM"},
		{ID: 3, MethodName: "Mastercard", Amount: 30, Date: "1/3/2025, 9:00:00 AM"},
	}
	for _, tx := range seed {
		assert.NoError(t, ledger.AppendTransaction(ctx, tx))
	}

	t.Run("returns all records oldest first", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/transactions", nil)
		w := httptest.NewRecorder()

		service.ListTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Transactions []models.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 3, response.Count)
		assert.Equal(t, seed, response.Transactions)
	})

	t.Run("limit returns the most recent records", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/transactions?limit=2", nil)
		w := httptest.NewRecorder()

		service.ListTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Transactions []models.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 2, response.Count)
		assert.Equal(t, seed[1:], response.Transactions)
	})

	t.Run("invalid limit is ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/transactions?limit=abc", nil)
		w := httptest.NewRecorder()

		service.ListTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Count int `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 3, response.Count)
	})

	t.Run("empty history", func(t *testing.T) {
		empty := NewTransactionService(store.NewLedgerStore(store.NewMemoryKV()))

		r := httptest.NewRequest("GET", "/transactions", nil)
		w := httptest.NewRecorder()

		empty.ListTransactions(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Transactions []models.Transaction `json:"transactions"`
			Count        int                  `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 0, response.Count)
		assert.Empty(t, response.Transactions)
	})

	t.Run("corrupted history fails the request", func(t *testing.T) {
		kv := store.NewMemoryKV()
		kv.Set(ctx, "transactions", []byte(`{broken`))
		broken := NewTransactionService(store.NewLedgerStore(kv))

		r := httptest.NewRequest("GET", "/transactions", nil)
		w := httptest.NewRecorder()

		broken.ListTransactions(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
