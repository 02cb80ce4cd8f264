package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/walletly/backend/internal/audit"
	"github.com/walletly/backend/internal/models"
	"github.com/walletly/backend/internal/store"
	"github.com/walletly/backend/internal/wallet"
)

func newWalletTestRouter() (*chi.Mux, *store.LedgerStore) {
	ledger := store.NewLedgerStore(store.NewMemoryKV())
	coord := wallet.NewCoordinator(ledger, audit.NewLogger())
	service := NewWalletService(ledger, coord)

	r := chi.NewRouter()
	r.Get("/wallet/methods", service.ListMethods)
	r.Post("/wallet/methods", service.AddMethod)
	r.Put("/wallet/methods/{id}", service.RenameMethod)
	r.Delete("/wallet/methods/{id}", service.DeleteMethod)
	r.Post("/wallet/methods/{id}/funds", service.AddFunds)
	r.Post("/wallet/confirmations/{id}", service.ResolveConfirmation)
	return r, ledger
}

func doJSON(r *chi.Mux, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func stageAndConfirm(t *testing.T, r *chi.Mux, method, path string, payload any) {
	t.Helper()

	w := doJSON(r, method, path, payload)
	assert.Equal(t, http.StatusAccepted, w.Code)

	var staged map[string]string
	json.Unmarshal(w.Body.Bytes(), &staged)
	assert.NotEmpty(t, staged["confirmationId"])

	w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "yes"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWalletService_ListMethods(t *testing.T) {
	r, ledger := newWalletTestRouter()

	t.Run("empty wallet", func(t *testing.T) {
		w := doJSON(r, "GET", "/wallet/methods", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Methods []models.PaymentMethod `json:"methods"`
			Count   int                    `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 0, response.Count)
		assert.Empty(t, response.Methods)
	})

	t.Run("returns stored methods", func(t *testing.T) {
		ledger.SaveMethods(context.Background(), []models.PaymentMethod{{ID: 1, Name: "Visa", Balance: 12.5}})

		w := doJSON(r, "GET", "/wallet/methods", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Methods []models.PaymentMethod `json:"methods"`
			Count   int                    `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, "Visa", response.Methods[0].Name)
		assert.Equal(t, 12.5, response.Methods[0].Balance)
	})
}

func TestWalletService_AddMethodFlow(t *testing.T) {
	t.Run("staged then confirmed", func(t *testing.T) {
		r, ledger := newWalletTestRouter()

		stageAndConfirm(t, r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})

		methods, err := ledger.LoadMethods(context.Background())
		assert.NoError(t, err)
		assert.Len(t, methods, 1)
		assert.Equal(t, "Visa", methods[0].Name)
	})

	t.Run("staged then cancelled", func(t *testing.T) {
		r, ledger := newWalletTestRouter()

		w := doJSON(r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
		assert.Equal(t, http.StatusAccepted, w.Code)

		var staged map[string]string
		json.Unmarshal(w.Body.Bytes(), &staged)

		w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "cancel"})
		assert.Equal(t, http.StatusOK, w.Code)

		methods, _ := ledger.LoadMethods(context.Background())
		assert.Empty(t, methods)
	})

	t.Run("second staging conflicts", func(t *testing.T) {
		r, _ := newWalletTestRouter()

		w := doJSON(r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
		assert.Equal(t, http.StatusAccepted, w.Code)

		w = doJSON(r, "POST", "/wallet/methods", map[string]string{"name": "Mastercard"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing name is rejected", func(t *testing.T) {
		r, _ := newWalletTestRouter()

		w := doJSON(r, "POST", "/wallet/methods", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		r, _ := newWalletTestRouter()

		req := httptest.NewRequest("POST", "/wallet/methods", bytes.NewBufferString("not json"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWalletService_RenameAndDelete(t *testing.T) {
	r, ledger := newWalletTestRouter()
	ctx := context.Background()

	stageAndConfirm(t, r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
	methods, _ := ledger.LoadMethods(ctx)
	id := methods[0].ID

	t.Run("rename", func(t *testing.T) {
		stageAndConfirm(t, r, "PUT", fmt.Sprintf("/wallet/methods/%d", id), map[string]string{"name": "Visa Credit"})

		methods, _ := ledger.LoadMethods(ctx)
		assert.Equal(t, "Visa Credit", methods[0].Name)
	})

	t.Run("invalid id segment", func(t *testing.T) {
		w := doJSON(r, "PUT", "/wallet/methods/abc", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		stageAndConfirm(t, r, "DELETE", fmt.Sprintf("/wallet/methods/%d", id), nil)

		methods, _ := ledger.LoadMethods(ctx)
		assert.Empty(t, methods)
	})
}

func TestWalletService_AddFundsFlow(t *testing.T) {
	r, ledger := newWalletTestRouter()
	ctx := context.Background()

	stageAndConfirm(t, r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
	methods, _ := ledger.LoadMethods(ctx)
	id := methods[0].ID

	t.Run("top-up with raw amount text", func(t *testing.T) {
		stageAndConfirm(t, r, "POST", fmt.Sprintf("/wallet/methods/%d/funds", id), map[string]string{"amount": "50.75"})

		methods, _ := ledger.LoadMethods(ctx)
		assert.Equal(t, 50.75, methods[0].Balance)

		txs, _ := ledger.LoadTransactions(ctx)
		assert.Len(t, txs, 1)
		assert.Equal(t, "Visa", txs[0].MethodName)
	})

	t.Run("negative amount is rejected before staging", func(t *testing.T) {
		w := doJSON(r, "POST", fmt.Sprintf("/wallet/methods/%d/funds", id), map[string]string{"amount": "-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown method surfaces as 404 on confirm", func(t *testing.T) {
		w := doJSON(r, "POST", "/wallet/methods/999/funds", map[string]string{"amount": "10"})
		assert.Equal(t, http.StatusAccepted, w.Code)

		var staged map[string]string
		json.Unmarshal(w.Body.Bytes(), &staged)

		w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "yes"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWalletService_ResolveConfirmation(t *testing.T) {
	r, _ := newWalletTestRouter()

	t.Run("unknown confirmation id", func(t *testing.T) {
		w := doJSON(r, "POST", "/wallet/confirmations/does-not-exist", map[string]string{"decision": "yes"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid decision", func(t *testing.T) {
		w := doJSON(r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
		assert.Equal(t, http.StatusAccepted, w.Code)

		var staged map[string]string
		json.Unmarshal(w.Body.Bytes(), &staged)

		w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "maybe"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("confirmation id is single use", func(t *testing.T) {
		r, _ := newWalletTestRouter()

		w := doJSON(r, "POST", "/wallet/methods", map[string]string{"name": "Visa"})
		var staged map[string]string
		json.Unmarshal(w.Body.Bytes(), &staged)

		w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "yes"})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(r, "POST", "/wallet/confirmations/"+staged["confirmationId"], map[string]string{"decision": "yes"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
