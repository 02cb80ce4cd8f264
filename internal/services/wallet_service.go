package services

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/walletly/backend/internal/metrics"
	"github.com/walletly/backend/internal/store"
	"github.com/walletly/backend/internal/wallet"
)

// WalletService exposes the payment method screens' contract over HTTP.
// Mutations are staged first and only applied once the confirmation endpoint
// resolves "yes".
type WalletService struct {
	ledger    *store.LedgerStore
	coord     *wallet.Coordinator
	validator *ValidationHelper
}

type methodRequest struct {
	Name string `json:"name" validate:"required"`
}

type addFundsRequest struct {
	// Amount arrives as the raw text the user typed; parsing policy lives in
	// the coordinator.
	Amount string `json:"amount"`
}

type confirmRequest struct {
	Decision string `json:"decision" validate:"required,oneof=yes cancel"`
}

func NewWalletService(ledger *store.LedgerStore, coord *wallet.Coordinator) *WalletService {
	return &WalletService{
		ledger:    ledger,
		coord:     coord,
		validator: NewValidationHelper(),
	}
}

// ListMethods returns all payment methods
// @Summary List payment methods
// @Description Get the full payment method list with balances
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{methods=[]models.PaymentMethod,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /wallet/methods [get]
func (ws *WalletService) ListMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := ws.ledger.LoadMethods(r.Context())
	if err != nil {
		log.Printf("[WALLET] Failed to load payment methods: %v", err)
		SendErrorResponse(w, "Failed to load payment methods", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"methods": methods,
		"count":   len(methods),
	})
}

// AddMethod stages creation of a payment method
// @Summary Add payment method
// @Description Stage a new payment method; apply it via the confirmation endpoint
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body methodRequest true "Payment method"
// @Success 202 {object} object{confirmationId=string}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallet/methods [post]
func (ws *WalletService) AddMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if !ws.decode(w, r, &req) {
		return
	}

	pending, err := ws.coord.StageAddMethod(req.Name)
	if err != nil {
		ws.stageError(w, err)
		return
	}
	ws.accepted(w, pending)
}

// RenameMethod stages a rename of an existing payment method
// @Summary Rename payment method
// @Description Stage a rename; unknown ids resolve as a no-op
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment method ID"
// @Param request body methodRequest true "New name"
// @Success 202 {object} object{confirmationId=string}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallet/methods/{id} [put]
func (ws *WalletService) RenameMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.methodID(w, r)
	if !ok {
		return
	}

	var req methodRequest
	if !ws.decode(w, r, &req) {
		return
	}

	pending, err := ws.coord.StageRename(id, req.Name)
	if err != nil {
		ws.stageError(w, err)
		return
	}
	ws.accepted(w, pending)
}

// DeleteMethod stages deletion of a payment method
// @Summary Delete payment method
// @Description Stage a delete; historical transactions are kept
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment method ID"
// @Success 202 {object} object{confirmationId=string}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallet/methods/{id} [delete]
func (ws *WalletService) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.methodID(w, r)
	if !ok {
		return
	}

	pending, err := ws.coord.StageDelete(id)
	if err != nil {
		ws.stageError(w, err)
		return
	}
	ws.accepted(w, pending)
}

// AddFunds stages a top-up for a payment method
// @Summary Add funds
// @Description Stage a top-up; the amount is the raw user input text
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment method ID"
// @Param request body addFundsRequest true "Amount text"
// @Success 202 {object} object{confirmationId=string}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallet/methods/{id}/funds [post]
func (ws *WalletService) AddFunds(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.methodID(w, r)
	if !ok {
		return
	}

	var req addFundsRequest
	if !ws.decode(w, r, &req) {
		return
	}

	pending, err := ws.coord.StageAddFunds(id, req.Amount)
	if err != nil {
		ws.stageError(w, err)
		return
	}
	ws.accepted(w, pending)
}

// ResolveConfirmation applies or discards a staged mutation
// @Summary Resolve a pending confirmation
// @Description Decision "yes" executes the staged action exactly once; "cancel" discards it
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Confirmation ID"
// @Param request body confirmRequest true "Decision"
// @Success 200 {object} object{status=string}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /wallet/confirmations/{id} [post]
func (ws *WalletService) ResolveConfirmation(w http.ResponseWriter, r *http.Request) {
	confirmationID := chi.URLParam(r, "id")

	var req confirmRequest
	if !ws.decode(w, r, &req) {
		return
	}

	pending := ws.coord.Pending(confirmationID)
	if pending == nil {
		SendErrorResponse(w, "No such pending confirmation", http.StatusNotFound, nil)
		return
	}

	if req.Decision == "cancel" {
		pending.Cancel()
		metrics.ConfirmationsTotal.WithLabelValues("cancel").Inc()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	if err := pending.Confirm(r.Context()); err != nil {
		log.Printf("[WALLET] Confirmed action %q failed: %v", pending.Label, err)
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrMethodNotFound) {
			status = http.StatusNotFound
		}
		SendErrorResponse(w, err.Error(), status, nil)
		return
	}

	metrics.ConfirmationsTotal.WithLabelValues("yes").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "executed"})
}

func (ws *WalletService) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := ws.validator.ValidateStruct(dst); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func (ws *WalletService) methodID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid payment method id", http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}

func (ws *WalletService) stageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrConfirmationPending):
		SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, wallet.ErrEmptyName), errors.Is(err, wallet.ErrNegativeAmount):
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	default:
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
	}
}

func (ws *WalletService) accepted(w http.ResponseWriter, pending *wallet.PendingAction) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"confirmationId": pending.ID,
		"action":         pending.Label,
	})
}
