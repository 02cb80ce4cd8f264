package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/walletly/backend/internal/services"
	"github.com/walletly/backend/internal/wallet"
)

type TopUpQRHandler struct {
	service   *services.TopUpQRService
	coord     *wallet.Coordinator
	validator *services.ValidationHelper
}

func NewTopUpQRHandler(service *services.TopUpQRService, coord *wallet.Coordinator) *TopUpQRHandler {
	return &TopUpQRHandler{
		service:   service,
		coord:     coord,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQR generates a QR voucher for a top-up
// @Summary Generate top-up QR
// @Description Generate a single-use QR code encoding a payment method top-up
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{methodId=int64,amount=string} true "Voucher request"
// @Success 200 {object} object{voucher=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /topup-qr/generate [post]
func (h *TopUpQRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		MethodID int64  `json:"methodId" validate:"required"`
		Amount   string `json:"amount" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	voucher, qrImage, err := h.service.GenerateVoucher(r.Context(), req.MethodID, req.Amount)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"voucher": voucher,
		"qrImage": qrImage,
	})
}

// ProcessQR redeems a scanned voucher into a staged top-up
// @Summary Process top-up QR
// @Description Redeem a scanned QR voucher; the top-up still requires confirmation
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{qrData=string} true "Scanned voucher"
// @Success 202 {object} object{confirmationId=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /topup-qr/process [post]
func (h *TopUpQRHandler) ProcessQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRData string `json:"qrData" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	methodID, amount, err := h.service.RedeemVoucher(r.Context(), req.QRData)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	// The redeemed voucher goes through the same confirmation gate as a
	// manually entered top-up.
	pending, err := h.coord.StageAddFunds(methodID, amount)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"confirmationId": pending.ID,
		"action":         pending.Label,
	})
}
