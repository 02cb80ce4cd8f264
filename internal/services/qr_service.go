package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// TopUpQRService issues short-lived QR vouchers that a second device can scan
// to apply a top-up to a payment method. Vouchers are single-use.
type TopUpQRService struct {
	redis *redis.Client
}

func NewTopUpQRService(redisClient *redis.Client) *TopUpQRService {
	return &TopUpQRService{redis: redisClient}
}

// GenerateVoucher encodes a pending top-up into a QR code and parks it in
// Redis for five minutes.
func (s *TopUpQRService) GenerateVoucher(ctx context.Context, methodID int64, amount string) (string, string, error) {
	voucherData := map[string]any{
		"methodId":  methodID,
		"amount":    amount,
		"timestamp": time.Now().Unix(),
		"nonce":     s.generateNonce(),
	}

	jsonData, err := json.Marshal(voucherData)
	if err != nil {
		return "", "", err
	}

	voucher := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("topup_qr:%s", voucher)
	if err := s.redis.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(voucher, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return voucher, qrImage, nil
}

// RedeemVoucher resolves a scanned voucher back into its top-up parameters
// and deletes it so it cannot be redeemed twice.
func (s *TopUpQRService) RedeemVoucher(ctx context.Context, voucher string) (int64, string, error) {
	key := fmt.Sprintf("topup_qr:%s", voucher)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return 0, "", fmt.Errorf("invalid or expired QR code")
	}
	if err != nil {
		return 0, "", err
	}

	var result struct {
		MethodID int64  `json:"methodId"`
		Amount   string `json:"amount"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, "", err
	}

	s.redis.Del(ctx, key)

	return result.MethodID, result.Amount, nil
}

func (s *TopUpQRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
