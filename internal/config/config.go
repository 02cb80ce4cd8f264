package config

import (
	"os"
	"strconv"
	"time"
)

type WalletConfig struct {
	AvatarDir       string
	PublicURL       string
	ResetTokenTTL   time.Duration
	TopUpVoucherTTL time.Duration
	LedgerNamespace string
	MaxAvatarSizeMB int
}

func LoadWalletConfig() *WalletConfig {
	return &WalletConfig{
		AvatarDir:       getEnv("AVATAR_DIR", "./static/avatars"),
		PublicURL:       getEnv("PUBLIC_URL", "http://localhost:8080"),
		ResetTokenTTL:   getEnvAsDuration("RESET_TOKEN_TTL", 15*time.Minute),
		TopUpVoucherTTL: getEnvAsDuration("TOPUP_VOUCHER_TTL", 5*time.Minute),
		LedgerNamespace: getEnv("LEDGER_NAMESPACE", "wallet"),
		MaxAvatarSizeMB: getEnvAsInt("MAX_AVATAR_SIZE_MB", 5),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
