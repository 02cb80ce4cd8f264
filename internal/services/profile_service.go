package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/walletly/backend/internal/models"
)

// ProfileService serves the profile screen: user record reads and avatar
// uploads. Avatars land in a local blob directory and are served by the
// static file handler; the public URL is written back into users.metadata.
type ProfileService struct {
	db *sql.DB
}

func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile returns the authenticated user's record
// @Summary Get profile
// @Description Get the authenticated user's email, name and metadata
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {string} string "Unauthorized"
// @Failure 404 {string} string "User not found"
// @Router /profile [get]
func (ps *ProfileService) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID")
	if userID == nil {
		log.Printf("[PROFILE] Unauthorized profile request - no user ID in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := ps.db.QueryRow("SELECT id, email, first_name, last_name, COALESCE(metadata, '{}') FROM users WHERE id = $1",
		userID).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Metadata)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[PROFILE] User not found for ID: %v", userID)
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			log.Printf("[PROFILE] Failed to fetch user %v: %v", userID, err)
			http.Error(w, "Failed to fetch user details", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UploadAvatar stores a new avatar image for the authenticated user
// @Summary Upload avatar
// @Description Upload an avatar image; the public URL is stored in the user metadata
// @Tags profile
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} object{avatarUrl=string}
// @Failure 400 {string} string "Invalid upload"
// @Failure 500 {string} string "Internal server error"
// @Router /profile/avatar [post]
func (ps *ProfileService) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID")
	if userID == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5 MB
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		http.Error(w, "Unsupported image type", http.StatusBadRequest)
		return
	}

	avatarDir := viper.GetString("avatar.dir")
	if avatarDir == "" {
		avatarDir = "./static/avatars"
	}
	if err := os.MkdirAll(avatarDir, 0o755); err != nil {
		log.Printf("[PROFILE] Failed to create avatar dir: %v", err)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	fileName := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(avatarDir, fileName))
	if err != nil {
		log.Printf("[PROFILE] Failed to create avatar file: %v", err)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		log.Printf("[PROFILE] Failed to write avatar file: %v", err)
		http.Error(w, "Failed to store avatar", http.StatusInternalServerError)
		return
	}

	avatarURL := fmt.Sprintf("%s/static/avatars/%s", viper.GetString("server.public_url"), fileName)

	metadata, _ := json.Marshal(map[string]string{"avatar_url": avatarURL})
	if _, err := ps.db.Exec("UPDATE users SET metadata = $1, updated_at = NOW() WHERE id = $2", metadata, userID); err != nil {
		log.Printf("[PROFILE] Failed to update metadata for user %v: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	log.Printf("[PROFILE] Avatar updated for user %v: %s", userID, avatarURL)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"avatarUrl": avatarURL})
}
