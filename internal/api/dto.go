package api

import (
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/models"
)

// CreateUserRequest is the request body for registering a user.
type CreateUserRequest = models.NewUser

// EditUserRequest is the request body for replacing a user's profile.
type EditUserRequest = models.UserProfile

// StatusRequest is the request body for blocking or unblocking a user.
type StatusRequest struct {
	Status string `json:"status" example:"blocked" validate:"required"`
}

// CreateAnnouncementRequest is the request body for publishing an announcement.
type CreateAnnouncementRequest struct {
	Login string `json:"login" example:"alice" validate:"required"`
	models.AnnouncementAttrs
}

// UserFeedbackRequest is the request body for reviewing a user.
type UserFeedbackRequest struct {
	SenderLogin string `json:"sender_login" example:"bob" validate:"required"`
	Text        string `json:"text" example:"Great seller" validate:"required"`
	Estimation  int64  `json:"estimation" example:"5" validate:"required"`
}

// AnnouncementFeedbackRequest is the request body for commenting on an announcement.
type AnnouncementFeedbackRequest struct {
	SenderLogin string `json:"sender_login" example:"bob" validate:"required"`
	Text        string `json:"text" example:"Is it still available?" validate:"required"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Login    string `json:"login" example:"alice" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login.
type LoginResponse = marketservice.Session

// BackupImportRequest wraps a backup document for restore.
type BackupImportRequest struct {
	BackupData *backup.Document `json:"backup_data" validate:"required"`
}

// PhotoUploadResponse is returned after a successful photo upload.
type PhotoUploadResponse struct {
	Name string `json:"name" example:"0b6f4f1e-2f0c-4a57-9f55-5e0b2c1f7d1a.jpg" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/api/photos/0b6f4f1e-2f0c-4a57-9f55-5e0b2c1f7d1a.jpg" validate:"required"`
}
