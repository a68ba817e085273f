package repository

import (
	"context"
	"database/sql"
	"time"

	"sensai/internal/models"
)

type Authorization interface {
	Create(username, hash string, anonymous bool) (int, error)
	GetByUsername(username string) (*models.User, error)
	GetByID(id int) (*models.User, error)
}

// SessionRepo stores one document per user holding that user's session list.
type SessionRepo interface {
	Load(ctx context.Context, userID string) ([]models.SessionData, error)
	// Append adds to an existing document; ErrDocNotFound if there is none.
	Append(ctx context.Context, userID string, s models.SessionData) error
	Create(ctx context.Context, userID string, sessions []models.SessionData) error
	Reset(ctx context.Context, userID string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.CompanionEvent) error
	List(ctx context.Context, userID string, from, to time.Time, typ string) ([]models.CompanionEvent, error)
}

type Repository struct {
	Sessions  SessionRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Sessions:  NewSessionSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
