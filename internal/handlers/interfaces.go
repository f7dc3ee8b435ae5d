package handlers

import (
	"context"

	"github.com/tubegrab/backend/internal/downloads"
	"github.com/tubegrab/backend/internal/models"
	"github.com/tubegrab/backend/internal/videos"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and resolves authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Identify(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, refreshToken string)
}

// MetadataProvider resolves video details for submitted URLs.
type MetadataProvider interface {
	Lookup(ctx context.Context, url string) (videos.Metadata, error)
}

// Downloader runs the download lifecycle for a validated request.
type Downloader interface {
	Execute(ctx context.Context, req downloads.Request, metadata videos.Metadata) (models.HistoryRecord, error)
}

// HistoryStore captures persistence for the per-user download history.
type HistoryStore interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.HistoryRecord, error)
	Delete(ctx context.Context, ownerID, recordID string) error
	ClearForOwner(ctx context.Context, ownerID string) error
}
