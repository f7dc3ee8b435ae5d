package repositories

import (
	"context"

	"github.com/tubegrab/backend/internal/models"
)

// HistoryRepository exposes data access for completed downloads. Every
// operation is scoped to the owning identity; records belonging to other
// identities are never returned or mutated.
type HistoryRepository interface {
	Create(ctx context.Context, record models.HistoryRecord) error
	ListForOwner(ctx context.Context, ownerID string) ([]models.HistoryRecord, error)
	Delete(ctx context.Context, ownerID, recordID string) error
	ClearForOwner(ctx context.Context, ownerID string) error
}
