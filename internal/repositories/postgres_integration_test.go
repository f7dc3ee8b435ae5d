package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubegrab/backend/internal/auth"
	"github.com/tubegrab/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Email:     "alice@example.com",
		Password:  "secret-hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}

	if fetched.ID != user.ID || fetched.Email != user.Email || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	updated := user
	updated.Email = "updated@example.com"
	updated.Password = "rotated-hash"
	updated.UpdatedAt = time.Now().UTC().Add(time.Minute)

	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update user: %v", err)
	}

	fetched, err = repo.FindByEmail(ctx, updated.Email)
	if err != nil {
		t.Fatalf("find by updated email: %v", err)
	}

	if fetched.Email != updated.Email || fetched.Password != updated.Password {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	missing := models.User{
		ID:        uuid.NewString(),
		Email:     "missing@example.com",
		Password:  "hash",
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner@example.com")

	store := NewPostgresSessionStore(testPool)
	now := time.Now().UTC()
	session := auth.Session{
		AccessToken:      uuid.NewString(),
		RefreshToken:     uuid.NewString(),
		UserID:           user.ID,
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.FindByRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session by refresh token: %v", err)
	}
	if loaded.UserID != session.UserID || loaded.AccessToken != session.AccessToken {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}
	if !timesClose(loaded.RefreshExpiresAt, session.RefreshExpiresAt, time.Millisecond) {
		t.Fatalf("unexpected refresh expiry: %v", loaded.RefreshExpiresAt)
	}

	byAccess, err := store.FindByAccessToken(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find session by access token: %v", err)
	}
	if byAccess.UserID != session.UserID || byAccess.RefreshToken != session.RefreshToken {
		t.Fatalf("unexpected session loaded by access token: %+v", byAccess)
	}

	updated := session
	updated.AccessToken = uuid.NewString()
	updated.AccessExpiresAt = now.Add(30 * time.Minute)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}

	loaded, err = store.FindByRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}
	if loaded.AccessToken != updated.AccessToken {
		t.Fatalf("expected rotated access token, got %v", loaded.AccessToken)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.FindByRefreshToken(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresHistoryRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	repo := NewPostgresHistoryRepository(testPool)

	baseTime := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	first := historyRecord(owner.ID, "dQw4w9WgXcQ", baseTime)
	second := historyRecord(owner.ID, "abcdefghijk", baseTime.Add(10*time.Minute))
	second.Format = models.FormatAudio
	second.Quality = ""
	foreign := historyRecord(other.ID, "kjihgfedcba", baseTime.Add(5*time.Minute))

	for _, record := range []models.HistoryRecord{first, second, foreign} {
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("create record %s: %v", record.ID, err)
		}
	}

	dup := first
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}

	records, err := repo.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list for owner: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != second.ID || records[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering, got %+v", records)
	}
	if records[0].Format != models.FormatAudio || records[0].Quality != "" {
		t.Fatalf("expected audio record without quality, got %+v", records[0])
	}
	for _, record := range records {
		if record.OwnerID != owner.ID {
			t.Fatalf("record from another owner leaked into the list: %+v", record)
		}
	}
}

func TestPostgresHistoryRepository_DeleteIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	repo := NewPostgresHistoryRepository(testPool)

	record := historyRecord(owner.ID, "dQw4w9WgXcQ", time.Now().UTC())
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := repo.Delete(ctx, other.ID, record.ID); err != nil {
		t.Fatalf("foreign delete must be a no-op, got %v", err)
	}
	records, err := repo.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list for owner: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected record to survive foreign delete, got %d records", len(records))
	}

	if err := repo.Delete(ctx, owner.ID, "missing-id"); err != nil {
		t.Fatalf("missing delete must be a no-op, got %v", err)
	}

	if err := repo.Delete(ctx, owner.ID, record.ID); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	records, err = repo.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history after delete, got %d records", len(records))
	}
}

func TestPostgresHistoryRepository_ClearForOwner(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, userRepo, "owner@example.com")
	other := createTestUser(t, userRepo, "other@example.com")

	repo := NewPostgresHistoryRepository(testPool)

	baseTime := time.Now().UTC()
	for i, videoID := range []string{"dQw4w9WgXcQ", "abcdefghijk"} {
		if err := repo.Create(ctx, historyRecord(owner.ID, videoID, baseTime.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create owner record: %v", err)
		}
	}
	foreign := historyRecord(other.ID, "kjihgfedcba", baseTime)
	if err := repo.Create(ctx, foreign); err != nil {
		t.Fatalf("create foreign record: %v", err)
	}

	if err := repo.ClearForOwner(ctx, owner.ID); err != nil {
		t.Fatalf("clear for owner: %v", err)
	}

	records, err := repo.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history after clear, got %d records", len(records))
	}

	remaining, err := repo.ListForOwner(ctx, other.ID)
	if err != nil {
		t.Fatalf("list other owner: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected other owner's history untouched, got %d records", len(remaining))
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE downloads_history, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func historyRecord(ownerID, videoID string, createdAt time.Time) models.HistoryRecord {
	return models.HistoryRecord{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoID:      videoID,
		SourceURL:    "https://youtu.be/" + videoID,
		Title:        "Example",
		Author:       "Channel",
		Duration:     "3:32",
		ThumbnailURL: "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg",
		Format:       models.FormatVideo,
		Quality:      models.Quality720p,
		DownloadURL:  "https://media.example.com/" + videoID + ".mp4",
		FileSize:     2048,
		CreatedAt:    createdAt.Truncate(time.Millisecond),
	}
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
