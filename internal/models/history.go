package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Request kinds recorded in history.
const (
	RequestText  = "text"
	RequestImage = "image"
	RequestParse = "parse"
)

const (
	// DefaultHistoryLimit is how many entries history keeps.
	DefaultHistoryLimit = 10
	// SummaryLength bounds the stored request summary, in characters.
	SummaryLength = 50
)

// HistoryItem is one past request/response pair as served by GET /history.
// Timestamp stays a string: the client shows whatever the backend sent.
type HistoryItem struct {
	ID              string `json:"id,omitempty"`
	Timestamp       string `json:"timestamp"`
	RequestType     string `json:"request_type"`
	RequestSummary  string `json:"request_summary"`
	ResponseSummary string `json:"response_summary"`
}

// HistoryResponse is the body of GET /history.
type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
	Total int           `json:"total"`
}

// ClearHistoryResponse is the body of DELETE /history.
type ClearHistoryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HistoryEntry is a history record before it is formatted for the wire.
type HistoryEntry struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	RequestType     string
	RequestSummary  string
	ResponseSummary string
}

// NewHistoryEntry stamps a new entry and trims the request summary.
func NewHistoryEntry(requestType, request, response string) HistoryEntry {
	return HistoryEntry{
		ID:              uuid.New(),
		CreatedAt:       time.Now().UTC(),
		RequestType:     requestType,
		RequestSummary:  Truncate(request, SummaryLength),
		ResponseSummary: response,
	}
}

// Item formats the entry for the wire.
func (e HistoryEntry) Item() HistoryItem {
	return HistoryItem{
		ID:              e.ID.String(),
		Timestamp:       e.CreatedAt.Format(time.RFC3339),
		RequestType:     e.RequestType,
		RequestSummary:  e.RequestSummary,
		ResponseSummary: e.ResponseSummary,
	}
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// HistoryStore persists the bounded request history, oldest first.
type HistoryStore interface {
	Save(ctx context.Context, entry HistoryEntry) error
	List(ctx context.Context) ([]HistoryItem, error)
	Clear(ctx context.Context) error
}

// MemoryHistory keeps history in process; used when no database is set.
type MemoryHistory struct {
	mu      sync.Mutex
	limit   int
	entries []HistoryEntry
}

func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{limit: limit}
}

func (h *MemoryHistory) Save(_ context.Context, entry HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]HistoryEntry(nil), h.entries[over:]...)
	}
	return nil
}

func (h *MemoryHistory) List(_ context.Context) ([]HistoryItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]HistoryItem, 0, len(h.entries))
	for _, e := range h.entries {
		items = append(items, e.Item())
	}
	return items, nil
}

func (h *MemoryHistory) Clear(_ context.Context) error {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
	return nil
}

// HistoryService stores history in PostgreSQL.
type HistoryService struct {
	pool  *pgxpool.Pool
	limit int
}

func NewHistoryService(pool *pgxpool.Pool, limit int) *HistoryService {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryService{pool: pool, limit: limit}
}

// Save inserts the entry and drops everything older than the newest limit rows.
func (s *HistoryService) Save(ctx context.Context, entry HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO history (id, request_type, request_summary, response_summary, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.RequestType, entry.RequestSummary, entry.ResponseSummary, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM history
		WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT $1)
	`, s.limit)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}

	return tx.Commit(ctx)
}

// List returns the kept entries oldest first. A missing table reads as empty.
func (s *HistoryService) List(ctx context.Context) ([]HistoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, request_type, request_summary, response_summary
		FROM history
		ORDER BY seq ASC
	`)
	if err != nil {
		if isUndefinedTable(err) {
			return []HistoryItem{}, nil
		}
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	items := []HistoryItem{}
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.RequestType, &e.RequestSummary, &e.ResponseSummary); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		items = append(items, e.Item())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return items, nil
}

// Clear removes every entry; clearing an empty history succeeds.
func (s *HistoryService) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `DELETE FROM history`)
	if err != nil && !isUndefinedTable(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
