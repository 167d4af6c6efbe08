package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize is used when the caller does not ask for a limit
	DefaultPageSize = 50
	// MaxPageSize is the maximum allowed page size for paginated queries
	MaxPageSize = 200
)

// ErrInvalidCursor is returned when a cursor does not point at an existing row
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorParams addresses a page by the id of the last item of the previous page
type CursorParams struct {
	Cursor *uuid.UUID
	Limit  int
}

// NormalizeLimit clamps a requested page size
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// applyCursor orders newest first and positions the query after the cursor
// row. One extra row is fetched so the caller can tell whether more exist.
func applyCursor(ctx context.Context, db *gorm.DB, query *gorm.DB, table string, params CursorParams) (*gorm.DB, error) {
	if params.Cursor != nil {
		var anchor struct {
			CreatedAt time.Time
		}
		err := db.WithContext(ctx).
			Table(table).
			Select("created_at").
			Where("id = ?", *params.Cursor).
			Take(&anchor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidCursor
			}
			return nil, err
		}
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			anchor.CreatedAt, anchor.CreatedAt, *params.Cursor,
		)
	}
	return query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(NormalizeLimit(params.Limit) + 1), nil
}

// Page is one cursor page of results
type Page[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

// newPage trims the look-ahead row and computes the next cursor
func newPage[T any](items []T, limit int, idOf func(*T) uuid.UUID) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
	}
	if page.HasMore && len(page.Items) > 0 {
		page.NextCursor = idOf(&page.Items[len(page.Items)-1]).String()
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern for
// LOWER(col) LIKE ? ESCAPE '!'. Wildcards in search match literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}
