package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-orders/internal/domain/entity"
	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
)

type userRow struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	DisplayName  string         `db:"display_name"`
	AvatarURL    *string        `db:"avatar_url"`
	Capabilities pq.StringArray `db:"capabilities"`
}

func (r userRow) toEntity() *entity.Profile {
	return profileDTO{
		ID:           r.ID,
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		AvatarURL:    r.AvatarURL,
		Capabilities: r.Capabilities,
	}.toEntity()
}

// SQLResolver читает профили из локальной реплики таблицы users.
// Используется, когда USER_DIRECTORY_URL не задан.
type SQLResolver struct {
	db *sqlx.DB
}

func NewSQLResolver(db *sqlx.DB) *SQLResolver {
	return &SQLResolver{db: db}
}

var _ gateway.ProfileResolver = (*SQLResolver)(nil)

func (r *SQLResolver) GetUser(ctx context.Context, id int64) (*entity.Profile, error) {
	var row userRow
	query := `SELECT id, username, display_name, avatar_url, capabilities FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrProfileNotFound
		}
		return nil, fmt.Errorf("users: get %d: %w", id, err)
	}
	return row.toEntity(), nil
}

func (r *SQLResolver) GetUsersBatch(ctx context.Context, ids []int64) ([]*entity.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []userRow
	query := `SELECT id, username, display_name, avatar_url, capabilities FROM users WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("users: batch: %w", err)
	}
	profiles := make([]*entity.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toEntity())
	}
	return profiles, nil
}
