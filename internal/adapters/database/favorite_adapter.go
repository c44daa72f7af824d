package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	"github.com/zatekoja/ticketassistant/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

// FavoriteAdapter implements FavoriteRepository
type FavoriteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFavoriteAdapter creates a new favorite adapter
func NewFavoriteAdapter(client *postgres.Client) repositories.FavoriteRepository {
	return &FavoriteAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *FavoriteAdapter) Add(ctx context.Context, favorite *entities.Favorite) error {
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = time.Now()
	}

	query, args, err := a.db.Insert("favorites").Rows(goqu.Record{
		"user_id":    favorite.UserID,
		"event_id":   favorite.EventID,
		"title":      favorite.Title,
		"created_at": favorite.CreatedAt,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewExternalError("failed to add favorite", err)
	}
	return nil
}

func (a *FavoriteAdapter) Remove(ctx context.Context, userID, eventID string) error {
	query, args, err := a.db.Delete("favorites").
		Where(goqu.Ex{"user_id": userID, "event_id": eventID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewExternalError("failed to remove favorite", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewNotFoundError("favorite not found")
	}
	return nil
}

func (a *FavoriteAdapter) List(ctx context.Context, userID string) ([]*entities.Favorite, error) {
	query, args, err := a.db.From("favorites").
		Select("user_id", "event_id", "title", "created_at").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to list favorites", err)
	}
	defer rows.Close()

	favorites := []*entities.Favorite{}
	for rows.Next() {
		f := &entities.Favorite{}
		if err := rows.Scan(&f.UserID, &f.EventID, &f.Title, &f.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan favorite", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, nil
}
