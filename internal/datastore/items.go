package datastore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/google/uuid"
)

// CreateItem appends a note and returns it with its generated id.
func (s *Store) CreateItem(ctx context.Context, title, body string, createdAt time.Time) (models.Item, error) {
	const q = `INSERT INTO items (id, title, body, created_at) VALUES (:id, :title, :body, :created_at);`

	item := models.Item{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: createdAt.UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, q, item); err != nil {
		return models.Item{}, common.WrapError(err, "error inserting item")
	}
	return item, nil
}

// ListItems returns all notes, newest first.
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	query, args, err := sq.Select("id", "title", "body", "created_at").
		From("items").
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, common.WrapError(err, "error constructing sql")
	}

	items := []models.Item{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, common.WrapError(err, "error selecting items")
	}
	for i := range items {
		items[i].CreatedAt = items[i].CreatedAt.UTC()
	}
	return items, nil
}
