package datastore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"
)

// Audit returns the last-run stamp recorded under name.
func (s *Store) Audit(ctx context.Context, name string) (models.Audit, error) {
	const q = `SELECT name, stamp FROM audits WHERE name = ?;`

	var audit models.Audit
	err := s.db.GetContext(ctx, &audit, q, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Audit{}, common.NewNotFoundError("audit", name)
	}
	if err != nil {
		return models.Audit{}, common.WrapError(err, "error fetching audit")
	}
	audit.Stamp = audit.Stamp.UTC()
	return audit, nil
}

// UpsertAudit records stamp as the last run of name.
func (s *Store) UpsertAudit(ctx context.Context, name string, stamp time.Time) error {
	const q = `INSERT INTO audits (name, stamp) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET stamp = excluded.stamp;`

	if _, err := s.db.ExecContext(ctx, q, name, stamp.UTC()); err != nil {
		return common.WrapError(err, "error upserting audit")
	}
	return nil
}
