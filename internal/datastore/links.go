package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/models"
)

var linkColumns = []string{
	"row_id", "url", "check_stamp", "change_stamp", "html",
	"mask", "run_mask_positive", "run_mask_negative",
}

// ListLinks returns every tracked link ordered by insertion.
func (s *Store) ListLinks(ctx context.Context) ([]models.Link, error) {
	query, args, err := sq.Select(linkColumns...).From("links").OrderBy("row_id").ToSql()
	if err != nil {
		return nil, common.WrapError(err, "error constructing sql")
	}

	links := []models.Link{}
	if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, common.WrapError(err, "error selecting links")
	}
	for i := range links {
		normalizeStamps(&links[i])
	}
	return links, nil
}

// GetLink returns the link tracked under url.
func (s *Store) GetLink(ctx context.Context, url string) (models.Link, error) {
	return s.getLinkWhere(ctx, sq.Eq{"url": url}, url)
}

// GetLinkByRowID returns the link with the given row id.
func (s *Store) GetLinkByRowID(ctx context.Context, rowID int64) (models.Link, error) {
	return s.getLinkWhere(ctx, sq.Eq{"row_id": rowID}, strconv.FormatInt(rowID, 10))
}

func (s *Store) getLinkWhere(ctx context.Context, where sq.Eq, key string) (models.Link, error) {
	query, args, err := sq.Select(linkColumns...).From("links").Where(where).ToSql()
	if err != nil {
		return models.Link{}, common.WrapError(err, "error constructing sql")
	}

	var link models.Link
	err = s.db.GetContext(ctx, &link, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, common.NewNotFoundError("link", key)
	}
	if err != nil {
		return models.Link{}, common.WrapError(err, "error fetching link")
	}
	normalizeStamps(&link)
	return link, nil
}

// InsertLink stores a newly tracked link. A duplicate url yields an error
// matching common.ErrConflict.
func (s *Store) InsertLink(ctx context.Context, link models.Link) (models.Link, error) {
	const q = `INSERT INTO links (url, check_stamp, change_stamp, html, mask, run_mask_positive, run_mask_negative)
		VALUES (:url, :check_stamp, :change_stamp, :html, :mask, :run_mask_positive, :run_mask_negative);`

	link.CheckStamp = link.CheckStamp.UTC()
	link.ChangeStamp = link.ChangeStamp.UTC()

	res, err := s.db.NamedExecContext(ctx, q, link)
	if isUniqueViolation(err) {
		return models.Link{}, fmt.Errorf("link %q already tracked: %w", link.URL, common.ErrConflict)
	}
	if err != nil {
		return models.Link{}, common.WrapError(err, "error inserting link")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Link{}, common.WrapError(err, "error reading link id")
	}
	link.RowID = id

	s.logger.Debug().Str("url", link.URL).Int64("row_id", id).Msg("Link inserted")
	return link, nil
}

// RecordCheck advances check_stamp only. The stamp never moves backwards.
func (s *Store) RecordCheck(ctx context.Context, url string, stamp time.Time) error {
	query, args, err := sq.Update("links").
		Set("check_stamp", sq.Expr("MAX(check_stamp, ?)", stamp.UTC())).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return common.WrapError(err, "error constructing sql")
	}
	return s.execOne(ctx, query, args, "link", url)
}

// RecordChange stores a new snapshot and moves both stamps to stamp.
func (s *Store) RecordChange(ctx context.Context, url string, stamp time.Time, html string) error {
	stamp = stamp.UTC()
	query, args, err := sq.Update("links").
		Set("check_stamp", sq.Expr("MAX(check_stamp, ?)", stamp)).
		Set("change_stamp", stamp).
		Set("html", html).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return common.WrapError(err, "error constructing sql")
	}
	return s.execOne(ctx, query, args, "link", url)
}

// SetLinkField updates one of the user-editable pattern columns.
func (s *Store) SetLinkField(ctx context.Context, rowID int64, field models.LinkField, value string) error {
	if !field.Valid() {
		return common.NewValidationError("field", field, "not an editable link field")
	}

	query, args, err := sq.Update("links").
		Set(string(field), value).
		Where(sq.Eq{"row_id": rowID}).
		ToSql()
	if err != nil {
		return common.WrapError(err, "error constructing sql")
	}
	return s.execOne(ctx, query, args, "link", strconv.FormatInt(rowID, 10))
}

// DeleteLink removes the link tracked under url.
func (s *Store) DeleteLink(ctx context.Context, url string) error {
	query, args, err := sq.Delete("links").Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return common.WrapError(err, "error constructing sql")
	}
	return s.execOne(ctx, query, args, "link", url)
}

func (s *Store) execOne(ctx context.Context, query string, args []interface{}, kind, key string) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return common.WrapErrorf(err, "error updating %s", kind)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "error reading affected rows")
	}
	if n == 0 {
		return common.NewNotFoundError(kind, key)
	}
	return nil
}

func normalizeStamps(link *models.Link) {
	link.CheckStamp = link.CheckStamp.UTC()
	link.ChangeStamp = link.ChangeStamp.UTC()
}
