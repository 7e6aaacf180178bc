package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kwachatech/streamgate/internal/models"
)

// ListVideos returns video metadata ordered by creation date, newest first.
func (s *Storage) ListVideos(ctx context.Context, limit, offset int) ([]*models.Video, error) {
	const op = "storage.ListVideos"

	query := `SELECT id, title, thumbnail_url, category_id, vimeo_url, vimeo_id,
			      created_date
			  FROM videos
			  ORDER BY created_date DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Video
	for rows.Next() {
		v := &models.Video{}
		var thumbnail, categoryID, vimeoURL, vimeoID sql.NullString
		if err = rows.Scan(&v.ID, &v.Title, &thumbnail, &categoryID,
			&vimeoURL, &vimeoID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if thumbnail.Valid {
			v.ThumbnailURL = &thumbnail.String
		}
		if categoryID.Valid {
			v.CategoryID = &categoryID.String
		}
		if vimeoURL.Valid {
			v.VimeoURL = &vimeoURL.String
		}
		if vimeoID.Valid {
			v.VimeoID = &vimeoID.String
		}
		result = append(result, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetVideo returns the video with the given id.
func (s *Storage) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	const op = "storage.GetVideo"

	query := `SELECT id, title, thumbnail_url, category_id, vimeo_url, vimeo_id,
			      created_date
			  FROM videos
			  WHERE id = $1`
	v := &models.Video{}
	var thumbnail, categoryID, vimeoURL, vimeoID sql.NullString
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.Title,
		&thumbnail, &categoryID, &vimeoURL, &vimeoID, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if thumbnail.Valid {
		v.ThumbnailURL = &thumbnail.String
	}
	if categoryID.Valid {
		v.CategoryID = &categoryID.String
	}
	if vimeoURL.Valid {
		v.VimeoURL = &vimeoURL.String
	}
	if vimeoID.Valid {
		v.VimeoID = &vimeoID.String
	}
	return v, nil
}
