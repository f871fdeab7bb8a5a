package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

// FolderWithCount pairs a folder with the number of notes it currently holds.
type FolderWithCount struct {
	Folder    domain.Folder `json:"folder"`
	NoteCount int           `json:"noteCount"`
}

func (s *Store) CreateFolder(ctx context.Context, userID int64, name string) (domain.Folder, error) {
	var folder domain.Folder
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO folders (user_id, name) VALUES ($1, $2)
		RETURNING id, user_id, name, created_at, updated_at`,
		userID, name).
		Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		return domain.Folder{}, fmt.Errorf("create folder: %w", err)
	}
	return folder, nil
}

func (s *Store) GetFolder(ctx context.Context, folderID, userID int64) (domain.Folder, error) {
	var folder domain.Folder
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		FROM folders WHERE id = $1 AND user_id = $2`, folderID, userID).
		Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.CreatedAt, &folder.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Folder{}, domain.NotFoundf("folder %d not found", folderID)
	}
	if err != nil {
		return domain.Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

func (s *Store) ListFolders(ctx context.Context, userID int64) ([]FolderWithCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.user_id, f.name, f.created_at, f.updated_at,
			(SELECT count(*) FROM notes n WHERE n.folder_id = f.id) AS note_count
		FROM folders f WHERE f.user_id = $1 ORDER BY f.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := []FolderWithCount{}
	for rows.Next() {
		var fc FolderWithCount
		if err := rows.Scan(&fc.Folder.ID, &fc.Folder.UserID, &fc.Folder.Name,
			&fc.Folder.CreatedAt, &fc.Folder.UpdatedAt, &fc.NoteCount); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, fc)
	}
	return folders, rows.Err()
}

func (s *Store) RenameFolder(ctx context.Context, folderID, userID int64, name string) (domain.Folder, error) {
	var folder domain.Folder
	err := s.db.QueryRowContext(ctx,
		`UPDATE folders SET name = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, created_at, updated_at`,
		folderID, userID, name).
		Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.CreatedAt, &folder.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Folder{}, domain.NotFoundf("folder %d not found", folderID)
	}
	if err != nil {
		return domain.Folder{}, fmt.Errorf("rename folder: %w", err)
	}
	return folder, nil
}

// DeleteFolder unlinks the folder's notes and removes the folder. Notes are
// never cascaded; "unfoldered" is a valid state.
func (s *Store) DeleteFolder(ctx context.Context, folderID, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE notes SET folder_id = NULL, updated_at = now()
			WHERE folder_id = $1 AND user_id = $2`, folderID, userID); err != nil {
			return fmt.Errorf("unlink notes: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM folders WHERE id = $1 AND user_id = $2`, folderID, userID)
		if err != nil {
			return fmt.Errorf("delete folder: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundf("folder %d not found", folderID)
		}
		return nil
	})
}

// MoveNotes reassigns every note in fromFolder to toFolder (nil for
// unfoldered).
func (s *Store) MoveNotes(ctx context.Context, userID, fromFolderID int64, toFolderID *int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE notes SET folder_id = $3, updated_at = now()
		WHERE folder_id = $1 AND user_id = $2`, fromFolderID, userID, toFolderID); err != nil {
		return fmt.Errorf("move notes: %w", err)
	}
	return nil
}
