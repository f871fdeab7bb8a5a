package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

const taskColumns = `id, user_id, kind, payload, status, result, error, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, userID int64, kind string, payload json.RawMessage) (domain.Task, error) {
	var task domain.Task
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tasks (id, user_id, kind, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		uuid.NewString(), userID, kind, payload).
		Scan(taskDest(&task)...)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string, userID int64) (domain.Task, error) {
	var task domain.Task
	err := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		taskID, userID).
		Scan(taskDest(&task)...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.NotFoundf("task %s not found", taskID)
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ClaimNextTask atomically takes the oldest queued task and marks it running.
// SKIP LOCKED keeps concurrent workers off the same row.
func (s *Store) ClaimNextTask(ctx context.Context) (domain.Task, error) {
	var task domain.Task
	err := s.db.QueryRowContext(ctx,
		`UPDATE tasks SET status = 'running', updated_at = now()
		WHERE id = (
			SELECT id FROM tasks WHERE status = 'queued'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING `+taskColumns).
		Scan(taskDest(&task)...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.NotFound("no queued tasks")
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

func (s *Store) CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'complete', result = $2, updated_at = now() WHERE id = $1`,
		taskID, result); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (s *Store) FailTask(ctx context.Context, taskID string, message string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = 'failed', error = $2, updated_at = now() WHERE id = $1`,
		taskID, message); err != nil {
		return fmt.Errorf("fail task: %w", err)
	}
	return nil
}

func taskDest(task *domain.Task) []any {
	return []any{&task.ID, &task.UserID, &task.Kind, &task.Payload, &task.Status,
		&task.Result, &task.Error, &task.CreatedAt, &task.UpdatedAt}
}
