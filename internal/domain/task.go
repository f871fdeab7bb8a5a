package domain

import (
	"encoding/json"
	"time"
)

type TaskStatus string

const (
	TaskQueued   TaskStatus = "queued"
	TaskRunning  TaskStatus = "running"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// Task is the persisted status record of a long-running background job.
// Clients poll it by ID instead of holding a connection open for the tens of
// minutes a transcription can take.
type Task struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"userId"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Status    TaskStatus      `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
