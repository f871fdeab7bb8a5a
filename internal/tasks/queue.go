package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
	"github.com/gomemo-fmtpla/backend/internal/notes"
)

const KindTranscribe = "transcribe"

// TranscribePayload is what a queued transcription job carries.
type TranscribePayload struct {
	ContentURL string `json:"contentUrl"`
	Language   string `json:"language,omitempty"`
	Context    string `json:"context,omitempty"`
	FolderID   *int64 `json:"folderId,omitempty"`
}

// TranscribeResult is persisted on the task when the job completes.
type TranscribeResult struct {
	NoteID   int64               `json:"noteId"`
	Metadata domain.NoteMetadata `json:"metadata"`
}

type TaskStore interface {
	CreateTask(ctx context.Context, userID int64, kind string, payload json.RawMessage) (domain.Task, error)
	GetTask(ctx context.Context, taskID string, userID int64) (domain.Task, error)
	ClaimNextTask(ctx context.Context) (domain.Task, error)
	CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error
	FailTask(ctx context.Context, taskID string, message string) error
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, ref, langHint string) (string, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, in notes.IngestInput) (domain.Note, domain.NoteMetadata, error)
}

// Queue runs long transcription jobs off the request path. Every job is a
// persisted status record the client polls; a worker that picks up a job runs
// it to completion and stores the outcome whether or not anyone is still
// watching.
type Queue struct {
	store    TaskStore
	resolver TranscriptResolver
	ingestor Ingestor
	workers  int
	poll     time.Duration
}

func NewQueue(store TaskStore, resolver TranscriptResolver, ingestor Ingestor, workers int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		store:    store,
		resolver: resolver,
		ingestor: ingestor,
		workers:  workers,
		poll:     5 * time.Second,
	}
}

// Enqueue records a transcription job and returns its status record.
func (q *Queue) Enqueue(ctx context.Context, userID int64, payload TranscribePayload) (domain.Task, error) {
	if payload.ContentURL == "" {
		return domain.Task{}, domain.Invalid("content url is empty")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Task{}, fmt.Errorf("marshal task payload: %w", err)
	}
	return q.store.CreateTask(ctx, userID, KindTranscribe, raw)
}

// Get returns the status record, owner scoped.
func (q *Queue) Get(ctx context.Context, taskID string, userID int64) (domain.Task, error) {
	return q.store.GetTask(ctx, taskID, userID)
}

// Run starts the worker pool and blocks until ctx is canceled.
func (q *Queue) Run(ctx context.Context) {
	log.Printf("task queue running with %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker(ctx)
	}
	<-ctx.Done()
}

func (q *Queue) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := q.store.ClaimNextTask(ctx)
		if err != nil {
			if !domain.IsKind(err, domain.KindNotFound) {
				log.Printf("claim task: %v", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.poll):
			}
			continue
		}

		q.process(ctx, task)
	}
}

func (q *Queue) process(ctx context.Context, task domain.Task) {
	var payload TranscribePayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		q.fail(ctx, task.ID, fmt.Sprintf("malformed payload: %v", err))
		return
	}

	transcript, err := q.resolver.Resolve(ctx, payload.ContentURL, payload.Language)
	if err != nil {
		q.fail(ctx, task.ID, err.Error())
		return
	}

	note, meta, err := q.ingestor.Ingest(ctx, notes.IngestInput{
		UserID:     task.UserID,
		FolderID:   payload.FolderID,
		ContentURL: payload.ContentURL,
		Transcript: transcript,
		Language:   payload.Language,
		Context:    payload.Context,
	})
	if err != nil {
		q.fail(ctx, task.ID, err.Error())
		return
	}

	result, err := json.Marshal(TranscribeResult{NoteID: note.ID, Metadata: meta})
	if err != nil {
		q.fail(ctx, task.ID, fmt.Sprintf("marshal result: %v", err))
		return
	}
	if err := q.store.CompleteTask(ctx, task.ID, result); err != nil {
		log.Printf("complete task %s: %v", task.ID, err)
	}
}

func (q *Queue) fail(ctx context.Context, taskID, message string) {
	if err := q.store.FailTask(ctx, taskID, message); err != nil {
		log.Printf("fail task %s: %v", taskID, err)
	}
}
