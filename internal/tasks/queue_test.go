package tasks

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gomemo-fmtpla/backend/internal/domain"
	"github.com/gomemo-fmtpla/backend/internal/notes"
)

type fakeTaskStore struct {
	created   []domain.Task
	completed map[string]json.RawMessage
	failed    map[string]string
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		completed: map[string]json.RawMessage{},
		failed:    map[string]string{},
	}
}

func (s *fakeTaskStore) CreateTask(ctx context.Context, userID int64, kind string, payload json.RawMessage) (domain.Task, error) {
	task := domain.Task{ID: "task-1", UserID: userID, Kind: kind, Payload: payload, Status: domain.TaskQueued}
	s.created = append(s.created, task)
	return task, nil
}

func (s *fakeTaskStore) GetTask(ctx context.Context, taskID string, userID int64) (domain.Task, error) {
	for _, task := range s.created {
		if task.ID == taskID && task.UserID == userID {
			return task, nil
		}
	}
	return domain.Task{}, domain.NotFound("task not found")
}

func (s *fakeTaskStore) ClaimNextTask(ctx context.Context) (domain.Task, error) {
	return domain.Task{}, domain.NotFound("no queued tasks")
}

func (s *fakeTaskStore) CompleteTask(ctx context.Context, taskID string, result json.RawMessage) error {
	s.completed[taskID] = result
	return nil
}

func (s *fakeTaskStore) FailTask(ctx context.Context, taskID string, message string) error {
	s.failed[taskID] = message
	return nil
}

type fakeResolver struct {
	text string
	err  error
}

func (r *fakeResolver) Resolve(ctx context.Context, ref, langHint string) (string, error) {
	return r.text, r.err
}

type fakeIngestor struct {
	inputs []notes.IngestInput
}

func (i *fakeIngestor) Ingest(ctx context.Context, in notes.IngestInput) (domain.Note, domain.NoteMetadata, error) {
	i.inputs = append(i.inputs, in)
	return domain.Note{ID: 42, UserID: in.UserID}, domain.NoteMetadata{NoteID: 42, UserID: in.UserID}, nil
}

func queuedTask(t *testing.T, userID int64, payload TranscribePayload) domain.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return domain.Task{ID: "task-1", UserID: userID, Kind: KindTranscribe, Payload: raw}
}

func TestEnqueueRejectsEmptyURL(t *testing.T) {
	q := NewQueue(newFakeTaskStore(), &fakeResolver{}, &fakeIngestor{}, 1)

	_, err := q.Enqueue(context.Background(), 1, TranscribePayload{})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("error kind = %v, want invalid input", domain.KindOf(err))
	}
}

func TestProcessCompletesWithNoteID(t *testing.T) {
	store := newFakeTaskStore()
	ingestor := &fakeIngestor{}
	q := NewQueue(store, &fakeResolver{text: "a transcript"}, ingestor, 1)

	q.process(context.Background(), queuedTask(t, 7, TranscribePayload{ContentURL: "https://example.com/a.mp3", Language: "en"}))

	raw, ok := store.completed["task-1"]
	if !ok {
		t.Fatalf("task not completed; failures: %v", store.failed)
	}
	var result TranscribeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if result.NoteID != 42 {
		t.Fatalf("note id = %d, want 42", result.NoteID)
	}
	if len(ingestor.inputs) != 1 || ingestor.inputs[0].UserID != 7 {
		t.Fatalf("ingest inputs = %+v", ingestor.inputs)
	}
}

func TestProcessFailsOnResolveError(t *testing.T) {
	store := newFakeTaskStore()
	q := NewQueue(store, &fakeResolver{err: domain.Upstream("all transcript sources failed", nil)}, &fakeIngestor{}, 1)

	q.process(context.Background(), queuedTask(t, 7, TranscribePayload{ContentURL: "https://example.com/a.mp3"}))

	if _, ok := store.completed["task-1"]; ok {
		t.Fatal("task completed despite resolver failure")
	}
	if msg := store.failed["task-1"]; msg == "" {
		t.Fatal("task not marked failed")
	}
}

func TestProcessFailsOnMalformedPayload(t *testing.T) {
	store := newFakeTaskStore()
	q := NewQueue(store, &fakeResolver{text: "x"}, &fakeIngestor{}, 1)

	q.process(context.Background(), domain.Task{ID: "task-1", Payload: json.RawMessage(`{`)})

	if msg := store.failed["task-1"]; msg == "" {
		t.Fatal("task not marked failed")
	}
}
