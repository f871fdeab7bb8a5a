package http

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gomemo-fmtpla/backend/internal/config"
	"github.com/gomemo-fmtpla/backend/internal/domain"
	"github.com/gomemo-fmtpla/backend/internal/notes"
	"github.com/gomemo-fmtpla/backend/internal/services"
	"github.com/gomemo-fmtpla/backend/internal/storage"
	"github.com/gomemo-fmtpla/backend/internal/tasks"
)

// Store is the persistence surface the handlers use. Handlers receive it as
// an interface so tests can swap in fakes.
type Store interface {
	UserLookup
	CreateUser(ctx context.Context, username, email, hashedPassword string) (domain.User, error)
	UpdateSubscription(ctx context.Context, userID int64, plan domain.SubscriptionPlan, endDate *time.Time, receipt string) (domain.User, error)
	DeleteUser(ctx context.Context, userID int64) error

	CreateFolder(ctx context.Context, userID int64, name string) (domain.Folder, error)
	GetFolder(ctx context.Context, folderID, userID int64) (domain.Folder, error)
	ListFolders(ctx context.Context, userID int64) ([]storage.FolderWithCount, error)
	RenameFolder(ctx context.Context, folderID, userID int64, name string) (domain.Folder, error)
	DeleteFolder(ctx context.Context, folderID, userID int64) error
	MoveNotes(ctx context.Context, userID, fromFolderID int64, toFolderID *int64) error

	GetNote(ctx context.Context, noteID, userID int64) (domain.Note, error)
	GetNoteByID(ctx context.Context, noteID int64) (domain.Note, error)
	GetMetadata(ctx context.Context, noteID, userID int64) (domain.NoteMetadata, error)
	ListMetadata(ctx context.Context, userID int64) ([]domain.NoteMetadata, error)
	ListUnfolderedNotes(ctx context.Context, userID int64) ([]domain.Note, error)
	ListNotesByFolder(ctx context.Context, userID, folderID int64) ([]domain.Note, error)
	UpdateNote(ctx context.Context, noteID, userID int64, upd storage.NoteUpdate) (domain.Note, error)
	UpdateMetadata(ctx context.Context, noteID, userID int64, upd storage.MetadataUpdate) (domain.NoteMetadata, error)
	DeleteNote(ctx context.Context, noteID, userID int64) error
}

// Artifacts provides the generated-content operations backed by the note's
// cached slots.
type Artifacts interface {
	Ingest(ctx context.Context, in notes.IngestInput) (domain.Note, domain.NoteMetadata, error)
	Flashcards(ctx context.Context, noteID, userID int64) ([]domain.Flashcard, error)
	Quizzes(ctx context.Context, noteID, userID int64) ([]domain.Quiz, error)
	RegenerateSummary(ctx context.Context, noteID, userID int64) (domain.Note, error)
	Translate(ctx context.Context, noteID, userID int64, targetLang string) (domain.Note, domain.NoteMetadata, error)
	Chat(ctx context.Context, noteID, userID int64, question string) (string, error)
	CreateWelcomeNote(ctx context.Context, userID int64) (domain.NoteMetadata, error)
}

type TranscriptResolver interface {
	Resolve(ctx context.Context, ref, langHint string) (string, error)
}

type Blobs interface {
	Put(r io.Reader, filename, contentType string) (string, error)
	Delete(name string) error
	ResolveName(rawURL string) (string, bool)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, userID int64, payload tasks.TranscribePayload) (domain.Task, error)
	Get(ctx context.Context, taskID string, userID int64) (domain.Task, error)
}

type API struct {
	cfg       config.Config
	store     Store
	blobs     Blobs
	artifacts Artifacts
	resolver  TranscriptResolver
	queue     TaskQueue
	pdf       *services.PDFService
	share     *services.ShareService
}

func NewAPI(cfg config.Config, store Store, blobs Blobs, artifacts Artifacts, resolver TranscriptResolver, queue TaskQueue) *API {
	return &API{
		cfg:       cfg,
		store:     store,
		blobs:     blobs,
		artifacts: artifacts,
		resolver:  resolver,
		queue:     queue,
		pdf:       services.NewPDFService(),
		share:     services.NewShareService(cfg),
	}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	apiGroup.GET("/health", api.handleHealth)

	keyed := apiGroup.Group("", APIKeyGuard(api.cfg.APIKey))
	keyed.POST("/users", api.handleCreateUser)

	authed := keyed.Group("", UserGuard(api.store))
	{
		authed.GET("/users/me", api.handleGetUser)
		authed.PATCH("/users/me/subscription", api.handleUpdateSubscription)
		authed.DELETE("/users/me", api.handleDeleteUser)

		authed.GET("/folders", api.handleListFolders)
		authed.POST("/folders", api.handleCreateFolder)
		authed.PATCH("/folders/:id", api.handleRenameFolder)
		authed.DELETE("/folders/:id", api.handleDeleteFolder)
		authed.GET("/folders/:id/notes", api.handleListNotesByFolder)
		authed.POST("/folders/move", api.handleMoveNotes)

		authed.GET("/notes", api.handleListNotes)
		authed.GET("/notes/unfoldered", api.handleListUnfolderedNotes)
		authed.GET("/notes/:id", api.handleGetNote)
		authed.PATCH("/notes/:id", api.handleUpdateNote)
		authed.DELETE("/notes/:id", api.handleDeleteNote)

		authed.POST("/notes/:id/flashcards", api.handleFlashcards)
		authed.POST("/notes/:id/quizzes", api.handleQuizzes)
		authed.POST("/notes/:id/summary", api.handleRegenerateSummary)
		authed.POST("/notes/:id/chat", api.handleChat)
		authed.POST("/notes/:id/translate", api.handleTranslate)
		authed.POST("/notes/:id/pdf", api.handleExportPDF)
		authed.POST("/notes/:id/share", api.handleShareNote)

		authed.POST("/generate/youtube", api.handleGenerateYouTube)
		authed.POST("/generate/audio", api.handleGenerateAudio)
		authed.POST("/uploads/audio", api.handleUploadAudio)

		authed.POST("/tasks/transcribe", api.handleEnqueueTranscribe)
		authed.GET("/tasks/:id", api.handleGetTask)
	}

	r.GET("/share/notes/:id", api.handleSharedNote)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	respondMessage(c, statusForError(err), err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func statusForError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
