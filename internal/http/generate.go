package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gomemo-fmtpla/backend/internal/notes"
	"github.com/gomemo-fmtpla/backend/internal/tasks"
)

type generatePayload struct {
	URL      string `json:"url" binding:"required"`
	Language string `json:"language"`
	Context  string `json:"context"`
	FolderID *int64 `json:"folderId"`
}

// handleGenerateYouTube and handleGenerateAudio stream the whole
// transcribe-then-summarize pipeline as server-sent events so the client can
// show progress on a job that may run for minutes.
func (a *API) handleGenerateYouTube(c *gin.Context) {
	a.generateStream(c)
}

func (a *API) handleGenerateAudio(c *gin.Context) {
	a.generateStream(c)
}

func (a *API) generateStream(c *gin.Context) {
	var payload generatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	ctx := c.Request.Context()
	sseHeaders(c)

	sseEvent(c, "progress", gin.H{"stage": "transcribing"})
	transcript, err := a.resolver.Resolve(ctx, payload.URL, payload.Language)
	if err != nil {
		sseEvent(c, "error", gin.H{"error": err.Error()})
		return
	}

	sseEvent(c, "progress", gin.H{"stage": "summarizing"})
	note, meta, err := a.artifacts.Ingest(ctx, notes.IngestInput{
		UserID:     user.ID,
		FolderID:   payload.FolderID,
		ContentURL: payload.URL,
		Transcript: transcript,
		Language:   payload.Language,
		Context:    payload.Context,
	})
	if err != nil {
		sseEvent(c, "error", gin.H{"error": err.Error()})
		return
	}

	sseEvent(c, "complete", gin.H{"note": note, "metadata": meta})
}

func (a *API) handleTranslate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload struct {
		TargetLanguage string `json:"targetLanguage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	ctx := c.Request.Context()
	sseHeaders(c)

	sseEvent(c, "progress", gin.H{"stage": "translating"})
	note, meta, err := a.artifacts.Translate(ctx, id, user.ID, payload.TargetLanguage)
	if err != nil {
		sseEvent(c, "error", gin.H{"error": err.Error()})
		return
	}

	sseEvent(c, "complete", gin.H{"note": note, "metadata": meta})
}

func (a *API) handleUploadAudio(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing audio file")
		return
	}

	upload, err := fileHeader.Open()
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	url, err := a.blobs.Put(upload, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (a *API) handleEnqueueTranscribe(c *gin.Context) {
	var payload generatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	task, err := a.queue.Enqueue(c.Request.Context(), user.ID, tasks.TranscribePayload{
		ContentURL: payload.URL,
		Language:   payload.Language,
		Context:    payload.Context,
		FolderID:   payload.FolderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, task)
}

func (a *API) handleGetTask(c *gin.Context) {
	user := currentUser(c)
	task, err := a.queue.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func sseHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
}

func sseEvent(c *gin.Context, event string, data any) {
	c.SSEvent(event, data)
	c.Writer.Flush()
}
