package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gomemo-fmtpla/backend/internal/storage"
)

func (a *API) handleListNotes(c *gin.Context) {
	user := currentUser(c)
	metas, err := a.store.ListMetadata(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metas)
}

func (a *API) handleListUnfolderedNotes(c *gin.Context) {
	user := currentUser(c)
	list, err := a.store.ListUnfolderedNotes(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) handleGetNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	note, err := a.store.GetNote(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (a *API) handleUpdateNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload struct {
		Title           *string `json:"title"`
		Summary         *string `json:"summary"`
		Language        *string `json:"language"`
		FolderID        *int64  `json:"folderId"`
		ContentCategory *string `json:"contentCategory"`
		Emoji           *string `json:"emoji"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	if payload.Title != nil && strings.TrimSpace(*payload.Title) == "" {
		respondMessage(c, http.StatusBadRequest, "title is empty")
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)
	note, err := a.store.UpdateNote(ctx, id, user.ID, storage.NoteUpdate{
		Title:    payload.Title,
		Summary:  payload.Summary,
		Language: payload.Language,
		FolderID: payload.FolderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if payload.ContentCategory != nil || payload.Emoji != nil {
		if _, err := a.store.UpdateMetadata(ctx, id, user.ID, storage.MetadataUpdate{
			ContentCategory: payload.ContentCategory,
			Emoji:           payload.Emoji,
		}); err != nil {
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, note)
}

func (a *API) handleDeleteNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)
	note, err := a.store.GetNote(ctx, id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := a.store.DeleteNote(ctx, id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	// Stored audio is cleaned up best effort once the rows are gone.
	if name, ok := a.blobs.ResolveName(note.ContentURL); ok {
		if err := a.blobs.Delete(name); err != nil {
			log.Printf("delete blob %s for note %d: %v", name, id, err)
		}
	}

	c.Status(http.StatusNoContent)
}

func (a *API) handleFlashcards(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	cards, err := a.artifacts.Flashcards(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": cards})
}

func (a *API) handleQuizzes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	quizzes, err := a.artifacts.Quizzes(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (a *API) handleRegenerateSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	note, err := a.artifacts.RegenerateSummary(c.Request.Context(), id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (a *API) handleChat(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	answer, err := a.artifacts.Chat(c.Request.Context(), id, user.ID, payload.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
