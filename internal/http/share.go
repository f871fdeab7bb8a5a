package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// handleExportPDF renders the note as a PDF and stores it alongside the
// audio, returning the public URL.
func (a *API) handleExportPDF(c *gin.Context) {
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
	meta, err := a.store.GetMetadata(ctx, id, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	rendered, err := a.pdf.Render(note, meta)
	if err != nil {
		respondError(c, err)
		return
	}

	url, err := a.blobs.Put(bytes.NewReader(rendered), fmt.Sprintf("note-%d.pdf", id), "application/pdf")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (a *API) handleShareNote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if _, err := a.store.GetNote(c.Request.Context(), id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	url, expiresAt, err := a.share.Generate(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expiresAt": expiresAt.UTC()})
}

// handleSharedNote serves the read-only view behind a signed link. No auth
// headers are required; the signature and expiry gate access instead.
func (a *API) handleSharedNote(c *gin.Context) {
	expiresParam := c.Query("exp")
	signature := c.Query("sig")
	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}
	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	if !a.share.Validate(c.Request.URL.Path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	id, ok := pathID(c)
	if !ok {
		return
	}

	note, err := a.store.GetNoteByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":      note.Title,
		"summary":    note.Summary,
		"language":   note.Language,
		"flashcards": note.Flashcards,
		"createdAt":  note.CreatedAt,
	})
}
