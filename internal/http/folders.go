package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *API) handleListFolders(c *gin.Context) {
	user := currentUser(c)
	folders, err := a.store.ListFolders(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (a *API) handleCreateFolder(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		respondMessage(c, http.StatusBadRequest, "folder name is empty")
		return
	}

	user := currentUser(c)
	folder, err := a.store.CreateFolder(c.Request.Context(), user.ID, payload.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, folder)
}

func (a *API) handleRenameFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	user := currentUser(c)
	folder, err := a.store.RenameFolder(c.Request.Context(), id, user.ID, payload.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, folder)
}

func (a *API) handleDeleteFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if err := a.store.DeleteFolder(c.Request.Context(), id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) handleListNotesByFolder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	user := currentUser(c)
	if _, err := a.store.GetFolder(ctx, id, user.ID); err != nil {
		respondError(c, err)
		return
	}

	list, err := a.store.ListNotesByFolder(ctx, user.ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// handleMoveNotes moves every note in one folder to another folder, or to the
// unfoldered pool when toFolderId is omitted.
func (a *API) handleMoveNotes(c *gin.Context) {
	var payload struct {
		FromFolderID int64  `json:"fromFolderId" binding:"required"`
		ToFolderID   *int64 `json:"toFolderId"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	if err := a.store.MoveNotes(c.Request.Context(), user.ID, payload.FromFolderID, payload.ToFolderID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
