package http

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

func (a *API) handleCreateUser(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" {
		respondMessage(c, http.StatusBadRequest, "username is empty")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := a.store.CreateUser(ctx, payload.Username, payload.Email, string(hashed))
	if err != nil {
		respondError(c, err)
		return
	}

	// Every new account starts with a welcome note. Signup still succeeds if
	// that write fails.
	welcome, err := a.artifacts.CreateWelcomeNote(ctx, user.ID)
	if err != nil {
		log.Printf("welcome note for user %d: %v", user.ID, err)
		c.JSON(http.StatusCreated, gin.H{"user": user})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "welcomeNote": welcome})
}

func (a *API) handleGetUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (a *API) handleUpdateSubscription(c *gin.Context) {
	var payload struct {
		Plan        string     `json:"plan" binding:"required"`
		EndDate     *time.Time `json:"endDate"`
		ReceiptData string     `json:"receiptData"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	plan := domain.SubscriptionPlan(payload.Plan)
	switch plan {
	case domain.PlanFree, domain.PlanWeekly, domain.PlanMonthly, domain.PlanAnnual:
	default:
		respondMessage(c, http.StatusBadRequest, "unknown subscription plan")
		return
	}

	user := currentUser(c)
	updated, err := a.store.UpdateSubscription(c.Request.Context(), user.ID, plan, payload.EndDate, payload.ReceiptData)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (a *API) handleDeleteUser(c *gin.Context) {
	user := currentUser(c)
	if err := a.store.DeleteUser(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
