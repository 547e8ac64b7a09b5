// internal/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role"`
}

const passwordTooLong = "Password must be at most 72 bytes"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUser creates an account. Public accounts get a token right away;
// Volunteer and NGO accounts wait for an Admin to approve them.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Please provide a username and a password of 6 to 72 characters", err))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		fail(c, http.StatusBadRequest, "Username must be between 3 and 50 characters")
		return
	}
	if len(req.Password) > utils.MaxPasswordBytes {
		fail(c, http.StatusBadRequest, passwordTooLong)
		return
	}

	role := models.Role(req.Role)
	if role == "" {
		role = models.RolePublic
	}
	if !role.Valid() {
		fail(c, http.StatusBadRequest, "Invalid role")
		return
	}
	if role == models.RoleAdmin {
		fail(c, http.StatusBadRequest, "Cannot register as Admin")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusInternalServerError, "Failed to hash password", err))
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Username:   strings.TrimSpace(req.Username),
		Password:   hashedPassword,
		Role:       role,
		IsApproved: !role.NeedsApproval(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(c, http.StatusBadRequest, "User already exists")
			return
		}
		middleware.Abort(c, err)
		return
	}
	h.Log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("role", string(role)))

	if !user.IsApproved {
		c.JSON(http.StatusCreated, gin.H{
			"user":    user,
			"message": "Registration successful. Your account is pending admin approval.",
		})
		return
	}

	token, err := h.Tokens.GenerateJWT(user.ID.Hex(), string(user.Role))
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusInternalServerError, "Could not generate token", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Please provide username and password", err))
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Store.Users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if user.IsBlocked {
		middleware.Abort(c, middleware.BlockedError(user.BlockReason))
		return
	}
	if !user.IsApproved {
		fail(c, http.StatusForbidden, "Your account is pending admin approval")
		return
	}

	token, err := h.Tokens.GenerateJWT(user.ID.Hex(), string(user.Role))
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusInternalServerError, "Could not generate token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GetCurrentUser returns the profile of the authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// ChangePassword lets a user replace their own password after proving
// they know the current one.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if len(req.NewPassword) > utils.MaxPasswordBytes {
		fail(c, http.StatusBadRequest, passwordTooLong)
		return
	}

	user := middleware.CurrentUser(c)
	if !utils.CheckPasswordHash(req.CurrentPassword, user.Password) {
		fail(c, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusInternalServerError, "Failed to hash password", err))
		return
	}
	user.Password = hashedPassword
	user.UpdatedAt = time.Now().UTC()

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Users.Save(ctx, user); err != nil {
		storeFail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
