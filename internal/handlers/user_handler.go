package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

// GetUsers lists accounts, optionally filtered by ?role=, ?approved= and
// ?blocked=.
func (h *Handler) GetUsers(c *gin.Context) {
	var filter store.UserFilter
	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		if !r.Valid() {
			fail(c, http.StatusBadRequest, "Invalid role")
			return
		}
		filter.Roles = []models.Role{r}
	}
	for param, dst := range map[string]**bool{"approved": &filter.Approved, "blocked": &filter.Blocked} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid "+param+" filter")
			return
		}
		*dst = &v
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	users, err := h.Store.Users.List(ctx, filter)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetAssignableUsers lists the approved, unblocked Volunteer and NGO
// accounts an Admin can assign work to.
func (h *Handler) GetAssignableUsers(c *gin.Context) {
	approved, blocked := true, false
	ctx, cancel := h.ctx(c)
	defer cancel()
	users, err := h.Store.Users.List(ctx, store.UserFilter{
		Roles:    []models.Role{models.RoleVolunteer, models.RoleNGO},
		Approved: &approved,
		Blocked:  &blocked,
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Store.Users.FindByID(ctx, id)
	if err != nil {
		storeFail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateUser loads the user named by :id, applies mutate and saves it.
// mutate returns a non-nil error to refuse the change.
func (h *Handler) updateUser(c *gin.Context, mutate func(u *models.User) *middleware.APIError) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Store.Users.FindByID(ctx, id)
	if err != nil {
		storeFail(c, err, "User")
		return
	}
	if apiErr := mutate(user); apiErr != nil {
		middleware.Abort(c, apiErr)
		return
	}
	user.UpdatedAt = time.Now().UTC()
	if err := h.Store.Users.Save(ctx, user); err != nil {
		storeFail(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ApproveUser(c *gin.Context) {
	h.updateUser(c, func(u *models.User) *middleware.APIError {
		u.IsApproved = true
		return nil
	})
}

// RejectUser removes a registration that was never approved.
func (h *Handler) RejectUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	user, err := h.Store.Users.FindByID(ctx, id)
	if err != nil {
		storeFail(c, err, "User")
		return
	}
	if user.IsApproved {
		fail(c, http.StatusBadRequest, "User is already approved")
		return
	}
	if err := h.Store.Users.Delete(ctx, id); err != nil {
		storeFail(c, err, "User")
		return
	}
	h.Log.Info("registration rejected", zap.String("userId", id.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "User registration rejected", "id": id.Hex()})
}

func (h *Handler) BlockUser(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "A block reason is required", err))
		return
	}
	self := middleware.CurrentUser(c).ID
	h.updateUser(c, func(u *models.User) *middleware.APIError {
		if u.ID == self {
			return middleware.NewError(http.StatusBadRequest, "You cannot block yourself")
		}
		u.IsBlocked = true
		u.BlockReason = req.Reason
		return nil
	})
}

func (h *Handler) UnblockUser(c *gin.Context) {
	h.updateUser(c, func(u *models.User) *middleware.APIError {
		u.IsBlocked = false
		u.BlockReason = ""
		return nil
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == middleware.CurrentUser(c).ID {
		fail(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Users.Delete(ctx, id); err != nil {
		storeFail(c, err, "User")
		return
	}
	h.Log.Info("user deleted", zap.String("userId", id.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "User removed", "id": id.Hex()})
}
