package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/realtime"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/workflow"
)

type CreateHelpRequestRequest struct {
	Type        string           `json:"type" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Location    *models.Location `json:"location" binding:"required"`
	Quantity    *float64         `json:"quantity"`
	Unit        string           `json:"unit"`
	ContactInfo string           `json:"contactInfo" binding:"required"`
}

func (h *Handler) CreateHelpRequest(c *gin.Context) {
	var req CreateHelpRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Type, description, location and contact info are required", err))
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	req.ContactInfo = strings.TrimSpace(req.ContactInfo)
	if req.Description == "" || req.ContactInfo == "" {
		fail(c, http.StatusBadRequest, "Description and contact info are required")
		return
	}
	if !slices.Contains(models.HelpTypes, models.HelpType(req.Type)) {
		fail(c, http.StatusBadRequest, "Invalid help type")
		return
	}
	if !validLocation(req.Location) {
		fail(c, http.StatusBadRequest, "Invalid location coordinates")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		fail(c, http.StatusBadRequest, "Quantity cannot be negative")
		return
	}

	requester := middleware.CurrentUser(c)
	now := time.Now().UTC()
	hr := &models.HelpRequest{
		ID:          primitive.NewObjectID(),
		Type:        models.HelpType(req.Type),
		Description: req.Description,
		Location:    *req.Location,
		Quantity:    req.Quantity,
		Unit:        strings.TrimSpace(req.Unit),
		Status:      workflow.HelpRequestRules.Initial,
		RequestedBy: requester.ID,
		ContactInfo: req.ContactInfo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.HelpRequests.Create(ctx, hr); err != nil {
		middleware.Abort(c, err)
		return
	}

	view := hr.View(requester, nil)
	h.NotificationSvc.Notify(realtime.NewHelpRequest, view)
	c.JSON(http.StatusCreated, view)
}

// helpRequests binds the help request store and workflow to the shared
// record routes. Assigning moves a Pending or Received request to
// In Progress; there is no Assigned status.
func (h *Handler) helpRequests() *tracked[models.HelpRequest, models.HelpRequestView, models.HelpStatus] {
	return &tracked[models.HelpRequest, models.HelpRequestView, models.HelpStatus]{
		h:       h,
		label:   "Help request",
		rules:   workflow.HelpRequestRules,
		updated: realtime.HelpRequestUpdated,
		deleted: realtime.HelpRequestDeleted,
		find:    h.Store.HelpRequests.FindByID,
		save:    h.Store.HelpRequests.Save,
		remove:  h.Store.HelpRequests.Delete,
		count:   h.Store.HelpRequests.CountByStatus,
		refs: func(hr *models.HelpRequest) (primitive.ObjectID, *primitive.ObjectID) {
			return hr.RequestedBy, hr.AssignedTo
		},
		state: func(hr *models.HelpRequest) workflow.State[models.HelpStatus] {
			return workflow.State[models.HelpStatus]{
				Status:     hr.Status,
				AssigneeID: hexOrEmpty(hr.AssignedTo),
				AdminNotes: hr.AdminNotes,
			}
		},
		apply: func(hr *models.HelpRequest, next workflow.State[models.HelpStatus], assignee *primitive.ObjectID, now time.Time) {
			hr.Status = next.Status
			hr.AdminNotes = next.AdminNotes
			hr.AssignedTo = assignee
			hr.UpdatedAt = now
		},
		view: (*models.HelpRequest).View,
	}
}

func (h *Handler) listHelpRequests(c *gin.Context, filter store.HelpRequestFilter) {
	h.helpRequests().list(c, func(ctx context.Context) ([]models.HelpRequest, error) {
		return h.Store.HelpRequests.List(ctx, filter)
	})
}

func (h *Handler) GetHelpRequests(c *gin.Context) {
	filter := store.HelpRequestFilter{
		Status: models.HelpStatus(c.Query("status")),
		Type:   models.HelpType(c.Query("type")),
	}
	user := middleware.CurrentUser(c)
	if user.Role != models.RoleAdmin {
		filter.Participant = &user.ID
	} else {
		assignee, ok := assigneeFilter(c)
		if !ok {
			return
		}
		filter.AssignedTo = assignee
	}
	h.listHelpRequests(c, filter)
}

func (h *Handler) GetMyHelpRequests(c *gin.Context) {
	h.listHelpRequests(c, store.HelpRequestFilter{RequestedBy: &middleware.CurrentUser(c).ID})
}

func (h *Handler) GetAssignedHelpRequests(c *gin.Context) {
	h.listHelpRequests(c, store.HelpRequestFilter{
		Status:     models.HelpStatus(c.Query("status")),
		AssignedTo: &middleware.CurrentUser(c).ID,
	})
}

func (h *Handler) GetHelpRequestStats(c *gin.Context) { h.helpRequests().stats(c) }

func (h *Handler) GetHelpRequest(c *gin.Context) { h.helpRequests().get(c) }

func (h *Handler) UpdateHelpRequest(c *gin.Context) {
	if req, ok := bindChange(c); ok {
		h.helpRequests().change(c, req)
	}
}

func (h *Handler) UpdateHelpRequestStatus(c *gin.Context) {
	if req, ok := bindStatus(c); ok {
		h.helpRequests().change(c, req)
	}
}

func (h *Handler) AssignHelpRequest(c *gin.Context) {
	if req, ok := bindAssign(c); ok {
		h.helpRequests().change(c, req)
	}
}

func (h *Handler) DeleteHelpRequest(c *gin.Context) { h.helpRequests().delete(c) }
