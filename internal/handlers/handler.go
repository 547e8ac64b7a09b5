package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/objectstore"
	"github.com/harentsoaR/reliefnet-api/internal/services"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
	"github.com/harentsoaR/reliefnet-api/internal/workflow"
)

const requestTimeout = 10 * time.Second

// Handler carries the dependencies shared by every route.
type Handler struct {
	Store           *store.Store
	Tokens          *utils.TokenIssuer
	NotificationSvc *services.NotificationService
	Images          objectstore.Store // nil disables image uploads
	BcryptCost      int
	Log             *zap.Logger
}

func NewHandler(st *store.Store, tokens *utils.TokenIssuer, notificationSvc *services.NotificationService, log *zap.Logger) *Handler {
	return &Handler{
		Store:           st,
		Tokens:          tokens,
		NotificationSvc: notificationSvc,
		BcryptCost:      12,
		Log:             log,
	}
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func fail(c *gin.Context, status int, message string) {
	middleware.Abort(c, middleware.NewError(status, message))
}

// storeFail maps store sentinels onto HTTP errors; what names the record
// in the 404 message.
func storeFail(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, store.ErrDuplicate):
		fail(c, http.StatusBadRequest, what+" already exists")
	default:
		middleware.Abort(c, err)
	}
}

// transitionFail maps workflow rejections onto HTTP errors.
func transitionFail(c *gin.Context, err error) {
	var te *workflow.TransitionError
	if !errors.As(err, &te) {
		middleware.Abort(c, err)
		return
	}
	status := http.StatusBadRequest
	if errors.Is(err, workflow.ErrForbidden) {
		status = http.StatusForbidden
	}
	middleware.Abort(c, &middleware.APIError{Status: status, Message: te.Reason, Err: err})
}

func paramID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// users loads the given user ids; missing users are left out of the map.
func (h *Handler) users(ctx context.Context, ids ...*primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	found := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if id == nil || id.IsZero() {
			continue
		}
		if _, seen := found[*id]; seen {
			continue
		}
		u, err := h.Store.Users.FindByID(ctx, *id)
		if errors.Is(err, store.ErrNotFound) {
			found[*id] = nil
			continue
		}
		if err != nil {
			return nil, err
		}
		found[*id] = u
	}
	return found, nil
}

func lookup(users map[primitive.ObjectID]*models.User, id *primitive.ObjectID) *models.User {
	if id == nil {
		return nil
	}
	return users[*id]
}

func hexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// OptionalID distinguishes an absent field from an explicit null or "".
type OptionalID struct {
	Set   bool
	Value string
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// changeRequest is the body of the update, status and assign routes.
type changeRequest struct {
	Status     *string    `json:"status"`
	AssignedTo OptionalID `json:"assignedTo"`
	AdminNotes *string    `json:"adminNotes"`
}

// resolveChange turns a request body into a workflow change. The assignee
// is only looked up for Admins; for anyone else the workflow rejects the
// assignment anyway.
func resolveChange[S ~string](ctx context.Context, h *Handler, actor *models.User, req changeRequest) (workflow.Change[S], *middleware.APIError) {
	var ch workflow.Change[S]
	if req.Status != nil {
		s := S(*req.Status)
		ch.Status = &s
	}
	ch.AdminNotes = req.AdminNotes

	if req.AssignedTo.Set {
		switch {
		case req.AssignedTo.Value == "":
			ch.Unassign = true
		case actor.Role != models.RoleAdmin:
			ch.Assignee = &workflow.Assignee{ID: req.AssignedTo.Value}
		default:
			id, err := primitive.ObjectIDFromHex(req.AssignedTo.Value)
			if err != nil {
				return ch, middleware.NewError(http.StatusBadRequest, "Invalid assignee id")
			}
			u, err := h.Store.Users.FindByID(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return ch, middleware.NewError(http.StatusNotFound, "Assignee not found")
			}
			if err != nil {
				return ch, middleware.Wrap(http.StatusInternalServerError, "Failed to load assignee", err)
			}
			ch.Assignee = &workflow.Assignee{
				ID:       u.ID.Hex(),
				Role:     u.Role,
				Approved: u.IsApproved,
				Blocked:  u.IsBlocked,
			}
		}
	}

	if ch.Empty() {
		return ch, middleware.NewError(http.StatusBadRequest, "No update fields provided")
	}
	return ch, nil
}

func actorOf(u *models.User) workflow.Actor {
	return workflow.Actor{ID: u.ID.Hex(), Role: u.Role}
}

func validLocation(l *models.Location) bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}
