package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/workflow"
)

// tracked binds a workflow-governed record type (reports, help requests)
// to the routes they share: read, list, stats, change and delete.
type tracked[T, V any, S ~string] struct {
	h       *Handler
	label   string // "Report", used in error messages
	rules   *workflow.Rules[S]
	updated string
	deleted string

	find   func(context.Context, primitive.ObjectID) (*T, error)
	save   func(context.Context, *T) error
	remove func(context.Context, primitive.ObjectID) error
	count  func(context.Context) (map[string]int64, error)

	// refs returns the submitter and the assignee of a record.
	refs  func(*T) (primitive.ObjectID, *primitive.ObjectID)
	state func(*T) workflow.State[S]
	// apply stores the workflow result back onto the record.
	apply func(t *T, next workflow.State[S], assignee *primitive.ObjectID, now time.Time)
	view  func(t *T, owner, assignee *models.User) *V
}

func (e *tracked[T, V, S]) views(ctx context.Context, items []T) ([]*V, error) {
	ids := make([]*primitive.ObjectID, 0, 2*len(items))
	for i := range items {
		owner, assignee := e.refs(&items[i])
		ids = append(ids, &owner, assignee)
	}
	users, err := e.h.users(ctx, ids...)
	if err != nil {
		return nil, err
	}
	views := make([]*V, 0, len(items))
	for i := range items {
		owner, assignee := e.refs(&items[i])
		views = append(views, e.view(&items[i], lookup(users, &owner), lookup(users, assignee)))
	}
	return views, nil
}

func (e *tracked[T, V, S]) viewOf(ctx context.Context, t *T) (*V, error) {
	views, err := e.views(ctx, []T{*t})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (e *tracked[T, V, S]) list(c *gin.Context, fetch func(context.Context) ([]T, error)) {
	ctx, cancel := e.h.ctx(c)
	defer cancel()
	items, err := fetch(ctx)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	views, err := e.views(ctx, items)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// stats counts records per status; every status is present.
func (e *tracked[T, V, S]) stats(c *gin.Context) {
	ctx, cancel := e.h.ctx(c)
	defer cancel()
	counts, err := e.count(ctx)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, statusStats(e.rules.Statuses, counts))
}

func statusStats[S ~string](statuses []S, counts map[string]int64) gin.H {
	byStatus := make(map[string]int64, len(statuses))
	var total int64
	for _, s := range statuses {
		byStatus[string(s)] = counts[string(s)]
		total += counts[string(s)]
	}
	return gin.H{"total": total, "byStatus": byStatus}
}

// load fetches the record named by :id and checks the caller may see it:
// Admins, the submitter and the assignee.
func (e *tracked[T, V, S]) load(ctx context.Context, c *gin.Context) (*T, bool) {
	id, ok := paramID(c)
	if !ok {
		return nil, false
	}
	t, err := e.find(ctx, id)
	if err != nil {
		storeFail(c, err, e.label)
		return nil, false
	}
	user := middleware.CurrentUser(c)
	owner, assignee := e.refs(t)
	if user.Role != models.RoleAdmin && owner != user.ID && (assignee == nil || *assignee != user.ID) {
		fail(c, http.StatusForbidden, "Not authorized to access this "+strings.ToLower(e.label))
		return nil, false
	}
	return t, true
}

func (e *tracked[T, V, S]) get(c *gin.Context) {
	ctx, cancel := e.h.ctx(c)
	defer cancel()
	t, ok := e.load(ctx, c)
	if !ok {
		return
	}
	view, err := e.viewOf(ctx, t)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// persist saves t and broadcasts its refreshed view.
func (e *tracked[T, V, S]) persist(ctx context.Context, c *gin.Context, t *T) {
	if err := e.save(ctx, t); err != nil {
		storeFail(c, err, e.label)
		return
	}
	view, err := e.viewOf(ctx, t)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	e.h.NotificationSvc.Notify(e.updated, view)
	c.JSON(http.StatusOK, view)
}

// change runs the record's workflow on req and saves the result.
func (e *tracked[T, V, S]) change(c *gin.Context, req changeRequest) {
	ctx, cancel := e.h.ctx(c)
	defer cancel()
	t, ok := e.load(ctx, c)
	if !ok {
		return
	}
	actor := middleware.CurrentUser(c)

	ch, apiErr := resolveChange[S](ctx, e.h, actor, req)
	if apiErr != nil {
		middleware.Abort(c, apiErr)
		return
	}
	next, err := e.rules.Apply(e.state(t), actorOf(actor), ch)
	if err != nil {
		transitionFail(c, err)
		return
	}
	assignee, err := objectIDOrNil(next.AssigneeID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	e.apply(t, next, assignee, time.Now().UTC())
	e.persist(ctx, c, t)
}

func (e *tracked[T, V, S]) delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := e.h.ctx(c)
	defer cancel()
	if err := e.remove(ctx, id); err != nil {
		storeFail(c, err, e.label)
		return
	}
	e.h.NotificationSvc.NotifyDeleted(e.deleted, id.Hex())
	c.JSON(http.StatusOK, gin.H{"message": e.label + " removed", "id": id.Hex()})
}

// The update, status and assign routes only differ in how they bind the body.

func bindChange(c *gin.Context) (changeRequest, bool) {
	var req changeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Invalid request body", err))
		return req, false
	}
	return req, true
}

func bindStatus(c *gin.Context) (changeRequest, bool) {
	var req struct {
		Status     string  `json:"status" binding:"required"`
		AdminNotes *string `json:"adminNotes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Status is required", err))
		return changeRequest{}, false
	}
	return changeRequest{Status: &req.Status, AdminNotes: req.AdminNotes}, true
}

func bindAssign(c *gin.Context) (changeRequest, bool) {
	var req struct {
		AssignedTo OptionalID `json:"assignedTo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.AssignedTo.Set {
		fail(c, http.StatusBadRequest, "assignedTo is required")
		return changeRequest{}, false
	}
	return changeRequest{AssignedTo: req.AssignedTo}, true
}

// assigneeFilter parses the Admin-only ?assignedTo= list filter.
func assigneeFilter(c *gin.Context) (*primitive.ObjectID, bool) {
	raw := c.Query("assignedTo")
	if raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid assignedTo filter")
		return nil, false
	}
	return &id, true
}

func objectIDOrNil(hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
