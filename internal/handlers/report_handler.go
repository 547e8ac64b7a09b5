package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/objectstore"
	"github.com/harentsoaR/reliefnet-api/internal/realtime"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/workflow"
)

const maxImageSize = 5 << 20

type CreateReportRequest struct {
	Type        string           `json:"type" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Location    *models.Location `json:"location" binding:"required"`
	Severity    string           `json:"severity"`
	Images      []string         `json:"images"`
}

// --- CREATE REPORT ---
func (h *Handler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Type, description and location are required", err))
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		fail(c, http.StatusBadRequest, "Description is required")
		return
	}
	if !slices.Contains(models.ReportTypes, models.ReportType(req.Type)) {
		fail(c, http.StatusBadRequest, "Invalid report type")
		return
	}
	severity := models.Severity(req.Severity)
	if severity == "" {
		severity = models.SeverityMedium
	}
	if !slices.Contains(models.Severities, severity) {
		fail(c, http.StatusBadRequest, "Invalid severity")
		return
	}
	if !validLocation(req.Location) {
		fail(c, http.StatusBadRequest, "Invalid location coordinates")
		return
	}

	reporter := middleware.CurrentUser(c)
	now := time.Now().UTC()
	images := req.Images
	if images == nil {
		images = []string{}
	}
	report := &models.Report{
		ID:          primitive.NewObjectID(),
		Type:        models.ReportType(req.Type),
		Description: req.Description,
		Location:    *req.Location,
		Severity:    severity,
		Images:      images,
		Status:      workflow.ReportRules.Initial,
		Reporter:    reporter.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Reports.Create(ctx, report); err != nil {
		middleware.Abort(c, err)
		return
	}

	view := report.View(reporter, nil)
	h.NotificationSvc.Notify(realtime.NewReport, view)
	c.JSON(http.StatusCreated, view)
}

// reports binds the report store and workflow to the shared record routes.
func (h *Handler) reports() *tracked[models.Report, models.ReportView, models.ReportStatus] {
	return &tracked[models.Report, models.ReportView, models.ReportStatus]{
		h:       h,
		label:   "Report",
		rules:   workflow.ReportRules,
		updated: realtime.ReportUpdated,
		deleted: realtime.ReportDeleted,
		find:    h.Store.Reports.FindByID,
		save:    h.Store.Reports.Save,
		remove:  h.Store.Reports.Delete,
		count:   h.Store.Reports.CountByStatus,
		refs: func(r *models.Report) (primitive.ObjectID, *primitive.ObjectID) {
			return r.Reporter, r.AssignedTo
		},
		state: func(r *models.Report) workflow.State[models.ReportStatus] {
			return workflow.State[models.ReportStatus]{
				Status:     r.Status,
				AssigneeID: hexOrEmpty(r.AssignedTo),
				AdminNotes: r.AdminNotes,
			}
		},
		apply: func(r *models.Report, next workflow.State[models.ReportStatus], assignee *primitive.ObjectID, now time.Time) {
			r.Status = next.Status
			r.AdminNotes = next.AdminNotes
			r.AssignedTo = assignee
			r.UpdatedAt = now
		},
		view: (*models.Report).View,
	}
}

func (h *Handler) listReports(c *gin.Context, filter store.ReportFilter) {
	h.reports().list(c, func(ctx context.Context) ([]models.Report, error) {
		return h.Store.Reports.List(ctx, filter)
	})
}

// GetReports lists every report for Admins and the caller's own or
// assigned reports for everyone else. ?status=, ?type= and ?severity=
// narrow the result.
func (h *Handler) GetReports(c *gin.Context) {
	filter := store.ReportFilter{
		Status:   models.ReportStatus(c.Query("status")),
		Type:     models.ReportType(c.Query("type")),
		Severity: models.Severity(c.Query("severity")),
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
	h.listReports(c, filter)
}

// GetMyReports lists the reports the caller submitted.
func (h *Handler) GetMyReports(c *gin.Context) {
	h.listReports(c, store.ReportFilter{Reporter: &middleware.CurrentUser(c).ID})
}

// GetAssignedReports lists the reports assigned to the caller.
func (h *Handler) GetAssignedReports(c *gin.Context) {
	h.listReports(c, store.ReportFilter{
		Status:     models.ReportStatus(c.Query("status")),
		AssignedTo: &middleware.CurrentUser(c).ID,
	})
}

func (h *Handler) GetReportStats(c *gin.Context) { h.reports().stats(c) }

func (h *Handler) GetReport(c *gin.Context) { h.reports().get(c) }

// --- UPDATE REPORT ---
func (h *Handler) UpdateReport(c *gin.Context) {
	if req, ok := bindChange(c); ok {
		h.reports().change(c, req)
	}
}

func (h *Handler) UpdateReportStatus(c *gin.Context) {
	if req, ok := bindStatus(c); ok {
		h.reports().change(c, req)
	}
}

func (h *Handler) AssignReport(c *gin.Context) {
	if req, ok := bindAssign(c); ok {
		h.reports().change(c, req)
	}
}

// UploadReportImage stores one multipart "image" file and appends its URL
// to the report. Only Admins and the reporter may upload.
func (h *Handler) UploadReportImage(c *gin.Context) {
	if h.Images == nil {
		fail(c, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}
	reports := h.reports()
	ctx, cancel := h.ctx(c)
	defer cancel()
	report, ok := reports.load(ctx, c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if user.Role != models.RoleAdmin && report.Reporter != user.ID {
		fail(c, http.StatusForbidden, "Only the reporter can add images")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "An image file is required", err))
		return
	}
	if file.Size > maxImageSize {
		fail(c, http.StatusBadRequest, "Image exceeds the 5MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		fail(c, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	defer f.Close()

	key := objectstore.ObjectKey("reports/"+report.ID.Hex(), file.Filename)
	url, err := h.Images.Put(ctx, key, f, file.Size, contentType)
	if err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadGateway, "Failed to store image", err))
		return
	}
	h.Log.Info("report image stored", zap.String("reportId", report.ID.Hex()), zap.String("key", key))

	report.Images = append(report.Images, url)
	report.UpdatedAt = time.Now().UTC()
	reports.persist(ctx, c, report)
}

// --- DELETE REPORT ---
func (h *Handler) DeleteReport(c *gin.Context) { h.reports().delete(c) }
