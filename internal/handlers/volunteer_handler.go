package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/realtime"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

type VolunteerRequest struct {
	Name         *string          `json:"name"`
	ContactInfo  *string          `json:"contactInfo"`
	Skills       []string         `json:"skills"`
	Availability *string          `json:"availability"`
	Location     *models.Location `json:"location"`
}

func validAvailability(a models.Availability) bool {
	switch a {
	case models.Available, models.Busy, models.Unavailable:
		return true
	}
	return false
}

// apply copies the fields present in the request onto v.
func (req *VolunteerRequest) apply(v *models.Volunteer) *middleware.APIError {
	if req.Name != nil {
		v.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactInfo != nil {
		v.ContactInfo = strings.TrimSpace(*req.ContactInfo)
	}
	if req.Skills != nil {
		v.Skills = req.Skills
	}
	if req.Availability != nil {
		a := models.Availability(*req.Availability)
		if !validAvailability(a) {
			return middleware.NewError(http.StatusBadRequest, "Invalid availability")
		}
		v.Availability = a
	}
	if req.Location != nil {
		if !validLocation(req.Location) {
			return middleware.NewError(http.StatusBadRequest, "Invalid location coordinates")
		}
		v.Location = req.Location
	}
	if v.Name == "" || v.ContactInfo == "" {
		return middleware.NewError(http.StatusBadRequest, "Name and contact info are required")
	}
	return nil
}

// GetVolunteers lists the directory, filtered by ?skill= and ?availability=.
func (h *Handler) GetVolunteers(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	volunteers, err := h.Store.Volunteers.List(ctx, store.VolunteerFilter{
		Skill:        c.Query("skill"),
		Availability: models.Availability(c.Query("availability")),
	})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, volunteers)
}

func (h *Handler) GetVolunteer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.Store.Volunteers.FindByID(ctx, id)
	if err != nil {
		storeFail(c, err, "Volunteer")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateVolunteer(c *gin.Context) {
	var req VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	now := time.Now().UTC()
	v := &models.Volunteer{
		ID:           primitive.NewObjectID(),
		Skills:       []string{},
		Availability: models.Available,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if apiErr := req.apply(v); apiErr != nil {
		middleware.Abort(c, apiErr)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Volunteers.Create(ctx, v); err != nil {
		middleware.Abort(c, err)
		return
	}
	h.NotificationSvc.Notify(realtime.NewVolunteer, v)
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateVolunteer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, middleware.Wrap(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	v, err := h.Store.Volunteers.FindByID(ctx, id)
	if err != nil {
		storeFail(c, err, "Volunteer")
		return
	}
	if apiErr := req.apply(v); apiErr != nil {
		middleware.Abort(c, apiErr)
		return
	}
	v.UpdatedAt = time.Now().UTC()
	if err := h.Store.Volunteers.Save(ctx, v); err != nil {
		storeFail(c, err, "Volunteer")
		return
	}
	h.NotificationSvc.Notify(realtime.VolunteerUpdated, v)
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVolunteer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Store.Volunteers.Delete(ctx, id); err != nil {
		storeFail(c, err, "Volunteer")
		return
	}
	h.NotificationSvc.NotifyDeleted(realtime.VolunteerDeleted, id.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Volunteer removed", "id": id.Hex()})
}
