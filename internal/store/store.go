// Package store defines the persistence interfaces of the API. The
// mongostore and memstore packages implement them.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserFilter struct {
	Roles    []models.Role
	Approved *bool
	Blocked  *bool
}

type ReportFilter struct {
	Status     models.ReportStatus
	Type       models.ReportType
	Severity   models.Severity
	Reporter   *primitive.ObjectID
	AssignedTo *primitive.ObjectID
	// Participant matches records reported by or assigned to the user.
	Participant *primitive.ObjectID
}

type HelpRequestFilter struct {
	Status      models.HelpStatus
	Type        models.HelpType
	RequestedBy *primitive.ObjectID
	AssignedTo  *primitive.ObjectID
	Participant *primitive.ObjectID
}

type VolunteerFilter struct {
	Skill        string
	Availability models.Availability
}

// Save replaces the whole document; concurrent writers are last-write-wins.

type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	Save(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type Reports interface {
	Create(ctx context.Context, r *models.Report) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, f ReportFilter) ([]models.Report, error)
	Save(ctx context.Context, r *models.Report) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type HelpRequests interface {
	Create(ctx context.Context, h *models.HelpRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error)
	List(ctx context.Context, f HelpRequestFilter) ([]models.HelpRequest, error)
	Save(ctx context.Context, h *models.HelpRequest) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type Volunteers interface {
	Create(ctx context.Context, v *models.Volunteer) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Volunteer, error)
	List(ctx context.Context, f VolunteerFilter) ([]models.Volunteer, error)
	Save(ctx context.Context, v *models.Volunteer) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Store bundles the repositories the handlers depend on.
type Store struct {
	Users        Users
	Reports      Reports
	HelpRequests HelpRequests
	Volunteers   Volunteers
}
