package mongostore

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

type users struct{ coll collection[models.User] }

func (r *users) Create(ctx context.Context, u *models.User) error {
	return r.coll.insert(ctx, u)
}

func (r *users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.coll.findOne(ctx, bson.M{"_id": id})
}

func (r *users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.coll.findOne(ctx, bson.M{"username": username})
}

func (r *users) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	q := bson.M{}
	if len(f.Roles) > 0 {
		q["role"] = bson.M{"$in": f.Roles}
	}
	if f.Approved != nil {
		q["isApproved"] = *f.Approved
	}
	if f.Blocked != nil {
		q["isBlocked"] = *f.Blocked
	}
	return r.coll.find(ctx, q)
}

func (r *users) Save(ctx context.Context, u *models.User) error {
	return r.coll.replace(ctx, u.ID, u)
}

func (r *users) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.coll.delete(ctx, id)
}

type reports struct{ coll collection[models.Report] }

func (r *reports) Create(ctx context.Context, rep *models.Report) error {
	return r.coll.insert(ctx, rep)
}

func (r *reports) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	return r.coll.findOne(ctx, bson.M{"_id": id})
}

func (r *reports) List(ctx context.Context, f store.ReportFilter) ([]models.Report, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Severity != "" {
		q["severity"] = f.Severity
	}
	if f.Reporter != nil {
		q["reporter"] = *f.Reporter
	}
	if f.AssignedTo != nil {
		q["assignedTo"] = *f.AssignedTo
	}
	if f.Participant != nil {
		q["$or"] = []bson.M{{"reporter": *f.Participant}, {"assignedTo": *f.Participant}}
	}
	return r.coll.find(ctx, q)
}

func (r *reports) Save(ctx context.Context, rep *models.Report) error {
	return r.coll.replace(ctx, rep.ID, rep)
}

func (r *reports) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.coll.delete(ctx, id)
}

func (r *reports) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.coll.countByStatus(ctx)
}

type helpRequests struct{ coll collection[models.HelpRequest] }

func (r *helpRequests) Create(ctx context.Context, h *models.HelpRequest) error {
	return r.coll.insert(ctx, h)
}

func (r *helpRequests) FindByID(ctx context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	return r.coll.findOne(ctx, bson.M{"_id": id})
}

func (r *helpRequests) List(ctx context.Context, f store.HelpRequestFilter) ([]models.HelpRequest, error) {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.RequestedBy != nil {
		q["requestedBy"] = *f.RequestedBy
	}
	if f.AssignedTo != nil {
		q["assignedTo"] = *f.AssignedTo
	}
	if f.Participant != nil {
		q["$or"] = []bson.M{{"requestedBy": *f.Participant}, {"assignedTo": *f.Participant}}
	}
	return r.coll.find(ctx, q)
}

func (r *helpRequests) Save(ctx context.Context, h *models.HelpRequest) error {
	return r.coll.replace(ctx, h.ID, h)
}

func (r *helpRequests) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.coll.delete(ctx, id)
}

func (r *helpRequests) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return r.coll.countByStatus(ctx)
}

type volunteers struct{ coll collection[models.Volunteer] }

func (r *volunteers) Create(ctx context.Context, v *models.Volunteer) error {
	return r.coll.insert(ctx, v)
}

func (r *volunteers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Volunteer, error) {
	return r.coll.findOne(ctx, bson.M{"_id": id})
}

func (r *volunteers) List(ctx context.Context, f store.VolunteerFilter) ([]models.Volunteer, error) {
	q := bson.M{}
	if f.Skill != "" {
		// matches any element of the skills array, case-insensitive
		q["skills"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Skill) + "$", "$options": "i"}
	}
	if f.Availability != "" {
		q["availability"] = f.Availability
	}
	return r.coll.find(ctx, q)
}

func (r *volunteers) Save(ctx context.Context, v *models.Volunteer) error {
	return r.coll.replace(ctx, v.ID, v)
}

func (r *volunteers) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.coll.delete(ctx, id)
}
