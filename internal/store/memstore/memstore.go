// Package memstore is an in-process implementation of the store
// interfaces, used for local development and tests. Records are deep
// copied on the way in and out so callers never share state with it.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

// New returns an empty Store.
func New() *store.Store {
	return &store.Store{
		Users: &users{t: newTable(cloneUser, func(u *models.User) (primitive.ObjectID, time.Time) {
			return u.ID, u.CreatedAt
		})},
		Reports: &reports{t: newTable(cloneReport, func(r *models.Report) (primitive.ObjectID, time.Time) {
			return r.ID, r.CreatedAt
		})},
		HelpRequests: &helpRequests{t: newTable(cloneHelpRequest, func(h *models.HelpRequest) (primitive.ObjectID, time.Time) {
			return h.ID, h.CreatedAt
		})},
		Volunteers: &volunteers{t: newTable(cloneVolunteer, func(v *models.Volunteer) (primitive.ObjectID, time.Time) {
			return v.ID, v.CreatedAt
		})},
	}
}

type table[T any] struct {
	mu    sync.RWMutex
	rows  map[primitive.ObjectID]T
	clone func(T) T
	key   func(*T) (primitive.ObjectID, time.Time)
}

func newTable[T any](clone func(T) T, key func(*T) (primitive.ObjectID, time.Time)) *table[T] {
	return &table[T]{rows: make(map[primitive.ObjectID]T), clone: clone, key: key}
}

// insert stores doc unless its id exists or unique reports a conflict
// with an existing row.
func (t *table[T]) insert(doc *T, unique func(existing *T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, _ := t.key(doc)
	if _, ok := t.rows[id]; ok {
		return store.ErrDuplicate
	}
	if unique != nil {
		for _, row := range t.rows {
			if unique(&row) {
				return store.ErrDuplicate
			}
		}
	}
	t.rows[id] = t.clone(*doc)
	return nil
}

func (t *table[T]) get(id primitive.ObjectID) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := t.clone(row)
	return &out, nil
}

func (t *table[T]) first(match func(*T) bool) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.rows {
		if match(&row) {
			out := t.clone(row)
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

// list returns matching rows newest first.
func (t *table[T]) list(match func(*T) bool) []T {
	t.mu.RLock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if match(&row) {
			out = append(out, t.clone(row))
		}
	}
	t.mu.RUnlock()

	slices.SortFunc(out, func(a, b T) int {
		aid, at := t.key(&a)
		bid, bt := t.key(&b)
		if c := bt.Compare(at); c != 0 {
			return c
		}
		return strings.Compare(bid.Hex(), aid.Hex())
	})
	return out
}

func (t *table[T]) replace(doc *T, unique func(existing *T) bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, _ := t.key(doc)
	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	if unique != nil {
		for rid, row := range t.rows {
			if rid != id && unique(&row) {
				return store.ErrDuplicate
			}
		}
	}
	t.rows[id] = t.clone(*doc)
	return nil
}

func (t *table[T]) remove(id primitive.ObjectID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T]) countBy(field func(*T) string) map[string]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int64)
	for _, row := range t.rows {
		counts[field(&row)]++
	}
	return counts
}

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneUser(u models.User) models.User { return u }

func cloneReport(r models.Report) models.Report {
	r.Images = slices.Clone(r.Images)
	r.AssignedTo = cloneID(r.AssignedTo)
	return r
}

func cloneHelpRequest(h models.HelpRequest) models.HelpRequest {
	h.AssignedTo = cloneID(h.AssignedTo)
	if h.Quantity != nil {
		q := *h.Quantity
		h.Quantity = &q
	}
	return h
}

func cloneVolunteer(v models.Volunteer) models.Volunteer {
	v.Skills = slices.Clone(v.Skills)
	if v.Location != nil {
		l := *v.Location
		v.Location = &l
	}
	return v
}

func sameID(a *primitive.ObjectID, b primitive.ObjectID) bool {
	return a != nil && *a == b
}

type users struct{ t *table[models.User] }

func (r *users) Create(_ context.Context, u *models.User) error {
	return r.t.insert(u, func(e *models.User) bool { return e.Username == u.Username })
}

func (r *users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.t.get(id)
}

func (r *users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.t.first(func(u *models.User) bool { return u.Username == username })
}

func (r *users) List(_ context.Context, f store.UserFilter) ([]models.User, error) {
	return r.t.list(func(u *models.User) bool {
		if len(f.Roles) > 0 && !slices.Contains(f.Roles, u.Role) {
			return false
		}
		if f.Approved != nil && u.IsApproved != *f.Approved {
			return false
		}
		if f.Blocked != nil && u.IsBlocked != *f.Blocked {
			return false
		}
		return true
	}), nil
}

func (r *users) Save(_ context.Context, u *models.User) error {
	return r.t.replace(u, func(e *models.User) bool { return e.Username == u.Username })
}

func (r *users) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.t.remove(id)
}

type reports struct{ t *table[models.Report] }

func (r *reports) Create(_ context.Context, rep *models.Report) error {
	return r.t.insert(rep, nil)
}

func (r *reports) FindByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	return r.t.get(id)
}

func (r *reports) List(_ context.Context, f store.ReportFilter) ([]models.Report, error) {
	return r.t.list(func(rep *models.Report) bool {
		switch {
		case f.Status != "" && rep.Status != f.Status,
			f.Type != "" && rep.Type != f.Type,
			f.Severity != "" && rep.Severity != f.Severity,
			f.Reporter != nil && rep.Reporter != *f.Reporter,
			f.AssignedTo != nil && !sameID(rep.AssignedTo, *f.AssignedTo):
			return false
		}
		if f.Participant != nil {
			return rep.Reporter == *f.Participant || sameID(rep.AssignedTo, *f.Participant)
		}
		return true
	}), nil
}

func (r *reports) Save(_ context.Context, rep *models.Report) error {
	return r.t.replace(rep, nil)
}

func (r *reports) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.t.remove(id)
}

func (r *reports) CountByStatus(_ context.Context) (map[string]int64, error) {
	return r.t.countBy(func(rep *models.Report) string { return string(rep.Status) }), nil
}

type helpRequests struct{ t *table[models.HelpRequest] }

func (r *helpRequests) Create(_ context.Context, h *models.HelpRequest) error {
	return r.t.insert(h, nil)
}

func (r *helpRequests) FindByID(_ context.Context, id primitive.ObjectID) (*models.HelpRequest, error) {
	return r.t.get(id)
}

func (r *helpRequests) List(_ context.Context, f store.HelpRequestFilter) ([]models.HelpRequest, error) {
	return r.t.list(func(h *models.HelpRequest) bool {
		switch {
		case f.Status != "" && h.Status != f.Status,
			f.Type != "" && h.Type != f.Type,
			f.RequestedBy != nil && h.RequestedBy != *f.RequestedBy,
			f.AssignedTo != nil && !sameID(h.AssignedTo, *f.AssignedTo):
			return false
		}
		if f.Participant != nil {
			return h.RequestedBy == *f.Participant || sameID(h.AssignedTo, *f.Participant)
		}
		return true
	}), nil
}

func (r *helpRequests) Save(_ context.Context, h *models.HelpRequest) error {
	return r.t.replace(h, nil)
}

func (r *helpRequests) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.t.remove(id)
}

func (r *helpRequests) CountByStatus(_ context.Context) (map[string]int64, error) {
	return r.t.countBy(func(h *models.HelpRequest) string { return string(h.Status) }), nil
}

type volunteers struct{ t *table[models.Volunteer] }

func (r *volunteers) Create(_ context.Context, v *models.Volunteer) error {
	return r.t.insert(v, nil)
}

func (r *volunteers) FindByID(_ context.Context, id primitive.ObjectID) (*models.Volunteer, error) {
	return r.t.get(id)
}

func (r *volunteers) List(_ context.Context, f store.VolunteerFilter) ([]models.Volunteer, error) {
	return r.t.list(func(v *models.Volunteer) bool {
		if f.Availability != "" && v.Availability != f.Availability {
			return false
		}
		if f.Skill != "" {
			return slices.ContainsFunc(v.Skills, func(s string) bool { return strings.EqualFold(s, f.Skill) })
		}
		return true
	}), nil
}

func (r *volunteers) Save(_ context.Context, v *models.Volunteer) error {
	return r.t.replace(v, nil)
}

func (r *volunteers) Delete(_ context.Context, id primitive.ObjectID) error {
	return r.t.remove(id)
}
