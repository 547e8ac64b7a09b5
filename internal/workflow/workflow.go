// Package workflow holds the status/assignment state machine shared by
// Reports and HelpRequests. It performs no I/O: callers resolve the
// assignee beforehand and persist the returned state themselves.
package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/harentsoaR/reliefnet-api/internal/models"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidAssignee = errors.New("invalid assignee")
)

// TransitionError wraps one of the sentinel errors above with a reason.
type TransitionError struct {
	Kind   error
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *TransitionError) Unwrap() error { return e.Kind }

func reject(kind error, format string, args ...any) *TransitionError {
	return &TransitionError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Rules is the transition table of one entity.
type Rules[S ~string] struct {
	Statuses []S
	// Initial is the status of new records and the target of auto-revert.
	Initial S
	// Assigned is the status reached automatically on assignment.
	Assigned S
	// AutoAdvanceFrom lists the statuses that advance to Assigned when an
	// assignee is set without an explicit status.
	AutoAdvanceFrom []S
	// AssigneeAllowed lists the statuses a non-Admin assignee may set.
	AssigneeAllowed []S
}

// State is the part of a record the workflow governs.
type State[S ~string] struct {
	Status     S
	AssigneeID string // empty when unassigned
	AdminNotes string
}

type Actor struct {
	ID   string
	Role models.Role
}

// Assignee is a resolved candidate for assignment.
type Assignee struct {
	ID       string
	Role     models.Role
	Approved bool
	Blocked  bool
}

// Change is a requested mutation. Nil fields are left untouched.
type Change[S ~string] struct {
	Status     *S
	Assignee   *Assignee
	Unassign   bool
	AdminNotes *string
}

// Empty reports whether the change requests nothing.
func (c Change[S]) Empty() bool {
	return c.Status == nil && c.Assignee == nil && !c.Unassign && c.AdminNotes == nil
}

// Valid reports whether s is a member of the entity's status set.
func (r *Rules[S]) Valid(s S) bool {
	return slices.Contains(r.Statuses, s)
}

// Apply validates ch against the current state and the actor's role and
// returns the resulting state.
func (r *Rules[S]) Apply(cur State[S], actor Actor, ch Change[S]) (State[S], error) {
	if ch.Assignee != nil && ch.Unassign {
		return cur, reject(ErrInvalidAssignee, "cannot assign and unassign in one change")
	}

	if actor.Role != models.RoleAdmin {
		if ch.Assignee != nil || ch.Unassign {
			return cur, reject(ErrForbidden, "only admins can change the assignee")
		}
		if ch.AdminNotes != nil {
			return cur, reject(ErrForbidden, "only admins can edit admin notes")
		}
		if ch.Status != nil {
			if cur.AssigneeID == "" || cur.AssigneeID != actor.ID {
				return cur, reject(ErrForbidden, "only the assignee can update the status")
			}
			if !slices.Contains(r.AssigneeAllowed, *ch.Status) {
				return cur, reject(ErrForbidden, "status %q can only be set by an admin", *ch.Status)
			}
		}
	}
	// Non-Admins were already held to AssigneeAllowed above.
	if ch.Status != nil && !r.Valid(*ch.Status) {
		return cur, reject(ErrInvalidStatus, "unknown status %q", *ch.Status)
	}

	next := cur
	switch {
	case ch.Assignee != nil:
		a := ch.Assignee
		if !a.Role.CanBeAssigned() {
			return cur, reject(ErrInvalidAssignee, "assignee must be a Volunteer or NGO, got %s", a.Role)
		}
		if !a.Approved {
			return cur, reject(ErrInvalidAssignee, "assignee is not approved")
		}
		if a.Blocked {
			return cur, reject(ErrInvalidAssignee, "assignee is blocked")
		}
		next.AssigneeID = a.ID
		if ch.Status == nil && slices.Contains(r.AutoAdvanceFrom, cur.Status) {
			next.Status = r.Assigned
		}
	case ch.Unassign:
		next.AssigneeID = ""
		if ch.Status == nil && cur.AssigneeID != "" && cur.Status == r.Assigned {
			next.Status = r.Initial
		}
	}

	if ch.Status != nil {
		next.Status = *ch.Status
	}
	if ch.AdminNotes != nil {
		next.AdminNotes = *ch.AdminNotes
	}
	return next, nil
}

var ReportRules = &Rules[models.ReportStatus]{
	Statuses:        models.ReportStatuses,
	Initial:         models.ReportPending,
	Assigned:        models.ReportAssigned,
	AutoAdvanceFrom: []models.ReportStatus{models.ReportPending, models.ReportReceived},
	AssigneeAllowed: []models.ReportStatus{
		models.ReportReceived, models.ReportInProgress, models.ReportResolved, models.ReportClosed,
	},
}

var HelpRequestRules = &Rules[models.HelpStatus]{
	Statuses:        models.HelpStatuses,
	Initial:         models.HelpPending,
	Assigned:        models.HelpInProgress,
	AutoAdvanceFrom: []models.HelpStatus{models.HelpPending, models.HelpReceived},
	AssigneeAllowed: []models.HelpStatus{
		models.HelpReceived, models.HelpInProgress, models.HelpFulfilled,
	},
}
