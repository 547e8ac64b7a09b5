package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

func TestUsersUniqueUsername(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &models.User{ID: primitive.NewObjectID(), Username: "ana", Role: models.RolePublic}
	require.NoError(t, s.Users.Create(ctx, u))

	dup := &models.User{ID: primitive.NewObjectID(), Username: "ana"}
	require.ErrorIs(t, s.Users.Create(ctx, dup), store.ErrDuplicate)

	got, err := s.Users.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Users.FindByUsername(ctx, "bob")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestReportsCopyOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &models.Report{ID: primitive.NewObjectID(), Images: []string{"a.png"}, Status: models.ReportPending}
	require.NoError(t, s.Reports.Create(ctx, r))
	r.Images[0] = "mutated.png"

	got, err := s.Reports.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, got.Images)
}

func TestReportsListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now()
	mine := &models.Report{ID: primitive.NewObjectID(), Reporter: alice, Status: models.ReportPending, CreatedAt: base}
	assigned := &models.Report{ID: primitive.NewObjectID(), Reporter: bob, AssignedTo: &alice, Status: models.ReportAssigned, CreatedAt: base.Add(time.Second)}
	other := &models.Report{ID: primitive.NewObjectID(), Reporter: bob, Status: models.ReportPending, CreatedAt: base.Add(2 * time.Second)}
	for _, r := range []*models.Report{mine, assigned, other} {
		require.NoError(t, s.Reports.Create(ctx, r))
	}

	got, err := s.Reports.List(ctx, store.ReportFilter{Participant: &alice})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, assigned.ID, got[0].ID, "newest first")
	assert.Equal(t, mine.ID, got[1].ID)

	got, err = s.Reports.List(ctx, store.ReportFilter{Status: models.ReportPending})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	counts, err := s.Reports.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["Pending"])
	assert.Equal(t, int64(1), counts["Assigned"])
}

func TestDeleteMissing(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.HelpRequests.Delete(context.Background(), primitive.NewObjectID()), store.ErrNotFound)
	require.ErrorIs(t, s.Volunteers.Save(context.Background(), &models.Volunteer{ID: primitive.NewObjectID()}), store.ErrNotFound)
}

func TestVolunteerSkillFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Volunteers.Create(ctx, &models.Volunteer{ID: primitive.NewObjectID(), Name: "A", Skills: []string{"First Aid"}}))
	require.NoError(t, s.Volunteers.Create(ctx, &models.Volunteer{ID: primitive.NewObjectID(), Name: "B", Skills: []string{"Driving"}}))

	got, err := s.Volunteers.List(ctx, store.VolunteerFilter{Skill: "first aid"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
}
