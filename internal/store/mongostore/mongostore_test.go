package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/store"
)

// openTestStore needs a running MongoDB; set MONGO_URI to enable. Every
// call gets its own database, dropped when the test ends.
func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	db := client.Database("reliefnet_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return New(ctx, db, zap.NewNop())
}

func TestMongoUsers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ana := &models.User{ID: primitive.NewObjectID(), Username: "ana", Role: models.RolePublic, IsApproved: true}
	require.NoError(t, s.Users.Create(ctx, ana))
	require.ErrorIs(t, s.Users.Create(ctx, &models.User{ID: primitive.NewObjectID(), Username: "ana"}), store.ErrDuplicate)

	bob := &models.User{ID: primitive.NewObjectID(), Username: "bob", Role: models.RoleNGO}
	require.NoError(t, s.Users.Create(ctx, bob))
	bob.Username = "ana"
	require.ErrorIs(t, s.Users.Save(ctx, bob), store.ErrDuplicate)

	got, err := s.Users.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)
	_, err = s.Users.FindByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	approved := false
	pending, err := s.Users.List(ctx, store.UserFilter{Approved: &approved})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.ID, pending[0].ID)

	missing := primitive.NewObjectID()
	_, err = s.Users.FindByID(ctx, missing)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users.Save(ctx, &models.User{ID: missing, Username: "ghost"}), store.ErrNotFound)
	require.ErrorIs(t, s.Users.Delete(ctx, missing), store.ErrNotFound)

	require.NoError(t, s.Users.Delete(ctx, ana.ID))
	_, err = s.Users.FindByID(ctx, ana.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMongoReports(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	mine := &models.Report{ID: primitive.NewObjectID(), Type: models.ReportFire, Reporter: alice, Status: models.ReportPending, Images: []string{}, CreatedAt: base}
	assigned := &models.Report{ID: primitive.NewObjectID(), Type: models.ReportFlood, Reporter: bob, AssignedTo: &alice, Status: models.ReportAssigned, Images: []string{}, CreatedAt: base.Add(time.Second)}
	other := &models.Report{ID: primitive.NewObjectID(), Type: models.ReportFire, Reporter: bob, Status: models.ReportPending, Images: []string{}, CreatedAt: base.Add(2 * time.Second)}
	for _, r := range []*models.Report{mine, assigned, other} {
		require.NoError(t, s.Reports.Create(ctx, r))
	}

	got, err := s.Reports.List(ctx, store.ReportFilter{Participant: &alice})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	assert.Equal(t, assigned.ID, got[0].ID)
	assert.Equal(t, mine.ID, got[1].ID)

	got, err = s.Reports.List(ctx, store.ReportFilter{Participant: &alice, Status: models.ReportPending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)

	got, err = s.Reports.List(ctx, store.ReportFilter{Type: models.ReportFire})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	counts, err := s.Reports.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{string(models.ReportPending): 2, string(models.ReportAssigned): 1}, counts)

	assigned.AssignedTo = nil
	assigned.Status = models.ReportPending
	require.NoError(t, s.Reports.Save(ctx, assigned))
	stored, err := s.Reports.FindByID(ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
	assert.Equal(t, models.ReportPending, stored.Status)

	missing := primitive.NewObjectID()
	require.ErrorIs(t, s.Reports.Save(ctx, &models.Report{ID: missing}), store.ErrNotFound)
	require.ErrorIs(t, s.Reports.Delete(ctx, missing), store.ErrNotFound)
	require.NoError(t, s.Reports.Delete(ctx, other.ID))
	require.ErrorIs(t, s.Reports.Delete(ctx, other.ID), store.ErrNotFound)
}

func TestMongoHelpRequests(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	requester, ngo := primitive.NewObjectID(), primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)
	water := &models.HelpRequest{ID: primitive.NewObjectID(), Type: models.HelpWater, RequestedBy: requester, Status: models.HelpPending, CreatedAt: base}
	food := &models.HelpRequest{ID: primitive.NewObjectID(), Type: models.HelpFood, RequestedBy: primitive.NewObjectID(), AssignedTo: &ngo, Status: models.HelpInProgress, CreatedAt: base.Add(time.Second)}
	for _, hr := range []*models.HelpRequest{water, food} {
		require.NoError(t, s.HelpRequests.Create(ctx, hr))
	}

	got, err := s.HelpRequests.List(ctx, store.HelpRequestFilter{Participant: &ngo})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, food.ID, got[0].ID)

	got, err = s.HelpRequests.List(ctx, store.HelpRequestFilter{Participant: &requester})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, water.ID, got[0].ID)

	got, err = s.HelpRequests.List(ctx, store.HelpRequestFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	counts, err := s.HelpRequests.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[string(models.HelpPending)])
	assert.Equal(t, int64(1), counts[string(models.HelpInProgress)])
	assert.Zero(t, counts[string(models.HelpFulfilled)])

	require.ErrorIs(t, s.HelpRequests.Delete(ctx, primitive.NewObjectID()), store.ErrNotFound)
}

func TestMongoVolunteerSkillFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	medic := &models.Volunteer{ID: primitive.NewObjectID(), Name: "Hery", Skills: []string{"First Aid", "Driving"}, Availability: models.Available}
	cook := &models.Volunteer{ID: primitive.NewObjectID(), Name: "Lala", Skills: []string{"Cooking"}, Availability: models.Busy}
	// regex metacharacters in a skill must not widen the match
	dotted := &models.Volunteer{ID: primitive.NewObjectID(), Name: "Soa", Skills: []string{"First.Aid"}, Availability: models.Available}
	for _, v := range []*models.Volunteer{medic, cook, dotted} {
		require.NoError(t, s.Volunteers.Create(ctx, v))
	}

	got, err := s.Volunteers.List(ctx, store.VolunteerFilter{Skill: "first aid"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, medic.ID, got[0].ID)

	got, err = s.Volunteers.List(ctx, store.VolunteerFilter{Skill: "first"})
	require.NoError(t, err)
	assert.Empty(t, got, "skills match whole values only")

	got, err = s.Volunteers.List(ctx, store.VolunteerFilter{Skill: "First.Aid"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, dotted.ID, got[0].ID)

	got, err = s.Volunteers.List(ctx, store.VolunteerFilter{Availability: models.Busy})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cook.ID, got[0].ID)
}
