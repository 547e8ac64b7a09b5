package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/reliefnet-api/internal/models"
	"github.com/harentsoaR/reliefnet-api/internal/realtime"
)

func waterRequest() map[string]any {
	return map[string]any{
		"type":        "Water",
		"description": "Village well is contaminated",
		"location":    map[string]any{"latitude": -18.9, "longitude": 47.5, "address": "Ambohidratrimo"},
		"quantity":    200,
		"unit":        "liters",
		"contactInfo": "+261 34 00 000 00",
	}
}

func TestCreateHelpRequest(t *testing.T) {
	api := newTestAPI(t)
	u, token := api.addUser("alice", models.RolePublic)

	w := api.do(http.MethodPost, "/api/help-requests", token, waterRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	hr := decode[models.HelpRequestView](t, w)
	assert.Equal(t, models.HelpPending, hr.Status)
	assert.Equal(t, u.ID, hr.RequestedBy.ID)
	require.NotNil(t, hr.Quantity)
	assert.Equal(t, 200.0, *hr.Quantity)
	assert.Equal(t, "Ambohidratrimo", hr.Location.Address)
	assert.Len(t, api.events.named(realtime.NewHelpRequest), 1)

	body := waterRequest()
	delete(body, "contactInfo")
	w = api.do(http.MethodPost, "/api/help-requests", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = waterRequest()
	body["contactInfo"] = "  "
	w = api.do(http.MethodPost, "/api/help-requests", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = waterRequest()
	body["description"] = "\t\n"
	w = api.do(http.MethodPost, "/api/help-requests", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = waterRequest()
	body["type"] = "Pizza"
	w = api.do(http.MethodPost, "/api/help-requests", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = waterRequest()
	body["quantity"] = -1
	w = api.do(http.MethodPost, "/api/help-requests", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 1, api.events.count())
}

func TestHelpRequestWorkflow(t *testing.T) {
	api := newTestAPI(t)
	_, alice := api.addUser("alice", models.RolePublic)
	_, admin := api.addUser("admin", models.RoleAdmin)
	ngo, ngoToken := api.addUser("redcross", models.RoleNGO)
	blocked, _ := api.addUser("gone", models.RoleNGO, func(u *models.User) { u.IsBlocked = true })

	w := api.do(http.MethodPost, "/api/help-requests", alice, waterRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/api/help-requests/" + decode[models.HelpRequestView](t, w).ID.Hex()

	// help requests have no Assigned status
	w = api.do(http.MethodPut, path+"/status", admin, map[string]string{"status": "Assigned"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, path+"/assign", admin, map[string]string{"assignedTo": blocked.ID.Hex()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, path+"/assign", admin, map[string]string{"assignedTo": ngo.ID.Hex()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[models.HelpRequestView](t, w)
	assert.Equal(t, models.HelpInProgress, got.Status)
	assert.Equal(t, ngo.ID, got.AssignedTo.ID)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, ngoToken, nil).Code)
	assert.Len(t, decode[[]models.HelpRequestView](t, api.do(http.MethodGet, "/api/help-requests", ngoToken, nil)), 1)

	w = api.do(http.MethodPut, path+"/status", ngoToken, map[string]string{"status": "Cancelled"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPut, path+"/status", ngoToken, map[string]string{"status": "Assigned"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, path+"/status", ngoToken, map[string]string{"status": "Fulfilled"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.HelpFulfilled, decode[models.HelpRequestView](t, w).Status)

	// unassigning a request that is no longer In Progress keeps its status
	w = api.do(http.MethodPut, path, admin, map[string]any{"assignedTo": ""})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[models.HelpRequestView](t, w)
	assert.Equal(t, models.HelpFulfilled, got.Status)
	assert.Nil(t, got.AssignedTo)

	assert.Len(t, api.events.named(realtime.HelpRequestUpdated), 3)

	w = api.do(http.MethodGet, "/api/help-requests/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), stats["total"])

	w = api.do(http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := api.events.named(realtime.HelpRequestDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, realtime.Deleted{ID: got.ID.Hex()}, deleted[0].Data)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, admin, nil).Code)
}
