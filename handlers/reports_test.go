package handlers

import (
	"testing"

	"attendance_payroll/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReport(t *testing.T) {
	app, db := setupApp(t)
	hr := hrToken(t, db)

	alice := createEmployeeRecord(t, db, "Alice Stone", 20)
	bob := createEmployeeRecord(t, db, "Bob Reyes", 10)

	seedEvent(t, db, alice.ID, models.EventSignIn, "2025-03-10T09:00:00")
	seedEvent(t, db, alice.ID, models.EventSignOut, "2025-03-10T17:00:00")
	seedEvent(t, db, bob.ID, models.EventSignIn, "2025-03-10T09:00:00")
	seedEvent(t, db, bob.ID, models.EventSignOut, "2025-03-10T13:00:00")

	resp := doRequest(t, app, "POST", "/attendance/corrections", hr, map[string]interface{}{
		"employee_id": bob.ID, "kind": "sign_out", "timestamp": "2025-03-10T13:30:00",
	})
	require.Equal(t, 201, resp.StatusCode)

	t.Run("report before generation has zero run totals", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=3", hr, nil)
		assert.Equal(t, 200, resp.StatusCode)

		data := decodeResponse(t, resp).Data.(map[string]interface{})
		assert.Equal(t, "2025-03", data["period"])
		assert.Equal(t, 2.0, data["active_employees"])
		assert.Equal(t, 5.0, data["event_count"])
		assert.Equal(t, 1.0, data["correction_count"])
		assert.Equal(t, 0.0, data["run_count"])
		assert.Equal(t, 0.0, data["total_net"])
		assert.Empty(t, data["top_hours"])
	})

	gen := doRequest(t, app, "POST", "/payroll/generate", hr, map[string]interface{}{
		"year": 2025, "month": 3,
	})
	require.Equal(t, 200, gen.StatusCode)

	t.Run("report totals cover the generated month", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=3", hr, nil)
		assert.Equal(t, 200, resp.StatusCode)

		data := decodeResponse(t, resp).Data.(map[string]interface{})
		assert.Equal(t, 2.0, data["run_count"])
		assert.Equal(t, 12.0, data["total_hours"])
		assert.Equal(t, 200.0, data["total_gross"])
		assert.Equal(t, 0.0, data["total_adjustments"])
		assert.Equal(t, 170.0, data["total_net"])

		top := data["top_hours"].([]interface{})
		require.Len(t, top, 2)
		first := top[0].(map[string]interface{})
		assert.EqualValues(t, alice.ID, first["employee_id"])
		assert.Equal(t, "Alice Stone", first["full_name"])
		assert.Equal(t, 8.0, first["total_hours"])
		assert.Equal(t, 1.0, first["rank"])
		second := top[1].(map[string]interface{})
		assert.EqualValues(t, bob.ID, second["employee_id"])
		assert.Equal(t, 2.0, second["rank"])
		t.Logf("Report: %+v", data)
	})

	t.Run("empty month reports zero activity", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=4", hr, nil)
		assert.Equal(t, 200, resp.StatusCode)

		data := decodeResponse(t, resp).Data.(map[string]interface{})
		assert.Equal(t, 2.0, data["active_employees"])
		assert.Equal(t, 0.0, data["event_count"])
		assert.Equal(t, 0.0, data["run_count"])
	})

	t.Run("invalid month is rejected", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=13", hr, nil)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("non-hr is forbidden", func(t *testing.T) {
		staff := mintToken(t, createUser(t, db, "reportpeek", "password1", false, &alice.ID))
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=3", staff, nil)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("no token is unauthorized", func(t *testing.T) {
		resp := doRequest(t, app, "GET", "/reports/monthly?year=2025&month=3", "", nil)
		assert.Equal(t, 401, resp.StatusCode)
	})
}
