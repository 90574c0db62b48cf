package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"park-ops/internal/api"
	"park-ops/internal/attendance"
	"park-ops/internal/auth"
	"park-ops/internal/history"
	"park-ops/internal/models"
	"park-ops/internal/staffimport"
	"park-ops/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2024-05-01"

type env struct {
	t       *testing.T
	store   *store.MemoryStore
	c       *store.Collections
	issuer  *auth.Issuer
	handler http.Handler
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []string        `json:"errors"`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	c := store.NewCollections(s, nil, 0)

	require.NoError(t, c.SetRides(ctx, []models.Ride{{ID: 1, Name: "Wave Swinger", Floor: "Ground"}, {ID: 2, Name: "Bumper Cars", Floor: "First"}}))
	require.NoError(t, c.SetCounters(ctx, []models.Counter{{ID: 1, Name: "Main Gate", Location: "North"}}))
	require.NoError(t, c.SetStaff(ctx, models.StaffOperator, []models.Staff{{ID: 1, Name: "Jo"}, {ID: 2, Name: "Adam"}}))
	require.NoError(t, c.SetStaff(ctx, models.StaffTicketSales, []models.Staff{{ID: 1, Name: "Priya"}}))

	h := history.NewLog(c, nil, nil)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	authn := auth.NewAuthenticator(map[models.Role]string{models.RoleAdmin: "0000"}, c, nil)
	imports := staffimport.NewManager(staffimport.NewStoreApplier(c, h, nil), 0)
	handler := api.NewHandler(s, c, h, authn, issuer, attendance.NewBadgeGenerator("badge-secret"), imports, nil)

	return &env{t: t, store: s, c: c, issuer: issuer, handler: handler.Routes()}
}

func (e *env) token(state models.SessionState) string {
	token, _, err := e.issuer.Issue(state)
	require.NoError(e.t, err)
	return token
}

func (e *env) admin() string {
	return e.token(models.SessionState{Role: models.RoleAdmin, UserName: "admin"})
}

func (e *env) operator(id int, name string) string {
	return e.token(models.SessionState{Role: models.RoleOperator, UserID: id, UserName: name})
}

func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) upload(path, token, filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestLoginAndMe(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"role": "admin", "pin": "1111"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodPost, "/api/auth/login", "", map[string]interface{}{"role": "operator", "name": "adam"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token   string              `json:"token"`
		Session models.SessionState `json:"session"`
	}
	decode(t, rec, &login)
	assert.Equal(t, 2, login.Session.UserID)

	rec = e.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.SessionState
	decode(t, rec, &me)
	assert.Equal(t, "Adam", me.UserName)

	rec = e.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogRequiresManager(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/rides", e.operator(1, "Jo"), map[string]string{"name": "Carousel"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPost, "/api/rides", e.admin(), map[string]string{"name": "Carousel", "floor": "Ground"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ride models.Ride
	decode(t, rec, &ride)
	assert.Equal(t, 3, ride.ID)

	rec = e.do(http.MethodDelete, "/api/rides/42", e.admin(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodPost, "/api/rides", e.admin(), map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRosterRestrictedToOwnRow(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.c.SetAssignments(context.Background(), models.RideAssignments, day, models.Assignments{1: {1}, 2: {2}}))

	rec := e.do(http.MethodGet, "/api/roster/operator?date="+day, e.operator(2, "Adam"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view struct {
		Staff []struct {
			Staff models.Staff `json:"staff"`
		} `json:"staff"`
	}
	decode(t, rec, &view)
	require.Len(t, view.Staff, 1)
	assert.Equal(t, "Adam", view.Staff[0].Staff.Name)

	rec = e.do(http.MethodGet, "/api/roster/operator?date=yesterday", e.admin(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveAssignmentsNormalizes(t *testing.T) {
	e := newEnv(t)
	body := map[string]interface{}{
		"date":        day,
		"assignments": map[string]interface{}{"1": 2, "2": []int{}},
	}
	rec := e.do(http.MethodPut, "/api/assignments/rides", e.admin(), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a, err := e.c.Assignments(context.Background(), models.RideAssignments, day)
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{1: {2}}, a)
}

func TestCheckInSelfOnly(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/attendance", e.operator(1, "Jo"), models.AttendanceRecord{OperatorID: 2, Date: day})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPost, "/api/attendance", e.operator(1, "Jo"), models.AttendanceRecord{OperatorID: 1, Date: day, AttendedBriefing: true, BriefingTime: "08:30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(http.MethodGet, "/api/attendance?date="+day, e.admin(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []models.AttendanceRecord
	decode(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "08:30", records[0].BriefingTime)
}

func TestBadgePNG(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/api/badges/operator/1", e.admin(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestCountsAndReset(t *testing.T) {
	e := newEnv(t)
	admin := e.admin()

	rec := e.do(http.MethodPut, "/api/counts/guests/1", admin, map[string]interface{}{"date": day, "value": 120})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, "/api/counts/guests/1/delta", admin, map[string]interface{}{"date": day, "delta": map[string]int{"tickets": 5, "packages": 3}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved struct {
		Breakdown models.CountBreakdown `json:"breakdown"`
		Total     int                   `json:"total"`
	}
	decode(t, rec, &saved)
	assert.Equal(t, models.CountBreakdown{Tickets: 125, Packages: 3}, saved.Breakdown)
	assert.Equal(t, 128, saved.Total)

	rec = e.do(http.MethodPost, "/api/counts/guests/1/delta", admin, map[string]interface{}{"date": day, "delta": map[string]int{"packages": -4}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPost, "/api/counts/guests/reset", admin, map[string]interface{}{"date": day})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodPost, "/api/counts/guests/reset", admin, map[string]interface{}{"date": day, "confirm": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/api/counts/guests?date="+day, admin, nil)
	var values map[string]int
	decode(t, rec, &values)
	assert.Empty(t, values)
}

func TestImportAssignmentsPartial(t *testing.T) {
	e := newEnv(t)
	csv := "Ride,Operator\nWave Swinger,Jo\nGhost Train,Adam\nBumper Cars,Nobody\n"

	rec := e.upload("/api/imports/assignments/rides?date="+day, e.admin(), "roster.csv", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		SuccessCount int `json:"successCount"`
	}
	env := decode(t, rec, &result)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []string{
		`Row 3: Ghost Train not found`,
		`Row 4: Nobody not found`,
	}, env.Errors)

	a, err := e.c.Assignments(context.Background(), models.RideAssignments, day)
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{1: {1}}, a)

	rec = e.upload("/api/imports/assignments/rides?date="+day, e.admin(), "roster.pdf", csv)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportAssignmentsDryRunAndMerge(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.c.SetAssignments(ctx, models.RideAssignments, day, models.Assignments{2: {2}}))
	csv := "Ride,Operator\nWave Swinger,Jo\n"

	rec := e.upload("/api/imports/assignments/rides?commit=false&date="+day, e.admin(), "roster.csv", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		SuccessCount int                `json:"successCount"`
		Assignments  models.Assignments `json:"assignments"`
	}
	decode(t, rec, &result)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, models.Assignments{1: {1}, 2: {2}}, result.Assignments)

	a, err := e.c.Assignments(ctx, models.RideAssignments, day)
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{2: {2}}, a, "dry run saves nothing")
	history, err := e.c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	// Saved between the preview and the commit.
	require.NoError(t, e.c.UpdateAssignments(ctx, models.RideAssignments, day, func(cur models.Assignments) (models.Assignments, error) {
		cur[2] = []int{1, 2}
		return cur, nil
	}))

	rec = e.upload("/api/imports/assignments/rides?date="+day, e.admin(), "roster.csv", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	a, err = e.c.Assignments(ctx, models.RideAssignments, day)
	require.NoError(t, err)
	assert.Equal(t, models.Assignments{1: {1}, 2: {1, 2}}, a)
}

func TestStaffImportReplaceNeedsConfirmation(t *testing.T) {
	e := newEnv(t)
	admin := e.admin()

	rec := e.upload("/api/imports/staff/operator", admin, "staff.csv", "Name\nMaya\nLiam\nmaya\n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		ID    string   `json:"id"`
		State string   `json:"state"`
		Names []string `json:"names"`
	}
	decode(t, rec, &session)
	assert.Equal(t, "pendingImport", session.State)
	assert.Equal(t, []string{"Maya", "Liam"}, session.Names)

	base := "/api/imports/staff/sessions/" + session.ID
	rec = e.do(http.MethodPost, base+"/confirm", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodPost, base+"/replace", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &session)
	assert.Equal(t, "awaitingReplaceConfirmation", session.State)

	staff, err := e.c.Staff(context.Background(), models.StaffOperator)
	require.NoError(t, err)
	assert.Len(t, staff, 2, "nothing changes before confirmation")

	rec = e.do(http.MethodPost, base+"/confirm", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &session)
	assert.Equal(t, "replaced", session.State)

	staff, err = e.c.Staff(context.Background(), models.StaffOperator)
	require.NoError(t, err)
	assert.Equal(t, []models.Staff{{ID: 1, Name: "Maya"}, {ID: 2, Name: "Liam"}}, staff)

	rec = e.do(http.MethodGet, base, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackupRoundTripAdminOnly(t *testing.T) {
	e := newEnv(t)

	supervisor := e.token(models.SessionState{Role: models.RoleSupervisor, UserName: "supervisor"})
	rec := e.do(http.MethodGet, "/api/backup", supervisor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodGet, "/api/backup", e.admin(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.Bytes()
	var file map[string]*string
	require.NoError(t, json.Unmarshal(exported, &file))
	require.NotNil(t, file[store.PathRides])

	req := httptest.NewRequest(http.MethodPost, "/api/backup", strings.NewReader(`{"rides":"[broken"}`))
	req.Header.Set("Authorization", "Bearer "+e.admin())
	bad := httptest.NewRecorder()
	e.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rides, err := e.c.Rides(context.Background())
	require.NoError(t, err)
	assert.Len(t, rides, 2)

	require.NoError(t, e.c.SetRides(context.Background(), nil))
	req = httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(exported))
	req.Header.Set("Authorization", "Bearer "+e.admin())
	good := httptest.NewRecorder()
	e.handler.ServeHTTP(good, req)
	require.Equal(t, http.StatusOK, good.Code, good.Body.String())

	rides, err = e.c.Rides(context.Background())
	require.NoError(t, err)
	assert.Len(t, rides, 2)
}

func TestReportCSV(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/api/reports/staff/ticketSales?format=csv", e.admin(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "staff-ticketSales.csv")
	assert.Contains(t, rec.Body.String(), "Priya")

	rec = e.do(http.MethodGet, "/api/reports/staff/operator?format=pdf", e.admin(), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamSnapshots(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream/counters?access_token="+e.admin(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	nextSnapshot := func() store.Snapshot {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"path"`) && !strings.Contains(line, "connected") {
				var snap store.Snapshot
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
				return snap
			}
		}
	}

	first := nextSnapshot()
	assert.Equal(t, store.PathCounters, first.Path)
	assert.Contains(t, string(first.Value), "Main Gate")

	require.NoError(t, e.c.SetCounters(context.Background(), []models.Counter{{ID: 2, Name: "South Gate"}}))
	second := nextSnapshot()
	assert.Contains(t, string(second.Value), "South Gate")

	rec := e.do(http.MethodGet, "/api/stream/tickets", e.admin(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamRestrictedRoles(t *testing.T) {
	e := newEnv(t)
	op := e.operator(1, "Alice")

	for _, path := range []string{store.PathHistoryLog, store.PathAttendance, store.PathPackageSales, store.PathOperatorAssignments, store.PathHandovers} {
		rec := e.do(http.MethodGet, "/api/stream/"+path, op, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}

	rec := e.do(http.MethodGet, "/api/history", op, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	srv := httptest.NewServer(e.handler)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream/rides?access_token="+op, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
