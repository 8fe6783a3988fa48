// Copyright (c) 2025-2026 Bluestem Events LLC
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bluestem-events/bluestem/internal/auth"
	"github.com/bluestem-events/bluestem/internal/cache"
	"github.com/bluestem-events/bluestem/internal/geoip"
	"github.com/bluestem-events/bluestem/internal/integration"
	"github.com/bluestem-events/bluestem/internal/middleware"
	"github.com/bluestem-events/bluestem/internal/model"
	"github.com/bluestem-events/bluestem/internal/session"
	"github.com/bluestem-events/bluestem/internal/store"
	"github.com/bluestem-events/bluestem/internal/testutil"
	"github.com/bluestem-events/bluestem/internal/workflow"
)

const (
	testAdminEmail    = "admin@bluestem.events"
	testAdminPassword = "correct-horse-battery"
)

type testEnv struct {
	router  chi.Router
	queries *store.Queries
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	queries := store.New(db)
	logger := testutil.TestLoggerSilent()

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := queries.CreateAdmin(context.Background(), store.CreateAdminParams{
		Email:        testAdminEmail,
		PasswordHash: hash,
		Name:         "Test Admin",
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	sessions := session.NewManager(queries, logger, true, session.Bootstrap{})
	orch := workflow.NewOrchestrator(queries, integration.NewDisabledRegistry(), logger)
	geo, _ := geoip.Open("")
	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("rand: %v", err)
	}

	router := NewRouter(RouterConfig{
		DB:           db,
		Store:        queries,
		Cache:        mem,
		Sessions:     sessions,
		Orchestrator: orch,
		Geo:          geo,
		Protection:   middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Logger:       logger,
		SecretKey:    secret,
		IsDev:        true,
	})

	return &testEnv{router: router, queries: queries}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login authenticates the seeded admin and returns the session cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": testAdminEmail, "password": testAdminPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == model.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return body
}

func validIntake() map[string]any {
	return map[string]any{
		"firstName": "Alice",
		"lastName":  "Example",
		"email":     "alice@example.com",
		"eventType": "wedding",
		"eventDate": "2026-10-12",
		"message":   "We are planning a wedding for about 150 guests.",
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if id, ok := body["id"].(float64); !ok || id <= 0 {
		t.Errorf("id = %v", body["id"])
	}
}

func TestCreateBookingMinimalPayload(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/bookings", map[string]any{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "jane@x.com",
		"message":   "We'd like cocktails for 50 guests in July.",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if id, ok := body["id"].(float64); !ok || id <= 0 {
		t.Fatalf("id = %v", body["id"])
	}

	cookie := e.login(t)
	rec = e.do(t, http.MethodGet, "/bookings", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	rows, ok := decodeBody(t, rec)["bookings"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("bookings = %v", rows)
	}
	row := rows[0].(map[string]any)
	if row["firstName"] != "Jane" || row["lastName"] != "Doe" {
		t.Errorf("name fields = %v / %v", row["firstName"], row["lastName"])
	}
	if row["status"] != model.BookingStatusPending {
		t.Errorf("status = %v", row["status"])
	}
	for _, key := range []string{"adminNotes", "respondedAt"} {
		v, present := row[key]
		if !present {
			t.Errorf("%s missing from response", key)
		} else if v != nil {
			t.Errorf("%s = %v, want null", key, v)
		}
	}
}

func TestCreateBookingValidation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name  string
		patch func(m map[string]any)
	}{
		{"missing first name", func(m map[string]any) { m["firstName"] = "" }},
		{"missing last name", func(m map[string]any) { m["lastName"] = "" }},
		{"missing email", func(m map[string]any) { m["email"] = "" }},
		{"email without domain", func(m map[string]any) { m["email"] = "alice@" }},
		{"email without local part", func(m map[string]any) { m["email"] = "@example.com" }},
		{"short message", func(m map[string]any) { m["message"] = "hi" }},
		{"whitespace-padded short message", func(m map[string]any) { m["message"] = "   hello    " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validIntake()
			tt.patch(in)

			rec := e.do(t, http.MethodPost, "/bookings", in, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["success"] != false || body["error"] == "" {
				t.Errorf("body = %v", body)
			}
		})
	}

	// Rejected submissions persist nothing.
	bookings, err := e.queries.ListBookings(context.Background())
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(bookings) != 0 {
		t.Errorf("persisted %d bookings from invalid input", len(bookings))
	}
}

func TestCreateBookingSanitizesMessage(t *testing.T) {
	e := newTestEnv(t)

	in := validIntake()
	in["message"] = "<script>alert(1)</script> We need catering for a corporate retreat."

	rec := e.do(t, http.MethodPost, "/bookings", in, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	bookings, _ := e.queries.ListBookings(context.Background())
	if len(bookings) != 1 {
		t.Fatalf("bookings = %d", len(bookings))
	}
	if got := bookings[0].Message; bytes.Contains([]byte(got), []byte("<script>")) {
		t.Errorf("message not sanitized: %q", got)
	}
}

func TestCreateBookingWithLocation(t *testing.T) {
	e := newTestEnv(t)

	in := validIntake()
	in["location"] = "Prairie Hall, Lincoln NE"
	in["guestCount"] = 80

	rec := e.do(t, http.MethodPost, "/bookings", in, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	id := int64(decodeBody(t, rec)["id"].(float64))

	got, err := e.queries.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.Location != "Prairie Hall, Lincoln NE" {
		t.Errorf("location = %q", got.Location)
	}
	if got.GuestCount != 80 {
		t.Errorf("guest count = %d", got.GuestCount)
	}
}

func TestUpdateBookingAdminNotes(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{
		"adminNotes": "Quoted $4k, waiting on venue pick.",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	updated, err := e.queries.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if !updated.AdminNotes.Valid || updated.AdminNotes.String != "Quoted $4k, waiting on venue pick." {
		t.Errorf("admin notes = %+v", updated.AdminNotes)
	}

	// Blanking the field drops the note back to null.
	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{"adminNotes": ""}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	updated, _ = e.queries.GetBooking(context.Background(), id)
	if updated.AdminNotes.Valid {
		t.Errorf("admin notes not cleared: %+v", updated.AdminNotes)
	}
}

func TestListBookingsRequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/bookings", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestStaleSessionCookieCleared(t *testing.T) {
	e := newTestEnv(t)

	stale := &http.Cookie{Name: model.SessionCookieName, Value: "never-issued"}
	rec := e.do(t, http.MethodGet, "/bookings", nil, stale)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == model.SessionCookieName && c.MaxAge < 0 && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("stale session cookie not cleared on 401")
	}
}

func TestListBookings(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	if rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}

	rec := e.do(t, http.MethodGet, "/bookings", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	bookings, ok := body["bookings"].([]any)
	if !ok || len(bookings) != 1 {
		t.Fatalf("bookings = %v", body["bookings"])
	}
	admin, ok := body["admin"].(map[string]any)
	if !ok || admin["email"] != testAdminEmail {
		t.Errorf("admin = %v", body["admin"])
	}
}

func TestUpdateBooking(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	body := decodeBody(t, rec)
	id := int64(body["id"].(float64))

	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{
		"status":    model.BookingStatusInProgress,
		"responded": true,
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	updated, err := e.queries.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if updated.Status != model.BookingStatusInProgress {
		t.Errorf("status = %q", updated.Status)
	}
	if !updated.Responded || !updated.RespondedAt.Valid {
		t.Error("responded/responded_at not stamped")
	}

	// Clearing responded clears the timestamp.
	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{"responded": false}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	updated, _ = e.queries.GetBooking(context.Background(), id)
	if updated.Responded || updated.RespondedAt.Valid {
		t.Error("responded_at not cleared")
	}
	// Other fields untouched by the partial update.
	if updated.Status != model.BookingStatusInProgress {
		t.Errorf("status changed by unrelated patch: %q", updated.Status)
	}
}

func TestUpdateBookingInvalidStatus(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{"status": "deleted"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateBookingNotFound(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPatch, "/bookings/99999", map[string]any{"responded": true}, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestArchiveCancelsPendingTasks(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	id := int64(decodeBody(t, rec)["id"].(float64))

	// The intake fan-out schedules nurture tasks asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tasks, _ := e.queries.ListTasksForBooking(context.Background(), id)
		if len(tasks) == len(workflow.NurtureSequence) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = e.do(t, http.MethodPatch, "/bookings/"+itoa(id), map[string]any{
		"status": model.BookingStatusArchived,
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	tasks, err := e.queries.ListTasksForBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("ListTasksForBooking: %v", err)
	}
	if len(tasks) == 0 {
		t.Fatal("no tasks scheduled")
	}
	for _, task := range tasks {
		if task.Status != model.TaskStatusCancelled {
			t.Errorf("task %s status = %q, want cancelled", task.ID, task.Status)
		}
	}
}

func TestRunWorkflowEndpoint(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/bookings", validIntake(), nil)
	id := int64(decodeBody(t, rec)["id"].(float64))

	rec = e.do(t, http.MethodPost, "/contact/"+itoa(id)+"/workflow", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	result, ok := body["result"].(map[string]any)
	if !ok {
		t.Fatalf("result = %v", body["result"])
	}
	if score, ok := result["lead_score"].(float64); !ok || score <= 0 {
		t.Errorf("lead_score = %v", result["lead_score"])
	}
	if result["lead_tier"] == "" {
		t.Error("lead_tier missing")
	}
}

func TestRunWorkflowNotFound(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodPost, "/contact/424242/workflow", nil, cookie)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRunWorkflowRequiresAuth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/contact/1/workflow", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMe(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/auth/me", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["authenticated"] != false {
		t.Errorf("authenticated = %v", body["authenticated"])
	}

	cookie := e.login(t)
	rec = e.do(t, http.MethodGet, "/auth/me", nil, cookie)
	body := decodeBody(t, rec)
	if body["authenticated"] != true {
		t.Errorf("authenticated = %v", body["authenticated"])
	}
	admin, ok := body["admin"].(map[string]any)
	if !ok || admin["email"] != testAdminEmail {
		t.Errorf("admin = %v", body["admin"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email": testAdminEmail, "password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/auth/logout", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	cookie := e.login(t)
	rec = e.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after login = %d", rec.Code)
	}

	// The session is gone afterwards.
	rec = e.do(t, http.MethodGet, "/bookings", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with revoked cookie = %d, want 401", rec.Code)
	}
}

func TestEventsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	rec := e.do(t, http.MethodGet, "/admin/events", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["events"].([]any); !ok {
		t.Errorf("events = %v", body["events"])
	}

	rec = e.do(t, http.MethodGet, "/admin/events?limit=abc", nil, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public health status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}

	// The detailed health endpoint is admin only.
	rec = e.do(t, http.MethodGet, "/admin/health", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("admin health without auth = %d, want 401", rec.Code)
	}

	cookie := e.login(t)
	rec = e.do(t, http.MethodGet, "/admin/health", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin health status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["uptime"] == "" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
