package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waversurfing/waver-api/internal/dto"
	"github.com/waversurfing/waver-api/internal/friendship"
	"github.com/waversurfing/waver-api/internal/services"
	"github.com/waversurfing/waver-api/internal/submission"
	"github.com/waversurfing/waver-api/internal/validation"
)

// asUser stands in for the JWT middleware.
func asUser(id uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": id.String(), "email": "kelly@example.com"}})
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

type stubReports struct {
	ReportService
	create func(uuid.UUID, *dto.CreateReportRequest) (*dto.ReportResponse, error)
}

func (s stubReports) Create(_ context.Context, userID uuid.UUID, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	return s.create(userID, req)
}

func (s stubReports) CanSubmit(context.Context, uuid.UUID) submission.Decision {
	next := time.Now().Add(90 * time.Second)
	return submission.Decision{Allowed: false, Remaining: 90 * time.Second, NextAt: &next}
}

const validReport = `{"spot_id":"9b2f4d52-3c1e-4b8a-9d0a-6a1f2f0f6c11","rating":2,"height":3,"crowd":1}`

func TestCreateReportCooldown(t *testing.T) {
	userID := uuid.New()
	h := NewReportHandler(stubReports{create: func(uuid.UUID, *dto.CreateReportRequest) (*dto.ReportResponse, error) {
		return nil, &services.CooldownError{Decision: submission.Decision{Remaining: 12*time.Minute + 500*time.Millisecond}}
	}}, validation.New())

	app := fiber.New()
	app.Post("/reports", asUser(userID), h.Create)

	resp, body := doJSON(t, app, "POST", "/reports", validReport)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "721", resp.Header.Get("Retry-After"))
	assert.Equal(t, 721.0, body["retry_after"])
	assert.Equal(t, true, body["error"])
}

func TestCreateReportContentRejected(t *testing.T) {
	h := NewReportHandler(stubReports{create: func(uuid.UUID, *dto.CreateReportRequest) (*dto.ReportResponse, error) {
		return nil, &services.ContentRejectedError{Reason: "url_not_allowed", Message: "Links are not allowed"}
	}}, validation.New())

	app := fiber.New()
	app.Post("/reports", asUser(uuid.New()), h.Create)

	resp, body := doJSON(t, app, "POST", "/reports", validReport)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Links are not allowed", body["message"])
}

func TestCreateReportValidation(t *testing.T) {
	called := false
	h := NewReportHandler(stubReports{create: func(uuid.UUID, *dto.CreateReportRequest) (*dto.ReportResponse, error) {
		called = true
		return &dto.ReportResponse{}, nil
	}}, validation.New())

	app := fiber.New()
	app.Post("/reports", asUser(uuid.New()), h.Create)

	resp, body := doJSON(t, app, "POST", "/reports", `{"spot_id":"9b2f4d52-3c1e-4b8a-9d0a-6a1f2f0f6c11","rating":4,"height":3}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, called)

	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "crowd")
}

func TestCreateReportAcceptsZeroValues(t *testing.T) {
	var got *dto.CreateReportRequest
	h := NewReportHandler(stubReports{create: func(_ uuid.UUID, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
		got = req
		return &dto.ReportResponse{Rating: *req.Rating}, nil
	}}, validation.New())

	app := fiber.New()
	app.Post("/reports", asUser(uuid.New()), h.Create)

	resp, _ := doJSON(t, app, "POST", "/reports", `{"spot_id":"9b2f4d52-3c1e-4b8a-9d0a-6a1f2f0f6c11","rating":0,"height":0,"crowd":0}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotNil(t, got)
	assert.Equal(t, 0, *got.Rating)
}

func TestCreateReportRequiresUser(t *testing.T) {
	h := NewReportHandler(stubReports{}, validation.New())

	app := fiber.New()
	app.Post("/reports", h.Create)

	resp, _ := doJSON(t, app, "POST", "/reports", validReport)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCanSubmit(t *testing.T) {
	h := NewReportHandler(stubReports{}, validation.New())

	app := fiber.New()
	app.Get("/reports/can-submit", asUser(uuid.New()), h.CanSubmit)

	resp, body := doJSON(t, app, "GET", "/reports/can-submit", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, 90.0, body["retry_after"])
}

type stubFriends struct {
	FriendService
	accept func(me, other uuid.UUID) error
}

func (s stubFriends) Accept(_ context.Context, me, other uuid.UUID) error { return s.accept(me, other) }

func TestFriendAcceptInvalidTransition(t *testing.T) {
	h := NewFriendHandler(stubFriends{accept: func(uuid.UUID, uuid.UUID) error {
		return friendship.ErrInvalidTransition
	}})

	app := fiber.New()
	app.Post("/friends/:user_id/accept", asUser(uuid.New()), h.Accept)

	resp, _ := doJSON(t, app, "POST", "/friends/"+uuid.NewString()+"/accept", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestFriendAccept(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	var gotMe, gotOther uuid.UUID
	h := NewFriendHandler(stubFriends{accept: func(a, b uuid.UUID) error {
		gotMe, gotOther = a, b
		return nil
	}})

	app := fiber.New()
	app.Post("/friends/:user_id/accept", asUser(me), h.Accept)

	resp, body := doJSON(t, app, "POST", "/friends/"+other.String()+"/accept", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(friendship.Friends), body["status"])
	assert.Equal(t, me, gotMe)
	assert.Equal(t, other, gotOther)
}

func TestFriendBadUserID(t *testing.T) {
	h := NewFriendHandler(stubFriends{})

	app := fiber.New()
	app.Post("/friends/:user_id/accept", asUser(uuid.New()), h.Accept)

	resp, _ := doJSON(t, app, "POST", "/friends/not-a-uuid/accept", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

type stubAuth struct {
	AuthService
	forgot func(email string) error
}

func (s stubAuth) ForgotPassword(_ context.Context, email string) error { return s.forgot(email) }

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(stubAuth{}, validation.New())

	app := fiber.New()
	app.Post("/auth/register", h.Register)

	resp, body := doJSON(t, app, "POST", "/auth/register", `{"email":"not-an-email","password":"short","username":"a"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 3)
}

func TestForgotPasswordHidesAccountExistence(t *testing.T) {
	h := NewAuthHandler(stubAuth{forgot: func(string) error { return services.ErrUserNotFound }}, validation.New())

	app := fiber.New()
	app.Post("/auth/password/forgot", h.ForgotPassword)

	resp, _ := doJSON(t, app, "POST", "/auth/password/forgot", `{"email":"nobody@example.com"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthDegraded(t *testing.T) {
	h := NewHealthHandler(
		func(context.Context) error { return assert.AnError },
		nil,
	)

	app := fiber.New()
	app.Get("/health", h.Check)

	resp, body := doJSON(t, app, "GET", "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disabled", body["cache"])
}

func TestPagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		limit, offset := pagination(c)
		return c.JSON(fiber.Map{"limit": limit, "offset": offset})
	})

	_, body := doJSON(t, app, "GET", "/?limit=500&offset=-3", "")
	assert.Equal(t, float64(maxLimit), body["limit"])
	assert.Equal(t, 0.0, body["offset"])

	_, body = doJSON(t, app, "GET", "/", "")
	assert.Equal(t, float64(defaultLimit), body["limit"])
}

func TestLocationFallsBackToUTC(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(location(c).String()) })

	for query, want := range map[string]string{
		"":                     "UTC",
		"?tz=Not/AZone":        "UTC",
		"?tz=Pacific/Honolulu": "Pacific/Honolulu",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		assert.Equal(t, want, string(raw))
	}
}

type stubSpotReports struct {
	SpotReports
}

func (stubSpotReports) TodayForSpot(context.Context, uuid.UUID, uuid.UUID, *time.Location) []dto.ReportResponse {
	return []dto.ReportResponse{}
}

func TestTodayReportsEmptyList(t *testing.T) {
	h := NewSpotHandler(nil, stubSpotReports{}, validation.New())

	app := fiber.New()
	app.Get("/spots/:id/reports/today", asUser(uuid.New()), h.TodayReports)

	resp, body := doJSON(t, app, "GET", "/spots/"+uuid.NewString()+"/reports/today", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	reports, ok := body["reports"].([]interface{})
	require.True(t, ok, "reports must encode as an array, not null")
	assert.Empty(t, reports)
}

type stubConfig struct {
	RemoteConfigService
}

func (stubConfig) Delete(_ context.Context, key string) error {
	if key == services.ReportCooldownKey {
		return services.ErrConfigReadOnly
	}
	return services.ErrConfigNotFound
}

func TestDeleteConfigKey(t *testing.T) {
	h := NewRemoteConfigHandler(stubConfig{}, validation.New())

	app := fiber.New()
	app.Delete("/admin/config/:key", h.DeleteConfigKey)

	resp, _ := doJSON(t, app, "DELETE", "/admin/config/"+services.ReportCooldownKey, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/admin/config/unknown", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
