package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/service"
)

type testServer struct {
	app     *fiber.App
	mock    pgxmock.PgxPoolIface
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, checks ...handlers.DependencyCheck) *testServer {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	base := service.Base{Audit: repository.NewAuditRepository(mock), Logger: logger}

	users := repository.NewUserRepository(mock)
	areas := repository.NewAreaRepository(mock)
	tickets := repository.NewTicketRepository(mock)
	slas := repository.NewSLARepository(mock)
	workflows := repository.NewWorkflowRepository(mock)

	userSvc := service.NewUserService(config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		service.UserDependencies{Base: base, UserRepo: users})
	areaSvc := service.NewAreaService(service.AreaDependencies{Base: base, AreaRepo: areas, TicketRepo: tickets})
	slaSvc := service.NewSLAService(service.SLADependencies{Base: base, AreaRepo: areas, SLARepo: slas})
	workflowSvc := service.NewWorkflowService(service.WorkflowDependencies{Base: base, AreaRepo: areas, WorkflowRepo: workflows})
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		Base:         base,
		TicketRepo:   tickets,
		AreaRepo:     areas,
		SLARepo:      slas,
		WorkflowRepo: workflows,
	})

	app := NewApp("servicedesk-test")
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("servicedesk", "test", metrics, checks...),
		Users:          handlers.NewUsersHandler(userSvc),
		Areas:          handlers.NewAreasHandler(areaSvc, slaSvc),
		Workflows:      handlers.NewWorkflowsHandler(workflowSvc),
		Tickets:        handlers.NewTicketsHandler(ticketSvc),
		Reports:        handlers.NewReportsHandler(service.NewMetricsService(base, tickets)),
		AuthMiddleware: auth.NewAuthMiddleware(userSvc.TokenManager(), users),
	})
	return &testServer{app: app, mock: mock, tokens: userSvc.TokenManager(), metrics: metrics}
}

// expectUser makes the auth middleware find an active user with role.
func (s *testServer) expectUser(id string, role domain.Role) {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery("FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "active", "created_at", "updated_at"}).
			AddRow(id, "Test User", id+"@hospital.org", "hash", role, true, now, now))
}

func (s *testServer) bearer(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(id, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, sonic.Unmarshal(raw, &body))
	}
	return resp.StatusCode, body
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t,
		handlers.DependencyCheck{Name: "postgres", Ping: func(context.Context) error { return nil }},
		handlers.DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
	)

	status, body := srv.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = srv.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))

	snap := srv.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/health/live|GET|200"])
	assert.Equal(t, int64(1), snap.Requests["/health/ready|GET|503"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(`{"title":"x","area_id":"a"}`))
	req.Header.Set("Content-Type", "application/json")
	status, body := srv.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestAdminRouteRejectsRequester(t *testing.T) {
	srv := newTestServer(t)
	srv.expectUser("requester-1", domain.RoleRequester)

	req := httptest.NewRequest(http.MethodPost, "/areas", strings.NewReader(`{"name":"Radiology"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", srv.bearer(t, "requester-1", domain.RoleRequester))
	status, _ := srv.do(t, req)
	assert.Equal(t, http.StatusForbidden, status)
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestMissingAreaMapsToNotFound(t *testing.T) {
	srv := newTestServer(t)
	srv.expectUser("admin-1", domain.RoleAdmin)
	srv.mock.ExpectQuery("FROM areas WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/areas/missing", nil)
	req.Header.Set("Authorization", srv.bearer(t, "admin-1", domain.RoleAdmin))
	status, body := srv.do(t, req)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	details, _ := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "area", details["resource"])
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestTransitionRejectsInvalidEdge(t *testing.T) {
	srv := newTestServer(t)
	srv.expectUser("agent-1", domain.RoleAgent)

	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	target := created.Add(4 * time.Hour)
	srv.mock.ExpectQuery("FROM tickets WHERE id").
		WithArgs("ticket-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "description", "status", "priority", "requester_id", "assignee_id", "area_id",
			"resolution_summary", "created_at", "updated_at", "first_response_at", "resolved_at", "closed_at",
			"sla_target_at", "sla_breached", "version",
		}).AddRow("ticket-1", "Pump", "", domain.TicketStatusOpen, domain.TicketPriorityHigh, "requester-1", nil, "area-1",
			nil, created, created, nil, nil, nil, &target, false, 1))
	srv.mock.ExpectQuery("FROM workflows WHERE area_id").
		WithArgs("area-1").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/tickets/ticket-1/transition", strings.NewReader(`{"status":"RESOLVED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", srv.bearer(t, "agent-1", domain.RoleAgent))
	status, body := srv.do(t, req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(body))
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRequestIDIsEchoedAndReported(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

	resp, err = srv.app.Test(httptest.NewRequest(http.MethodGet, "/tickets", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	generated := resp.Header.Get(RequestIDHeader)
	assert.NotEmpty(t, generated)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, sonic.Unmarshal(raw, &body))
	assert.Equal(t, generated, body["error"].(map[string]any)["request_id"])
}

func TestTransitionOfClosedTicketReportsAlreadyClosed(t *testing.T) {
	srv := newTestServer(t)
	srv.expectUser("agent-1", domain.RoleAgent)

	created := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	closedAt := created.Add(2 * time.Hour)
	target := created.Add(4 * time.Hour)
	summary := "Replaced pump"
	srv.mock.ExpectQuery("FROM tickets WHERE id").
		WithArgs("ticket-9").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "description", "status", "priority", "requester_id", "assignee_id", "area_id",
			"resolution_summary", "created_at", "updated_at", "first_response_at", "resolved_at", "closed_at",
			"sla_target_at", "sla_breached", "version",
		}).AddRow("ticket-9", "Pump", "", domain.TicketStatusClosed, domain.TicketPriorityHigh, "requester-1", nil, "area-1",
			&summary, created, closedAt, &closedAt, &closedAt, &closedAt, &target, false, 4))
	srv.mock.ExpectQuery("FROM workflows WHERE area_id").
		WithArgs("area-1").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodPost, "/tickets/ticket-9/transition", strings.NewReader(`{"status":"LIMBO"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", srv.bearer(t, "agent-1", domain.RoleAgent))
	status, body := srv.do(t, req)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_CLOSED", errorCode(body))
	require.NoError(t, srv.mock.ExpectationsWereMet())
}
