package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/app"
	"github.com/ignatzorin/lending-backend/internal/config"
	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lending-backend/internal/http/middleware"
	"github.com/ignatzorin/lending-backend/internal/http/router"
	"github.com/ignatzorin/lending-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lending-backend/internal/logger"
	"github.com/ignatzorin/lending-backend/internal/pkg/clock"
	"github.com/ignatzorin/lending-backend/internal/service"
)

var now = time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Silence()
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	clock    *clock.Fixed
	tokens   *service.TokenManager
	staff    valueobject.Actor
	borrower valueobject.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:              "test",
		AllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitLimit:   1000,
		RateLimitPeriod:  time.Minute,
		MediaStoragePath: t.TempDir(),
		Policy:           valueobject.DefaultPolicy(),
	}
	tokens := service.NewTokenManager("test-secret-0123456789abcdef0123")
	limitStore, err := middleware.NewRateLimitStore("")
	require.NoError(t, err)

	clk := clock.NewFixed(now)
	handlers := app.BuildHandlers(app.Deps{
		UoW:       memory.NewStore(),
		Clock:     clk,
		Policy:    cfg.Policy,
		PickupTTL: 30 * time.Minute,
		Tokens:    tokens,
	})

	return &testServer{
		t:        t,
		engine:   router.SetupRouter(cfg, tokens, limitStore, handlers),
		clock:    clk,
		tokens:   tokens,
		staff:    valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleStaff},
		borrower: valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower},
	}
}

// do выполняет запрос от имени actor; nil actor означает запрос без токена.
func (s *testServer) do(actor *valueobject.Actor, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		token, err := s.tokens.Issue(*actor, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) createItem() uuid.UUID {
	s.t.Helper()
	w, env := s.do(&s.staff, http.MethodPost, "/api/items", map[string]interface{}{
		"name":      "Проектор Epson",
		"category":  "av",
		"condition": "GOOD",
		"location":  "Склад 1",
		"value":     800,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var item struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &item))
	return item.ID
}

func (s *testServer) createReservation(actor valueobject.Actor, itemID uuid.UUID, start, end time.Time) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	return s.do(&actor, http.MethodPost, "/api/reservations", map[string]interface{}{
		"itemId":    itemID,
		"startDate": start,
		"endDate":   end,
		"purpose":   "конференция",
	})
}

func reservationID(t *testing.T, env envelope) uuid.UUID {
	t.Helper()
	var res struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.ID
}

func day(n int) time.Time {
	return time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * 24 * time.Hour)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAuth_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(nil, http.MethodGet, "/api/reservations", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/reservations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestItems_StaffOnlyCreate(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(&s.borrower, http.MethodPost, "/api/items", map[string]interface{}{
		"name": "Дрель", "condition": "GOOD",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	itemID := s.createItem()
	w, _ = s.do(&s.borrower, http.MethodGet, "/api/items/"+itemID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestItems_ValidationError(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(&s.staff, http.MethodPost, "/api/items", map[string]interface{}{
		"name": "Дрель", "condition": "SHINY",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), `"rule":"condition"`)

	w, _ = s.do(&s.borrower, http.MethodGet, "/api/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservations_CreateAndConflict(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	w, env := s.createReservation(s.borrower, itemID, day(2), day(5))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := reservationID(t, env)

	other := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower}
	w, env = s.createReservation(other, itemID, day(4), day(6))
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), first.String())

	// Смежный интервал не конфликтует.
	w, _ = s.createReservation(other, itemID, day(5), day(7))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(&s.borrower, http.MethodGet, "/api/items/"+itemID.String()+"/availability?start="+day(3).Format(time.RFC3339)+"&end="+day(4).Format(time.RFC3339), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"available":false`)
}

func TestReservations_BorrowerCannotApprove(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	_, env := s.createReservation(s.borrower, itemID, day(2), day(4))
	id := reservationID(t, env)

	w, env := s.do(&s.borrower, http.MethodPost, "/api/reservations/"+id.String()+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	w, env = s.do(&s.staff, http.MethodPost, "/api/reservations/"+id.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"status":"APPROVED"`)

	// Повторное одобрение недопустимо.
	w, env = s.do(&s.staff, http.MethodPost, "/api/reservations/"+id.String()+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
}

func TestReservations_ForeignReservationHidden(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	_, env := s.createReservation(s.borrower, itemID, day(2), day(4))
	id := reservationID(t, env)

	stranger := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower}
	w, _ := s.do(&stranger, http.MethodGet, "/api/reservations/"+id.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(&s.borrower, http.MethodGet, "/api/reservations/"+id.String()+"/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPickup_IssueAndConfirm(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	_, env := s.createReservation(s.borrower, itemID, day(1), day(3))
	id := reservationID(t, env)
	w, _ := s.do(&s.staff, http.MethodPost, "/api/reservations/"+id.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(&s.staff, http.MethodPost, "/api/reservations/"+id.String()+"/pickup-token", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issued struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	require.NotEmpty(t, issued.Token)

	w, env = s.do(&s.borrower, http.MethodPost, "/api/reservations/"+id.String()+"/pickup", map[string]string{"token": "WRONG1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "PICKUP_TOKEN_MISMATCH", env.Error.Code)

	w, env = s.do(&s.borrower, http.MethodPost, "/api/reservations/"+id.String()+"/pickup", map[string]string{"token": issued.Token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"status":"ACTIVE"`)
	assert.Contains(t, string(env.Data), `"pickupConfirmed":true`)

	// Код не попадает в журнал аудита.
	w, _ = s.do(&s.staff, http.MethodGet, "/api/audit-log?entity_id="+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), issued.Token)
}

func TestOverdueScan(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	_, env := s.createReservation(s.borrower, itemID, day(1), day(3))
	id := reservationID(t, env)
	w, _ := s.do(&s.staff, http.MethodPost, "/api/reservations/"+id.String()+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(&s.borrower, http.MethodPost, "/api/overdue/scan", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.clock.Set(day(4).Add(10 * time.Hour))

	w, env = s.do(&s.staff, http.MethodPost, "/api/overdue/scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Results   []struct {
			ReservationID uuid.UUID `json:"reservationId"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Results, 1)
	assert.Equal(t, id, result.Results[0].ReservationID)

	w, env = s.do(&s.staff, http.MethodGet, "/api/audit-log?action=mark_overdue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), id.String())
}

func TestAuditLog_StaffOnly(t *testing.T) {
	s := newTestServer(t)
	itemID := s.createItem()

	w, _ := s.do(&s.borrower, http.MethodGet, "/api/audit-log", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(&s.staff, http.MethodGet, "/api/audit-log/item/"+itemID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"action":"CREATE_ITEM"`)

	w, env = s.do(&s.staff, http.MethodGet, "/api/audit-log?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestReputation_OwnScore(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(&s.borrower, http.MethodGet, "/api/users/me/reputation", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), s.borrower.ID.String())

	stranger := valueobject.Actor{ID: uuid.New(), Role: valueobject.RoleBorrower}
	w, _ = s.do(&stranger, http.MethodGet, "/api/users/"+s.borrower.ID.String()+"/reputation", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
