package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/memory"
	handlers "github.com/oksasatya/go-user-directory/internal/interface/http"
	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
	"github.com/oksasatya/go-user-directory/internal/router/modules"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []handlers.QueryEvent
	err    error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, body.(handlers.QueryEvent))
	return p.err
}

type envelope struct {
	Status    int               `json:"status"`
	RequestID string            `json:"request_id"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Meta      map[string]any    `json:"meta"`
	Error     map[string]string `json:"error"`
}

type listEnvelope struct {
	envelope
	Data []entity.User `json:"data"`
}

type userEnvelope struct {
	envelope
	Data entity.User `json:"data"`
}

var testUsers = []entity.User{
	{ID: "588935f5c668650dc77df581", Name: "Connie Stewart", Age: 25, Company: "OHMNET", Email: "conniestewart@ohmnet.com"},
	{ID: "588935f514a7d3fc6f2a2fa1", Name: "Stokes Clayton", Age: 27, Company: "MOMENTIA", Email: "stokesclayton@momentia.com"},
	{ID: "588935f56c6a6e1bd8d1b1cf", Name: "Bolton Monroe", Age: 36, Company: "OHMNET", Email: "boltonmonroe@ohmnet.com"},
	{ID: "588935f5a54e8c1f6cb06bd5", Name: "Merrill Parker", Age: 25, Company: "ZILLANET", Email: "merrillparker@zillanet.com"},
	{ID: "588935f5e53a0bb2c7e8e3f2", Name: "Lynn Ferguson", Age: 25, Company: "OHMNET", Email: "lynnferguson@ohmnet.com"},
}

func setup(t *testing.T, pub handlers.QueryPublisher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := memory.NewUserStore(testUsers)
	require.NoError(t, err)
	svc := userapp.NewService(store, logger, nil, "", 0, nil, "")
	h := handlers.NewUserHandler(svc, logger, pub)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	modules.NewUserModule(h, nil, 0, nil).Register(r.Group("/api"))
	return r
}

func get(t *testing.T, r http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	return w
}

func TestListUsers_All(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/users", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, testUsers, body.Data)
	assert.EqualValues(t, len(testUsers), body.Meta["count"])
	assert.EqualValues(t, len(testUsers), body.Meta["total"])
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, body.RequestID, w.Header().Get(middleware.RequestIDHeader))
}

func TestListUsers_Age(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/users?age=25", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Data, 3)
	for _, u := range body.Data {
		assert.Equal(t, 25, u.Age)
	}
}

func TestListUsers_Company(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	get(t, r, "/api/users?company=OHMNET", &body)

	require.Len(t, body.Data, 3)
	for _, u := range body.Data {
		assert.Equal(t, "OHMNET", u.Company)
	}
}

func TestListUsers_AgeAndCompany(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	get(t, r, "/api/users?company=OHMNET&age=25", &body)

	require.Len(t, body.Data, 2)
	for _, u := range body.Data {
		assert.Equal(t, 25, u.Age)
		assert.Equal(t, "OHMNET", u.Company)
	}
}

func TestListUsers_NoMatchIsEmptyList(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/users?company=NOBODY", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body.Data)
	assert.Empty(t, body.Data)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestListUsers_IllegalAge(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/users?age=abc", &body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	assert.Nil(t, body.Data)
	assert.Equal(t, "must be an integer", body.Error["age"])
}

func TestListUsers_FirstValueWins(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/users?age=27&age=abc", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Stokes Clayton", body.Data[0].Name)
}

func TestGetUser_Existing(t *testing.T) {
	r := setup(t, nil)

	var body userEnvelope
	w := get(t, r, "/api/users/588935f5c668650dc77df581", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUsers[0], body.Data)
}

func TestGetUser_Nonexistent(t *testing.T) {
	r := setup(t, nil)

	var body envelope
	w := get(t, r, "/api/users/nonexistent", &body)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "user not found", body.Message)
}

func TestSearch_WithoutBackendReturnsEmpty(t *testing.T) {
	r := setup(t, nil)

	var body listEnvelope
	w := get(t, r, "/api/search/users?q=connie", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Data)
}

func TestSearch_InvalidSize(t *testing.T) {
	r := setup(t, nil)

	var body envelope
	w := get(t, r, "/api/search/users?q=connie&size=ten", &body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be an integer", body.Error["size"])
}

func TestAuditEvents(t *testing.T) {
	pub := &fakePublisher{}
	r := setup(t, pub)

	var list listEnvelope
	get(t, r, "/api/users?"+url.Values{"company": {"OHMNET"}}.Encode(), &list)
	var one userEnvelope
	get(t, r, "/api/users/588935f5c668650dc77df581", &one)
	var failed envelope
	get(t, r, "/api/users?age=abc", &failed)

	require.Len(t, pub.events, 2, "failed queries are not audited")

	assert.Equal(t, "/api/users", pub.events[0].Route)
	assert.Equal(t, map[string]string{"company": "OHMNET"}, pub.events[0].Filters)
	assert.Equal(t, 3, pub.events[0].Count)
	assert.Equal(t, list.RequestID, pub.events[0].RequestID)

	assert.Equal(t, "/api/users/:id", pub.events[1].Route)
	assert.Equal(t, "588935f5c668650dc77df581", pub.events[1].ID)
	assert.False(t, pub.events[1].At.IsZero())
}

func TestAuditFailureDoesNotFailRequest(t *testing.T) {
	r := setup(t, &fakePublisher{err: errors.New("broker down")})

	var body listEnvelope
	w := get(t, r, "/api/users", &body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFirstValues(t *testing.T) {
	got := handlers.FirstValues(url.Values{
		"age":     {"25", "30"},
		"company": {"OHMNET"},
		"empty":   {},
	})
	assert.Equal(t, map[string]string{"age": "25", "company": "OHMNET"}, got)
}

func TestGetUser_IDNamedSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rec := entity.User{ID: "search", Name: "Search Party", Age: 40, Company: "FINDERS", Email: "party@finders.com"}
	store, err := memory.NewUserStore(append(append([]entity.User{}, testUsers...), rec))
	require.NoError(t, err)
	h := handlers.NewUserHandler(userapp.NewService(store, logger, nil, "", 0, nil, ""), logger, nil)
	r := gin.New()
	modules.NewUserModule(h, nil, 0, nil).Register(r.Group("/api"))

	var body userEnvelope
	w := get(t, r, "/api/users/search", &body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rec, body.Data)
}
