package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/pkg/response"
)

var queryStats = expvar.NewMap("user_queries")

// QueryPublisher receives an audit event for every successful query.
type QueryPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueryEvent is the audit record published after a successful query.
type QueryEvent struct {
	RequestID string            `json:"request_id"`
	Route     string            `json:"route"`
	Filters   map[string]string `json:"filters,omitempty"`
	ID        string            `json:"id,omitempty"`
	Count     int               `json:"count"`
	At        time.Time         `json:"at"`
}

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
	Audit  QueryPublisher
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, audit QueryPublisher) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Audit: audit}
}

// FirstValues narrows multi-value query parameters to their first value.
// GET /api/users?age=25&age=30 filters on age 25; later values are dropped here,
// before the filters reach the query engine.
func FirstValues(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// ListUsers handles GET /api/users with optional age and company filters.
func (h *UserHandler) ListUsers(c *gin.Context) {
	filters := FirstValues(c.Request.URL.Query())
	users, err := h.Svc.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	queryStats.Add("list", 1)
	h.publish(c, QueryEvent{Filters: filters, Count: len(users)})
	response.Success(c, http.StatusOK, users, "users", gin.H{"count": len(users), "total": h.Svc.Count()})
}

// GetUser handles GET /api/users/:id.
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	u, err := h.Svc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	queryStats.Add("get", 1)
	h.publish(c, QueryEvent{ID: id, Count: 1})
	response.Success(c, http.StatusOK, u, "user", nil)
}

// Search handles GET /api/search/users?q=&size=.
func (h *UserHandler) Search(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, &userapp.ValidationError{Field: "size", Value: raw, Reason: "must be an integer"})
			return
		}
		size = n
	}
	q := c.Query("q")
	users, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err)
		return
	}
	queryStats.Add("search", 1)
	h.publish(c, QueryEvent{Filters: map[string]string{"q": q}, Count: len(users)})
	response.Success(c, http.StatusOK, users, "search results", gin.H{"count": len(users)})
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	var ve *userapp.ValidationError
	switch {
	case errors.As(err, &ve):
		queryStats.Add("invalid", 1)
		h.Logger.WithField("request_id", c.GetString("request_id")).WithError(err).Debug("rejected query")
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{ve.Field: ve.Reason})
	case errors.Is(err, userapp.ErrUserNotFound):
		queryStats.Add("not_found", 1)
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	default:
		queryStats.Add("failed", 1)
		h.Logger.WithField("request_id", c.GetString("request_id")).WithError(err).Error("query failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

func (h *UserHandler) publish(c *gin.Context, ev QueryEvent) {
	if h.Audit == nil {
		return
	}
	ev.RequestID = c.GetString("request_id")
	ev.Route = c.FullPath()
	ev.At = time.Now().UTC()
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Audit.PublishJSON(ctx, ev); err != nil {
		h.Logger.WithError(err).WithField("route", ev.Route).Warn("audit publish failed")
	}
}
