package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-directory/internal/interface/http"
	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
)

// UserModule wires the read-only directory routes:
// GET /api/users, GET /api/users/:id, GET /api/search/users
//
// Search lives outside /users so every path segment under /users is an id.
type UserModule struct {
	Handler   *handlers.UserHandler
	Redis     *redis.Client
	PerMinute int
	Allow     middleware.AllowFunc
}

func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, perMinute int, allow middleware.AllowFunc) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, PerMinute: perMinute, Allow: allow}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Redis, m.PerMinute, time.Minute, middleware.KeyByIP(), m.Allow)

	users := rg.Group("/users")
	users.Use(rl)
	{
		users.GET("", m.Handler.ListUsers)
		users.GET("/:id", m.Handler.GetUser)
	}

	search := rg.Group("/search")
	search.Use(rl)
	search.GET("/users", m.Handler.Search)
}
