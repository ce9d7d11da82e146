package router

import (
	appuser "github.com/oksasatya/go-user-directory/internal/application"
	"github.com/oksasatya/go-user-directory/internal/container"
	handlers "github.com/oksasatya/go-user-directory/internal/interface/http"
	"github.com/oksasatya/go-user-directory/internal/interface/middleware"
	"github.com/oksasatya/go-user-directory/internal/router/modules"
)

type UserModuleDeps struct {
	Service *appuser.Service
	Handler *handlers.UserHandler
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	store := container.GetUserStore()

	cacheNS := ""
	if cfg.CacheEnabled {
		cacheNS = store.Fingerprint()
	}
	service := appuser.NewService(
		store,
		container.GetLogger(),
		container.GetRedis(),
		cacheNS,
		cfg.CacheTTL,
		container.GetES(),
		cfg.ESUsersIndex,
	)

	var audit handlers.QueryPublisher
	if pub := container.GetRabbitPub(); pub != nil {
		audit = pub
	}
	handler := handlers.NewUserHandler(service, container.GetLogger(), audit)

	return UserModuleDeps{
		Service: service,
		Handler: handler,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) UserModuleDeps {
	cfg := container.GetConfig()
	userDeps := buildUserDeps()

	var allow middleware.AllowFunc
	if cfg.Env == "development" {
		allow = middleware.AllowPrivateIP()
	}
	r.Add(modules.NewHealthModule(handlers.NewHealthHandler(container.GetUserStore(), cfg.UsersSource)))
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetRedis(), cfg.RateLimitPerMinute, allow))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
	return userDeps
}
