package router

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
	}
}

// ServeClient mounts the static query page from dir at / when dir/index.html exists.
func (r *Registry) ServeClient(dir string) bool {
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return false
	}
	r.Engine.StaticFile("/", index)
	r.Engine.Static("/javascript", filepath.Join(dir, "javascript"))
	return true
}
