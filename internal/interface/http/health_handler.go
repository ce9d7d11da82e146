package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-directory/pkg/response"
)

// Snapshot describes the loaded store for health reporting.
type Snapshot interface {
	Count() int
	LoadedAt() time.Time
	Fingerprint() string
}

type HealthHandler struct {
	Snapshot Snapshot
	Source   string
}

func NewHealthHandler(s Snapshot, source string) *HealthHandler {
	return &HealthHandler{Snapshot: s, Source: source}
}

func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"users":       h.Snapshot.Count(),
		"source":      h.Source,
		"loaded_at":   h.Snapshot.LoadedAt(),
		"fingerprint": h.Snapshot.Fingerprint(),
	}, "ok", nil)
}
