package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcjansen/mapproxy/internal/cache"
	"github.com/marcjansen/mapproxy/pkg/logger"
)

type Handler struct {
	layers *cache.Layers
	logger logger.Logger
}

func NewHandler(layers *cache.Layers, l logger.Logger) *Handler {
	return &Handler{
		layers: layers,
		logger: l,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

type layerInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (h *Handler) Layers(c *gin.Context) {
	all := h.layers.All()
	out := make([]layerInfo, 0, len(all))
	for _, l := range all {
		out = append(out, layerInfo{Name: l.Name, Title: l.Title})
	}
	c.JSON(http.StatusOK, gin.H{"layers": out})
}
