package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/marcjansen/mapproxy/internal/geo"
)

func (h *Handler) Tile(c *gin.Context) {
	t, ok := h.tileParams(c)
	if !ok {
		return
	}

	layer, err := h.layers.Layer(c.Param("layer"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	cch, grid, err := layer.CacheForGrid(c.Query("grid"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	data, err := cch.GetTile(c.Request.Context(), grid, t)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			h.logger.Error("failed to get tile", "layer", layer.Name, "tile", t.String(), "error", err)
		} else {
			h.logger.Warn("tile request rejected", "layer", layer.Name, "tile", t.String(), "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, cch.Format().MimeType, data)
}

func (h *Handler) FeatureInfo(c *gin.Context) {
	t, ok := h.tileParams(c)
	if !ok {
		return
	}

	layer, err := h.layers.Layer(c.Param("layer"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	cch, grid, err := layer.CacheForGrid(c.Query("grid"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	i, err := strconv.Atoi(c.DefaultQuery("i", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "i should be integer"})
		return
	}
	j, err := strconv.Atoi(c.DefaultQuery("j", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "j should be integer"})
		return
	}
	infoFormat := c.DefaultQuery("info_format", "text/plain")

	data, err := cch.GetFeatureInfo(c.Request.Context(), grid, t, i, j, infoFormat)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			h.logger.Error("failed to get feature info", "layer", layer.Name, "tile", t.String(), "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, infoFormat, data)
}

func (h *Handler) tileParams(c *gin.Context) (geo.Tile, bool) {
	z, err := strconv.Atoi(c.Param("z"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "z should be integer"})
		return geo.Tile{}, false
	}

	x, err := strconv.Atoi(c.Param("x"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x should be integer"})
		return geo.Tile{}, false
	}

	y, err := strconv.Atoi(c.Param("y"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "y should be integer"})
		return geo.Tile{}, false
	}

	return geo.Tile{Z: z, X: x, Y: y}, true
}
