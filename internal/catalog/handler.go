package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler はパッケージ参照 API のハンドラーです。
type Handler struct {
	svc *Service
}

// NewHandler は Handler を作成します。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListByDestination は GET /api/packages/:destination のハンドラーです。
func (h *Handler) ListByDestination(c *gin.Context) {
	pkgs, err := h.svc.ListByDestination(c.Request.Context(), c.Param("destination"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, pkgs)
}

// GetByID は GET /api/package/:id のハンドラーです。
func (h *Handler) GetByID(c *gin.Context) {
	pkg, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// Register はルートを登録します。
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/api/packages/:destination", h.ListByDestination)
	r.GET("/api/package/:id", h.GetByID)
}
