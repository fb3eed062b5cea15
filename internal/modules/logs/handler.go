package logs

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/etherbrian/etherbrian.github.io/internal/pkg/nativelog"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler exposes the log viewer and cleanup endpoints. All routes sit
// behind the admin auth middleware.
type Handler struct {
	svc           *Service
	defaultMaxAge time.Duration
}

func NewHandler(svc *Service, defaultMaxAgeDays int) *Handler {
	if defaultMaxAgeDays < 1 {
		defaultMaxAgeDays = 30
	}
	return &Handler{
		svc:           svc,
		defaultMaxAge: time.Duration(defaultMaxAgeDays) * 24 * time.Hour,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/logs", authMW)

	g.GET("", h.list)
	g.GET("/stream", h.stream)
	g.GET("/:name", h.tail)
	g.DELETE("/:name", h.delete)
	g.POST("/cleanup", h.cleanup)
}

func (h *Handler) list(c *gin.Context) {
	files, err := h.svc.List()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, files)
}

func (h *Handler) tail(c *gin.Context) {
	lines := 0
	if raw := c.Query("lines"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			lines = n
		}
	}

	name := c.Param("name")
	tail, err := h.svc.Tail(name, lines)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.OK(c, gin.H{"name": name, "lines": tail})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("name")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.NoContent(c)
}

type cleanupDTO struct {
	Days   int  `json:"days" form:"days"`
	DryRun bool `json:"dry_run" form:"dry_run"`
}

func (h *Handler) cleanup(c *gin.Context) {
	var dto cleanupDTO
	if err := c.ShouldBind(&dto); err != nil {
		response.BadRequest(c, "invalid cleanup request")
		return
	}

	maxAge := h.defaultMaxAge
	if dto.Days > 0 {
		maxAge = time.Duration(dto.Days) * 24 * time.Hour
	}

	report, err := h.svc.Cleanup(maxAge, dto.DryRun)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, report)
}

// stream pushes realtime log frames over SSE from the in-process hub.
func (h *Handler) stream(c *gin.Context) {
	id, frames := nativelog.Subscribe(0)
	defer nativelog.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case frame, ok := <-frames:
			if !ok {
				return false
			}
			c.SSEvent("log", frame)
			return true
		}
	})
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOutsideLogDir):
		response.BadRequest(c, "invalid log file name")
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, "log file not found")
	default:
		response.InternalError(c, err)
	}
}
