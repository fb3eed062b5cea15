package content

import (
	"strconv"

	"github.com/etherbrian/etherbrian.github.io/internal/modules/content/item"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler serves the rendered content collection to the template layer.
type Handler struct {
	repo *item.Repository
}

func NewHandler(repo *item.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/content")
	g.GET("", h.list)
	g.GET("/:slug", h.get)
}

func (h *Handler) list(c *gin.Context) {
	items := h.repo.All()
	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		if !it.Meta.IsPublished() {
			continue
		}
		out = append(out, it.ToArray())
	}
	response.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	it := h.repo.BySlug(c.Param("slug"))
	if it == nil {
		response.NotFound(c)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("related", "0"))

	payload := it.ToArray()
	if limit > 0 {
		related := it.RelatedItems([]string{"tags", "author"}, limit)
		summaries := make([]map[string]interface{}, 0, len(related))
		for _, r := range related {
			summaries = append(summaries, map[string]interface{}{
				"slug":  r.Meta.Slug,
				"title": r.Meta.Title,
				"url":   r.URL(),
			})
		}
		payload["related"] = summaries
	}
	response.OK(c, payload)
}
