package submission

import (
	"errors"
	"strconv"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"

	"github.com/etherbrian/etherbrian.github.io/internal/models"
	"github.com/etherbrian/etherbrian.github.io/internal/modules/spamguard"
	"github.com/etherbrian/etherbrian.github.io/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultPageSize = 20

// Handler persists form submissions that passed spam screening and lists
// them for the admin dashboard.
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{db: db, log: log}
}

// RegisterRoutes wires the public submit endpoint (already wrapped by the
// spam middleware upstream) and the admin list.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/forms/:form/submit", h.submit)
	admin.GET("/submissions", h.list)
}

func (h *Handler) submit(c *gin.Context) {
	result, ok := spamguard.ResultFrom(c)
	if !ok {
		// The middleware must run first; a missing result means a wiring
		// bug, not a user error.
		response.InternalError(c, errMissingScreening)
		return
	}

	// The middleware already parsed the body, form-encoded or JSON.
	fields, ok := spamguard.FieldsFrom(c)
	if !ok {
		response.InternalError(c, errMissingScreening)
		return
	}

	sub := models.Submission{
		Form:     c.Param("form"),
		Fields:   models.JSONMap(fields),
		RemoteIP: c.ClientIP(),
		Referer:  c.GetHeader("Referer"),
		SpamMeta: models.JSONMap(result.Meta),
	}

	if err := h.db.Create(&sub).Error; err != nil {
		logFields := []zap.Field{zap.String("form", sub.Form), zap.Error(err)}
		var mysqlErr *mysqlDriver.MySQLError
		if errors.As(err, &mysqlErr) {
			logFields = append(logFields, zap.Uint16("mysql_code", mysqlErr.Number))
		}
		h.log.Error("persist submission failed", logFields...)
		response.InternalError(c, err)
		return
	}

	h.log.Info("submission accepted",
		zap.String("form", sub.Form),
		zap.String("id", sub.ID),
		zap.String("ip", sub.RemoteIP),
	)
	response.Created(c, gin.H{
		"success":   true,
		"id":        sub.ID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) list(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if size < 1 || size > 100 {
		size = defaultPageSize
	}

	query := h.db.Model(&models.Submission{})
	if form := c.Query("form"); form != "" {
		query = query.Where("form = ?", form)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		response.InternalError(c, err)
		return
	}

	var subs []models.Submission
	if err := query.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&subs).Error; err != nil {
		response.InternalError(c, err)
		return
	}

	totalPage := int((total + int64(size) - 1) / int64(size))
	response.Paged(c, subs, response.Pagination{
		Total:       total,
		CurrentPage: page,
		TotalPage:   totalPage,
		Size:        size,
		HasNextPage: page < totalPage,
	})
}

var errMissingScreening = errors.New("spam screening result missing from request context")
