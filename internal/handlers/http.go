package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"contactbook/internal/config"
	"contactbook/internal/metrics"
	"contactbook/internal/middlewares"
	"contactbook/internal/services"
)

// AvatarStore 抽象头像对象存储，便于测试替换真实 S3。
type AvatarStore interface {
	Upload(ctx context.Context, userID uint64, filename, contentType string, r io.Reader, size int64) (string, error)
}

// Handler 聚合所有依赖（配置、存储、服务）并注册所有 HTTP 路由。
type Handler struct {
	cfg        config.Config
	db         *gorm.DB
	userSvc    *services.UserService
	contactSvc *services.ContactService
	tokenSvc   *services.TokenService
	resetSvc   *services.ResetService
	auditSvc   *services.AuditService
	avatars    AvatarStore
	mailer     services.MailSender
	rdb        *redis.Client
}

// New 构造 Handler，将各领域服务注入，用于后续路由注册与处理。
func New(cfg config.Config, db *gorm.DB, us *services.UserService, cs *services.ContactService, ts *services.TokenService, rs *services.ResetService, as *services.AuditService, av AvatarStore, ms services.MailSender, rdb *redis.Client) *Handler {
	return &Handler{cfg: cfg, db: db, userSvc: us, contactSvc: cs, tokenSvc: ts, resetSvc: rs, auditSvc: as, avatars: av, mailer: ms, rdb: rdb}
}

func (h *Handler) window() time.Duration {
	if h.cfg.Limits.Window > 0 {
		return h.cfg.Limits.Window
	}
	return time.Minute
}

// limited 在 Redis 可用时为路由附加限流；不可用（如单元测试）时直接透传。
func (h *Handler) limited(prefix string, limit int, handler gin.HandlerFunc) []gin.HandlerFunc {
	if h.rdb == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{
		middlewares.RateLimit(h.rdb, prefix, limit, h.window(), func(c *gin.Context) string { return c.ClientIP() }),
		handler,
	}
}

// RegisterRoutes 在 Gin 路由上挂载全部端点（认证、联系人、用户资料与运维接口）。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", h.limited("signup", h.cfg.Limits.SignupPerMinute, h.signup)...)
	auth.POST("/login", h.limited("login", h.cfg.Limits.LoginPerMinute, h.login)...)
	auth.GET("/refresh_token", h.refreshToken)
	auth.GET("/confirmed_email/:token", h.confirmedEmail)
	auth.POST("/verify_by_email", h.verifyByEmail)
	auth.POST("/forgot_password", h.limited("forgot", h.cfg.Limits.ForgotPerMinute, h.forgotPassword)...)
	auth.POST("/reset_password/:token", h.resetPassword)

	contacts := api.Group("/contacts", h.authRequired())
	contacts.GET("", h.listContacts)
	contacts.GET("/upcoming_birthdays", h.upcomingBirthdays)
	contacts.GET("/:id", h.getContact)
	contacts.POST("", h.createContact)
	contacts.PUT("/:id", h.updateContact)
	contacts.DELETE("/:id", h.deleteContact)

	users := api.Group("/users", h.authRequired())
	users.GET("/me", h.me)
	users.PATCH("/avatar", h.updateAvatar)

	// 运维端点
	r.GET("/metrics", metrics.Exposer())
	r.GET("/healthz", h.healthz)
}

// healthz 检查 MySQL 与 Redis 连通性。
func (h *Handler) healthz(c *gin.Context) {
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c) != nil {
			c.JSON(503, gin.H{"status": "degraded", "mysql": "down"})
			return
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c).Err(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "redis": "down"})
			return
		}
	}
	c.JSON(200, gin.H{"status": "ok"})
}
