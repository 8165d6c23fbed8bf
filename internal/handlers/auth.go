package handlers

// 认证端点：注册、登录、刷新、邮箱验证与口令重置。
// 状态码约定：422 校验失败、401 认证失败、409 邮箱冲突、202 已受理。

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contactbook/internal/metrics"
	"contactbook/internal/services"
)

type signupRequest struct {
	Username string `json:"username" binding:"required,min=6,max=25"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetRequest struct {
	Password        string `json:"password" binding:"required,min=6,max=20"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// signup 创建用户并触发验证邮件；重复邮箱返回 409。
func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	u, err := h.userSvc.Create(c, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(409, gin.H{"error": "account_exists"})
			return
		}
		log.WithError(err).Error("create user")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	if tok, err := h.tokenSvc.IssueEmailToken(u.Email); err == nil {
		h.mailer.SendVerification(u.Email, u.Username, tok)
	} else {
		log.WithError(err).Error("issue email token")
	}
	h.auditSvc.Write(c, "info", "signup", &u.ID, u.Email, c.ClientIP())
	c.JSON(201, gin.H{
		"user":   profileOf(u),
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// login 校验凭证并下发访问/刷新令牌；未验证邮箱不允许登录。
func (h *Handler) login(c *gin.Context) {
	setNoCache(c)
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	u, err := h.userSvc.FindByEmail(c, req.Email)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid_credentials"})
		return
	}
	if !u.Confirmed {
		c.JSON(401, gin.H{"error": "email_not_confirmed"})
		return
	}
	if !h.userSvc.CheckPassword(u, req.Password) {
		h.auditSvc.Write(c, "warn", "login_failed", &u.ID, u.Email, c.ClientIP())
		c.JSON(401, gin.H{"error": "invalid_credentials"})
		return
	}
	access, _, err := h.tokenSvc.IssueAccessToken(u.Email)
	if err != nil {
		log.WithError(err).Error("issue access token")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	refresh, err := h.tokenSvc.IssueRefreshToken(u.Email)
	if err != nil {
		log.WithError(err).Error("issue refresh token")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	if err := h.userSvc.UpdateRefreshToken(c, u, refresh); err != nil {
		log.WithError(err).Error("store refresh token")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	metrics.TokensIssued.Add(2)
	h.auditSvc.Write(c, "info", "login", &u.ID, u.Email, c.ClientIP())
	c.JSON(200, gin.H{"access_token": access, "refresh_token": refresh, "token_type": "bearer"})
}

// refreshToken 轮换刷新令牌：携带的令牌必须与用户记录中存储的一致，
// 不一致视为令牌泄露，清空存储值并拒绝。
func (h *Handler) refreshToken(c *gin.Context) {
	setNoCache(c)
	tok := bearerToken(c)
	if tok == "" {
		c.JSON(401, gin.H{"error": "missing_token"})
		return
	}
	email, err := h.tokenSvc.Verify(tok, services.ScopeRefresh)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid_token"})
		return
	}
	u, err := h.userSvc.FindByEmail(c, email)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid_token"})
		return
	}
	if u.RefreshToken != tok {
		_ = h.userSvc.UpdateRefreshToken(c, u, "")
		h.auditSvc.Write(c, "warn", "refresh_mismatch", &u.ID, u.Email, c.ClientIP())
		c.JSON(401, gin.H{"error": "invalid_refresh_token"})
		return
	}
	access, _, err := h.tokenSvc.IssueAccessToken(email)
	if err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	refresh, err := h.tokenSvc.IssueRefreshToken(email)
	if err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	if err := h.userSvc.UpdateRefreshToken(c, u, refresh); err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	metrics.TokensIssued.Add(2)
	c.JSON(200, gin.H{"access_token": access, "refresh_token": refresh, "token_type": "bearer"})
}

// confirmedEmail 消费邮件验证令牌，将邮箱标记为已验证。
func (h *Handler) confirmedEmail(c *gin.Context) {
	email, err := h.tokenSvc.Verify(c.Param("token"), services.ScopeEmail)
	if err != nil {
		c.JSON(400, gin.H{"error": "verification_error"})
		return
	}
	u, err := h.userSvc.FindByEmail(c, email)
	if err != nil {
		c.JSON(400, gin.H{"error": "verification_error"})
		return
	}
	if u.Confirmed {
		c.JSON(200, gin.H{"message": "Your email is already confirmed"})
		return
	}
	if err := h.userSvc.Confirm(c, email); err != nil {
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	h.auditSvc.Write(c, "info", "email_confirmed", &u.ID, u.Email, c.ClientIP())
	c.JSON(200, gin.H{"message": "Email confirmed"})
}

// verifyByEmail 重新发送验证邮件。无论账户是否存在都返回同样的提示，避免枚举。
func (h *Handler) verifyByEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	u, err := h.userSvc.FindByEmail(c, req.Email)
	if err == nil {
		if u.Confirmed {
			c.JSON(200, gin.H{"message": "Your email is already confirmed"})
			return
		}
		if tok, err := h.tokenSvc.IssueEmailToken(u.Email); err == nil {
			h.mailer.SendVerification(u.Email, u.Username, tok)
		}
	}
	c.JSON(200, gin.H{"message": "Check your email for confirmation."})
}

// forgotPassword 受理重置请求：存在的账户收到一次性重置链接，响应恒为 202。
func (h *Handler) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	u, err := h.userSvc.FindByEmail(c, req.Email)
	if err == nil {
		tok, err := h.resetSvc.New(c, u.Email)
		if err != nil {
			log.WithError(err).Error("create reset token")
		} else {
			h.mailer.SendReset(u.Email, u.Username, tok)
			h.auditSvc.Write(c, "info", "reset_requested", &u.ID, u.Email, c.ClientIP())
		}
	}
	c.JSON(202, gin.H{"message": "Check your email for reset password."})
}

// resetPassword 消费一次性重置令牌并设置新口令；令牌取用即焚。
func (h *Handler) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(422, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(422, gin.H{"error": "password_mismatch"})
		return
	}
	rec, err := h.resetSvc.GetAndUse(c, c.Param("token"))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.JSON(400, gin.H{"error": "invalid_token"})
			return
		}
		log.WithError(err).Error("consume reset token")
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	if err := h.userSvc.SetPassword(c, rec.Email, req.Password); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(400, gin.H{"error": "invalid_token"})
			return
		}
		c.JSON(500, gin.H{"error": "internal_error"})
		return
	}
	h.auditSvc.Write(c, "info", "password_reset", nil, rec.Email, c.ClientIP())
	c.JSON(200, gin.H{"message": "Password reset successfully"})
}
