package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"contactbook/internal/services"
	"contactbook/internal/storage"
)

const currentUserKey = "current_user"

// setNoCache 为敏感响应添加禁止缓存的标准响应头。
func setNoCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

// bearerToken 从 Authorization 头提取 Bearer 令牌；不存在时返回空串。
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
		return parts[1]
	}
	return ""
}

// authRequired 校验访问令牌并把用户加载到 Gin Context。
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(401, gin.H{"error": "missing_token"})
			return
		}
		email, err := h.tokenSvc.Verify(tok, services.ScopeAccess)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer error=\"invalid_token\"")
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token"})
			return
		}
		u, err := h.userSvc.FindByEmail(c, email)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": "invalid_token"})
			return
		}
		c.Set(currentUserKey, u)
		c.Next()
	}
}

// currentUser 返回 authRequired 放入上下文的用户；仅在受保护路由内使用。
func currentUser(c *gin.Context) *storage.User {
	v, _ := c.Get(currentUserKey)
	u, _ := v.(*storage.User)
	return u
}

// pathID 解析形如 /:id 的正整数路径参数。
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// queryInt 解析整数查询参数，非法值回落到默认值。
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// userProfile 是对外暴露的用户视图（隐藏口令与刷新令牌）。
type userProfile struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Confirmed bool   `json:"confirmed"`
	CreatedAt string `json:"created_at"`
}

func profileOf(u *storage.User) userProfile {
	return userProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
