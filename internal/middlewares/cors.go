package middlewares

import (
	"github.com/gin-gonic/gin"

	"contactbook/internal/config"
)

// CORS 按配置放行跨域请求：命中允许列表的来源会被回显到
// Access-Control-Allow-Origin，预检（OPTIONS）请求直接以 204 结束。
func CORS(cfg config.Config) gin.HandlerFunc {
	allowAll := false
	allowed := map[string]bool{}
	for _, o := range cfg.CORS.AllowedOrigins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[o] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !cfg.CORS.Enabled || origin == "" {
			c.Next()
			return
		}
		if !allowAll && !allowed[origin] {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
		c.Header("Access-Control-Max-Age", "3600")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
