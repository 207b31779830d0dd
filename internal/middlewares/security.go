package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realworld/internal/config"
)

// SecurityHeaders 为 JSON API 设置安全响应头；HSTS 仅在 HTTPS（直连或反代）请求上下发。
func SecurityHeaders(sec config.SecurityConfig) gin.HandlerFunc {
	hsts := ""
	if sec.HSTS.Enabled && sec.HSTS.MaxAgeSeconds > 0 {
		hsts = fmt.Sprintf("max-age=%d", sec.HSTS.MaxAgeSeconds)
		if sec.HSTS.IncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if hsts != "" && (c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https") {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// CORS 为浏览器前端提供跨域支持；allowed 为空时允许任意来源。
// 预检请求（OPTIONS）直接以 204 结束。
func CORS(allowed []string) gin.HandlerFunc {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if len(set) == 0 {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if set[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Request-Id")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "X-Request-Id")
			c.Header("Access-Control-Max-Age", "600")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
