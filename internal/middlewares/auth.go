package middlewares

// 认证中间件：解析 "Authorization: Token <jwt>"。
// RequireAuth 在缺失或无效时以 401 终止；OptionalAuth 在任何失败时匿名放行。

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realworld/internal/metrics"
	"realworld/internal/services"
)

const claimsKey = "auth_claims"

// TokenVerifier 校验令牌并返回载荷；*services.TokenService 为生产实现。
type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

var errMissingToken = errors.New("authorization token missing")

func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := tokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			metrics.AuthFailures.WithLabelValues("missing").Inc()
			AbortWithErrors(c, http.StatusUnauthorized, "Authorization token missing")
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid").Inc()
			AbortWithErrors(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func OptionalAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := tokenFromHeader(c.GetHeader("Authorization")); err == nil {
			if claims, err := v.Verify(raw); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// CurrentClaims 返回已认证请求的令牌载荷。
func CurrentClaims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok && claims != nil
}

// ViewerID 返回当前观察者 ID；匿名请求为 0。
func ViewerID(c *gin.Context) uint64 {
	if claims, ok := CurrentClaims(c); ok {
		return claims.ID
	}
	return 0
}

func tokenFromHeader(h string) (string, error) {
	const prefix = "Token "
	if !strings.HasPrefix(h, prefix) {
		return "", errMissingToken
	}
	tok := strings.TrimSpace(h[len(prefix):])
	if tok == "" {
		return "", errMissingToken
	}
	return tok, nil
}

// AbortWithErrors 以统一错误信封 {"errors":{"body":[...]}} 终止请求。
func AbortWithErrors(c *gin.Context, status int, messages ...string) {
	c.AbortWithStatusJSON(status, gin.H{"errors": gin.H{"body": messages}})
}
