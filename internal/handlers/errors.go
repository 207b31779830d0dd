package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"realworld/internal/middlewares"
	"realworld/internal/services"
)

// 校验错误使用 JSON 字段名，与请求体保持一致。
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// requestError 表示请求体无法解析或未通过校验，统一映射为 422。
type requestError struct{ messages []string }

func (e *requestError) Error() string { return strings.Join(e.messages, "; ") }

// bindJSON 解析并校验请求体。
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return &requestError{messages: msgs}
	}
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntax), errors.As(err, &typeErr):
		return &requestError{messages: []string{"request body is invalid JSON"}}
	default:
		return &requestError{messages: []string{"request body is invalid"}}
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " can't be blank"
	case "email":
		return field + " is invalid"
	case "max":
		return fmt.Sprintf("%s is too long (maximum is %s characters)", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s is too short (minimum is %s characters)", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func writeErrors(c *gin.Context, status int, messages ...string) {
	c.JSON(status, gin.H{"errors": gin.H{"body": messages}})
}

// respondError 将服务层错误映射为 HTTP 状态与统一错误信封；notFound 为 404 时的提示。
func respondError(c *gin.Context, err error, notFound string) {
	var reqErr *requestError
	var verr *services.ValidationError
	switch {
	case errors.As(err, &reqErr):
		writeErrors(c, http.StatusUnprocessableEntity, reqErr.messages...)
	case errors.As(err, &verr):
		writeErrors(c, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeErrors(c, http.StatusUnauthorized, "Email or password is invalid")
	case errors.Is(err, services.ErrInvalidToken):
		writeErrors(c, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, services.ErrNotFound):
		writeErrors(c, http.StatusNotFound, notFound)
	default:
		_ = c.Error(err)
		log.WithError(err).WithFields(log.Fields{
			"request_id": middlewares.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("request failed")
		writeErrors(c, http.StatusInternalServerError, "Internal server error")
	}
}

// pagination 解析 limit/offset：非法值回退默认，limit 受上限约束。
func (h *Handler) pagination(c *gin.Context) (limit, offset int) {
	limit = h.cfg.Pagination.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if maxLimit := h.cfg.Pagination.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
