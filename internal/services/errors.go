package services

import (
	"errors"

	"realworld/internal/storage"
)

var (
	// ErrNotFound 表示资源不存在或调用方无权操作（两者对外不作区分）。
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidCredentials 登录失败：邮箱不存在与口令错误返回同一错误，避免账号枚举。
	ErrInvalidCredentials = errors.New("email or password is invalid")
	// ErrInvalidToken 表示令牌缺失、签名错误、算法不符或已过期。
	ErrInvalidToken = errors.New("invalid token")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// ValidationError 描述单个字段的校验失败；Kind 为 ErrConflict 或 ErrValidation。
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func conflict(field string) error {
	return &ValidationError{Field: field, Message: "already exists", Kind: ErrConflict}
}

func blank(field string) error {
	return &ValidationError{Field: field, Message: "can't be blank", Kind: ErrValidation}
}
