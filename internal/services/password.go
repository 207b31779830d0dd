package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost 在测试中可调低以加快执行。
var passwordCost = bcrypt.DefaultCost

// bcrypt 只接受不超过 72 字节的口令（按字节而非字符计）。
const maxPasswordBytes = 72

// HashPassword 使用 bcrypt 生成口令哈希（每次随机盐）。
// 超长口令返回 password 字段的校验错误。
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", passwordTooLong()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", passwordTooLong()
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword 校验用户口令（bcrypt）。
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func passwordTooLong() error {
	return &ValidationError{
		Field:   "password",
		Message: fmt.Sprintf("is too long (maximum is %d bytes)", maxPasswordBytes),
		Kind:    ErrValidation,
	}
}
