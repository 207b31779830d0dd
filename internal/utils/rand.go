package utils

import (
	"crypto/rand"
	"encoding/base64"
	"io"
)

// RandString 生成长度为 n 字节的随机字节，并以 base64url 编码为 URL 安全的字符串（无填充）。
func RandString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandLowerString 生成长度为 n 的随机字符串（字符集 [a-z0-9]），可直接拼入 slug。
func RandLowerString(n int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	const mask = 63
	if n <= 0 {
		return "", nil
	}
	out := make([]byte, n)
	// 按位与 mask 取下标，丢弃越界值以避免偏倚
	buf := make([]byte, n)
	i := 0
	for i < n {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := int(b & mask)
			if idx < len(alphabet) {
				out[i] = alphabet[idx]
				i++
				if i >= n {
					break
				}
			}
		}
	}
	return string(out), nil
}
