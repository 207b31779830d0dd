package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// 保证拼接时间令牌与重试后缀后仍不超过 slug 列宽（255）。
const maxSlugBase = 200

// Slugify 生成文章 slug：标题的小写 slug 形式 + "-" + 创建时间的 36 进制毫秒令牌。
// 标题不含任何可用字符时以 "article" 作为前缀。
func Slugify(title string, at time.Time) string {
	base := slug.Make(title)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		base = "article"
	}
	return base + "-" + strconv.FormatInt(at.UnixMilli(), 36)
}
