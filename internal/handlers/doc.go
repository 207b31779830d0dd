// Package handlers 实现博客 API 的 HTTP 层：请求绑定与校验、统一错误信封以及路由表。
// 业务规则全部在 services 中，这里只负责 JSON 形状与状态码。
package handlers
