// Package services 提供用户、资料、文章、评论与标签的领域服务。
// 服务只依赖 repos.go 中的仓储接口，测试中以内存实现替换。
package services
