// Package storage 声明 GORM 模型并按实体提供仓储实现（MySQL、PostgreSQL、SQLite），
// 同时负责连接初始化、迁移、驱动错误归一化与 Redis 连接。
package storage
