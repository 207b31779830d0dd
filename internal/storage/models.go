package storage

import (
	"time"

	"gorm.io/gorm"
)

// 本文件定义平台使用的所有 GORM 模型，集中管理数据结构。

type User struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"size:50;not null;uniqueIndex"`
	Email     string `gorm:"size:190;not null;uniqueIndex"`
	Password  string `gorm:"size:255;not null"` // bcrypt 哈希，除登录外不读取
	Bio       string `gorm:"type:text"`
	Image     string `gorm:"size:512"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag 名称区分大小写；MySQL 下迁移时将列改为 utf8mb4_bin。
type Tag struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:190;not null;uniqueIndex"`
}

type Article struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	Body        string    `gorm:"type:text"`
	AuthorID    uint64    `gorm:"not null;index"`
	Author      User      `gorm:"foreignKey:AuthorID"`
	Tags        []Tag     `gorm:"many2many:article_tags;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

type Comment struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	Body      string  `gorm:"type:text;not null"`
	ArticleID uint64  `gorm:"not null;index"`
	Article   Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	AuthorID  uint64  `gorm:"not null;index"`
	Author    User    `gorm:"foreignKey:AuthorID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Follow 是关注边；(follower_id, following_id) 唯一。
type Follow struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	FollowerID  uint64 `gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID uint64 `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	Follower    User   `gorm:"foreignKey:FollowerID"`
	Following   User   `gorm:"foreignKey:FollowingID"`
	CreatedAt   time.Time
}

// Favorite 是收藏边；(user_id, article_id) 唯一，文章删除时级联删除。
type Favorite struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	UserID    uint64  `gorm:"not null;uniqueIndex:idx_favorite_pair"`
	ArticleID uint64  `gorm:"not null;uniqueIndex:idx_favorite_pair;index"`
	User      User    `gorm:"foreignKey:UserID"`
	Article   Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// Models 返回需要迁移的全部模型（顺序满足外键依赖）。
func Models() []any {
	return []any{&User{}, &Tag{}, &Article{}, &Comment{}, &Follow{}, &Favorite{}}
}

// Migrate 创建或更新表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	// 标签精确匹配：MySQL 默认排序规则不区分大小写，改为二进制排序
	// 忽略错误以避免不同方言差异导致启动失败
	if db.Dialector.Name() == "mysql" {
		_ = db.Exec("ALTER TABLE tags MODIFY name VARCHAR(190) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL").Error
	}
	return nil
}
