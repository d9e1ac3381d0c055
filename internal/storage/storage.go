package storage

import (
	"errors"
	"time"

	"inviteme/backend/internal/domain"
)

var (
	// ErrContactExists 联系记录已存在（同一邮箱重复确认）
	ErrContactExists = errors.New("contact already exists")
	// ErrContactNotFound 联系记录未找到
	ErrContactNotFound = errors.New("contact not found")
	// ErrUserNotFound 用户未找到
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists 用户已存在
	ErrUserExists = errors.New("user already exists")
)

// ContactRepository 定义联系记录的存取操作。
type ContactRepository interface {
	// CreateContact 原子地登记一条联系记录
	// 邮箱已登记时返回 ErrContactExists
	CreateContact(record *domain.ContactRecord) error
	// ContactExists 按邮箱和提交时间查询记录是否已登记
	ContactExists(email string, submitDate time.Time) (bool, error)
	GetContact(email string) (*domain.ContactRecord, error)
	// ListContacts 分页列出联系记录，按提交时间倒序
	// since 非零时只返回该时刻之后提交的记录
	ListContacts(page, pageSize int, since time.Time) ([]domain.ContactRecord, int64, error)
}

// UserRepository 定义管理员账号的存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	UpdateLastLogin(userID string) error
}

// RateLimitRepository 定义限流操作。
type RateLimitRepository interface {
	IncrementRateLimit(key string, window time.Duration) (int64, error)
	GetRateLimit(key string) (int64, error)
}

// Store 定义完整的存储接口。
type Store interface {
	ContactRepository
	UserRepository

	// 工具方法
	Close() error
	Health() error
}
