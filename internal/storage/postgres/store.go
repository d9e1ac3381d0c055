// Package postgres 提供基于 GORM 的关系型数据库存储实现
// 支持 PostgreSQL 和 MySQL 两种方言
package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage"
)

// Store 关系型数据库存储实现
type Store struct {
	db *gorm.DB
}

// NewStore 创建 PostgreSQL 存储实例
func NewStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(postgres.Open(dsn))
}

// NewMySQLStore 创建 MySQL 存储实例
func NewMySQLStore(dsn string) (*Store, error) {
	return NewStoreWithDialector(mysql.Open(dsn))
}

// NewStoreWithDialector 使用指定的 GORM dialector 创建存储实例
func NewStoreWithDialector(dialector gorm.Dialector) (*Store, error) {
	// 配置 GORM
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // 静默模式
		TranslateError: true,                                  // 方言错误翻译为 gorm 错误
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	// 连接数据库
	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	store := &Store{db: db}

	// 自动迁移数据库表
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate 自动迁移数据库表结构
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&domain.ContactRecord{},
		&domain.User{},
	)
}

// ========== Contact Repository ==========

// CreateContact 原子地登记一条联系记录
// 依赖邮箱主键冲突保证唯一性，并发确认只有一个成功
func (s *Store) CreateContact(record *domain.ContactRecord) error {
	err := s.db.Create(record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storage.ErrContactExists
		}
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// ContactExists 按邮箱和提交时间查询记录是否已登记
func (s *Store) ContactExists(email string, submitDate time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&domain.ContactRecord{}).
		Where("email = ? AND submit_date = ?", email, submitDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count contacts: %w", err)
	}
	return count > 0, nil
}

// GetContact 按邮箱获取联系记录
func (s *Store) GetContact(email string) (*domain.ContactRecord, error) {
	var record domain.ContactRecord
	err := s.db.Where("email = ?", email).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &record, nil
}

// ListContacts 分页列出联系记录，按提交时间倒序
func (s *Store) ListContacts(page, pageSize int, since time.Time) ([]domain.ContactRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := s.db.Model(&domain.ContactRecord{})
	if !since.IsZero() {
		query = query.Where("submit_date >= ?", since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	var records []domain.ContactRecord
	err := query.Order("submit_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	return records, total, nil
}

// ========== User Repository ==========

// CreateUser 创建用户
func (s *Store) CreateUser(user *domain.User) error {
	err := s.db.Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storage.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID 按 ID 获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	return s.findUser("id = ?", id)
}

// GetUserByEmail 按邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	return s.findUser("email = ?", email)
}

// GetUserByUsername 按用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	return s.findUser("username = ?", username)
}

func (s *Store) findUser(query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin 更新最后登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	result := s.db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}

// ========== 工具方法 ==========

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 健康检查
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
