// Package memory 提供内存存储实现
// 用于开发环境和测试，进程退出后数据丢失
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage"
)

// Store 内存存储实现
type Store struct {
	mu       sync.RWMutex
	contacts map[string]*domain.ContactRecord // key: 邮箱地址
	users    map[string]*domain.User          // key: 用户 ID
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		contacts: make(map[string]*domain.ContactRecord),
		users:    make(map[string]*domain.User),
	}
}

// ========== Contact Repository ==========

// CreateContact 原子地登记一条联系记录
func (s *Store) CreateContact(record *domain.ContactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(record.Email)
	if _, ok := s.contacts[key]; ok {
		return storage.ErrContactExists
	}

	saved := *record
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	s.contacts[key] = &saved
	return nil
}

// ContactExists 按邮箱和提交时间查询记录是否已登记
func (s *Store) ContactExists(email string, submitDate time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.contacts[strings.ToLower(email)]
	if !ok {
		return false, nil
	}
	return record.SubmitDate.Equal(submitDate), nil
}

// GetContact 按邮箱获取联系记录
func (s *Store) GetContact(email string) (*domain.ContactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.contacts[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrContactNotFound
	}
	copied := *record
	return &copied, nil
}

// ListContacts 分页列出联系记录，按提交时间倒序
func (s *Store) ListContacts(page, pageSize int, since time.Time) ([]domain.ContactRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.ContactRecord, 0, len(s.contacts))
	for _, record := range s.contacts {
		if !since.IsZero() && record.SubmitDate.Before(since) {
			continue
		}
		all = append(all, *record)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].SubmitDate.After(all[j].SubmitDate)
	})

	total := int64(len(all))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []domain.ContactRecord{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ========== User Repository ==========

// CreateUser 创建用户
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) ||
			strings.EqualFold(existing.Username, user.Username) {
			return storage.ErrUserExists
		}
	}

	saved := *user
	s.users[user.ID] = &saved
	return nil
}

// GetUserByID 按 ID 获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// GetUserByEmail 按邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// GetUserByUsername 按用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// UpdateLastLogin 更新最后登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now().UTC()
	user.LastLoginAt = &now
	return nil
}

// ========== 工具方法 ==========

// Close 关闭存储
func (s *Store) Close() error {
	return nil
}

// Health 健康检查
func (s *Store) Health() error {
	return nil
}
