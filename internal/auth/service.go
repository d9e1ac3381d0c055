// Package auth 提供管理后台的认证服务
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage"
)

var (
	// ErrInvalidEmail 无效的邮箱格式
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrUserExists 用户已存在
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive 用户已被禁用
	ErrUserInactive = errors.New("user is inactive")
)

// Service 认证服务
type Service struct {
	userRepo  storage.UserRepository
	validator *domain.EmailValidator
}

// NewService 创建认证服务
func NewService(userRepo storage.UserRepository) *Service {
	return &Service{
		userRepo:  userRepo,
		validator: domain.NewEmailValidator(),
	}
}

// CreateAdminInput 创建管理员输入
type CreateAdminInput struct {
	Email    string
	Username string
	Password string
	Role     domain.UserRole
}

// CreateAdmin 创建管理员账号
// 本服务没有自助注册，管理员只能由 create-admin 命令创建
func (s *Service) CreateAdmin(input CreateAdminInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleAdmin
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     input.Username,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput 登录输入
type LoginInput struct {
	Identifier string // 邮箱或用户名
	Password   string
}

// Login 管理员登录
func (s *Service) Login(input LoginInput) (*domain.User, error) {
	identifier := strings.ToLower(strings.TrimSpace(input.Identifier))

	// 优先按邮箱查找
	user, err := s.userRepo.GetUserByEmail(identifier)
	if err != nil {
		user, err = s.userRepo.GetUserByUsername(identifier)
		if err != nil {
			// 仍然执行一次哈希比较，拉平用户存在与否的响应时间
			CheckPassword(input.Password, dummyHash)
			return nil, ErrInvalidCredentials
		}
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.UpdateLastLogin(user.ID)

	return user, nil
}

// GetUserByID 根据 ID 获取用户
func (s *Service) GetUserByID(userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// dummyHash 用于登录失败路径的恒定时间比较
var dummyHash = func() string {
	hash, _ := bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)
	return string(hash)
}()

// HashPassword 哈希密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 检查密码是否匹配
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
