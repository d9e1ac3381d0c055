package service

import (
	"fmt"
	"time"

	"inviteme/backend/internal/domain"
	"inviteme/backend/internal/storage"
)

// AdminService 封装管理后台的查询操作。
type AdminService struct {
	store storage.ContactRepository
}

// NewAdminService 创建管理业务服务。
func NewAdminService(store storage.ContactRepository) *AdminService {
	return &AdminService{store: store}
}

// ContactPage 分页结果
type ContactPage struct {
	Contacts []domain.ContactRecord `json:"contacts"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// ListContacts 分页列出已确认的联系记录。
// since 非零时只返回该时刻之后提交的记录
func (s *AdminService) ListContacts(page, pageSize int, since time.Time) (*ContactPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	contacts, total, err := s.store.ListContacts(page, pageSize, since)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return &ContactPage{
		Contacts: contacts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}
