package domain

import (
	"time"
)

// ContactRecord 表示已确认的联系人记录。
//
// 记录仅在访客点击确认链接后创建，此后除创建时写入一次 IP 外不可变。
// Email 作为主键，保证同一 (email, submit_date) 组合最多落库一条。
type ContactRecord struct {
	Email      string    `json:"email" gorm:"primaryKey;type:varchar(254)"`
	Site       string    `json:"site" gorm:"type:varchar(100);index"`
	SubmitDate time.Time `json:"submitDate" gorm:"index"`
	IPAddress  string    `json:"ipAddress,omitempty" gorm:"type:varchar(45)"` // 确认时的来源地址，可为空
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName 指定联系人记录的表名
func (ContactRecord) TableName() string {
	return "contact_records"
}

// Submission 表示待确认的表单提交。
//
// 它从不落库，只存在于签名令牌内部：表单提交时编码进令牌，
// 确认点击时解码取出。令牌之外没有独立的生命周期。
type Submission struct {
	Email      string    `json:"email"`
	SubmitDate time.Time `json:"submitDate"`
}
