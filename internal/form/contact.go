package form

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"inviteme/backend/internal/domain"
)

// 邮箱字段名
const FieldEmail = "email"

var (
	// ErrNotValidated 在未通过校验前调用 GetInstanceData
	ErrNotValidated = errors.New("form: GetInstanceData called before successful validation")
)

// ContactForm 组合安全信封校验与邮箱字段校验。
//
// 两层校验相互独立：安全信封失败意味着提交可能来自自动化工具，
// 调用方应返回客户端错误；字段校验失败则重新渲染表单让用户修正。
type ContactForm struct {
	*SecurityForm

	data      url.Values
	validator *domain.EmailValidator
	now       func() time.Time

	validated bool
	email     string
	errors    map[string]string
}

// NewContactForm 创建未绑定数据的表单（用于渲染空表单）。
//
// initial 中的 timestamp / security_hash 被忽略，总是服务端重新生成。
func NewContactForm(secret, salt string, window time.Duration, initial url.Values) *ContactForm {
	return newContactFormAt(secret, salt, window, initial, nil, time.Now)
}

// BindContactForm 创建绑定了提交数据的表单（用于校验 POST）
func BindContactForm(secret, salt string, window time.Duration, data url.Values) *ContactForm {
	return newContactFormAt(secret, salt, window, nil, data, time.Now)
}

func newContactFormAt(secret, salt string, window time.Duration, initial, data url.Values, now func() time.Time) *ContactForm {
	return &ContactForm{
		SecurityForm: newSecurityFormAt(secret, salt, window, initial, now),
		data:         data,
		validator:    domain.NewEmailValidator(),
		now:          now,
		errors:       make(map[string]string),
	}
}

// SecurityErrors 校验安全信封，返回首个失败；通过返回 nil
func (f *ContactForm) SecurityErrors() *SecurityError {
	if f.data == nil {
		return &SecurityError{Field: FieldTimestamp, Reason: "no data bound"}
	}
	return f.ValidateSecurity(f.data)
}

// Valid 执行字段校验并缓存结果。
//
// 只校验业务字段（邮箱）；安全信封由 SecurityErrors 单独校验。
func (f *ContactForm) Valid() bool {
	f.errors = make(map[string]string)
	f.validated = false

	email := strings.TrimSpace(f.data.Get(FieldEmail))
	if err := f.validator.ValidateEmail(email); err != nil {
		if errors.Is(err, domain.ErrEmailRequired) {
			f.errors[FieldEmail] = "This field is required."
		} else {
			f.errors[FieldEmail] = "Enter a valid email address."
		}
		return false
	}

	f.email = email
	f.validated = true
	return true
}

// FieldErrors 返回最近一次 Valid 调用收集的字段错误
func (f *ContactForm) FieldErrors() map[string]string {
	return f.errors
}

// GetInstanceData 返回待确认的提交数据。
//
// 必须在 Valid 返回 true 之后调用，否则返回 ErrNotValidated，
// 绝不返回不完整的数据。提交时间由服务端在此刻分配。
func (f *ContactForm) GetInstanceData() (domain.Submission, error) {
	if !f.validated {
		return domain.Submission{}, ErrNotValidated
	}
	return domain.Submission{
		Email:      f.email,
		SubmitDate: f.now().UTC().Truncate(time.Second),
	}, nil
}
