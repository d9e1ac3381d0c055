package form

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// 安全校验失败的字段名
const (
	FieldTimestamp    = "timestamp"
	FieldSecurityHash = "security_hash"
	FieldHoneypot     = "honeypot"
)

// SecurityError 表示表单安全信封校验失败。
//
// Field 标识未通过的信封字段，Reason 仅用于日志和调试页面，
// 生产模式下不向客户端展示。
type SecurityError struct {
	Field  string
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security validation failed on %q: %s", e.Field, e.Reason)
}

// Envelope 表示渲染表单时下发的安全信封初始值
type Envelope struct {
	Timestamp    string // 表单签发时刻的 Unix 秒
	SecurityHash string // 绑定 timestamp + honeypot 的键控哈希
}

// SecurityForm 校验表单的反自动化安全信封。
//
// 信封由三个字段组成：签发时间戳、绑定时间戳与蜜罐值的键控哈希、
// 以及期望保持为空的蜜罐字段。构造时总是生成全新的 timestamp 和
// security_hash 初始值；调用方传入的这两个初始值一律忽略，
// 它们只能由服务端计算，绝不接受客户端种子。
type SecurityForm struct {
	secret []byte
	salt   string
	window time.Duration
	now    func() time.Time

	Initial Envelope
}

// NewSecurityForm 创建安全信封表单并生成全新初始值。
//
// initial 中携带的 timestamp / security_hash 会被丢弃重算。
func NewSecurityForm(secret, salt string, window time.Duration, initial url.Values) *SecurityForm {
	return newSecurityFormAt(secret, salt, window, initial, time.Now)
}

// newSecurityFormAt 允许测试注入时钟
func newSecurityFormAt(secret, salt string, window time.Duration, _ url.Values, now func() time.Time) *SecurityForm {
	f := &SecurityForm{
		secret: []byte(secret),
		salt:   salt,
		window: window,
		now:    now,
	}

	ts := strconv.FormatInt(f.now().Unix(), 10)
	f.Initial = Envelope{
		Timestamp:    ts,
		SecurityHash: f.GenerateSecurityHash(ts, ""),
	}
	return f
}

// GenerateSecurityHash 计算 timestamp + honeypot 的键控哈希。
//
// 同一密钥、同一盐值下结果确定；任一输入变化都会使哈希失效。
func (f *SecurityForm) GenerateSecurityHash(timestamp, honeypot string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(f.salt))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{0})
	mac.Write([]byte(honeypot))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidateSecurity 校验提交数据中的安全信封。
//
// 按固定顺序检查：时间戳缺失/无法解析/超出有效窗口 → "timestamp"；
// 蜜罐非空 → "honeypot"；哈希与重算结果不符 → "security_hash"。
// 蜜罐先于哈希检查，使自动化提交得到明确的蜜罐判定而不是
// 连带的哈希失配。全部通过返回 nil。
func (f *SecurityForm) ValidateSecurity(data url.Values) *SecurityError {
	tsValue := data.Get(FieldTimestamp)
	if tsValue == "" {
		return &SecurityError{Field: FieldTimestamp, Reason: "missing"}
	}

	ts, err := strconv.ParseInt(tsValue, 10, 64)
	if err != nil {
		return &SecurityError{Field: FieldTimestamp, Reason: "unparsable"}
	}

	age := f.now().Sub(time.Unix(ts, 0))
	if age > f.window {
		return &SecurityError{Field: FieldTimestamp, Reason: fmt.Sprintf("stale: issued %s ago", age.Truncate(time.Second))}
	}

	honeypot := data.Get(FieldHoneypot)
	if honeypot != "" {
		return &SecurityError{Field: FieldHoneypot, Reason: "honeypot filled in"}
	}

	expected := f.GenerateSecurityHash(tsValue, honeypot)
	supplied := data.Get(FieldSecurityHash)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		return &SecurityError{Field: FieldSecurityHash, Reason: "hash mismatch"}
	}

	return nil
}
