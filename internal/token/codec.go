package token

import (
	"bytes"
	"compress/zlib"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"inviteme/backend/internal/domain"
)

var (
	// ErrBadSignature 令牌签名与载荷不匹配
	ErrBadSignature = errors.New("token signature mismatch")
	// ErrMalformed 令牌结构不合法（分段缺失、base64 或载荷解析失败）
	ErrMalformed = errors.New("malformed token")
)

// 压缩标志字节：载荷经过 zlib 压缩时置于明文载荷首字节
const compressFlag = 'z'

// 未压缩载荷的标志字节
const rawFlag = 'j'

var b64 = base64.RawURLEncoding

// Codec 对待确认提交进行签名编解码。
//
// 编码结果是不透明、防篡改的 URL 安全字符串，用于在表单提交与
// 确认点击之间携带数据，服务端无需保存任何会话状态。签名覆盖
// 载荷的每一个字节；任何不匹配都整体拒绝。编解码器本身不校验
// 时效，过期判断由调用方基于载荷内的时间戳自行决定。
type Codec struct {
	secret []byte
	salt   string
}

// NewCodec 创建签名令牌编解码器
func NewCodec(secret, salt string) *Codec {
	return &Codec{
		secret: []byte(secret),
		salt:   salt,
	}
}

// wirePayload 是提交数据在令牌内的紧凑表示
type wirePayload struct {
	Email      string `json:"e"`
	SubmitDate int64  `json:"t"` // Unix 秒
}

// Encode 将提交数据编码为签名令牌。
//
// compress 为真时先对 JSON 载荷做 zlib 压缩以缩短 URL；
// 仅当压缩结果确实更短时才采用。
func (c *Codec) Encode(sub domain.Submission, compress bool) (string, error) {
	raw, err := json.Marshal(wirePayload{
		Email:      sub.Email,
		SubmitDate: sub.SubmitDate.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	payload := append([]byte{rawFlag}, raw...)
	if compress {
		var buf bytes.Buffer
		buf.WriteByte(compressFlag)
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return "", fmt.Errorf("failed to compress payload: %w", err)
		}
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("failed to compress payload: %w", err)
		}
		if buf.Len() < len(payload) {
			payload = buf.Bytes()
		}
	}

	encoded := b64.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Decode 校验并解码令牌。
//
// 签名不匹配返回 ErrBadSignature；结构不合法返回 ErrMalformed。
// 调用方不应向客户端透露二者的区别。
func (c *Codec) Decode(token string) (domain.Submission, error) {
	var zero domain.Submission

	dot := strings.LastIndex(token, ".")
	if dot < 0 {
		return zero, ErrMalformed
	}
	encoded, sig := token[:dot], token[dot+1:]

	// 先验签再解析：未通过签名校验的字节不做任何解读
	expected := c.sign(encoded)
	if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) != 1 {
		return zero, ErrBadSignature
	}

	payload, err := b64.DecodeString(encoded)
	if err != nil || len(payload) == 0 {
		return zero, ErrMalformed
	}

	raw := payload[1:]
	switch payload[0] {
	case rawFlag:
	case compressFlag:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return zero, ErrMalformed
		}
		raw, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return zero, ErrMalformed
		}
	default:
		return zero, ErrMalformed
	}

	var wire wirePayload
	if err := json.Unmarshal(raw, &wire); err != nil {
		return zero, ErrMalformed
	}

	return domain.Submission{
		Email:      wire.Email,
		SubmitDate: time.Unix(wire.SubmitDate, 0).UTC(),
	}, nil
}

// sign 计算 base64 载荷字符串的 HMAC-SHA256 签名
func (c *Codec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(c.salt))
	mac.Write([]byte(encoded))
	return b64.EncodeToString(mac.Sum(nil))
}
