package httptransport

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inviteme/backend/internal/config"
	"inviteme/backend/internal/form"
	"inviteme/backend/internal/service"
)

// InviteHandler 处理访客侧的邀请流程页面
type InviteHandler struct {
	invites *service.InviteService
	cfg     *config.Config
	log     *zap.Logger
}

// NewInviteHandler 创建邀请处理器
func NewInviteHandler(invites *service.InviteService, cfg *config.Config, log *zap.Logger) *InviteHandler {
	return &InviteHandler{
		invites: invites,
		cfg:     cfg,
		log:     log,
	}
}

// formPageData 表单页面的模板数据
type formPageData struct {
	SiteName     string
	Email        string
	Errors       map[string]string
	Timestamp    string
	SecurityHash string
	Next         string
}

// pageData 结果页面的模板数据
type pageData struct {
	SiteName string
	Reason   string
}

// ShowForm godoc
// @Summary 邀请表单页
// @Description 渲染带全新安全信封的邀请请求表单
// @Tags Invite
// @Produce html
// @Param next query string false "提交成功后的跳转地址"
// @Success 200 {string} string "HTML 页面"
// @Router / [get]
func (h *InviteHandler) ShowForm(c *gin.Context) {
	f := h.invites.NewForm()
	c.HTML(http.StatusOK, "form.html", formPageData{
		SiteName:     h.cfg.Site.Name,
		Errors:       map[string]string{},
		Timestamp:    f.Initial.Timestamp,
		SecurityHash: f.Initial.SecurityHash,
		Next:         safeNext(c.Query("next")),
	})
}

// Submit godoc
// @Summary 受理邀请提交
// @Description 校验表单并向提交者发送确认邮件
// @Tags Invite
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "邮箱地址"
// @Param timestamp formData string true "表单签发时间戳"
// @Param security_hash formData string true "安全信封哈希"
// @Success 200 {string} string "HTML 页面"
// @Failure 400 {string} string "安全校验失败"
// @Router /post/ [post]
func (h *InviteHandler) Submit(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.renderBadRequest(c, "malformed form data")
		return
	}

	result, err := h.invites.Accept(c.Request.Context(), service.AcceptInput{
		Form:       c.Request.PostForm,
		RemoteAddr: c.ClientIP(),
	})
	if err != nil {
		var secErr *form.SecurityError
		if errors.As(err, &secErr) {
			h.renderBadRequest(c, secErr.Error())
			return
		}
		h.log.Error("受理提交失败", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "bad_request.html", pageData{
			SiteName: h.cfg.Site.Name,
		})
		return
	}

	switch result.Status {
	case service.AcceptInvalidFields:
		// 重新渲染表单：字段错误回显，安全信封重新签发
		fresh := h.invites.NewForm()
		c.HTML(http.StatusOK, "form.html", formPageData{
			SiteName:     h.cfg.Site.Name,
			Email:        result.Email,
			Errors:       result.FieldErrors,
			Timestamp:    fresh.Initial.Timestamp,
			SecurityHash: fresh.Initial.SecurityHash,
			Next:         safeNext(c.PostForm("next")),
		})

	case service.AcceptDiscarded:
		c.HTML(http.StatusOK, "discarded.html", pageData{SiteName: h.cfg.Site.Name})

	default:
		if next := safeNext(c.PostForm("next")); next != "" {
			c.Redirect(http.StatusFound, next)
			return
		}
		c.HTML(http.StatusOK, "confirmation_sent.html", pageData{SiteName: h.cfg.Site.Name})
	}
}

// Confirm godoc
// @Summary 确认邀请请求
// @Description 校验确认令牌并登记邀请，链接只能使用一次
// @Tags Invite
// @Produce html
// @Param key path string true "签名确认令牌"
// @Success 200 {string} string "HTML 页面"
// @Failure 404 {string} string "令牌无效或已使用"
// @Router /confirm/{key} [get]
func (h *InviteHandler) Confirm(c *gin.Context) {
	result, err := h.invites.Confirm(c.Request.Context(), c.Param("key"), c.ClientIP())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.HTML(http.StatusNotFound, "not_found.html", pageData{SiteName: h.cfg.Site.Name})
			return
		}
		h.log.Error("处理确认失败", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "bad_request.html", pageData{
			SiteName: h.cfg.Site.Name,
		})
		return
	}

	if result.Status == service.ConfirmDiscarded {
		c.HTML(http.StatusOK, "discarded.html", pageData{SiteName: h.cfg.Site.Name})
		return
	}
	c.HTML(http.StatusOK, "accepted.html", pageData{SiteName: h.cfg.Site.Name})
}

// renderBadRequest 渲染 400 页面
// 拒绝原因只在调试模式下展示，避免向探测者泄露校验细节
func (h *InviteHandler) renderBadRequest(c *gin.Context, reason string) {
	data := pageData{SiteName: h.cfg.Site.Name}
	if h.cfg.Server.Debug {
		data.Reason = reason
	}
	c.HTML(http.StatusBadRequest, "bad_request.html", data)
}

// safeNext 校验跳转地址，只允许站内相对路径
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.ContainsAny(next, "\r\n\\") {
		return ""
	}
	return next
}
