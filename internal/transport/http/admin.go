package httptransport

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inviteme/backend/internal/auth"
	jwtpkg "inviteme/backend/internal/auth/jwt"
	"inviteme/backend/internal/service"
)

// AdminHandler 处理管理 API 请求
type AdminHandler struct {
	admin      *service.AdminService
	auth       *auth.Service
	jwtManager *jwtpkg.Manager
	log        *zap.Logger
}

// NewAdminHandler 创建管理处理器
func NewAdminHandler(admin *service.AdminService, authService *auth.Service, jwtManager *jwtpkg.Manager, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:      admin,
		auth:       authService,
		jwtManager: jwtManager,
		log:        log,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // 邮箱或用户名
	Password   string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

// Login godoc
// @Summary 管理员登录
// @Description 使用邮箱或用户名登录，返回 JWT 令牌对
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} Response{data=loginResponse}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /v1/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	user, err := h.auth.Login(auth.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch err {
		case auth.ErrUserInactive:
			Forbidden(c, MsgUserInactive)
		default:
			Unauthorized(c, MsgInvalidCredentials)
		}
		return
	}

	pair, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.log.Error("生成令牌失败", zap.Error(err))
		InternalError(c, MsgInternalError)
		return
	}

	Success(c, loginResponse{
		User: userResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
			Role:     string(user.Role),
		},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh godoc
// @Summary 刷新访问令牌
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body refreshRequest true "刷新令牌"
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /v1/admin/refresh [post]
func (h *AdminHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		Unauthorized(c, MsgTokenInvalid)
		return
	}

	Success(c, gin.H{"accessToken": accessToken})
}

// Me godoc
// @Summary 当前登录用户
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=userResponse}
// @Failure 401 {object} Response
// @Router /v1/admin/me [get]
func (h *AdminHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := h.auth.GetUserByID(userID)
	if err != nil {
		Unauthorized(c, MsgTokenInvalid)
		return
	}

	Success(c, userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	})
}

// ListContacts godoc
// @Summary 已确认邀请列表
// @Description 分页返回已确认的邀请记录，按提交时间倒序
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码（默认1）"
// @Param pageSize query int false "每页数量（默认20，最大100）"
// @Param since query string false "仅返回该时刻之后的记录（RFC3339）"
// @Success 200 {object} Response{data=service.ContactPage}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 500 {object} Response
// @Router /v1/admin/contacts [get]
func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			BadRequest(c, MsgInvalidRequest)
			return
		}
		since = parsed
	}

	result, err := h.admin.ListContacts(page, pageSize, since)
	if err != nil {
		h.log.Error("获取邀请列表失败", zap.Error(err))
		InternalError(c, MsgContactListFailed)
		return
	}

	Success(c, result)
}
