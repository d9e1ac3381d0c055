package httptransport

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgUserInactive       = "账号已被禁用"
	MsgTokenInvalid       = "无效的访问令牌"
	MsgPermissionDenied   = "权限不足"

	// 联系记录相关
	MsgContactListFailed = "获取邀请列表失败"

	// 通用
	MsgInternalError = "服务器内部错误"
)
