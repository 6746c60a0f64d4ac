package constants

// 认证类型
const (
	AuthTypeLDAP  = "ldap"
	AuthTypeLocal = "local"
)

// 状态
const (
	StatusEnabled  int8 = 1
	StatusDisabled int8 = 0
)

// JWT 相关
const (
	JWTTypeAccess  = "access"
	JWTTypeRefresh = "refresh"
)

// gin.Context 中的键
const (
	ContextKeyUser      = "user"
	ContextKeyUserID    = "user_id"
	ContextKeyUsername  = "username"
	ContextKeyRequestID = "request_id"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
	HeaderRequestID     = "X-Request-ID"
)

// GitHub API
const (
	GitHubAcceptHeader      = "application/vnd.github+json"
	GitHubAPIVersionHeader  = "X-GitHub-Api-Version"
	GitHubDefaultAPIVersion = "2022-11-28"
	GitHubAppTokenTTLSecond = 600
)

// 同步执行结果
const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// 同步触发方式
const (
	SyncTriggerManual   = "manual"
	SyncTriggerSchedule = "schedule"
)
