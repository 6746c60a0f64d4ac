package dto

import "time"

// CreateCredentialRequest 创建凭据请求
// token/private_key 加密存储, 服务端不会回传明文
type CreateCredentialRequest struct {
	Name            string     `json:"name" binding:"required,max=128"`
	Kind            string     `json:"kind" binding:"required,oneof=personal fine_grained github_app"`
	Token           string     `json:"token"`
	TokenExpiration *time.Time `json:"token_expiration"`
	AppID           string     `json:"app_id" binding:"max=64"`
	AppName         string     `json:"app_name" binding:"max=128"`
	PrivateKey      string     `json:"private_key"`
	InstallationID  string     `json:"installation_id" binding:"max=64"`
	AuthorizedUsers []int64    `json:"authorized_user_ids"`
}

// UpdateCredentialRequest 更新凭据, 未传的敏感字段保持不变
type UpdateCredentialRequest struct {
	Name                 *string    `json:"name" binding:"omitempty,max=128"`
	Token                *string    `json:"token"`
	TokenExpiration      *time.Time `json:"token_expiration"`
	ClearTokenExpiration bool       `json:"clear_token_expiration"` // 为 true 时清除过期时间, 优先于 token_expiration
	AppID                *string    `json:"app_id" binding:"omitempty,max=64"`
	AppName              *string    `json:"app_name" binding:"omitempty,max=128"`
	PrivateKey           *string    `json:"private_key"`
	InstallationID       *string    `json:"installation_id" binding:"omitempty,max=64"`
}

// SetAuthorizedUsersRequest 设置 GitHub App 授权用户
type SetAuthorizedUsersRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

// CredentialQuery 凭据列表查询
type CredentialQuery struct {
	PageQuery
	Kind   string `form:"kind" binding:"omitempty,oneof=personal fine_grained github_app"`
	Active *bool  `form:"active"`
}

// CredentialResponse 凭据信息, 不包含任何明文密钥
type CredentialResponse struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Active            bool       `json:"active"`
	Kind              string     `json:"kind"`
	State             string     `json:"state"`
	HasToken          bool       `json:"has_token"`
	TokenExpiration   *time.Time `json:"token_expiration,omitempty"`
	AppID             string     `json:"app_id,omitempty"`
	AppName           string     `json:"app_name,omitempty"`
	InstallationID    string     `json:"installation_id,omitempty"`
	HasPrivateKey     bool       `json:"has_private_key"`
	HasJWTToken       bool       `json:"has_jwt_token"`
	JWTExpiration     *time.Time `json:"jwt_expiration,omitempty"`
	OwnerID           int64      `json:"owner_id"`
	AuthorizedUserIDs []int64    `json:"authorized_user_ids"`
	LastValidation    *time.Time `json:"last_validation,omitempty"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
}

// AvailableCredentialsResponse 当前用户可用凭据, 仅一个时给出默认值
type AvailableCredentialsResponse struct {
	Items     []*CredentialResponse `json:"items"`
	DefaultID *int64                `json:"default_id"`
}

// MintTokenResponse 手动签发 JWT 的结果, 不返回 JWT 本身
type MintTokenResponse struct {
	JWTExpiration *time.Time `json:"jwt_expiration"`
	State         string     `json:"state"`
}

// ValidateCredentialResponse 凭据校验结果
type ValidateCredentialResponse struct {
	Login          string     `json:"login"`
	State          string     `json:"state"`
	LastValidation *time.Time `json:"last_validation"`
}
