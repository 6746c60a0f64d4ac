package model

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	_ "gh-integration/internal/pkg/crypto" // 注册 secret 序列化器
	pkgErrors "gh-integration/pkg/errors"
)

const (
	CredentialTableName           = "github_credentials"
	CredentialAuthorizedUserTable = "github_credential_users"
)

// CredentialKind 认证方式
type CredentialKind string

const (
	CredentialKindPersonal    CredentialKind = "personal"     // Personal Access Token
	CredentialKindFineGrained CredentialKind = "fine_grained" // Fine-grained Token
	CredentialKindApp         CredentialKind = "github_app"   // GitHub App
)

// IsToken 是否为 token 类认证
func (k CredentialKind) IsToken() bool {
	return k == CredentialKindPersonal || k == CredentialKindFineGrained
}

// Valid 是否为已知认证方式
func (k CredentialKind) Valid() bool {
	return k.IsToken() || k == CredentialKindApp
}

// CredentialStatus 凭据状态, 由字段推导
type CredentialStatus string

const (
	CredentialStatusValid   CredentialStatus = "valid"
	CredentialStatusExpired CredentialStatus = "expired"
	CredentialStatusInvalid CredentialStatus = "invalid"
)

// Credential GitHub 认证凭据（敏感字段加密存储）
//
// 说明：
// - token/private_key/jwt_token: AES-GCM(base64) 密文, 读出时自动解密
// - state: 每次写入时重新计算并落库, 仅用于列表筛选; 读取时以 ComputeStatus 为准
type Credential struct {
	BaseModel

	Name   string         `gorm:"size:128;not null;index" json:"name"`
	Active bool           `gorm:"not null;default:true;index" json:"active"`
	Kind   CredentialKind `gorm:"size:32;not null;default:'personal'" json:"kind"`

	// Personal / Fine-grained Token
	Token           string     `gorm:"type:text;serializer:secret" json:"-"`
	TokenExpiration *time.Time `json:"token_expiration"`

	// GitHub App
	AppID          string     `gorm:"column:app_id;size:64" json:"app_id"`
	AppName        string     `gorm:"size:128" json:"app_name"`
	PrivateKey     string     `gorm:"type:text;serializer:secret" json:"-"`
	InstallationID string     `gorm:"column:installation_id;size:64" json:"installation_id"`
	JWTToken       string     `gorm:"column:jwt_token;type:text;serializer:secret" json:"-"`
	JWTExpiration  *time.Time `gorm:"column:jwt_expiration" json:"jwt_expiration"`

	OwnerID         int64  `gorm:"column:owner_id;not null;index" json:"owner_id"`
	AuthorizedUsers []User `gorm:"many2many:github_credential_users;joinForeignKey:CredentialID;joinReferences:UserID" json:"authorized_users,omitempty"`

	LastValidation *time.Time       `json:"last_validation"`
	State          CredentialStatus `gorm:"size:16;not null;default:'invalid';index" json:"state"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Credential) TableName() string {
	return CredentialTableName
}

// ComputeStatus 根据当前字段与时间推导状态
func (c *Credential) ComputeStatus(now time.Time) CredentialStatus {
	switch {
	case c.Kind.IsToken():
		if c.Token == "" {
			return CredentialStatusInvalid
		}
		if c.TokenExpiration != nil && c.TokenExpiration.Before(now) {
			return CredentialStatusExpired
		}
		return CredentialStatusValid
	case c.Kind == CredentialKindApp:
		if c.AppID == "" || c.PrivateKey == "" || c.InstallationID == "" {
			return CredentialStatusInvalid
		}
		if c.JWTExpiration != nil && c.JWTExpiration.Before(now) {
			return CredentialStatusExpired
		}
		return CredentialStatusValid
	default:
		return CredentialStatusInvalid
	}
}

// ValidateRequiredFields 按认证方式校验必填字段
func (c *Credential) ValidateRequiredFields() error {
	switch {
	case c.Kind.IsToken():
		if c.Token == "" {
			return pkgErrors.Validation("Personal Access Token 与 Fine-grained Token 认证必须填写 Token")
		}
	case c.Kind == CredentialKindApp:
		if c.AppID == "" {
			return pkgErrors.Validation("GitHub App 认证必须填写 App ID")
		}
		if c.PrivateKey == "" {
			return pkgErrors.Validation("GitHub App 认证必须填写 Private Key")
		}
		if c.InstallationID == "" {
			return pkgErrors.Validation("GitHub App 认证必须填写 Installation ID")
		}
	default:
		return pkgErrors.Validation("不支持的认证方式: " + string(c.Kind))
	}
	return nil
}

// BeforeSave 写入前校验并刷新 state
func (c *Credential) BeforeSave(tx *gorm.DB) error {
	if err := c.ValidateRequiredFields(); err != nil {
		return err
	}
	c.State = c.ComputeStatus(tx.NowFunc())
	return nil
}

// IsAuthorized token 类凭据不限制使用者; GitHub App 仅授权用户可用
func (c *Credential) IsAuthorized(userID int64) bool {
	if c.Kind != CredentialKindApp {
		return true
	}
	return lo.ContainsBy(c.AuthorizedUsers, func(u User) bool {
		return u.ID == userID
	})
}

// AuthorizedUserIDs 授权用户ID列表
func (c *Credential) AuthorizedUserIDs() []int64 {
	return lo.Map(c.AuthorizedUsers, func(u User, _ int) int64 {
		return u.ID
	})
}
