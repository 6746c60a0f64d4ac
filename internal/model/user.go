package model

import "time"

const UserTableName = "users"

// User 用户(主体), 本地或 LDAP 登录
type User struct {
	BaseStatus
	Username     string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password     string     `gorm:"size:255;not null;default:''" json:"-"` // 仅本地用户, bcrypt
	AuthProvider string     `gorm:"size:20;not null;default:'local'" json:"auth_provider"`
	Email        *string    `gorm:"size:100" json:"email"`
	DisplayName  *string    `gorm:"size:100" json:"display_name"`
	SystemRoles  StringList `gorm:"type:text" json:"system_roles"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return UserTableName
}
