package model

import (
	"time"

	"gorm.io/datatypes"
)

const RepositoryTableName = "github_repositories"

// Repository GitHub 仓库本地镜像
// (github_id, credential_id) 唯一; 远端删除的仓库不会被自动清理
type Repository struct {
	ID           int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	GitHubID     int64 `gorm:"column:github_id;not null;uniqueIndex:idx_repo_github_credential,priority:1" json:"github_id"`
	CredentialID int64 `gorm:"column:credential_id;not null;uniqueIndex:idx_repo_github_credential,priority:2;index" json:"credential_id"`
	UserID       int64 `gorm:"column:user_id;not null;index" json:"user_id"`

	Name          string  `gorm:"size:255;not null" json:"name"`
	FullName      string  `gorm:"size:255;not null" json:"full_name"`
	Description   *string `gorm:"type:text" json:"description"`
	Private       bool    `gorm:"not null" json:"private"`
	HTMLURL       string  `gorm:"column:html_url;size:500;not null" json:"html_url"`
	CloneURL      string  `gorm:"column:clone_url;size:500;not null" json:"clone_url"`
	SSHURL        string  `gorm:"column:ssh_url;size:500;not null" json:"ssh_url"`
	DefaultBranch string  `gorm:"size:255;not null" json:"default_branch"`

	OwnerLogin     string `gorm:"size:255;not null" json:"owner_login"`
	OwnerAvatarURL string `gorm:"column:owner_avatar_url;size:500;not null" json:"owner_avatar_url"`
	OwnerHTMLURL   string `gorm:"column:owner_html_url;size:500;not null" json:"owner_html_url"`

	StargazersCount int `gorm:"not null" json:"stargazers_count"`
	ForksCount      int `gorm:"not null" json:"forks_count"`
	OpenIssuesCount int `gorm:"not null" json:"open_issues_count"`
	WatchersCount   int `gorm:"not null" json:"watchers_count"`

	// 远端时间戳, 不使用 gorm 自动时间
	RemoteCreatedAt *time.Time `gorm:"column:created_at" json:"created_at"`
	RemoteUpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at"`
	RemotePushedAt  *time.Time `gorm:"column:pushed_at" json:"pushed_at"`

	RawData datatypes.JSON `gorm:"column:raw_data;type:text" json:"raw_data,omitempty"` // 原始报文, 按字节原样保存

	Credential *Credential `gorm:"foreignKey:CredentialID" json:"credential,omitempty"`
}

func (Repository) TableName() string {
	return RepositoryTableName
}
