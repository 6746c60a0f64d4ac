package dto

import "time"

// RepositoryQuery 仓库镜像列表查询
type RepositoryQuery struct {
	PageQuery
	CredentialID *int64 `form:"credential_id" binding:"omitempty,min=1"`
	Private      *bool  `form:"private"`
}

// SyncRepositoriesRequest 触发同步, 未指定凭据时使用默认凭据
type SyncRepositoriesRequest struct {
	CredentialID int64 `json:"credential_id" binding:"omitempty,min=1"`
}

// SyncRepositoriesResponse 同步结果
type SyncRepositoriesResponse struct {
	RunID        string `json:"run_id"`
	CredentialID int64  `json:"credential_id"`
	Fetched      int    `json:"fetched"`
	Inserted     int    `json:"inserted"`
	Updated      int    `json:"updated"`
}

// RepositoryResponse 仓库镜像信息
type RepositoryResponse struct {
	ID              int64      `json:"id"`
	GitHubID        int64      `json:"github_id"`
	CredentialID    int64      `json:"credential_id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     *string    `json:"description"`
	Private         bool       `json:"private"`
	HTMLURL         string     `json:"html_url"`
	CloneURL        string     `json:"clone_url"`
	SSHURL          string     `json:"ssh_url"`
	DefaultBranch   string     `json:"default_branch"`
	OwnerLogin      string     `json:"owner_login"`
	OwnerAvatarURL  string     `json:"owner_avatar_url"`
	OwnerHTMLURL    string     `json:"owner_html_url"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
	WatchersCount   int        `json:"watchers_count"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
	PushedAt        *time.Time `json:"pushed_at"`
}

// SyncRunResponse 同步记录
type SyncRunResponse struct {
	RunID        string     `json:"run_id"`
	CredentialID *int64     `json:"credential_id"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"`
	Fetched      int        `json:"fetched"`
	Inserted     int        `json:"inserted"`
	Updated      int        `json:"updated"`
	Message      *string    `json:"message"`
	CreatedAt    string     `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at"`
}
