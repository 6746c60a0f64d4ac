package reconcile

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"gh-integration/internal/model"
	pkgErrors "gh-integration/pkg/errors"
)

// Fields 归一化后的仓库字段, 缺省值: 字符串为空, 计数为 0, private 为 false
type Fields struct {
	GitHubID        int64
	Name            string
	FullName        string
	Description     *string
	Private         bool
	HTMLURL         string
	CloneURL        string
	SSHURL          string
	DefaultBranch   string
	OwnerLogin      string
	OwnerAvatarURL  string
	OwnerHTMLURL    string
	StargazersCount int
	ForksCount      int
	OpenIssuesCount int
	WatchersCount   int
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
	PushedAt        *time.Time
	RawData         datatypes.JSON

	// InvalidTimestamps 存在但无法解析而被置空的时间字段
	InvalidTimestamps []string
}

type rawOwner struct {
	Login     *string `json:"login"`
	AvatarURL *string `json:"avatar_url"`
	HTMLURL   *string `json:"html_url"`
}

// rawRepository GET /user/repos 返回的单条记录, 字段均可缺失
type rawRepository struct {
	ID              *int64    `json:"id"`
	Name            *string   `json:"name"`
	FullName        *string   `json:"full_name"`
	Description     *string   `json:"description"`
	Private         *bool     `json:"private"`
	HTMLURL         *string   `json:"html_url"`
	CloneURL        *string   `json:"clone_url"`
	SSHURL          *string   `json:"ssh_url"`
	DefaultBranch   *string   `json:"default_branch"`
	Owner           *rawOwner `json:"owner"`
	StargazersCount *int      `json:"stargazers_count"`
	ForksCount      *int      `json:"forks_count"`
	OpenIssuesCount *int      `json:"open_issues_count"`
	WatchersCount   *int      `json:"watchers_count"`
	CreatedAt       *string   `json:"created_at"`
	UpdatedAt       *string   `json:"updated_at"`
	PushedAt        *string   `json:"pushed_at"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// timestamp 解析 ISO8601, 缺失返回 nil; 格式错误返回 nil 且 ok=false
func timestamp(p *string) (*time.Time, bool) {
	if p == nil || *p == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *p)
	if err != nil {
		return nil, false
	}
	t = t.UTC()
	return &t, true
}

// Serialize 将原始报文映射为本地字段, 原始字节原样保存在 RawData
func Serialize(raw json.RawMessage) (Fields, error) {
	var r rawRepository
	if err := json.Unmarshal(raw, &r); err != nil {
		return Fields{}, pkgErrors.Wrap(pkgErrors.CodeValidationError, "仓库数据格式错误", err)
	}
	if r.ID == nil {
		return Fields{}, pkgErrors.Validation("仓库数据缺少 id")
	}

	owner := r.Owner
	if owner == nil {
		owner = &rawOwner{}
	}

	f := Fields{
		GitHubID:        *r.ID,
		Name:            str(r.Name),
		FullName:        str(r.FullName),
		Description:     r.Description,
		Private:         r.Private != nil && *r.Private,
		HTMLURL:         str(r.HTMLURL),
		CloneURL:        str(r.CloneURL),
		SSHURL:          str(r.SSHURL),
		DefaultBranch:   str(r.DefaultBranch),
		OwnerLogin:      str(owner.Login),
		OwnerAvatarURL:  str(owner.AvatarURL),
		OwnerHTMLURL:    str(owner.HTMLURL),
		StargazersCount: num(r.StargazersCount),
		ForksCount:      num(r.ForksCount),
		OpenIssuesCount: num(r.OpenIssuesCount),
		WatchersCount:   num(r.WatchersCount),
		RawData:         append(datatypes.JSON(nil), raw...),
	}

	for _, ts := range []struct {
		name  string
		value *string
		dst   **time.Time
	}{
		{"created_at", r.CreatedAt, &f.CreatedAt},
		{"updated_at", r.UpdatedAt, &f.UpdatedAt},
		{"pushed_at", r.PushedAt, &f.PushedAt},
	} {
		t, ok := timestamp(ts.value)
		if !ok {
			f.InvalidTimestamps = append(f.InvalidTimestamps, ts.name)
		}
		*ts.dst = t
	}
	return f, nil
}

// mutableColumns 每次同步覆盖的列, github_id/credential_id/user_id 不在其中
var mutableColumns = []string{
	"name", "full_name", "description", "private",
	"html_url", "clone_url", "ssh_url", "default_branch",
	"owner_login", "owner_avatar_url", "owner_html_url",
	"stargazers_count", "forks_count", "open_issues_count", "watchers_count",
	"created_at", "updated_at", "pushed_at", "raw_data",
}

// Apply 覆盖仓库记录的可变字段
func (f Fields) Apply(r *model.Repository) {
	r.Name = f.Name
	r.FullName = f.FullName
	r.Description = f.Description
	r.Private = f.Private
	r.HTMLURL = f.HTMLURL
	r.CloneURL = f.CloneURL
	r.SSHURL = f.SSHURL
	r.DefaultBranch = f.DefaultBranch
	r.OwnerLogin = f.OwnerLogin
	r.OwnerAvatarURL = f.OwnerAvatarURL
	r.OwnerHTMLURL = f.OwnerHTMLURL
	r.StargazersCount = f.StargazersCount
	r.ForksCount = f.ForksCount
	r.OpenIssuesCount = f.OpenIssuesCount
	r.WatchersCount = f.WatchersCount
	r.RemoteCreatedAt = f.CreatedAt
	r.RemoteUpdatedAt = f.UpdatedAt
	r.RemotePushedAt = f.PushedAt
	r.RawData = f.RawData
}
