package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"gh-integration/internal/pkg/git/api"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
)

const (
	defaultBaseURL = "https://api.github.com/"
	maxPerPage     = 100
)

// Provider GitHub平台提供者
type Provider struct {
	config *api.ProviderConfig
	client *github.Client
}

// NewProvider 创建GitHub提供者, 认证头通过 oauth2 Transport 附加到每个请求
func NewProvider(config *api.ProviderConfig) (api.GitProvider, error) {
	tokenType, accessToken, err := splitAuthorization(config.Headers[constants.HeaderAuthorization])
	if err != nil {
		return nil, err
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: tokenType})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = config.Timeout
	if hc.Timeout <= 0 {
		hc.Timeout = 30 * time.Second
	}

	client := github.NewClient(hc)

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if client.BaseURL, err = url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("GitHub API 地址无效: %w", err)
	}

	return &Provider{config: config, client: client}, nil
}

// splitAuthorization "token xxx" / "Bearer xxx" 拆分为类型与值
func splitAuthorization(header string) (string, string, error) {
	tokenType, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || value == "" {
		return "", "", pkgErrors.User("缺少 GitHub 认证信息")
	}
	return tokenType, value, nil
}

func (p *Provider) newRequest(path string) (*http.Request, error) {
	req, err := p.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", constants.GitHubAcceptHeader)

	version := p.config.APIVersion
	if version == "" {
		version = constants.GitHubDefaultAPIVersion
	}
	req.Header.Set(constants.GitHubAPIVersionHeader, version)

	for k, v := range p.config.Headers {
		if k != constants.HeaderAuthorization {
			req.Header.Set(k, v)
		}
	}
	return req, nil
}

func (p *Provider) perPage() int {
	if p.config.PerPage <= 0 || p.config.PerPage > maxPerPage {
		return maxPerPage
	}
	return p.config.PerPage
}

// ListUserRepositories GET /user/repos, 按 Link 头依次拉取分页
func (p *Provider) ListUserRepositories(ctx context.Context) ([]json.RawMessage, error) {
	var all []json.RawMessage

	page := 1
	for fetched := 0; p.config.MaxPages <= 0 || fetched < p.config.MaxPages; fetched++ {
		req, err := p.newRequest(fmt.Sprintf("user/repos?per_page=%d&page=%d", p.perPage(), page))
		if err != nil {
			return nil, pkgErrors.WrapUser("拉取仓库列表失败", err)
		}

		var batch []json.RawMessage
		resp, err := p.client.Do(ctx, req, &batch)
		if err != nil {
			return nil, pkgErrors.WrapUser("拉取仓库列表失败", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, pkgErrors.User(fmt.Sprintf("拉取仓库列表失败: HTTP %d", resp.StatusCode))
		}

		all = append(all, batch...)
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return all, nil
}

// GetCurrentUser GET /user
func (p *Provider) GetCurrentUser(ctx context.Context) (*api.UserInfo, error) {
	user, _, err := p.client.Users.Get(ctx, "")
	if err != nil {
		return nil, pkgErrors.WrapUser("获取 GitHub 用户失败", err)
	}
	return &api.UserInfo{
		ID:    user.GetID(),
		Login: user.GetLogin(),
		Name:  user.GetName(),
		Email: user.GetEmail(),
	}, nil
}

// GetCurrentApp GET /app
func (p *Provider) GetCurrentApp(ctx context.Context) (*api.AppInfo, error) {
	app, _, err := p.client.Apps.Get(ctx, "")
	if err != nil {
		return nil, pkgErrors.WrapUser("获取 GitHub App 失败", err)
	}
	return &api.AppInfo{
		ID:    app.GetID(),
		Slug:  app.GetSlug(),
		Name:  app.GetName(),
		Owner: app.GetOwner().GetLogin(),
	}, nil
}
