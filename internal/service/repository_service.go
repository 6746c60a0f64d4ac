package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"gh-integration/internal/core/credential"
	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/repository"
	pkgErrors "gh-integration/pkg/errors"
)

// RepositoryService 仓库镜像查询, 仅返回调用者可用凭据下的仓库
type RepositoryService interface {
	List(ctx context.Context, p Principal, query *dto.RepositoryQuery) ([]*dto.RepositoryResponse, int64, error)
	GetByID(ctx context.Context, p Principal, id int64) (*dto.RepositoryResponse, error)
}

type repositoryService struct {
	repo    repository.RepositoryRepository
	manager *credential.Manager
}

func NewRepositoryService(repo repository.RepositoryRepository, manager *credential.Manager) RepositoryService {
	return &repositoryService{repo: repo, manager: manager}
}

func (s *repositoryService) List(ctx context.Context, p Principal, query *dto.RepositoryQuery) ([]*dto.RepositoryResponse, int64, error) {
	ids, err := s.credentialIDs(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	if query.CredentialID != nil && !lo.Contains(ids, *query.CredentialID) {
		return nil, 0, pkgErrors.ErrAuthNotAuthorized
	}

	repos, total, err := s.repo.List(ctx, repository.RepositoryFilter{
		CredentialIDs: ids,
		CredentialID:  query.CredentialID,
		Keyword:       query.Keyword,
		Private:       query.Private,
		Offset:        query.GetOffset(),
		Limit:         query.GetPageSize(),
	})
	if err != nil {
		return nil, 0, err
	}
	return lo.Map(repos, func(r *model.Repository, _ int) *dto.RepositoryResponse {
		return toRepositoryResponse(r)
	}), total, nil
}

func (s *repositoryService) GetByID(ctx context.Context, p Principal, id int64) (*dto.RepositoryResponse, error) {
	ids, err := s.credentialIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	repo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 无权访问时按不存在处理
	if !lo.Contains(ids, repo.CredentialID) {
		return nil, pkgErrors.ErrRecordNotFound
	}
	return toRepositoryResponse(repo), nil
}

func (s *repositoryService) credentialIDs(ctx context.Context, p Principal) ([]int64, error) {
	available, err := s.manager.ResolveForPrincipal(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return lo.Map(available, func(c *model.Credential, _ int) int64 { return c.ID }), nil
}

func toRepositoryResponse(r *model.Repository) *dto.RepositoryResponse {
	return &dto.RepositoryResponse{
		ID:              r.ID,
		GitHubID:        r.GitHubID,
		CredentialID:    r.CredentialID,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     r.Description,
		Private:         r.Private,
		HTMLURL:         r.HTMLURL,
		CloneURL:        r.CloneURL,
		SSHURL:          r.SSHURL,
		DefaultBranch:   r.DefaultBranch,
		OwnerLogin:      r.OwnerLogin,
		OwnerAvatarURL:  r.OwnerAvatarURL,
		OwnerHTMLURL:    r.OwnerHTMLURL,
		StargazersCount: r.StargazersCount,
		ForksCount:      r.ForksCount,
		OpenIssuesCount: r.OpenIssuesCount,
		WatchersCount:   r.WatchersCount,
		CreatedAt:       utcPtr(r.RemoteCreatedAt),
		UpdatedAt:       utcPtr(r.RemoteUpdatedAt),
		PushedAt:        utcPtr(r.RemotePushedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC())
}
