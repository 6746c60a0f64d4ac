package reconcile

import (
	"context"

	"github.com/samber/lo"

	"gh-integration/internal/model"
	pkgErrors "gh-integration/pkg/errors"
)

// Resolver 返回用户可用的凭据, 已按名称排序
type Resolver interface {
	ResolveForPrincipal(ctx context.Context, userID int64) ([]*model.Credential, error)
}

// SelectCredential 选择本次同步使用的凭据
// selectedID 为 0 时取可用列表的第一个; 指定时必须在可用列表中
func SelectCredential(ctx context.Context, resolver Resolver, userID, selectedID int64) (*model.Credential, error) {
	available, err := resolver.ResolveForPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, pkgErrors.ErrNoAuthAvailable
	}

	if selectedID == 0 {
		return available[0], nil
	}

	selected, ok := lo.Find(available, func(c *model.Credential) bool {
		return c.ID == selectedID
	})
	if !ok {
		return nil, pkgErrors.ErrAuthNotAuthorized
	}
	return selected, nil
}

// DefaultCredentialID 仅有一个可用凭据时作为默认选择
func DefaultCredentialID(available []*model.Credential) *int64 {
	if len(available) != 1 {
		return nil
	}
	id := available[0].ID
	return &id
}
