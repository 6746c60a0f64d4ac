package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gh-integration/internal/core/credential"
	"gh-integration/internal/core/reconcile"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/config"
	"gh-integration/internal/pkg/database/dbtest"
	"gh-integration/internal/pkg/git/api"
	"gh-integration/internal/repository"
	"gh-integration/pkg/constants"
)

// fakeProvider 记录收到的配置并返回预置结果
type fakeProvider struct {
	repos   []json.RawMessage
	err     error
	configs []*api.ProviderConfig
}

func (f *fakeProvider) factory(cfg *api.ProviderConfig) (api.GitProvider, error) {
	f.configs = append(f.configs, cfg)
	return f, nil
}

func (f *fakeProvider) ListUserRepositories(context.Context) ([]json.RawMessage, error) {
	return f.repos, f.err
}

func (f *fakeProvider) GetCurrentUser(context.Context) (*api.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.UserInfo{ID: 1, Login: "octocat"}, nil
}

func (f *fakeProvider) GetCurrentApp(context.Context) (*api.AppInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &api.AppInfo{ID: 42, Slug: "sync-bot"}, nil
}

func (f *fakeProvider) lastAuthorization() string {
	return f.configs[len(f.configs)-1].Headers[constants.HeaderAuthorization]
}

type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	credentials repository.CredentialRepository
	runs        repository.SyncRunRepository
	manager     *credential.Manager
	provider    *fakeProvider
	githubCfg   *config.GitHubConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	credRepo := repository.NewCredentialRepository(db)
	signer := func(appID, _ string, now time.Time, _ time.Duration) (string, error) {
		return fmt.Sprintf("jwt-%s-%d", appID, now.Unix()), nil
	}
	return &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		credentials: credRepo,
		runs:        repository.NewSyncRunRepository(db),
		manager:     credential.NewManager(credRepo, zap.NewNop(), credential.WithSigner(signer)),
		provider:    &fakeProvider{},
		githubCfg:   &config.GitHubConfig{BaseURL: "https://ghe.example.com/api/v3/", APIVersion: "2022-11-28", PerPage: 50, Timeout: "5s"},
	}
}

func (e *testEnv) credentialService() CredentialService {
	return NewCredentialService(e.credentials, e.users, e.manager, e.githubCfg, e.provider.factory, zap.NewNop())
}

func (e *testEnv) syncService() *RepoSyncService {
	return NewRepoSyncService(
		e.manager,
		reconcile.NewReconciler(e.db, zap.NewNop()),
		e.users,
		e.runs,
		e.githubCfg,
		e.provider.factory,
		zap.NewNop(),
	)
}

func (e *testEnv) createUser(t *testing.T, username string, roles ...auth.Role) *model.User {
	t.Helper()
	u := &model.User{Username: username, AuthProvider: constants.AuthTypeLocal}
	for _, r := range roles {
		u.SystemRoles = append(u.SystemRoles, string(r))
	}
	u.Status = constants.StatusEnabled
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) createToken(t *testing.T, name string, owner int64) *model.Credential {
	t.Helper()
	c := &model.Credential{Name: name, Active: true, Kind: model.CredentialKindPersonal, Token: "ghp_" + name, OwnerID: owner}
	require.NoError(t, e.credentials.Create(context.Background(), c))
	return c
}

func (e *testEnv) createApp(t *testing.T, name string, owner int64, authorized ...model.User) *model.Credential {
	t.Helper()
	c := &model.Credential{
		Name:           name,
		Active:         true,
		Kind:           model.CredentialKindApp,
		AppID:          "42",
		PrivateKey:     "pem",
		InstallationID: "7",
		OwnerID:        owner,
	}
	ctx := context.Background()
	require.NoError(t, e.credentials.Create(ctx, c))
	if len(authorized) > 0 {
		require.NoError(t, e.credentials.ReplaceAuthorizedUsers(ctx, c, authorized))
	}
	return c
}

func admin(u *model.User) Principal {
	return Principal{UserID: u.ID, Roles: []string{string(auth.RoleSystemAdmin)}}
}

func member(u *model.User) Principal {
	return Principal{UserID: u.ID, Roles: []string{string(auth.RoleMember)}}
}

func rawRepo(id int64, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":%d,"name":%q,"full_name":"org/%s","private":true,"owner":{"login":"org"},"created_at":"2021-05-06T07:08:09Z"}`,
		id, name, name,
	))
}

func repositoryRepo(e *testEnv) repository.RepositoryRepository {
	return repository.NewRepositoryRepository(e.db)
}
