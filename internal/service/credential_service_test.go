package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gh-integration/internal/dto"
	"gh-integration/internal/model"
	"gh-integration/internal/pkg/auth"
	pkgErrors "gh-integration/pkg/errors"
)

func TestCreateCredentialHidesSecrets(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	owner := env.createUser(t, "alice", auth.RoleSystemAdmin)

	resp, err := svc.Create(context.Background(), admin(owner), &dto.CreateCredentialRequest{
		Name:  "ci",
		Kind:  string(model.CredentialKindPersonal),
		Token: "ghp_secret",
	})
	require.NoError(t, err)
	assert.True(t, resp.HasToken)
	assert.False(t, resp.HasPrivateKey)
	assert.Equal(t, string(model.CredentialStatusValid), resp.State)
	assert.Equal(t, owner.ID, resp.OwnerID)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "ghp_secret")
}

func TestCreateCredentialValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	owner := env.createUser(t, "alice", auth.RoleSystemAdmin)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin(owner), &dto.CreateCredentialRequest{Name: "app", Kind: string(model.CredentialKindApp), AppID: "1"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeValidationError))

	// token 类凭据不能设置授权用户
	_, err = svc.Create(ctx, admin(owner), &dto.CreateCredentialRequest{
		Name:            "ci",
		Kind:            string(model.CredentialKindPersonal),
		Token:           "ghp_x",
		AuthorizedUsers: []int64{owner.ID},
	})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeValidationError))

	_, err = svc.Create(ctx, admin(owner), &dto.CreateCredentialRequest{
		Name:            "app",
		Kind:            string(model.CredentialKindApp),
		AppID:           "1",
		PrivateKey:      "pem",
		InstallationID:  "2",
		AuthorizedUsers: []int64{owner.ID, 999},
	})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeNotFound))
}

func TestCreateAppCredentialWithAuthorizedUsers(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	owner := env.createUser(t, "alice", auth.RoleSystemAdmin)
	bob := env.createUser(t, "bob")
	ctx := context.Background()

	resp, err := svc.Create(ctx, admin(owner), &dto.CreateCredentialRequest{
		Name:            "bot",
		Kind:            string(model.CredentialKindApp),
		AppID:           "1",
		PrivateKey:      "pem",
		InstallationID:  "2",
		AuthorizedUsers: []int64{bob.ID, bob.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, resp.AuthorizedUserIDs)

	available, err := svc.Available(ctx, member(bob))
	require.NoError(t, err)
	require.Len(t, available.Items, 1)
	require.NotNil(t, available.DefaultID)
	assert.Equal(t, resp.ID, *available.DefaultID)

	// 创建者未被授权, 看不到该 App
	available, err = svc.Available(ctx, member(owner))
	require.NoError(t, err)
	assert.Empty(t, available.Items)
	assert.Nil(t, available.DefaultID)
}

func TestAvailableWithoutDefaultWhenSeveral(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	env.createToken(t, "b-token", alice.ID)
	env.createToken(t, "a-token", alice.ID)

	available, err := env.credentialService().Available(context.Background(), member(alice))
	require.NoError(t, err)
	require.Len(t, available.Items, 2)
	assert.Equal(t, "a-token", available.Items[0].Name)
	assert.Nil(t, available.DefaultID)
}

func TestGetCredentialAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	c := env.createToken(t, "alice-token", alice.ID)
	ctx := context.Background()

	got, err := svc.GetByID(ctx, member(alice), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice-token", got.Name)

	_, err = svc.GetByID(ctx, member(bob), c.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrAuthNotAuthorized)

	_, err = svc.GetByID(ctx, admin(root), c.ID)
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, admin(root), 999)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}

func TestUpdateCredentialResetsCachedJWT(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	c := env.createApp(t, "bot", root.ID)
	ctx := context.Background()

	minted, err := svc.Mint(ctx, admin(root), c.ID)
	require.NoError(t, err)
	require.NotNil(t, minted.JWTExpiration)

	got, err := svc.GetByID(ctx, admin(root), c.ID)
	require.NoError(t, err)
	assert.True(t, got.HasJWTToken)

	name := "renamed"
	resp, err := svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", resp.Name)
	assert.True(t, resp.HasJWTToken)

	key := "new-pem"
	resp, err = svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{PrivateKey: &key})
	require.NoError(t, err)
	assert.False(t, resp.HasJWTToken)
	assert.Nil(t, resp.JWTExpiration)

	stored, err := env.credentials.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-pem", stored.PrivateKey)
	assert.Empty(t, stored.JWTToken)

	empty := ""
	_, err = svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{AppID: &empty})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeValidationError))
}

func TestUpdateCredentialClearsTokenExpiration(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	c := env.createToken(t, "ci", root.ID)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	resp, err := svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{TokenExpiration: &past})
	require.NoError(t, err)
	assert.Equal(t, string(model.CredentialStatusExpired), resp.State)
	require.NotNil(t, resp.TokenExpiration)

	// 未传 token_expiration 时保持原值
	name := "ci-2"
	resp, err = svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{Name: &name})
	require.NoError(t, err)
	assert.NotNil(t, resp.TokenExpiration)

	resp, err = svc.Update(ctx, c.ID, &dto.UpdateCredentialRequest{ClearTokenExpiration: true, TokenExpiration: &past})
	require.NoError(t, err)
	assert.Nil(t, resp.TokenExpiration)
	assert.Equal(t, string(model.CredentialStatusValid), resp.State)

	stored, err := env.credentials.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.TokenExpiration)
	assert.Equal(t, model.CredentialStatusValid, stored.State)
}

func TestMintRejectsTokenCredential(t *testing.T) {
	env := newTestEnv(t)
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	c := env.createToken(t, "ci", root.ID)

	_, err := env.credentialService().Mint(context.Background(), admin(root), c.ID)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))
}

func TestSetActiveAndAuthorizedUsers(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	bob := env.createUser(t, "bob")
	app := env.createApp(t, "bot", root.ID)
	ctx := context.Background()

	resp, err := svc.SetAuthorizedUsers(ctx, app.ID, []int64{bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID}, resp.AuthorizedUserIDs)

	available, err := svc.Available(ctx, member(bob))
	require.NoError(t, err)
	assert.Len(t, available.Items, 1)

	require.NoError(t, svc.SetActive(ctx, app.ID, false))
	available, err = svc.Available(ctx, member(bob))
	require.NoError(t, err)
	assert.Empty(t, available.Items)

	assert.ErrorIs(t, svc.SetActive(ctx, 999, false), pkgErrors.ErrRecordNotFound)

	token := env.createToken(t, "ci", root.ID)
	_, err = svc.SetAuthorizedUsers(ctx, token.ID, []int64{bob.ID})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeValidationError))
}

func TestValidateTokenCredential(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	alice := env.createUser(t, "alice")
	c := env.createToken(t, "ci", alice.ID)
	ctx := context.Background()

	resp, err := svc.Validate(ctx, member(alice), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "octocat", resp.Login)
	assert.NotNil(t, resp.LastValidation)
	assert.Equal(t, "token ghp_ci", env.provider.lastAuthorization())

	cfg := env.provider.configs[0]
	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.BaseURL)
	assert.Equal(t, 50, cfg.PerPage)

	stored, err := env.credentials.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastValidation)
}

func TestValidateAppCredentialUsesBearer(t *testing.T) {
	env := newTestEnv(t)
	svc := env.credentialService()
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	c := env.createApp(t, "bot", root.ID)

	resp, err := svc.Validate(context.Background(), admin(root), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "sync-bot", resp.Login)
	assert.Contains(t, env.provider.lastAuthorization(), "Bearer jwt-42-")
}

func TestValidateSurfacesProviderError(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	c := env.createToken(t, "ci", alice.ID)
	env.provider.err = pkgErrors.User("获取 GitHub 用户失败")

	_, err := env.credentialService().Validate(context.Background(), member(alice), c.ID)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))

	stored, err := env.credentials.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastValidation)
}

func TestListCredentials(t *testing.T) {
	env := newTestEnv(t)
	root := env.createUser(t, "root", auth.RoleSystemAdmin)
	env.createToken(t, "ci", root.ID)
	env.createApp(t, "bot", root.ID)

	list, total, err := env.credentialService().List(context.Background(), &dto.CredentialQuery{Kind: string(model.CredentialKindApp)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "bot", list[0].Name)
}
