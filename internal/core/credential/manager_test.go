package credential

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gh-integration/internal/model"
	"gh-integration/internal/pkg/database/dbtest"
	"gh-integration/internal/repository"
	pkgErrors "gh-integration/pkg/errors"
)

var fixedNow = time.Date(2024, 6, 1, 8, 30, 15, 500_000_000, time.UTC)

type fakeStore struct {
	updates  [][]string
	list     []*model.Credential
	updateFn func(c *model.Credential) error
}

func (s *fakeStore) UpdateFields(_ context.Context, c *model.Credential, columns ...string) error {
	s.updates = append(s.updates, columns)
	if s.updateFn != nil {
		return s.updateFn(c)
	}
	return nil
}

func (s *fakeStore) ListActiveForPrincipal(_ context.Context, _ int64) ([]*model.Credential, error) {
	return s.list, nil
}

type countingSigner struct {
	calls int
	iat   time.Time
	ttl   time.Duration
}

func (s *countingSigner) sign(appID, _ string, now time.Time, ttl time.Duration) (string, error) {
	s.calls++
	s.iat = now
	s.ttl = ttl
	return "jwt-" + appID, nil
}

func newTestManager(store Store, signer *countingSigner) *Manager {
	return NewManager(store, zap.NewNop(),
		WithClock(func() time.Time { return fixedNow }),
		WithSigner(signer.sign),
	)
}

func appCredential() *model.Credential {
	return &model.Credential{
		Name:           "app",
		Active:         true,
		Kind:           model.CredentialKindApp,
		AppID:          "1001",
		PrivateKey:     "pem",
		InstallationID: "55",
	}
}

func at(t time.Time) *time.Time { return &t }

func TestMintAppTokenExpiresAfterTenMinutes(t *testing.T) {
	store := &fakeStore{}
	signer := &countingSigner{}
	m := newTestManager(store, signer)

	c := appCredential()
	token, err := m.MintAppToken(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "jwt-1001", token)
	assert.Equal(t, "jwt-1001", c.JWTToken)
	assert.Equal(t, fixedNow.Truncate(time.Second), signer.iat)
	assert.Equal(t, 600*time.Second, c.JWTExpiration.Sub(signer.iat))
	assert.Equal(t, signer.iat, *c.LastValidation)
	assert.Equal(t, [][]string{{"jwt_token", "jwt_expiration", "last_validation"}}, store.updates)
}

func TestMintAppTokenPreconditions(t *testing.T) {
	m := newTestManager(&fakeStore{}, &countingSigner{})
	ctx := context.Background()

	_, err := m.MintAppToken(ctx, &model.Credential{Kind: model.CredentialKindPersonal, Token: "x"})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))

	c := appCredential()
	c.PrivateKey = ""
	_, err = m.MintAppToken(ctx, c)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))

	c = appCredential()
	c.AppID = ""
	_, err = m.MintAppToken(ctx, c)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))
}

func TestMintAppTokenWrapsSigningFailure(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, zap.NewNop(), WithClock(func() time.Time { return fixedNow }))

	_, err := m.MintAppToken(context.Background(), appCredential())
	require.Error(t, err)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))

	var appErr *pkgErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.NotNil(t, appErr.Err, "保留底层签名错误")
	assert.Empty(t, store.updates)
}

func TestCheckAuth(t *testing.T) {
	m := newTestManager(&fakeStore{}, &countingSigner{})

	err := m.CheckAuth(&model.Credential{Name: "c", Kind: model.CredentialKindFineGrained})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))

	assert.NoError(t, m.CheckAuth(&model.Credential{Name: "c", Kind: model.CredentialKindPersonal, Token: "ghp_abc"}))
	// GitHub App 的可用性由签发时校验
	assert.NoError(t, m.CheckAuth(&model.Credential{Name: "app", Kind: model.CredentialKindApp}))
}

func TestGetAuthHeadersTokenModes(t *testing.T) {
	signer := &countingSigner{}
	m := newTestManager(&fakeStore{}, signer)
	ctx := context.Background()

	for _, kind := range []model.CredentialKind{model.CredentialKindPersonal, model.CredentialKindFineGrained} {
		headers, err := m.GetAuthHeaders(ctx, &model.Credential{Name: "c", Kind: kind, Token: "ghp_abc"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Authorization": "token ghp_abc"}, headers)
	}

	_, err := m.GetAuthHeaders(ctx, &model.Credential{Name: "c", Kind: model.CredentialKindPersonal})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeUserError))
	assert.Zero(t, signer.calls)
}

func TestGetAuthHeadersMintsOnlyWhenNeeded(t *testing.T) {
	cases := []struct {
		name      string
		token     string
		expiresAt *time.Time
		wantMints int
	}{
		{"no cached token", "", nil, 1},
		{"missing expiration", "cached", nil, 1},
		{"expired", "cached", at(fixedNow.Add(-time.Second)), 1},
		{"still valid", "cached", at(fixedNow.Add(5 * time.Minute)), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signer := &countingSigner{}
			m := newTestManager(&fakeStore{}, signer)

			c := appCredential()
			c.JWTToken = tc.token
			c.JWTExpiration = tc.expiresAt

			headers, err := m.GetAuthHeaders(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, tc.wantMints, signer.calls)
			assert.Equal(t, "Bearer "+c.JWTToken, headers["Authorization"])
		})
	}
}

func TestGetAuthHeadersPropagatesPersistFailure(t *testing.T) {
	store := &fakeStore{updateFn: func(*model.Credential) error {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新凭据失败", errors.New("boom"))
	}}
	m := newTestManager(store, &countingSigner{})

	_, err := m.GetAuthHeaders(context.Background(), appCredential())
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeDatabaseError))
}

func TestIsAuthorized(t *testing.T) {
	m := newTestManager(&fakeStore{}, &countingSigner{})

	u1 := model.User{}
	u1.ID = 1

	assert.True(t, m.IsAuthorized(&model.Credential{Kind: model.CredentialKindPersonal}, 2))

	app := appCredential()
	app.AuthorizedUsers = []model.User{u1}
	assert.True(t, m.IsAuthorized(app, 1))
	assert.False(t, m.IsAuthorized(app, 2))
}

func TestResolveForPrincipalFiltersUnauthorizedApps(t *testing.T) {
	u1 := model.User{}
	u1.ID = 1

	allowed := appCredential()
	allowed.Name = "b-app"
	allowed.AuthorizedUsers = []model.User{u1}
	denied := appCredential()
	denied.Name = "c-app"

	store := &fakeStore{list: []*model.Credential{
		{Name: "a-token", Kind: model.CredentialKindPersonal, Token: "x", OwnerID: 1},
		allowed,
		denied,
	}}
	m := newTestManager(store, &countingSigner{})

	got, err := m.ResolveForPrincipal(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a-token", got[0].Name)
	assert.Equal(t, "b-app", got[1].Name)
}

func TestStatusUsesClock(t *testing.T) {
	m := newTestManager(&fakeStore{}, &countingSigner{})
	c := &model.Credential{Kind: model.CredentialKindPersonal, Token: "x", TokenExpiration: at(fixedNow.Add(-time.Minute))}
	assert.Equal(t, model.CredentialStatusExpired, m.Status(c))
}

func TestValidateTokenStampsLastValidation(t *testing.T) {
	store := &fakeStore{}
	m := newTestManager(store, &countingSigner{})

	c := &model.Credential{Kind: model.CredentialKindPersonal, Token: "x"}
	require.NoError(t, m.ValidateToken(context.Background(), c))
	assert.Equal(t, fixedNow, *c.LastValidation)
	assert.Equal(t, [][]string{{"last_validation"}}, store.updates)
}

func rsaPEM(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
}

func TestMintAppTokenPersistsSignedJWT(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewCredentialRepository(db)
	ctx := context.Background()

	key, keyPEM := rsaPEM(t)
	c := appCredential()
	c.PrivateKey = keyPEM
	require.NoError(t, repo.Create(ctx, c))

	m := NewManager(repo, zap.NewNop())
	headers, err := m.GetAuthHeaders(ctx, c)
	require.NoError(t, err)

	loaded, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+loaded.JWTToken, headers["Authorization"])
	require.NotNil(t, loaded.JWTExpiration)
	require.NotNil(t, loaded.LastValidation)

	claims := &gojwt.RegisteredClaims{}
	_, err = gojwt.ParseWithClaims(loaded.JWTToken, claims, func(*gojwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, gojwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.Equal(t, "1001", claims.Issuer)
	assert.Equal(t, int64(600), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())

	// 缓存未过期, 再次获取不会重新签发
	second, err := m.GetAuthHeaders(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, headers, second)
}
