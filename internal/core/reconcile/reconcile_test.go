package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"gh-integration/internal/model"
	"gh-integration/internal/pkg/database/dbtest"
	pkgErrors "gh-integration/pkg/errors"
)

func rawRepo(id int64, name string, stars int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"id":%d,"name":%q,"full_name":"org/%s","private":false,"owner":{"login":"org","avatar_url":"https://a/org","html_url":"https://github.com/org"},"stargazers_count":%d,"created_at":"2020-01-02T03:04:05Z","pushed_at":null}`,
		id, name, name, stars,
	))
}

func setup(t *testing.T) (*gorm.DB, *Reconciler, *model.Credential) {
	t.Helper()
	db := dbtest.New(t)
	cred := &model.Credential{Name: "ci", Active: true, Kind: model.CredentialKindPersonal, Token: "ghp_x", OwnerID: 1}
	require.NoError(t, db.Create(cred).Error)
	return db, NewReconciler(db, zap.NewNop()), cred
}

func loadAll(t *testing.T, db *gorm.DB) []model.Repository {
	t.Helper()
	var rows []model.Repository
	require.NoError(t, db.Order("github_id ASC").Find(&rows).Error)
	return rows
}

// statementCounter 统计 github_repositories 上执行的语句数
type statementCounter struct {
	inserts int
	selects int
	updates int
}

func (c *statementCounter) reset() { *c = statementCounter{} }

func countStatements(t *testing.T, db *gorm.DB) *statementCounter {
	t.Helper()
	c := &statementCounter{}
	count := func(n *int) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if tx.Error == nil && tx.Statement.Table == model.RepositoryTableName {
				*n++
			}
		}
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:count_insert", count(&c.inserts)))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:count_select", count(&c.selects)))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:count_update", count(&c.updates)))
	return c
}

func rawRepos(from, n int) []json.RawMessage {
	raws := make([]json.RawMessage, 0, n)
	for i := from; i < from+n; i++ {
		raws = append(raws, rawRepo(int64(i), fmt.Sprintf("repo-%d", i), i%10))
	}
	return raws
}

func TestReconcileInsertsNewRecord(t *testing.T) {
	db, r, cred := setup(t)

	res, err := r.Reconcile(context.Background(), 1, cred, []json.RawMessage{rawRepo(42, "repo-a", 5)})
	require.NoError(t, err)
	assert.Equal(t, Result{Received: 1, Inserted: 1}, res)

	rows := loadAll(t, db)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, int64(42), got.GitHubID)
	assert.Equal(t, "repo-a", got.Name)
	assert.Equal(t, "org/repo-a", got.FullName)
	assert.Equal(t, 5, got.StargazersCount)
	assert.Equal(t, "org", got.OwnerLogin)
	assert.Equal(t, cred.ID, got.CredentialID)
	assert.Equal(t, int64(1), got.UserID)
	assert.False(t, got.Private)
	require.NotNil(t, got.RemoteCreatedAt)
	assert.Equal(t, 2020, got.RemoteCreatedAt.Year())
	assert.Nil(t, got.RemotePushedAt)
	assert.JSONEq(t, string(rawRepo(42, "repo-a", 5)), string(got.RawData))
}

func TestReconcileIsIdempotent(t *testing.T) {
	db, r, cred := setup(t)
	batch := []json.RawMessage{rawRepo(1, "a", 1), rawRepo(2, "b", 2), rawRepo(3, "c", 3)}

	first, err := r.Reconcile(context.Background(), 1, cred, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	before := loadAll(t, db)

	second, err := r.Reconcile(context.Background(), 1, cred, batch)
	require.NoError(t, err)
	assert.Equal(t, Result{Received: 3, Updated: 3}, second)

	after := loadAll(t, db)
	require.Len(t, after, 3)
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].Name, after[i].Name)
		assert.Equal(t, before[i].StargazersCount, after[i].StargazersCount)
		assert.Equal(t, string(before[i].RawData), string(after[i].RawData))
		assert.True(t, before[i].RemoteCreatedAt.Equal(*after[i].RemoteCreatedAt))
	}
}

func TestReconcilePartitionsUpdatesAndInserts(t *testing.T) {
	db, r, cred := setup(t)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, 1, cred, []json.RawMessage{rawRepo(1, "one", 0), rawRepo(2, "two", 0)})
	require.NoError(t, err)
	existing := loadAll(t, db)

	res, err := r.Reconcile(ctx, 1, cred, []json.RawMessage{rawRepo(2, "two-renamed", 9), rawRepo(3, "three", 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Inserted)

	rows := loadAll(t, db)
	require.Len(t, rows, 3)
	assert.Equal(t, "one", rows[0].Name, "未返回的记录保持不变")
	assert.Equal(t, existing[1].ID, rows[1].ID, "更新不改变行ID")
	assert.Equal(t, "two-renamed", rows[1].Name)
	assert.Equal(t, 9, rows[1].StargazersCount)
	assert.Equal(t, "three", rows[2].Name)
}

func TestReconcileDuplicateIDsLastWins(t *testing.T) {
	db, r, cred := setup(t)

	res, err := r.Reconcile(context.Background(), 1, cred, []json.RawMessage{
		rawRepo(7, "first", 1),
		rawRepo(8, "other", 0),
		rawRepo(7, "last", 2),
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Received: 2, Inserted: 2}, res)

	rows := loadAll(t, db)
	require.Len(t, rows, 2)
	assert.Equal(t, "last", rows[0].Name)
	assert.Equal(t, 2, rows[0].StargazersCount)
}

func TestReconcileScopesByCredential(t *testing.T) {
	db, r, cred := setup(t)
	other := &model.Credential{Name: "other", Active: true, Kind: model.CredentialKindPersonal, Token: "ghp_y", OwnerID: 2}
	require.NoError(t, db.Create(other).Error)
	ctx := context.Background()

	_, err := r.Reconcile(ctx, 1, cred, []json.RawMessage{rawRepo(5, "shared", 0)})
	require.NoError(t, err)
	res, err := r.Reconcile(ctx, 2, other, []json.RawMessage{rawRepo(5, "shared", 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	assert.Len(t, loadAll(t, db), 2)
}

func TestReconcileEmptyBatch(t *testing.T) {
	_, r, cred := setup(t)
	res, err := r.Reconcile(context.Background(), 1, cred, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestReconcileRejectsRecordWithoutID(t *testing.T) {
	db, r, cred := setup(t)
	_, err := r.Reconcile(context.Background(), 1, cred, []json.RawMessage{
		rawRepo(1, "ok", 0),
		json.RawMessage(`{"name":"no-id"}`),
	})
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeValidationError))
	assert.Empty(t, loadAll(t, db))
}

func TestReconcileMapsUniqueViolationToConflict(t *testing.T) {
	db, r, cred := setup(t)

	// 模拟并发同步: 在批量插入前由"另一方"写入相同记录
	fired := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:race", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != model.RepositoryTableName {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO github_repositories (github_id, credential_id, user_id, name, full_name, private, html_url, clone_url, ssh_url, default_branch, owner_login, owner_avatar_url, owner_html_url, stargazers_count, forks_count, open_issues_count, watchers_count) VALUES (?, ?, 1, 'x', 'x', false, '', '', '', '', '', '', '', 0, 0, 0, 0)",
			int64(99), cred.ID,
		)
	}))

	_, err := r.Reconcile(context.Background(), 1, cred, []json.RawMessage{rawRepo(99, "raced", 0)})
	require.Error(t, err)
	assert.True(t, pkgErrors.IsCode(err, pkgErrors.CodeConflict))
	assert.True(t, fired)

	require.NoError(t, db.Callback().Create().Remove("test:race"))
	assert.Empty(t, loadAll(t, db), "事务整体回滚")
}

func TestReconcileUsesSingleSelectAndInsert(t *testing.T) {
	db, r, cred := setup(t)
	ctx := context.Background()
	counter := countStatements(t, db)

	res, err := r.Reconcile(ctx, 1, cred, rawRepos(1, 50))
	require.NoError(t, err)
	assert.Equal(t, 50, res.Inserted)
	assert.Equal(t, 1, counter.selects, "一次批量查询已有记录")
	assert.Equal(t, 1, counter.inserts, "新记录一条多行 INSERT")
	assert.Zero(t, counter.updates)

	counter.reset()
	res, err = r.Reconcile(ctx, 1, cred, rawRepos(1, 60))
	require.NoError(t, err)
	assert.Equal(t, Result{Received: 60, Inserted: 10, Updated: 50}, res)
	assert.Equal(t, 1, counter.selects)
	assert.Equal(t, 1, counter.inserts)
	assert.Equal(t, 50, counter.updates, "已有记录逐条更新")
}

func TestReconcileSplitsLargeInsertByPlaceholderLimit(t *testing.T) {
	db, r, cred := setup(t)
	ctx := context.Background()
	counter := countStatements(t, db)

	const total = 3200
	batch := insertBatchSize(db)
	require.Less(t, batch, total, "确保覆盖分批路径")

	res, err := r.Reconcile(ctx, 1, cred, rawRepos(1, total))
	require.NoError(t, err)
	assert.Equal(t, Result{Received: total, Inserted: total}, res)
	assert.Equal(t, (total+batch-1)/batch, counter.inserts)
	assert.Equal(t, 1, counter.selects)

	var stored int64
	require.NoError(t, db.Model(&model.Repository{}).Count(&stored).Error)
	assert.Equal(t, int64(total), stored)

	counter.reset()
	res, err = r.Reconcile(ctx, 1, cred, rawRepos(1, total))
	require.NoError(t, err)
	assert.Equal(t, Result{Received: total, Updated: total}, res)
	assert.Zero(t, counter.inserts)
	assert.Equal(t, 1, counter.selects)
}

func TestInsertBatchSizeFitsPlaceholderLimit(t *testing.T) {
	db := dbtest.New(t)
	stmt := &gorm.Statement{DB: db}
	require.NoError(t, stmt.Parse(&model.Repository{}))

	size := insertBatchSize(db)
	assert.Positive(t, size)
	assert.LessOrEqual(t, size*len(stmt.Schema.DBNames), maxPlaceholders)
}

func TestReconcileWarnsOnInvalidTimestamp(t *testing.T) {
	db := dbtest.New(t)
	cred := &model.Credential{Name: "ci", Active: true, Kind: model.CredentialKindPersonal, Token: "ghp_x", OwnerID: 1}
	require.NoError(t, db.Create(cred).Error)

	core, logs := observer.New(zap.WarnLevel)
	r := NewReconciler(db, zap.New(core))

	_, err := r.Reconcile(context.Background(), 1, cred, []json.RawMessage{
		json.RawMessage(`{"id": 9, "name": "bad-time", "pushed_at": "not-a-time"}`),
	})
	require.NoError(t, err)

	entries := logs.FilterField(zap.Int64("github_id", 9)).All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"pushed_at"}, entries[0].ContextMap()["fields"])

	rows := loadAll(t, db)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].RemotePushedAt)
}

func TestMapWriteError(t *testing.T) {
	assert.True(t, pkgErrors.IsCode(mapWriteError("x", gorm.ErrDuplicatedKey), pkgErrors.CodeConflict))
	assert.True(t, pkgErrors.IsCode(mapWriteError("x", errors.New("disk full")), pkgErrors.CodeDatabaseError))
}
