package registry

import (
	"context"
	"database/sql"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/iokit"
	"golang.org/x/xerrors"
	"gotest.tools/assert"
	"os"
	"path/filepath"
	"testing"
)

type fakeModel struct {
	ID    key.Key
	Value float64
}

func (m *fakeModel) Identifier() key.Key   { return m.ID }
func (m *fakeModel) Algo() string          { return "fake" }
func (m *fakeModel) Memorize() interface{} { return map[string]float64{"value": m.Value} }

func fake(name string, v float64) *fakeModel {
	return &fakeModel{key.Parse(name), v}
}

func Test_InMemory(t *testing.T) {
	ctx := context.Background()
	r := New(nil, "")
	defer r.Close()
	e, err := r.Put(ctx, fake("Wendy /Wong", 1))
	assert.NilError(t, err)
	assert.Assert(t, e.Artifact == "")
	_, err = r.Put(ctx, fake("test -  june/fifteenth", 2))
	assert.NilError(t, err)

	e, err = r.Get("Wendy /Wong")
	assert.NilError(t, err)
	assert.Assert(t, e.Algo == "fake")
	assert.Assert(t, e.Model.(*fakeModel).Value == 1)

	e, err = r.GetByKey(key.Parse("Wendy /Wong").Key)
	assert.NilError(t, err)
	assert.Assert(t, e.Key.Name == "Wendy /Wong")

	e, err = r.Lookup(key.Parse("test -  june/fifteenth").Key)
	assert.NilError(t, err)
	assert.Assert(t, e.Key.Name == "test -  june/fifteenth")

	ls := r.List()
	assert.Assert(t, len(ls) == 2)
	assert.Assert(t, ls[0].Key.Name == "Wendy /Wong")

	_, err = r.Get("nobody")
	assert.Assert(t, xerrors.Is(err, ErrNotFound))
	_, err = r.GetByKey("a/b")
	assert.Assert(t, xerrors.Is(err, key.ErrIdentifierRejected))
	_, err = r.Lookup("a/b")
	assert.Assert(t, xerrors.Is(err, ErrNotFound))

	assert.NilError(t, r.Remove(ctx, "Wendy /Wong"))
	_, err = r.Get("Wendy /Wong")
	assert.Assert(t, xerrors.Is(err, ErrNotFound))
	assert.Assert(t, xerrors.Is(r.Remove(ctx, "Wendy /Wong"), ErrNotFound))
	assert.Assert(t, len(r.List()) == 1)
}

func Test_Replace(t *testing.T) {
	ctx := context.Background()
	r := New(nil, "")
	_, err := r.Put(ctx, fake("same", 1))
	assert.NilError(t, err)
	_, err = r.Put(ctx, fake("same", 2))
	assert.NilError(t, err)
	assert.Assert(t, len(r.List()) == 1)
	e, err := r.Get("same")
	assert.NilError(t, err)
	assert.Assert(t, e.Model.(*fakeModel).Value == 2)
}

func Test_NoIdentifier(t *testing.T) {
	r := New(nil, "")
	_, err := r.Put(context.Background(), &fakeModel{})
	assert.ErrorContains(t, err, "has no identifier")
}

func Test_SQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := OpenSQLite(filepath.Join(dir, "models.db"))
	assert.NilError(t, err)
	r := New(store, dir)
	defer r.Close()

	e, err := r.Put(ctx, fake("Wendy /Wong", 3))
	assert.NilError(t, err)
	assert.Assert(t, filepath.Dir(e.Artifact) == dir)
	_, err = os.Stat(e.Artifact)
	assert.NilError(t, err)
	v := map[string]float64{}
	assert.NilError(t, model.RecallInput(iokit.File(e.Artifact), &v))
	assert.Assert(t, v["value"] == 3)

	_, err = r.Put(ctx, fake("other", 4))
	assert.NilError(t, err)

	r2 := New(store, dir)
	assert.NilError(t, r2.Load(ctx))
	ls := r2.List()
	assert.Assert(t, len(ls) == 2)
	e2, err := r2.Get("Wendy /Wong")
	assert.NilError(t, err)
	assert.Assert(t, e2.Key == e.Key)
	assert.Assert(t, e2.Artifact == e.Artifact)
	assert.Assert(t, e2.Model == nil)

	assert.NilError(t, r2.Remove(ctx, "Wendy /Wong"))
	_, err = os.Stat(e.Artifact)
	assert.Assert(t, os.IsNotExist(err))
	es, err := store.List(ctx)
	assert.NilError(t, err)
	assert.Assert(t, len(es) == 1)
	assert.Assert(t, es[0].Key.Name == "other")
}

func Test_SQLiteSkipsCorruptedRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.db")
	store, err := OpenSQLite(path)
	assert.NilError(t, err)
	defer store.Close()
	db, err := sql.Open("sqlite3", path)
	assert.NilError(t, err)
	defer db.Close()
	_, err = db.Exec(`INSERT INTO models (key, name, algo, created_at, artifact) VALUES ('a/b', 'a/b', 'glm', 0, '')`)
	assert.NilError(t, err)
	_, err = db.Exec(`INSERT INTO models (key, name, algo, created_at, artifact) VALUES ('ok', 'ok', 'glm', 1, '')`)
	assert.NilError(t, err)
	es, err := store.List(ctx)
	assert.NilError(t, err)
	assert.Assert(t, len(es) == 1)
	assert.Assert(t, es[0].Key.Name == "ok")
}

func Test_HashLikeNameKeepsBothModels(t *testing.T) {
	ctx := context.Background()
	r := New(nil, "")
	a := fake("a b", 1)
	b := fake(a.ID.Key, 2)
	assert.Assert(t, a.ID.Key != b.ID.Key)
	_, err := r.Put(ctx, a)
	assert.NilError(t, err)
	_, err = r.Put(ctx, b)
	assert.NilError(t, err)
	assert.Assert(t, len(r.List()) == 2)
	e, err := r.Get("a b")
	assert.NilError(t, err)
	assert.Assert(t, e.Model.(*fakeModel).Value == 1)
	e, err = r.Get(a.ID.Key)
	assert.NilError(t, err)
	assert.Assert(t, e.Model.(*fakeModel).Value == 2)
}

func Test_KeyConflict(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := OpenSQLite(filepath.Join(dir, "models.db"))
	assert.NilError(t, err)
	r := New(store, dir)
	defer r.Close()
	_, err = r.Put(ctx, &fakeModel{key.Key{Name: "first", Key: "shared"}, 1})
	assert.NilError(t, err)
	_, err = r.Put(ctx, &fakeModel{key.Key{Name: "second", Key: "shared"}, 2})
	assert.Assert(t, xerrors.Is(err, ErrKeyConflict), "%v", err)

	e, err := r.Get("first")
	assert.NilError(t, err)
	assert.Assert(t, e.Model.(*fakeModel).Value == 1)
	_, err = r.Get("second")
	assert.Assert(t, xerrors.Is(err, ErrNotFound))
	v := map[string]float64{}
	assert.NilError(t, model.RecallInput(iokit.File(e.Artifact), &v))
	assert.Assert(t, v["value"] == 1)
	db, err := sql.Open("sqlite3", filepath.Join(dir, "models.db"))
	assert.NilError(t, err)
	defer db.Close()
	var name string
	assert.NilError(t, db.QueryRow(`SELECT name FROM models WHERE key = 'shared'`).Scan(&name))
	assert.Assert(t, name == "first")
}
