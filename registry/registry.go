/*
Package registry keeps trained models reachable by their identifiers
*/
package registry

import (
	"context"
	"go-ml.dev/pkg/glm/fu"
	"go-ml.dev/pkg/glm/model"
	"go-ml.dev/pkg/glm/model/key"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/zorros/zlog"
	"go-ml.dev/pkg/zorros/zorros"
	"golang.org/x/xerrors"
	"os"
	"sort"
	"sync"
	"time"
)

/*
ErrNotFound is returned when there is no model with requested identifier
*/
var ErrNotFound = xerrors.New("model not found")

/*
ErrKeyConflict is returned when the storage key of a model is owned by a model with another name
*/
var ErrKeyConflict = xerrors.New("storage key is owned by another model")

/*
Model is a trained model able to be registered
*/
type Model interface {
	model.Memorizer
	Identifier() key.Key
	Algo() string
}

/*
Entry is a registered model
*/
type Entry struct {
	Key      key.Key
	Algo     string
	Created  time.Time
	Artifact string // path of the memorized model, empty if it's not persisted
	Model    Model  // nil if the entry was loaded from the store
}

/*
Store is a durable index of registered models
*/
type Store interface {
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context, storageKey string) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

/*
Registry is a concurrent safe set of models indexed by name and by storage key.
Registering a model with an existing name replaces it.
*/
type Registry struct {
	mu     sync.RWMutex
	byKey  map[string]Entry
	byName map[string]string
	store  Store
	dir    string
}

/*
New creates registry, store is optional.
Artifacts of persisted models are written into dir or into the models cache if dir is empty.
*/
func New(store Store, dir string) *Registry {
	return &Registry{
		byKey:  map[string]Entry{},
		byName: map[string]string{},
		store:  store,
		dir:    dir,
	}
}

/*
Load reads entries of the store into the registry
*/
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	es, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range es {
		r.index(e)
	}
	zlog.Infof("registry: %d models loaded", len(es))
	return nil
}

func (r *Registry) index(e Entry) {
	if old, ok := r.byName[e.Key.Name]; ok && old != e.Key.Key {
		delete(r.byKey, old)
	}
	r.byKey[e.Key.Key] = e
	r.byName[e.Key.Name] = e.Key.Key
}

/*
Put registers the model, it's memorized to the artifact file when the registry has a store
*/
func (r *Registry) Put(ctx context.Context, m Model) (Entry, error) {
	k := m.Identifier()
	if k.IsZero() {
		return Entry{}, zorros.New("model has no identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byKey[k.Key]; ok && old.Key.Name != k.Name {
		return Entry{}, xerrors.Errorf("model `%v` has key `%v` of model `%v`: %w", k.Name, k.Key, old.Key.Name, ErrKeyConflict)
	}
	e := Entry{Key: k, Algo: m.Algo(), Created: time.Now().UTC(), Model: m}
	if r.store != nil {
		e.Artifact = fu.ArtifactPath(r.dir, k.Key)
		if err := model.Memorize(iokit.File(e.Artifact), m); err != nil {
			return Entry{}, zorros.Wrapf(err, "failed to memorize model `%v`: %v", k, err.Error())
		}
		if err := r.store.Save(ctx, e); err != nil {
			return Entry{}, err
		}
	}
	r.index(e)
	zlog.Infof("registry: model `%v` registered as `%v`", k.Name, k.Key)
	return e, nil
}

/*
Get returns the model by verbatim name
*/
func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sk, ok := r.byName[name]; ok {
		return r.byKey[sk], nil
	}
	return Entry{}, xerrors.Errorf("model `%v`: %w", name, ErrNotFound)
}

/*
GetByKey returns the model by storage key
*/
func (r *Registry) GetByKey(storageKey string) (Entry, error) {
	k, err := key.FromKey(storageKey)
	if err != nil {
		return Entry{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byKey[k.Key]; ok {
		return e, nil
	}
	return Entry{}, xerrors.Errorf("model key `%v`: %w", storageKey, ErrNotFound)
}

/*
Lookup finds the model by name or, if there is no such name, by storage key
*/
func (r *Registry) Lookup(id string) (Entry, error) {
	e, err := r.Get(id)
	if err == nil {
		return e, nil
	}
	if e, err2 := r.GetByKey(id); err2 == nil {
		return e, nil
	}
	return Entry{}, err
}

/*
List returns all entries ordered by name
*/
func (r *Registry) List() []Entry {
	r.mu.RLock()
	es := make([]Entry, 0, len(r.byKey))
	for _, e := range r.byKey {
		es = append(es, e)
	}
	r.mu.RUnlock()
	sort.Slice(es, func(i, j int) bool { return es[i].Key.Name < es[j].Key.Name })
	return es
}

/*
Remove deletes the model by name
*/
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	sk, ok := r.byName[name]
	if !ok {
		r.mu.Unlock()
		return xerrors.Errorf("model `%v`: %w", name, ErrNotFound)
	}
	e := r.byKey[sk]
	delete(r.byName, name)
	delete(r.byKey, sk)
	r.mu.Unlock()
	if r.store != nil {
		if err := r.store.Delete(ctx, sk); err != nil {
			return err
		}
		if e.Artifact != "" {
			if err := os.Remove(e.Artifact); err != nil && !os.IsNotExist(err) {
				zlog.Warningf("registry: failed to remove artifact %v: %v", e.Artifact, err)
			}
		}
	}
	return nil
}

func (r *Registry) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
