/*
Package key maps free-form model identifiers to storage keys

A model identifier is any text a user gives to a model. It is kept verbatim as the
model name. The storage key is derived from the name deterministically and consists
of [A-Za-z0-9_.-] only, so it can be used as a file name, a database key or a URL
path segment.
*/
package key

import (
	"fmt"
	"github.com/google/uuid"
	"golang.org/x/xerrors"
	"hash/fnv"
	"net/url"
	"strings"
)

/*
ErrIdentifierRejected is returned when a storage key is not in canonical form
*/
var ErrIdentifierRejected = xerrors.New("model identifier rejected")

/*
Key is a model identifier
*/
type Key struct {
	Name string // verbatim identifier
	Key  string // storage key
}

func keepRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-'
}

const suffixLen = 1 + 16

// hashed reports whether s ends like a hashed storage key, i.e. with -<16 hex>
func hashed(s string) bool {
	if len(s) < suffixLen || s[len(s)-suffixLen] != '-' {
		return false
	}
	for _, r := range s[len(s)-suffixLen+1:] {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

/*
sanitize keeps a canonical name as is. Any other name, and a canonical name ending
with a hash-like suffix, gets -<fnv64a of the name> appended, so a kept name never
equals a hashed key.
*/
func sanitize(name string) string {
	b := strings.Builder{}
	changed := false
	for _, r := range name {
		if keepRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
			changed = true
		}
	}
	if !changed && name != "." && name != ".." && !hashed(name) {
		return name
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%s-%016x", b.String(), h.Sum64())
}

/*
Parse accepts any identifier, the empty string included.
An empty name gets a generated GLM name.
*/
func Parse(name string) Key {
	if name == "" {
		return Generate("GLM")
	}
	return Key{name, sanitize(name)}
}

/*
Generate creates a unique identifier for an algorithm
*/
func Generate(algo string) Key {
	name := fmt.Sprintf("%s_model_%s", algo, strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
	return Key{name, sanitize(name)}
}

/*
FromKey restores key from its storage form, the name is unknown and equals to the key
*/
func FromKey(s string) (Key, error) {
	if s == "" || s == "." || s == ".." {
		return Key{}, xerrors.Errorf("storage key `%v` is not valid: %w", s, ErrIdentifierRejected)
	}
	for _, r := range s {
		if !keepRune(r) {
			return Key{}, xerrors.Errorf("storage key `%v` contains `%c`: %w", s, r, ErrIdentifierRejected)
		}
	}
	return Key{s, s}, nil
}

/*
WithName binds a stored key to the original name
*/
func WithName(storage, name string) (Key, error) {
	k, err := FromKey(storage)
	if err != nil {
		return k, err
	}
	if name != "" {
		if x := Parse(name); x.Key != storage {
			return Key{}, xerrors.Errorf("name `%v` does not map to storage key `%v`: %w", name, storage, ErrIdentifierRejected)
		}
		k.Name = name
	}
	return k, nil
}

func (k Key) String() string {
	return k.Name
}

func (k Key) IsZero() bool {
	return k.Key == ""
}

/*
CV returns identifier of the i-th (1-based) cross-validation model
*/
func (k Key) CV(i int) Key {
	return Parse(fmt.Sprintf("%s_cv_%d", k.Name, i))
}

/*
Holdout returns identifier of the combined cross-validation holdout predictions
*/
func (k Key) Holdout() Key {
	return Parse("cv_holdout_prediction_" + k.Name)
}

/*
FoldPrediction returns identifier of the i-th (1-based) fold predictions
*/
func (k Key) FoldPrediction(i int) Key {
	return Parse(fmt.Sprintf("prediction_%s_cv_%d", k.Name, i))
}

/*
PathEscape returns the name escaped as one URL path segment
*/
func (k Key) PathEscape() string {
	return url.PathEscape(k.Name)
}
