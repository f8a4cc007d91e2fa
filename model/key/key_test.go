package key

import (
	"golang.org/x/xerrors"
	"gotest.tools/assert"
	"net/url"
	"strings"
	"testing"
)

func Test_ParseVerbatim(t *testing.T) {
	for _, s := range []string{"Wendy /Wong", "test -  june/fifteenth", " test -  june/fifteenth ", "a/b/c", "tab\there", "Ünïcødé name", "../../etc/passwd"} {
		k := Parse(s)
		assert.Assert(t, k.Name == s)
		assert.Assert(t, k.Key != "")
		for _, r := range k.Key {
			assert.Assert(t, keepRune(r), "%q has %q", k.Key, r)
		}
		assert.Assert(t, !strings.Contains(k.Key, "/"))
		assert.Assert(t, Parse(s) == k)
		_, err := FromKey(k.Key)
		assert.NilError(t, err)
	}
}

func Test_ParseCanonical(t *testing.T) {
	k := Parse("GLM_model_1")
	assert.Assert(t, k.Key == "GLM_model_1")
	assert.Assert(t, k.Name == "GLM_model_1")
}

func Test_ParseDistinct(t *testing.T) {
	a := Parse("a b")
	b := Parse("a/b")
	assert.Assert(t, a.Key != b.Key)
	assert.Assert(t, strings.HasPrefix(a.Key, "a_b-"))
	assert.Assert(t, strings.HasPrefix(b.Key, "a_b-"))
}

func Test_ParseEmpty(t *testing.T) {
	k := Parse("")
	assert.Assert(t, strings.HasPrefix(k.Name, "GLM_model_"))
	assert.Assert(t, k.Key == k.Name)
	assert.Assert(t, Parse("").Name != k.Name)
}

func Test_FromKeyRejects(t *testing.T) {
	for _, s := range []string{"", "..", "Wendy /Wong", "a/b"} {
		_, err := FromKey(s)
		assert.Assert(t, xerrors.Is(err, ErrIdentifierRejected), s)
	}
}

func Test_WithName(t *testing.T) {
	k := Parse("Wendy /Wong")
	x, err := WithName(k.Key, "Wendy /Wong")
	assert.NilError(t, err)
	assert.Assert(t, x == k)
	_, err = WithName(k.Key, "Wendy Wong")
	assert.Assert(t, xerrors.Is(err, ErrIdentifierRejected))
}

func Test_Derived(t *testing.T) {
	k := Parse("Wendy /Wong")
	assert.Assert(t, k.CV(1).Name == "Wendy /Wong_cv_1")
	assert.Assert(t, k.CV(2).Name == "Wendy /Wong_cv_2")
	assert.Assert(t, k.Holdout().Name == "cv_holdout_prediction_Wendy /Wong")
	assert.Assert(t, k.FoldPrediction(2).Name == "prediction_Wendy /Wong_cv_2")
	assert.Assert(t, k.CV(1).Key != k.CV(2).Key)
}

func Test_PathEscape(t *testing.T) {
	k := Parse("Wendy /Wong")
	s := k.PathEscape()
	assert.Assert(t, !strings.Contains(s, "/"))
	u, err := url.PathUnescape(s)
	assert.NilError(t, err)
	assert.Assert(t, u == k.Name)
}

func Test_ParseHashLikeName(t *testing.T) {
	a := Parse("a b")
	assert.Assert(t, hashed(a.Key))
	b := Parse(a.Key)
	assert.Assert(t, b.Name == a.Key)
	assert.Assert(t, b.Key != a.Key)
	assert.Assert(t, Parse(b.Key).Key != b.Key)
	x, err := WithName(b.Key, a.Key)
	assert.NilError(t, err)
	assert.Assert(t, x == b)
	_, err = WithName(a.Key, a.Key)
	assert.Assert(t, xerrors.Is(err, ErrIdentifierRejected))

	assert.Assert(t, Parse("model-0123456789abcdef").Key != "model-0123456789abcdef")
	assert.Assert(t, Parse("model-0123456789").Key == "model-0123456789")
	assert.Assert(t, Parse("model-0123456789ABCDEF").Key == "model-0123456789ABCDEF")
}
