package qualifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingKeys_CollectsBothFormsAcrossTree(t *testing.T) {
	q := NewAnd(
		KV("age", Greater, Var{Key: "minAge"}),
		Bind("extra"),
		NewOr(KV("city", Equal, "NYC"), Bind("alt")),
	)
	keys := BindingKeys(q)
	assert.Len(t, keys, 3)
	for _, k := range []string{"minAge", "extra", "alt"} {
		_, ok := keys[k]
		assert.True(t, ok, "expected key %q", k)
	}
}

func TestQualifierWith_RequiresAll_ErrorsOnMissing(t *testing.T) {
	q := KV("age", Greater, Var{Key: "minAge"})
	_, err := QualifierWith(q, map[string]any{}, true)
	assert.Error(t, err)
}

func TestQualifierWith_SubstitutesVar(t *testing.T) {
	q := KV("age", Greater, Var{Key: "minAge"})
	resolved, err := QualifierWith(q, map[string]any{"minAge": 21}, true)
	require.NoError(t, err)
	kv, ok := resolved.(KeyValue)
	require.True(t, ok)
	assert.Equal(t, 21, kv.Value)
}

func TestQualifierWith_AndShortCircuitsOnFalse(t *testing.T) {
	q := NewAnd(Boolean{Value: false}, KV("x", Equal, 1))
	resolved, err := QualifierWith(q, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Boolean{Value: false}, resolved)
}

func TestQualifierWith_AndDropsTrueOperands(t *testing.T) {
	q := NewAnd(Boolean{Value: true}, KV("x", Equal, 1))
	resolved, err := QualifierWith(q, nil, false)
	require.NoError(t, err)
	assert.Equal(t, KeyValue{Key: "x", Op: Equal, Value: 1}, resolved)
}

func TestQualifierWith_OrShortCircuitsOnTrue(t *testing.T) {
	q := NewOr(Boolean{Value: true}, KV("x", Equal, 1))
	resolved, err := QualifierWith(q, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Boolean{Value: true}, resolved)
}

func TestQualifierWith_OrDropsFalseOperands(t *testing.T) {
	q := NewOr(Boolean{Value: false}, KV("x", Equal, 1))
	resolved, err := QualifierWith(q, nil, false)
	require.NoError(t, err)
	assert.Equal(t, KeyValue{Key: "x", Op: Equal, Value: 1}, resolved)
}

func TestQualifierWith_NotNegatesBoolean(t *testing.T) {
	q := NewNot(Boolean{Value: true})
	resolved, err := QualifierWith(q, nil, false)
	require.NoError(t, err)
	assert.Equal(t, Boolean{Value: false}, resolved)
}

func TestQualifierWith_BindingSubstitutesWholeQualifier(t *testing.T) {
	q := Bind("activeOnly")
	resolved, err := QualifierWith(q, map[string]any{
		"activeOnly": KV("active", Equal, true),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, KeyValue{Key: "active", Op: Equal, Value: true}, resolved)
}

func TestLeafValues_LeftToRightOrder(t *testing.T) {
	q := NewAnd(
		KV("a", Equal, 1),
		NewOr(KV("b", Equal, 2), KV("c", Equal, 3)),
	)
	assert.Equal(t, []any{1, 2, 3}, LeafValues(q))
}
