package adaptor

import (
	"sort"
	"testing"

	"github.com/core-orm/coreql/model"
	"github.com/stretchr/testify/assert"
)

func TestLess_OrdersByEntityNameThenOperator(t *testing.T) {
	ops := []Operation{
		{EntityName: "Person", Operator: OpDelete},
		{EntityName: "Address", Operator: OpInsert},
		{EntityName: "Person", Operator: OpInsert},
		{EntityName: "Address", Operator: OpLock},
	}
	sort.Slice(ops, func(i, j int) bool { return Less(ops[i], ops[j]) })

	want := []struct {
		name string
		op   Operator
	}{
		{"Address", OpLock},
		{"Address", OpInsert},
		{"Person", OpInsert},
		{"Person", OpDelete},
	}
	for i, w := range want {
		assert.Equal(t, w.name, ops[i].EntityName)
		assert.Equal(t, w.op, ops[i].Operator)
	}
}

func TestLess_OperatorOrdinalOrdering(t *testing.T) {
	assert.True(t, OpNone < OpLock)
	assert.True(t, OpLock < OpInsert)
	assert.True(t, OpInsert < OpUpdate)
	assert.True(t, OpUpdate < OpDelete)
}

func TestRow_GetAndAsMap(t *testing.T) {
	r := Row{
		Attrs:  []model.Attribute{{Name: "id"}, {Name: "name"}},
		Values: []any{1, "Ada"},
	}
	v, ok := r.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"id": 1, "name": "Ada"}, r.AsMap())
}
