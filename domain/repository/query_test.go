package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	opts := append([]Option{
		WithCondition("status", "failed"),
		WithConditionIn("id", []int64{1, 2}),
		WithOrderDesc("id"),
		WithOrderAsc("name"),
	}, WithPagination(10, 20)...)

	q := Build(opts...)

	conds := q.Conditions()
	assert.Len(t, conds, 2)
	assert.Equal(t, "status = failed", conds[0].String())
	assert.Equal(t, OpIn, conds[1].Operator())
	assert.Equal(t, "id IN [1 2]", conds[1].String())

	orders := q.Orders()
	assert.Len(t, orders, 2)
	assert.False(t, orders[0].Ascending())
	assert.True(t, orders[1].Ascending())

	assert.Equal(t, 10, q.Limit())
	assert.Equal(t, 20, q.Offset())
}

func TestBuild_OptionsDoNotShareState(t *testing.T) {
	base := []Option{WithCondition("a", 1)}
	q1 := Build(append(base, WithCondition("b", 2))...)
	q2 := Build(append(base, WithCondition("c", 3))...)

	assert.Equal(t, "b", q1.Conditions()[1].Field())
	assert.Equal(t, "c", q2.Conditions()[1].Field())
}

func TestNegativePagingIsClamped(t *testing.T) {
	q := Build(WithPagination(-5, -1)...)
	assert.Zero(t, q.Limit())
	assert.Zero(t, q.Offset())
}

func TestQueryCopies(t *testing.T) {
	q := Build(WithID(7))
	conds := q.Conditions()
	conds[0] = Condition{}
	assert.Equal(t, "id", q.Conditions()[0].Field())
}
