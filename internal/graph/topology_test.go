package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerOf(t *testing.T) {
	m := chainModel(t)

	p := m.ProducerOf("b_out")
	require.NotNil(t, p)
	assert.Equal(t, "b_out", p.ID)

	// Graph inputs and initializers have no producer.
	assert.Nil(t, m.ProducerOf("input"))
	assert.Nil(t, m.ProducerOf("w_a"))
	assert.Nil(t, m.ProducerOf("ghost"))
}

func TestConsumersOf(t *testing.T) {
	m := chainModel(t)

	cs := m.ConsumersOf("a_out")
	require.Len(t, cs, 1)
	assert.Equal(t, "b_out", cs[0].ID)

	assert.Len(t, m.ConsumersOf("w_a"), 1)
	assert.Empty(t, m.ConsumersOf("output"))
}

func TestConsumersOfFanOut(t *testing.T) {
	nodes := []*Node{
		{ID: "a", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"a"}},
		{ID: "b", OpType: "Sigmoid", Inputs: []string{"a"}, Outputs: []string{"b"}},
		{ID: "c", OpType: "Tanh", Inputs: []string{"a"}, Outputs: []string{"c"}},
	}
	m := New(Meta{}, nodes, []ValueInfo{{Name: "x"}},
		[]ValueInfo{{Name: "b"}, {Name: "c"}}, nil)

	cs := m.ConsumersOf("a")
	require.Len(t, cs, 2)
	// File order.
	assert.Equal(t, "b", cs[0].ID)
	assert.Equal(t, "c", cs[1].ID)
}

func TestReachable(t *testing.T) {
	m := chainModel(t)

	assert.True(t, m.Reachable("a_out", "output"))
	assert.True(t, m.Reachable("b_out", "output"))
	assert.False(t, m.Reachable("output", "a_out"))
	assert.False(t, m.Reachable("a_out", "a_out"))
	assert.False(t, m.Reachable("ghost", "output"))
}
