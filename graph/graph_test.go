package graph

import (
	"bytes"
	"testing"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tee struct{}

type needsT struct{}

func newNeedsT(*tee) *needsT { return &needsT{} }

type left struct{}
type right struct{}

func newLeft(*right) *left  { return &left{} }
func newRight(*left) *right { return &right{} }

type node struct {
	Peer *peer `inject:""`
}

type peer struct {
	Node *node `inject:""`
}

type pool struct {
	Tees []*tee `inject:""`
}

func TestEdges(t *testing.T) {
	a := descriptor.Service[needsT]().Constructor(newNeedsT).MustBuild()
	b := descriptor.Service[tee]().MustBuild()

	g, err := New([]*descriptor.ClassDescriptor{a, b})
	require.NoError(t, err)

	assert.Equal(t, []Edge{{From: a.Constructor, To: b.Constructor}}, g.Edges())
	assert.True(t, g.HasEdge(a.Constructor, b.Constructor))
	assert.False(t, g.HasEdge(b.Constructor, a.Constructor))
	assert.Equal(t, []descriptor.Member{b.Constructor}, g.Successors(a.Constructor))
	assert.Empty(t, g.CycleSet())
	assert.Len(t, g.Nodes(), 2)
}

func TestArrayDependency(t *testing.T) {
	a := descriptor.Service[pool]().MustBuild()
	b := descriptor.Service[tee](descriptor.Named("x")).MustBuild()
	c := descriptor.Service[tee]().MustBuild()

	g, err := New([]*descriptor.ClassDescriptor{a, b, c})
	require.NoError(t, err)

	field := a.Fields[0]
	assert.False(t, g.HasEdge(field, b.Constructor), "discriminator is kept when unwrapping")
	assert.True(t, g.HasEdge(field, c.Constructor))
	assert.True(t, g.HasEdge(field, a.Constructor), "fields depend on their owner")
}

func TestCycleSet(t *testing.T) {
	t.Run("constructor cycle", func(t *testing.T) {
		l := descriptor.Service[left]().Constructor(newLeft).MustBuild()
		r := descriptor.Service[right]().Constructor(newRight).MustBuild()

		g, err := New([]*descriptor.ClassDescriptor{l, r})
		require.NoError(t, err)

		cycle := g.CycleSet()
		assert.Equal(t, []descriptor.Member{l.Constructor, r.Constructor}, cycle)

		layers, cyclic := g.Layers()
		assert.Empty(t, layers)
		assert.ElementsMatch(t, []descriptor.Member{l.Constructor, r.Constructor}, cyclic)
	})

	t.Run("field cycle is not a constructor cycle", func(t *testing.T) {
		n := descriptor.Service[node]().MustBuild()
		p := descriptor.Service[peer]().MustBuild()

		g, err := New([]*descriptor.ClassDescriptor{n, p})
		require.NoError(t, err)
		assert.Empty(t, g.CycleSet())
	})
}

func TestLayers(t *testing.T) {
	a := descriptor.Service[needsT]().Constructor(newNeedsT).MustBuild()
	b := descriptor.Service[tee]().MustBuild()
	p := descriptor.Service[pool]().MustBuild()

	g, err := New([]*descriptor.ClassDescriptor{a, b, p})
	require.NoError(t, err)

	layers, cyclic := g.Layers()
	assert.Empty(t, cyclic)
	require.Len(t, layers, 2)
	assert.Equal(t, []descriptor.Member{b.Constructor, p.Constructor}, layers[0])
	assert.Equal(t, []descriptor.Member{a.Constructor, p.Fields[0]}, layers[1])
}

func TestDOT(t *testing.T) {
	a := descriptor.Service[needsT]().Constructor(newNeedsT).MustBuild()
	b := descriptor.Service[tee]().MustBuild()

	g, err := New([]*descriptor.ClassDescriptor{a, b})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, g.DOT(&buf))
	out := buf.String()
	assert.Contains(t, out, "digraph beans {")
	assert.Contains(t, out, "n0 -> n1;")
	assert.Contains(t, out, "needsT.<init>")
}
