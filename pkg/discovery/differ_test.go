package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setOf(links ...Link) *LinkSet {
	s := NewLinkSet()
	for _, l := range links {
		s.Add(l)
	}
	return s
}

func TestDiff(t *testing.T) {
	a := Link{URL: "https://x.com/a", Label: "A"}
	b := Link{URL: "https://x.com/b", Label: "B"}
	c := Link{URL: "https://x.com/c", Label: "C"}

	t.Run("returns links only in after, in after order", func(t *testing.T) {
		got := Diff(setOf(a), setOf(c, a, b))
		assert.Equal(t, []Link{c, b}, got)
	})

	t.Run("uses after's label", func(t *testing.T) {
		relabeled := Link{URL: b.URL, Label: "B again"}
		got := Diff(setOf(a), setOf(relabeled))
		assert.Equal(t, []Link{relabeled}, got)
	})

	t.Run("identical sets diff to nothing", func(t *testing.T) {
		s := setOf(a, b, c)
		assert.Empty(t, Diff(s, s))
	})

	t.Run("empty before returns everything", func(t *testing.T) {
		assert.Equal(t, []Link{a, b}, Diff(NewLinkSet(), setOf(a, b)))
	})

	t.Run("nil sets are empty", func(t *testing.T) {
		assert.Empty(t, Diff(nil, nil))
		assert.Equal(t, []Link{a}, Diff(nil, setOf(a)))
	})
}

func TestLinkSet_FirstLabelWins(t *testing.T) {
	s := NewLinkSet()
	assert.True(t, s.Add(Link{URL: "https://x.com", Label: "first"}))
	assert.False(t, s.Add(Link{URL: "https://x.com", Label: "second"}))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "first", s.Links()[0].Label)
}

func TestBudget(t *testing.T) {
	links := []Link{{URL: "https://x.com/1"}, {URL: "https://x.com/2"}, {URL: "https://x.com/3"}}

	b := NewBudget(2)
	assert.Len(t, b.take(links), 2)
	assert.True(t, b.Exhausted())
	assert.Nil(t, b.take(links))
	assert.Equal(t, 2, b.Used())

	assert.True(t, NewBudget(-5).Exhausted())
}
