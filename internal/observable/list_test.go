package observable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewList(t *testing.T) {
	l := NewList[string]()
	require.False(t, l.Fetched())
	require.Empty(t, l.Items())
	require.Equal(t, 0, l.Len())
}

func TestList_Replace(t *testing.T) {
	t.Run("notifies subscribers in order", func(t *testing.T) {
		l := NewList[string]()

		var calls []string
		l.Subscribe(func(items []string) { calls = append(calls, "first:"+items[0]) })
		l.Subscribe(func(items []string) { calls = append(calls, "second:"+items[0]) })

		l.Replace([]string{"a"})

		require.Equal(t, []string{"first:a", "second:a"}, calls)
		require.True(t, l.Fetched())
		require.Equal(t, []string{"a"}, l.Items())
	})

	t.Run("empty replace still marks fetched", func(t *testing.T) {
		l := NewList[int]()
		notified := 0
		l.Subscribe(func(items []int) { notified++ })

		l.Replace(nil)

		require.True(t, l.Fetched())
		require.Equal(t, 1, notified)
		require.Empty(t, l.Items())
	})

	t.Run("caller slice is copied", func(t *testing.T) {
		l := NewList[string]()
		src := []string{"a", "b"}
		l.Replace(src)
		src[0] = "changed"

		require.Equal(t, []string{"a", "b"}, l.Items())

		items := l.Items()
		items[1] = "changed"
		require.Equal(t, []string{"a", "b"}, l.Items())
	})

	t.Run("subscriber can read the list", func(t *testing.T) {
		l := NewList[string]()
		var seen int
		l.Subscribe(func(items []string) { seen = l.Len() })

		l.Replace([]string{"a", "b", "c"})
		require.Equal(t, 3, seen)
	})
}

func TestList_Unsubscribe(t *testing.T) {
	l := NewList[string]()

	var first, second int
	unsubscribe := l.Subscribe(func([]string) { first++ })
	l.Subscribe(func([]string) { second++ })

	l.Replace([]string{"a"})
	unsubscribe()
	l.Replace([]string{"b"})

	require.Equal(t, 1, first)
	require.Equal(t, 2, second)

	// removing twice is harmless
	unsubscribe()
	l.Replace([]string{"c"})
	require.Equal(t, 3, second)
}
