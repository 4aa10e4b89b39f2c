package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryNormalized(t *testing.T) {
	t.Parallel()

	q := Query{Limit: 0, Offset: -3}.Normalized()
	require.Equal(t, DefaultPageSize, q.Limit)
	require.Zero(t, q.Offset)

	q = Query{Limit: 20, Offset: 40}.Normalized()
	require.Equal(t, 20, q.Limit)
	require.Equal(t, 40, q.Offset)
}

func TestQueryMatchesSection(t *testing.T) {
	t.Parallel()

	require.True(t, Query{}.MatchesSection("Образование"))
	require.True(t, Query{Section: "наука"}.MatchesSection("Наука и инновации"))
	require.True(t, Query{Section: "ИННОВАЦИИ"}.MatchesSection("Наука и инновации"))
	require.False(t, Query{Section: "наука"}.MatchesSection("Технологии"))
}
