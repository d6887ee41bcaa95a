package idx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.False(t, id.IsZero())

	_, err = idx.Parse("not-a-ulid")
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestMonotonic(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	a := idx.NewAt(tm)
	b := idx.NewAt(tm)

	// Same millisecond still sorts by generation order.
	require.Less(t, a.String(), b.String())
	require.WithinDuration(t, tm, a.Time(), time.Millisecond)
}

func TestFromHeader(t *testing.T) {
	t.Run("passes through sane ids", func(t *testing.T) {
		for _, v := range []string{"abc-123", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "trace_1.2"} {
			require.Equal(t, idx.ID(v), idx.FromHeader(v))
		}
	})

	t.Run("replaces unsafe ids", func(t *testing.T) {
		for _, v := range []string{"", "  ", "a b", "x\ny", `"quoted"`, strings.Repeat("a", idx.MaxExternalLen+1)} {
			got := idx.FromHeader(v)
			require.NotEqual(t, idx.ID(v), got)
			_, err := idx.Parse(got.String())
			require.NoError(t, err, "replacement should be a fresh ULID")
		}
	})
}
