package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agora/pkg/pagination"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("keeps metadata", func(t *testing.T) {
		t.Parallel()

		p := pagination.New([]int{1, 2, 3}, 2, 3, 10)
		require.Equal(t, []int{1, 2, 3}, p.Items)
		require.Equal(t, 2, p.Number)
		require.Equal(t, 3, p.PerPage)
		require.Equal(t, 10, p.TotalItems)
	})

	t.Run("clamps page number below one", func(t *testing.T) {
		t.Parallel()

		p := pagination.New[int](nil, 0, 10, 0)
		require.Equal(t, 1, p.Number)
	})
}

func TestPage_TotalPages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		perPage    int
		totalItems int
		want       int
	}{
		{"exact fit", 10, 20, 2},
		{"partial last page", 10, 21, 3},
		{"empty", 10, 0, 0},
		{"zero page size", 0, 5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := pagination.Page[int]{PerPage: tc.perPage, TotalItems: tc.totalItems}
			require.Equal(t, tc.want, p.TotalPages())
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	t.Parallel()

	first := pagination.New([]int{1}, 1, 1, 3)
	require.True(t, first.HasNext())
	require.False(t, first.HasPrev())

	last := pagination.New([]int{3}, 3, 1, 3)
	require.False(t, last.HasNext())
	require.True(t, last.HasPrev())
}

func TestOffset(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, pagination.Offset(1, 20))
	require.Equal(t, 20, pagination.Offset(2, 20))
	require.Equal(t, 0, pagination.Offset(0, 20), "pages below 1 clamp to the first page")
	require.Equal(t, 0, pagination.Offset(-5, 20))
}
