package catalog_test

import (
	"testing"

	"storefront/internal/catalog"

	"github.com/stretchr/testify/assert"
)

func numbers(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		page, size int
		wantItems  []int
		wantPages  int
	}{
		{"first page", 10, 1, 4, []int{0, 1, 2, 3}, 3},
		{"last partial page", 10, 3, 4, []int{8, 9}, 3},
		{"exact fit", 8, 2, 4, []int{4, 5, 6, 7}, 2},
		{"page beyond range is empty", 10, 4, 4, []int{}, 3},
		{"page zero is empty", 10, 0, 4, []int{}, 3},
		{"empty list has one page", 0, 1, 4, []int{}, 1},
		{"non-positive size is one page", 3, 1, 0, []int{0, 1, 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := catalog.Paginate(numbers(tt.n), tt.page, tt.size)
			assert.Equal(t, tt.wantItems, w.Items)
			assert.Equal(t, tt.wantPages, w.TotalPages)
			assert.Equal(t, tt.n, w.Total)
			assert.Equal(t, tt.page, w.Page)
		})
	}
}

func TestPaginate_CoversEveryItemOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 12, 13} {
		for _, size := range []int{1, 3, 12} {
			items := numbers(n)
			first := catalog.Paginate(items, 1, size)

			var seen []int
			for page := 1; page <= first.TotalPages; page++ {
				w := catalog.Paginate(items, page, size)
				assert.LessOrEqual(t, len(w.Items), size)
				seen = append(seen, w.Items...)
			}
			if n == 0 {
				assert.Empty(t, seen)
				assert.Equal(t, 1, first.TotalPages)
				continue
			}
			assert.Equal(t, items, seen, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginate_WindowDoesNotAliasTail(t *testing.T) {
	items := numbers(6)
	w := catalog.Paginate(items, 1, 3)
	w.Items = append(w.Items, 99)
	assert.Equal(t, 3, items[3])
}
