package paginator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		errMsg  string
	}{
		{name: "defaults", cfg: Config{Page: 1, PageSize: DefaultPageSize}},
		{name: "zero page size", cfg: Config{Page: 1, PageSize: 0}, wantErr: true, errMsg: "positive"},
		{name: "negative page size", cfg: Config{Page: 1, PageSize: -3}, wantErr: true, errMsg: "positive"},
		{name: "page zero", cfg: Config{Page: 0, PageSize: 10}, wantErr: true, errMsg: "at least 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 30))
	assert.Equal(t, 1, TotalPages(1, 30))
	assert.Equal(t, 1, TotalPages(30, 30))
	assert.Equal(t, 2, TotalPages(31, 30))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate([]int{}, 1, 30)
	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Items)
	assert.Nil(t, p.Window())
	assert.True(t, p.PrevDisabled)
	assert.True(t, p.NextDisabled)
}

func TestPaginateCoversSequence(t *testing.T) {
	for _, n := range []int{1, 29, 30, 31, 95, 300} {
		items := seq(n)
		first := Paginate(items, 1, 30)
		var joined []int
		for page := 1; page <= first.TotalPages; page++ {
			joined = append(joined, Paginate(items, page, 30).Items...)
		}
		assert.Equal(t, items, joined, "n=%d", n)
	}
}

func TestPaginateLastPartialPage(t *testing.T) {
	p := Paginate(seq(65), 3, 30)
	assert.Equal(t, []int{60, 61, 62, 63, 64}, p.Items)
	assert.True(t, p.NextDisabled)
	assert.False(t, p.PrevDisabled)
}

func TestPaginateOutOfRange(t *testing.T) {
	assert.Empty(t, Paginate(seq(10), 5, 30).Items)
	assert.Empty(t, Paginate(seq(10), 0, 30).Items)
	assert.Empty(t, Paginate(seq(10), -1, 30).Items)
}

func TestPaginateDefaultPageSize(t *testing.T) {
	p := Paginate(seq(40), 1, 0)
	assert.Len(t, p.Items, DefaultPageSize)
	assert.Equal(t, 2, p.TotalPages)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		page    int
		want    []int
		prevDis bool
		nextDis bool
	}{
		{name: "near end", total: 10, page: 9, want: []int{6, 7, 8, 9, 10}},
		{name: "last page", total: 10, page: 10, want: []int{6, 7, 8, 9, 10}, nextDis: true},
		{name: "first page", total: 10, page: 1, want: []int{1, 2, 3, 4, 5}, prevDis: true},
		{name: "second page", total: 10, page: 2, want: []int{1, 2, 3, 4, 5}},
		{name: "middle", total: 10, page: 5, want: []int{3, 4, 5, 6, 7}},
		{name: "few pages", total: 3, page: 2, want: []int{1, 2, 3}},
		{name: "single page", total: 1, page: 1, want: []int{1}, prevDis: true, nextDis: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(seq(tt.total*10), tt.page, 10)
			assert.Equal(t, tt.total, p.TotalPages)
			assert.Equal(t, tt.want, p.Window())
			assert.LessOrEqual(t, len(p.Window()), WindowSize)
			assert.Equal(t, tt.prevDis, p.PrevDisabled)
			assert.Equal(t, tt.nextDis, p.NextDisabled)
		})
	}
}

func TestWindowSpecScenario(t *testing.T) {
	p := Paginate(seq(300), 9, 30)
	assert.Equal(t, 10, p.TotalPages)
	assert.Equal(t, 6, p.WindowStart)
	assert.Equal(t, 10, p.WindowEnd)
	assert.False(t, p.NextDisabled)
	assert.False(t, p.PrevDisabled)
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 5))
	assert.Equal(t, 5, ClampPage(9, 5))
	assert.Equal(t, 3, ClampPage(3, 5))
	assert.Equal(t, 1, ClampPage(4, 0))
}
