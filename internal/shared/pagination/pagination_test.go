package pagination

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feature-voting-backend/internal/shared/apperror"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 100, 1},
		{101, 100, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestNewPage_Flags(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5}, 25, Params{Page: 3, PageSize: 10})
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrevious)
	assert.Len(t, p.Items, 5)

	first := NewPage([]int{}, 25, Params{Page: 1, PageSize: 10})
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)

	empty := NewPage[int](nil, 0, Params{Page: 1, PageSize: 20})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrevious)
}

func TestNewPage_PastTheEnd(t *testing.T) {
	p := NewPage([]int{}, 5, Params{Page: 4, PageSize: 10})
	assert.Empty(t, p.Items)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrevious)
}

func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, math.MaxInt, Params{Page: math.MaxInt, PageSize: 100}.Offset())
	assert.Equal(t, math.MaxInt, Params{Page: math.MaxInt/10 + 2, PageSize: 10}.Offset())
}

func TestParseParams_HugePage(t *testing.T) {
	p, err := ParseParams(url.Values{"page": {"9223372036854775807"}, "page_size": {"100"}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Offset(), 0)
}

func TestParseParams_Defaults(t *testing.T) {
	p, err := ParseParams(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Params{Page: DefaultPage, PageSize: DefaultPageSize}, p)
}

func TestParseParams_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		query  url.Values
		fields []string
	}{
		{"page zero", url.Values{"page": {"0"}}, []string{"page"}},
		{"negative page", url.Values{"page": {"-1"}}, []string{"page"}},
		{"page size too large", url.Values{"page_size": {"101"}}, []string{"page_size"}},
		{"page size zero", url.Values{"page_size": {"0"}}, []string{"page_size"}},
		{"not numeric", url.Values{"page": {"abc"}}, []string{"page"}},
		{"both", url.Values{"page": {"x"}, "page_size": {"1000"}}, []string{"page", "page_size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams(tt.query)
			appErr := apperror.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperror.Validation, appErr.Kind)
			assert.Len(t, appErr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, appErr.Fields, f)
			}
		})
	}
}

func TestParseParams_NonNumericMessageWins(t *testing.T) {
	_, err := ParseParams(url.Values{"page": {"abc"}})
	assert.Equal(t, "must be a valid integer", apperror.As(err).Fields["page"])
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Window{Skip: 0, Limit: DefaultLimit}, w)

	w, err = ParseWindow(url.Values{"skip": {"5"}, "limit": {"1000"}})
	require.NoError(t, err)
	assert.Equal(t, Window{Skip: 5, Limit: 1000}, w)

	_, err = ParseWindow(url.Values{"skip": {"-1"}, "limit": {"1001"}})
	appErr := apperror.As(err)
	assert.Equal(t, apperror.Validation, appErr.Kind)
	assert.Len(t, appErr.Fields, 2)
}
