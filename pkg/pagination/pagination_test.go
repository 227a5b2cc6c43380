package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/reviews", nil)

	p := FromRequest(r)

	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_ValidValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/reviews?limit=50&offset=10", nil)

	p := FromRequest(r)

	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 10, p.Offset)
}

func TestFromRequest_LimitCapped(t *testing.T) {
	r := httptest.NewRequest("GET", "/reviews?limit=500", nil)

	assert.Equal(t, MaxLimit, FromRequest(r).Limit)
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	for _, query := range []string{
		"limit=0&offset=-5",
		"limit=-1",
		"limit=abc&offset=xyz",
	} {
		r := httptest.NewRequest("GET", "/reviews?"+query, nil)
		p := FromRequest(r)
		assert.Equal(t, DefaultLimit, p.Limit, query)
		assert.Equal(t, 0, p.Offset, query)
	}
}

func TestNewResult_HasMore(t *testing.T) {
	data := []int{1, 2, 3}

	res := NewResult(data, 10, Params{Limit: 3, Offset: 0})
	assert.True(t, res.HasMore)
	assert.Equal(t, 10, res.Total)

	res = NewResult(data, 10, Params{Limit: 3, Offset: 7})
	assert.False(t, res.HasMore)

	res = NewResult([]int{}, 0, DefaultParams())
	assert.False(t, res.HasMore)
}
