package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOffsetLimit(t *testing.T) {
	offset, limit := CalculateOffsetLimit(3, 20)
	assert.Equal(t, uint64(40), offset)
	assert.Equal(t, 20, limit)

	offset, limit = CalculateOffsetLimit(0, 500)
	assert.Equal(t, uint64(0), offset)
	assert.Equal(t, DefaultPageSize, limit)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(25, 2, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(25), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestHaversineKm(t *testing.T) {
	// Madrid to Barcelona is roughly 505 km in a straight line.
	d := HaversineKm(40.4168, -3.7038, 41.3874, 2.1686)
	assert.InDelta(t, 505, d, 5)
	assert.InDelta(t, 0, HaversineKm(10, 10, 10, 10), 1e-9)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"first aid", "cooking"}, NormalizeTags([]string{" First Aid", "cooking", "", "first aid"}))
	assert.Equal(t, []string{}, NonNilStrings(nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_x`, EscapeLike("100% _x"))
}
