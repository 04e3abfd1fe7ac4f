package faker

import (
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameValues(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.IntRange(0, 1000), b.IntRange(0, 1000))
		require.Equal(t, a.Float(0, 500, 2), b.Float(0, 500, 2))
		require.Equal(t, a.FirstName(), b.FirstName())
		require.Equal(t, a.Code(5), b.Code(5))
	}
}

func TestIntRangeBounds(t *testing.T) {
	p := New(7)
	for i := 0; i < 500; i++ {
		n := p.IntRange(2, 15)
		assert.GreaterOrEqual(t, n, 2)
		assert.LessOrEqual(t, n, 15)
	}
	assert.Equal(t, 3, p.IntRange(3, 3))
	assert.Equal(t, 5, p.IntRange(5, 1))
}

func TestFloatBoundsAndPrecision(t *testing.T) {
	p := New(11)
	for i := 0; i < 500; i++ {
		v := p.Float(200, 10000, 2)
		assert.GreaterOrEqual(t, v, 200.0)
		assert.LessOrEqual(t, v, 10000.0)
		d := decimal.NewFromFloat(v)
		assert.True(t, d.Equal(d.Round(2)), "%v has more than two decimals", v)
	}
}

func TestFloatDegenerateRange(t *testing.T) {
	p := New(3)
	assert.Equal(t, 0.0, p.Float(0, 0, 2))
	assert.Equal(t, 0.0, p.Float(0, -10, 2))
	assert.Equal(t, 1.24, p.Float(1.231, 1.239, 2))

	for i := 0; i < 100; i++ {
		v := p.Float(0, 0.019, 2)
		assert.Contains(t, []float64{0, 0.01}, v)
	}
}

func TestProbabilityRange(t *testing.T) {
	p := New(5)
	for i := 0; i < 500; i++ {
		u := p.Probability()
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestMaybeExtremes(t *testing.T) {
	p := New(9)
	for i := 0; i < 100; i++ {
		assert.False(t, p.Maybe(0))
		assert.True(t, p.Maybe(1))
	}
}

func TestPermuteKeepsElements(t *testing.T) {
	p := New(13)
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := Permute[int](p, in)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, in)
	require.Len(t, out, len(in))
	sorted := append([]int(nil), out...)
	sort.Ints(sorted)
	assert.Equal(t, in, sorted)

	assert.Empty(t, Permute[int](p, nil))
}

func TestChoice(t *testing.T) {
	p := New(17)
	opts := []string{"PPO", "HMO", "Dental Only"}
	for i := 0; i < 50; i++ {
		assert.Contains(t, opts, p.Choice(opts))
	}
	assert.Equal(t, "", p.Choice(nil))
}

func TestDateRange(t *testing.T) {
	p := New(19)
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 100; i++ {
		d := p.DateRange(start, end)
		assert.False(t, d.Before(start))
		assert.False(t, d.After(end))
	}
	assert.Equal(t, end, p.DateRange(end, start))
}

func TestTextFormats(t *testing.T) {
	p := New(23)

	assert.Regexp(t, regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`), p.Phone())
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{5}$`), p.Code(5))
	assert.Len(t, regexp.MustCompile(`\s+`).Split(p.Words(3), -1), 3)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z].*\.$`), p.Sentence())
	assert.Regexp(t, regexp.MustCompile(`^(Apt\.|Suite) \d{3}$`), p.SecondaryAddress())
	assert.NotEmpty(t, p.StateAbbr())
}
