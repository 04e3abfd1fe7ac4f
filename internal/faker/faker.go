// Package faker is the randomness source for the seeder: numeric draws,
// choices, permutations, dates and realistic text.
package faker

import (
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Provider produces fake values. Implementations must be deterministic for a
// fixed seed.
type Provider interface {
	// IntRange returns an integer in [min, max]. If max < min it returns min.
	IntRange(min, max int) int
	// Float returns a value in [min, max] that is a whole multiple of
	// 10^-precision.
	Float(min, max float64, precision int32) float64
	// Probability returns a value in [0, 1).
	Probability() float64
	Choice(options []string) string
	Shuffle(n int, swap func(i, j int))
	DateRange(start, end time.Time) time.Time
	Maybe(probability float64) bool

	FirstName() string
	LastName() string
	Company() string
	BuzzVerb() string
	Street() string
	SecondaryAddress() string
	City() string
	StateAbbr() string
	Zip() string
	Phone() string
	Email() string
	Noun() string
	Words(n int) string
	Sentence() string
	Code(n int) string
}

// Permute returns a shuffled copy of items. The input is left untouched.
func Permute[T any](p Provider, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	p.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Gofakeit implements Provider on top of gofakeit.
type Gofakeit struct {
	f *gofakeit.Faker
}

// New returns a provider seeded with seed. A zero seed is random.
func New(seed int64) *Gofakeit {
	return &Gofakeit{f: gofakeit.New(uint64(seed))}
}

func (g *Gofakeit) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return g.f.Number(min, max)
}

func (g *Gofakeit) Float(min, max float64, precision int32) float64 {
	lo := decimal.NewFromFloat(min).RoundCeil(precision)
	hi := decimal.NewFromFloat(max).RoundFloor(precision)
	if hi.LessThanOrEqual(lo) {
		return lo.InexactFloat64()
	}
	loSteps := lo.Shift(precision).IntPart()
	hiSteps := hi.Shift(precision).IntPart()
	n := int64(g.IntRange(0, int(hiSteps-loSteps)))
	return decimal.New(loSteps+n, -precision).InexactFloat64()
}

func (g *Gofakeit) Probability() float64 {
	return g.f.Float64Range(0, 1)
}

func (g *Gofakeit) Choice(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[g.IntRange(0, len(options)-1)]
}

// Shuffle is a Fisher-Yates shuffle driven by IntRange so it follows the seed.
func (g *Gofakeit) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, g.IntRange(0, i))
	}
}

func (g *Gofakeit) DateRange(start, end time.Time) time.Time {
	if !end.After(start) {
		return start
	}
	return g.f.DateRange(start, end)
}

func (g *Gofakeit) Maybe(probability float64) bool {
	return g.Probability() < probability
}

func (g *Gofakeit) FirstName() string { return g.f.FirstName() }
func (g *Gofakeit) LastName() string  { return g.f.LastName() }
func (g *Gofakeit) Company() string   { return g.f.Company() }
func (g *Gofakeit) BuzzVerb() string  { return g.f.Verb() }
func (g *Gofakeit) City() string      { return g.f.City() }
func (g *Gofakeit) StateAbbr() string { return g.f.StateAbr() }
func (g *Gofakeit) Zip() string       { return g.f.Zip() }
func (g *Gofakeit) Email() string     { return g.f.Email() }
func (g *Gofakeit) Noun() string      { return g.f.Noun() }
func (g *Gofakeit) Street() string    { return g.f.Street() }

func (g *Gofakeit) SecondaryAddress() string {
	if g.Maybe(0.5) {
		return g.f.Numerify("Apt. ###")
	}
	return g.f.Numerify("Suite ###")
}

func (g *Gofakeit) Phone() string {
	return g.f.Numerify("(###) ###-####")
}

func (g *Gofakeit) Words(n int) string {
	words := make([]string, 0, n)
	for i := 0; i < n; i++ {
		words = append(words, g.f.LoremIpsumWord())
	}
	return strings.Join(words, " ")
}

func (g *Gofakeit) Sentence() string {
	s := g.Words(g.IntRange(4, 10))
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (g *Gofakeit) Code(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(codeAlphabet[g.IntRange(0, len(codeAlphabet)-1)])
	}
	return b.String()
}
