// Package generator synthesizes random characters and the sample roster.
package generator

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/codrutul/roster/internal/domain/model"
)

// DefaultImageURL is the portrait attached to synthesized characters.
const DefaultImageURL = "https://static1.srcdn.com/wordpress/wp-content/uploads/2022/04/How-Old-Is-Geralt-of-Rivia.jpg"

var (
	namePrefixes = []string{"Brave", "Swift", "Mighty", "Wise", "Dark", "Light", "Storm", "Fire", "Ice"}
	nameSuffixes = []string{"blade", "heart", "soul", "mind", "fist", "spirit", "walker", "weaver", "master"}
)

// Stat bounds; Min is inclusive, Max exclusive.
type bounds struct{ Min, Max int }

var (
	levelBounds  = bounds{1, 31}
	hpBounds     = bounds{1000, 3000}
	damageBounds = bounds{100, 300}
	armorBounds  = bounds{1, 101}
	resistBounds = bounds{1, 101}
	critBounds   = bounds{1, 31}
)

func (b bounds) pick(r *rand.Rand) int { return b.Min + r.IntN(b.Max-b.Min) }

// Synthesizer produces random characters. It is safe for concurrent use.
type Synthesizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSource sets the random source, mainly for reproducible tests.
func WithSource(src rand.Source) Option {
	return func(s *Synthesizer) {
		if src != nil {
			s.rnd = rand.New(src)
		}
	}
}

// WithSeed seeds a PCG source.
func WithSeed(seed uint64) Option {
	return WithSource(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New creates a Synthesizer backed by a randomly seeded source unless configured otherwise.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Character returns a new random character input.
func (s *Synthesizer) Character() model.CharacterInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	class := model.Classes[s.rnd.IntN(len(model.Classes))]
	name := namePrefixes[s.rnd.IntN(len(namePrefixes))] + nameSuffixes[s.rnd.IntN(len(nameSuffixes))]
	return model.CharacterInput{
		Name:            name,
		Class:           class,
		Level:           levelBounds.pick(s.rnd),
		HP:              hpBounds.pick(s.rnd),
		Damage:          damageBounds.pick(s.rnd),
		Armor:           armorBounds.pick(s.rnd),
		MagicResistance: resistBounds.pick(s.rnd),
		CriticalChance:  critBounds.pick(s.rnd),
		ImageURL:        DefaultImageURL,
		Description:     "A mysterious " + strings.ToLower(string(class)) + " known for their exceptional abilities and unique fighting style.",
	}
}

// GridPosition returns a uniformly random cell of a size x size grid.
func (s *Synthesizer) GridPosition(size int) model.Position {
	if size < 1 {
		size = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Position{X: s.rnd.IntN(size), Y: s.rnd.IntN(size)}
}
