package domain

import "math/rand/v2"

// BatchSize is the number of pieces offered at once.
const BatchSize = 3

// Score bands for tier weighting.
const (
	MidScore  = 500
	HighScore = 1500
)

// Tier weights in percent, indexed by Tier. Each step up in score moves
// weight from the easy tiers toward the large and corner shapes.
var (
	lowWeights  = [TierCount]int{30, 30, 20, 15, 5}
	midWeights  = [TierCount]int{20, 25, 20, 20, 15}
	highWeights = [TierCount]int{10, 20, 20, 25, 25}
)

// Weights returns the tier distribution used at score.
func Weights(score int) [TierCount]int {
	switch {
	case score >= HighScore:
		return highWeights
	case score >= MidScore:
		return midWeights
	default:
		return lowWeights
	}
}

// Generator draws batches of pieces.
type Generator struct {
	rng    *rand.Rand
	layout Layout
	nextID int
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed uint64, layout Layout) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		layout: layout,
	}
}

func (g *Generator) pickTier(score int) Tier {
	w := Weights(score)
	total := 0
	for _, v := range w {
		total += v
	}
	n := g.rng.IntN(total)
	for t, v := range w {
		if n < v {
			return Tier(t)
		}
		n -= v
	}
	return TierCount - 1
}

// Batch returns BatchSize new pieces laid out left to right in the tray,
// drawn there at TrayCell scale.
func (g *Generator) Batch(score int) []Piece {
	pieces := make([]Piece, 0, BatchSize)
	x := g.layout.TrayX
	for i := 0; i < BatchSize; i++ {
		tier := g.pickTier(score)
		shapes := ShapesOf(tier)
		shape := shapes[g.rng.IntN(len(shapes))]
		g.nextID++
		origin := Point{X: x, Y: g.layout.TrayY}
		p := Piece{
			ID:     g.nextID,
			Shape:  shape,
			Tier:   tier,
			Color:  Palette[g.rng.IntN(len(Palette))],
			Anchor: origin,
			Origin: origin,
		}
		x += p.TrayWidth(g.layout) + g.layout.TrayGap
		pieces = append(pieces, p)
	}
	return pieces
}
