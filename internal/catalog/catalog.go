// Package catalog holds the static reference tables consumed by the
// simulation: tower and enemy stat bundles, the wave campaign, the map
// partition policy and the enemy path.
package catalog

// Catalog bundles the reference data a room simulation reads. It is
// immutable after construction and safe to share between rooms.
type Catalog struct {
	waves map[int]WaveDefinition
	order []int
	path  *Path
}

// New builds a catalog from wave definitions and a path. A nil path selects
// the default route.
func New(waves []WaveDefinition, path *Path) *Catalog {
	if path == nil {
		path = DefaultPath()
	}
	c := &Catalog{waves: make(map[int]WaveDefinition, len(waves)), path: path}
	for _, wave := range waves {
		if _, exists := c.waves[wave.Round]; !exists {
			c.order = append(c.order, wave.Round)
		}
		groups := append([]SpawnGroup(nil), wave.Groups...)
		c.waves[wave.Round] = WaveDefinition{Round: wave.Round, Groups: groups}
	}
	return c
}

// Default returns the standard campaign on the beginner map.
func Default() *Catalog {
	return New(DefaultWaves(), DefaultPath())
}

// Wave looks up the definition for a round number.
func (c *Catalog) Wave(round int) (WaveDefinition, bool) {
	if c == nil {
		return WaveDefinition{}, false
	}
	wave, ok := c.waves[round]
	return wave, ok
}

// FinalRound returns the highest defined round, or 0 when none exist.
func (c *Catalog) FinalRound() int {
	final := 0
	if c == nil {
		return final
	}
	for _, round := range c.order {
		if round > final {
			final = round
		}
	}
	return final
}

// Path returns the enemy route.
func (c *Catalog) Path() *Path {
	if c == nil {
		return DefaultPath()
	}
	return c.path
}
