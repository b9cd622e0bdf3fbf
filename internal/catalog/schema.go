package catalog

import "github.com/invopop/jsonschema"

// TowerEntry is the wire form of a tower stat bundle.
type TowerEntry struct {
	Type           string  `json:"type" jsonschema:"title=Tower type,pattern=^[a-z_]+$,description=Wire identifier used by placeTower"`
	Cost           int     `json:"cost" jsonschema:"minimum=0,description=Placement price in currency"`
	Range          float64 `json:"range" jsonschema:"minimum=0,description=Level 1 targeting radius"`
	Damage         float64 `json:"damage" jsonschema:"minimum=0,description=Level 1 damage per hit"`
	FireIntervalMs int64   `json:"fireIntervalMs" jsonschema:"minimum=100,description=Level 1 cooldown between shots"`
	Income         bool    `json:"income,omitempty" jsonschema:"description=Generates passive income instead of attacking"`
}

// EnemyEntry is the wire form of an enemy stat bundle.
type EnemyEntry struct {
	Type        string  `json:"type" jsonschema:"title=Enemy type,pattern=^[a-z_]+$"`
	Health      float64 `json:"health" jsonschema:"minimum=0,description=Round 0 health before scaling"`
	Speed       float64 `json:"speed" jsonschema:"minimum=0"`
	Reward      int     `json:"reward" jsonschema:"minimum=0,description=Round 0 defeat reward before scaling"`
	LivesDamage int     `json:"livesDamage" jsonschema:"minimum=0,description=Lives lost when the enemy reaches the path end"`
	Regenerates bool    `json:"regenerates,omitempty"`
}

// SpawnGroupEntry is the wire form of a spawn group.
type SpawnGroupEntry struct {
	Type      string `json:"type"`
	Count     int    `json:"count" jsonschema:"minimum=0"`
	DelayMs   int64  `json:"delay" jsonschema:"minimum=0"`
	SpacingMs int64  `json:"spacing" jsonschema:"minimum=0"`
}

// WaveEntry is the wire form of a wave definition.
type WaveEntry struct {
	Number  int               `json:"number" jsonschema:"minimum=1"`
	Enemies []SpawnGroupEntry `json:"enemies"`
}

// Document is the full reference catalog as served to clients and tooling.
type Document struct {
	Towers     []TowerEntry `json:"towers"`
	Enemies    []EnemyEntry `json:"enemies"`
	Waves      []WaveEntry  `json:"waves"`
	Path       []Point      `json:"path"`
	MaxPlayers int          `json:"maxPlayers"`
}

// Document renders the catalog in its wire form.
func (c *Catalog) Document() Document {
	doc := Document{MaxPlayers: MaxPlayers}
	for _, kind := range TowerKinds() {
		stats, _ := kind.Stats()
		doc.Towers = append(doc.Towers, TowerEntry{
			Type:           stats.Name,
			Cost:           stats.Cost,
			Range:          stats.Range,
			Damage:         stats.Damage,
			FireIntervalMs: stats.FireInterval.Milliseconds(),
			Income:         stats.Income,
		})
	}
	for _, kind := range EnemyKinds() {
		stats, _ := kind.Stats()
		doc.Enemies = append(doc.Enemies, EnemyEntry{
			Type:        stats.Name,
			Health:      stats.Health,
			Speed:       stats.Speed,
			Reward:      stats.Reward,
			LivesDamage: stats.LivesDamage,
			Regenerates: stats.Regenerates,
		})
	}
	if c != nil {
		for _, round := range c.order {
			wave := c.waves[round]
			entry := WaveEntry{Number: wave.Round}
			for _, g := range wave.Groups {
				entry.Enemies = append(entry.Enemies, SpawnGroupEntry{
					Type:      g.Enemy.String(),
					Count:     g.Count,
					DelayMs:   g.Delay.Milliseconds(),
					SpacingMs: g.Spacing.Milliseconds(),
				})
			}
			doc.Waves = append(doc.Waves, entry)
		}
	}
	doc.Path = c.Path().Points()
	return doc
}

// Schema reflects the JSON schema of Document for editor tooling and
// validation of externally authored catalogs.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Document))
	schema.Title = "Co-op Defense Reference Catalog"
	schema.Description = "Tower, enemy and wave tables consumed by the authoritative simulation"
	return schema
}
