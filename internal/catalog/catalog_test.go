package catalog

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestTowerLevelScalingIsCumulativeFromLevelOne(t *testing.T) {
	basic, ok := TowerBasic.Stats()
	if !ok {
		t.Fatalf("expected basic tower stats")
	}

	cases := []struct {
		level    int
		rng      float64
		damage   float64
		interval time.Duration
	}{
		{level: 1, rng: 150, damage: 1, interval: 1000 * time.Millisecond},
		{level: 2, rng: 180, damage: 1.3, interval: 850 * time.Millisecond},
		{level: 3, rng: 210, damage: 1.6, interval: 700 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := basic.RangeAt(tc.level); got != tc.rng {
			t.Fatalf("level %d range: expected %v, got %v", tc.level, tc.rng, got)
		}
		if got := basic.DamageAt(tc.level); math.Abs(got-tc.damage) > 1e-9 {
			t.Fatalf("level %d damage: expected %v, got %v", tc.level, tc.damage, got)
		}
		if got := basic.FireIntervalAt(tc.level); got != tc.interval {
			t.Fatalf("level %d interval: expected %v, got %v", tc.level, tc.interval, got)
		}
	}
}

func TestFireIntervalFloor(t *testing.T) {
	stats := TowerStats{FireInterval: 110 * time.Millisecond}
	if got := stats.FireIntervalAt(3); got != 100*time.Millisecond {
		t.Fatalf("expected interval floor of 100ms, got %v", got)
	}
}

func TestUpgradeCostRoundsUp(t *testing.T) {
	rapid, _ := TowerRapid.Stats()
	if got := rapid.UpgradeCost(1); got != 263 {
		t.Fatalf("expected ceil(350*0.75)=263, got %d", got)
	}
	if got := rapid.UpgradeCost(2); got != 525 {
		t.Fatalf("expected ceil(350*0.75*2)=525, got %d", got)
	}
}

func TestEnemyScaling(t *testing.T) {
	basic, _ := EnemyBasic.Stats()
	if got := basic.HealthForRound(1); math.Abs(got-1.2) > 1e-9 {
		t.Fatalf("expected round 1 health 1.2, got %v", got)
	}
	if got := basic.RewardForRound(1); got != 2 {
		t.Fatalf("expected ceil(1*1.1)=2, got %d", got)
	}
	boss, _ := EnemyBoss.Stats()
	if got := boss.HealthForRound(5); math.Abs(got-30) > 1e-9 {
		t.Fatalf("expected boss round 5 health 30, got %v", got)
	}
	if got := boss.RewardForRound(5); got != 15 {
		t.Fatalf("expected boss round 5 reward 15, got %d", got)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	for _, kind := range TowerKinds() {
		parsed, ok := ParseTowerKind(kind.String())
		if !ok || parsed != kind {
			t.Fatalf("tower kind %v did not round trip", kind)
		}
	}
	for _, kind := range EnemyKinds() {
		parsed, ok := ParseEnemyKind(kind.String())
		if !ok || parsed != kind {
			t.Fatalf("enemy kind %v did not round trip", kind)
		}
	}
	if _, ok := ParseTowerKind("laser_tower"); ok {
		t.Fatalf("expected unknown tower name to be rejected")
	}

	var decoded struct {
		Kind TowerKind `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"freeze_tower"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Kind != TowerFreeze {
		t.Fatalf("expected freeze tower, got %v", decoded.Kind)
	}
}

func TestPartitionSections(t *testing.T) {
	cases := []struct {
		players int
		width   float64
		count   int
	}{
		{players: 1, width: 1280, count: 1},
		{players: 2, width: 1280, count: 2},
		{players: 3, width: 640, count: 3},
		{players: 4, width: 640, count: 4},
		{players: 5, width: 426, count: 5},
		{players: 6, width: 426, count: 6},
	}
	for _, tc := range cases {
		sections := PartitionSections(tc.players)
		if len(sections) != tc.count {
			t.Fatalf("%d players: expected %d sections, got %d", tc.players, tc.count, len(sections))
		}
		if sections[0].Width != tc.width {
			t.Fatalf("%d players: expected first width %v, got %v", tc.players, tc.width, sections[0].Width)
		}
	}
	if PartitionSections(0) != nil {
		t.Fatalf("expected no sections for zero players")
	}
}

func TestPartitionSectionsDoNotOverlap(t *testing.T) {
	for players := 1; players <= MaxPlayers; players++ {
		sections := PartitionSections(players)
		for i := range sections {
			for j := i + 1; j < len(sections); j++ {
				a, b := sections[i], sections[j]
				overlapX := math.Min(a.X+a.Width, b.X+b.Width) - math.Max(a.X, b.X)
				overlapY := math.Min(a.Y+a.Height, b.Y+b.Height) - math.Max(a.Y, b.Y)
				if overlapX > 0 && overlapY > 0 {
					t.Fatalf("%d players: sections %d and %d overlap", players, i, j)
				}
			}
		}
	}
}

func TestPathPointAt(t *testing.T) {
	path := DefaultPath()
	if got := path.Length(); got != 2080 {
		t.Fatalf("expected path length 2080, got %v", got)
	}
	if got := path.PointAt(0); got != (Point{X: 0, Y: 200}) {
		t.Fatalf("unexpected start %+v", got)
	}
	if got := path.PointAt(1); got != (Point{X: 1280, Y: 600}) {
		t.Fatalf("unexpected end %+v", got)
	}
	// 300 units in: 200 along the first leg, 100 down the second.
	if got := path.PointAt(300.0 / 2080.0); math.Abs(got.X-200) > 1e-9 || math.Abs(got.Y-300) > 1e-9 {
		t.Fatalf("unexpected midpoint %+v", got)
	}
	if got := path.PointAt(-1); got != (Point{X: 0, Y: 200}) {
		t.Fatalf("expected negative progress to clamp, got %+v", got)
	}
}

func TestDefaultCatalogWaves(t *testing.T) {
	c := Default()
	if c.FinalRound() != 20 {
		t.Fatalf("expected 20 rounds, got %d", c.FinalRound())
	}
	wave, ok := c.Wave(10)
	if !ok {
		t.Fatalf("expected round 10 definition")
	}
	if wave.EnemyCount() != 21 {
		t.Fatalf("expected 21 enemies in round 10, got %d", wave.EnemyCount())
	}
	if _, ok := c.Wave(21); ok {
		t.Fatalf("expected no round 21")
	}
}

func TestDocumentAndSchema(t *testing.T) {
	doc := Default().Document()
	if len(doc.Towers) != 7 || len(doc.Enemies) != 6 || len(doc.Waves) != 20 {
		t.Fatalf("unexpected document sizes: towers=%d enemies=%d waves=%d", len(doc.Towers), len(doc.Enemies), len(doc.Waves))
	}
	if doc.Towers[0].Type != "basic_tower" || doc.Towers[0].Cost != 200 {
		t.Fatalf("unexpected first tower entry %+v", doc.Towers[0])
	}

	data, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("failed to encode schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode schema: %v", err)
	}
	if decoded["title"] != "Co-op Defense Reference Catalog" {
		t.Fatalf("unexpected schema title %v", decoded["title"])
	}
}
