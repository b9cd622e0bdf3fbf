package catalog

import "time"

// SpawnGroup is one run of identical enemies inside a wave.
type SpawnGroup struct {
	Enemy   EnemyKind
	Count   int
	Delay   time.Duration
	Spacing time.Duration
}

// WaveDefinition describes the spawns of one numbered round.
type WaveDefinition struct {
	Round  int
	Groups []SpawnGroup
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func group(kind EnemyKind, count, delay, spacing int) SpawnGroup {
	return SpawnGroup{Enemy: kind, Count: count, Delay: ms(delay), Spacing: ms(spacing)}
}

// DefaultWaves returns the standard twenty-round campaign.
func DefaultWaves() []WaveDefinition {
	return []WaveDefinition{
		{Round: 1, Groups: []SpawnGroup{group(EnemyBasic, 10, 0, 1000)}},
		{Round: 2, Groups: []SpawnGroup{group(EnemyBasic, 15, 0, 800)}},
		{Round: 3, Groups: []SpawnGroup{group(EnemyBasic, 10, 0, 600), group(EnemyFast, 5, 2000, 1000)}},
		{Round: 4, Groups: []SpawnGroup{group(EnemyBasic, 15, 0, 500), group(EnemyFast, 8, 2000, 800)}},
		{Round: 5, Groups: []SpawnGroup{group(EnemyBasic, 10, 0, 400), group(EnemyFast, 10, 1000, 600), group(EnemyHeavy, 3, 2000, 1500)}},
		{Round: 6, Groups: []SpawnGroup{group(EnemyHeavy, 8, 0, 1200)}},
		{Round: 7, Groups: []SpawnGroup{group(EnemyFast, 20, 0, 400), group(EnemyCamo, 5, 2000, 1000)}},
		{Round: 8, Groups: []SpawnGroup{group(EnemyBasic, 15, 0, 300), group(EnemyHeavy, 6, 1000, 1000), group(EnemyCamo, 8, 2000, 800)}},
		{Round: 9, Groups: []SpawnGroup{group(EnemyRegen, 10, 0, 1200)}},
		{Round: 10, Groups: []SpawnGroup{group(EnemyFast, 10, 0, 300), group(EnemyHeavy, 10, 1000, 800), group(EnemyBoss, 1, 5000, 0)}},
		{Round: 11, Groups: []SpawnGroup{group(EnemyBasic, 20, 0, 200), group(EnemyFast, 15, 1000, 300), group(EnemyCamo, 10, 2000, 500)}},
		{Round: 12, Groups: []SpawnGroup{group(EnemyHeavy, 15, 0, 800), group(EnemyRegen, 12, 2000, 1000)}},
		{Round: 13, Groups: []SpawnGroup{group(EnemyCamo, 20, 0, 600)}},
		{Round: 14, Groups: []SpawnGroup{group(EnemyFast, 25, 0, 250), group(EnemyRegen, 15, 2000, 800)}},
		{Round: 15, Groups: []SpawnGroup{
			group(EnemyBasic, 10, 0, 200),
			group(EnemyFast, 10, 500, 300),
			group(EnemyHeavy, 10, 1000, 600),
			group(EnemyCamo, 10, 1500, 500),
			group(EnemyRegen, 10, 2000, 800),
		}},
		{Round: 16, Groups: []SpawnGroup{group(EnemyBoss, 2, 0, 3000)}},
		{Round: 17, Groups: []SpawnGroup{group(EnemyHeavy, 20, 0, 500), group(EnemyCamo, 15, 1000, 600)}},
		{Round: 18, Groups: []SpawnGroup{group(EnemyFast, 30, 0, 200), group(EnemyRegen, 15, 1000, 700)}},
		{Round: 19, Groups: []SpawnGroup{group(EnemyCamo, 20, 0, 500), group(EnemyRegen, 20, 1000, 600)}},
		{Round: 20, Groups: []SpawnGroup{
			group(EnemyBasic, 10, 0, 150),
			group(EnemyFast, 10, 500, 200),
			group(EnemyHeavy, 10, 1000, 400),
			group(EnemyCamo, 10, 1500, 300),
			group(EnemyRegen, 10, 2000, 500),
			group(EnemyBoss, 3, 5000, 2000),
		}},
	}
}

// EnemyCount totals the spawns of the wave.
func (w WaveDefinition) EnemyCount() int {
	total := 0
	for _, g := range w.Groups {
		total += g.Count
	}
	return total
}
