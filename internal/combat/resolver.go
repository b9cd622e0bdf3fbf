// Package combat resolves tower shots against the enemies of one room. It
// mutates enemy health and effects but never the enemy list or balances;
// the owning simulation removes defeated enemies and credits rewards.
package combat

import (
	"time"

	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/state"
)

const (
	// SplashRadius is measured from the primary target, not the tower.
	SplashRadius = 60.0
	// ChainLinkRange bounds the distance between consecutive lightning hops.
	ChainLinkRange = 120.0

	chainFirstHopMultiplier = 0.7
	chainHopDecay           = 0.1
)

// Hit is one application of damage.
type Hit struct {
	EnemyID string
	Damage  float64
	// Hop is 0 for direct hits and 1..n for lightning chain links.
	Hop    int
	Effect *state.Effect
}

// Defeat reports an enemy killed by this resolution.
type Defeat struct {
	EnemyID string
	Kind    catalog.EnemyKind
	Reward  int
	OwnerID string
}

// Result is the outcome of one shot.
type Result struct {
	TowerID string
	OwnerID string
	Hits    []Hit
	Defeats []Defeat
}

// Fired reports whether the shot hit anything.
func (r Result) Fired() bool {
	return len(r.Hits) > 0
}

// TotalDamage sums the damage of every hit.
func (r Result) TotalDamage() float64 {
	total := 0.0
	for _, hit := range r.Hits {
		total += hit.Damage
	}
	return total
}

// ChainMultiplier returns the damage factor of lightning hop k (k >= 1).
func ChainMultiplier(hop int) float64 {
	return chainFirstHopMultiplier - chainHopDecay*float64(hop-1)
}

// Resolve fires tower at the enemies it can reach. Enemies already at zero
// health are ignored. round scales defeat rewards and now stamps applied
// effects. A tower with nothing in range produces an empty Result.
func Resolve(tower *state.Tower, enemies []*state.Enemy, round int, now time.Duration) Result {
	result := Result{TowerID: tower.ID, OwnerID: tower.OwnerID}
	stats, ok := tower.Kind.Stats()
	if !ok || stats.Attack == catalog.AttackNone {
		return result
	}

	origin := tower.Point()
	candidates := InRange(origin, stats.RangeAt(tower.Level), enemies)
	if len(candidates) == 0 {
		return result
	}
	damage := stats.DamageAt(tower.Level)

	switch stats.Attack {
	case catalog.AttackSingle:
		target := SelectPrimary(candidates)
		result.hit(target, damage, 0, nil, round)

	case catalog.AttackSplash:
		primary := SelectPrimary(candidates)
		for _, enemy := range InRange(primary.Point(), SplashRadius, enemies) {
			result.hit(enemy, damage, 0, nil, round)
		}

	case catalog.AttackFreeze:
		for _, enemy := range candidates {
			effect := FreezeFor(tower.Level, now)
			effect.SourceID = tower.ID
			effect.OwnerID = tower.OwnerID
			ApplyEffect(enemy, effect)
			result.hit(enemy, damage, 0, &effect, round)
		}

	case catalog.AttackChain:
		visited := make(map[string]bool, tower.Level+1)
		current, _ := nearest(origin, candidates, visited)
		visited[current.ID] = true
		result.hit(current, damage, 0, nil, round)
		for hop := 1; hop <= tower.Level; hop++ {
			next, dist := nearest(current.Point(), candidates, visited)
			if next == nil || dist > ChainLinkRange {
				break
			}
			visited[next.ID] = true
			result.hit(next, damage*ChainMultiplier(hop), hop, nil, round)
			current = next
		}
	}
	return result
}

func (r *Result) hit(enemy *state.Enemy, damage float64, hop int, effect *state.Effect, round int) {
	wasAlive := enemy.Alive()
	applyDamage(enemy, damage)
	r.Hits = append(r.Hits, Hit{EnemyID: enemy.ID, Damage: damage, Hop: hop, Effect: effect})
	if wasAlive && !enemy.Alive() {
		r.Defeats = append(r.Defeats, Defeat{
			EnemyID: enemy.ID,
			Kind:    enemy.Kind,
			Reward:  Reward(enemy.Kind, round),
			OwnerID: r.OwnerID,
		})
	}
}

// Reward returns the round-scaled currency for defeating an enemy kind.
func Reward(kind catalog.EnemyKind, round int) int {
	stats, ok := kind.Stats()
	if !ok {
		return 0
	}
	return stats.RewardForRound(round)
}
