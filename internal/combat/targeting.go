package combat

import (
	"coop-defense/server/internal/catalog"
	"coop-defense/server/internal/state"
)

// InRange returns the living enemies within radius of origin, in list order.
// The boundary is inclusive.
func InRange(origin catalog.Point, radius float64, enemies []*state.Enemy) []*state.Enemy {
	var matched []*state.Enemy
	for _, enemy := range enemies {
		if enemy == nil || !enemy.Alive() {
			continue
		}
		if origin.Distance(enemy.Point()) <= radius {
			matched = append(matched, enemy)
		}
	}
	return matched
}

// SelectPrimary picks the enemy furthest along the path. Ties keep the
// earliest enemy in list order.
func SelectPrimary(candidates []*state.Enemy) *state.Enemy {
	var best *state.Enemy
	for _, enemy := range candidates {
		if best == nil || enemy.PathProgress > best.PathProgress {
			best = enemy
		}
	}
	return best
}

// nearest returns the closest candidate to origin that has not been visited,
// along with its distance. Ties keep list order.
func nearest(origin catalog.Point, candidates []*state.Enemy, visited map[string]bool) (*state.Enemy, float64) {
	var (
		best     *state.Enemy
		bestDist float64
	)
	for _, enemy := range candidates {
		if visited[enemy.ID] {
			continue
		}
		d := origin.Distance(enemy.Point())
		if best == nil || d < bestDist {
			best = enemy
			bestDist = d
		}
	}
	return best, bestDist
}
