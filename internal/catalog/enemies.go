package catalog

import "math"

// EnemyKind enumerates the hostile units ("bloons").
type EnemyKind uint8

const (
	EnemyBasic EnemyKind = iota + 1
	EnemyFast
	EnemyHeavy
	EnemyCamo
	EnemyRegen
	EnemyBoss
)

const (
	healthGrowthPerRound = 0.2
	rewardGrowthPerRound = 0.1

	// RegenRatePerSecond is the fraction of max health regenerating kinds
	// recover each second.
	RegenRatePerSecond = 0.0005
)

// EnemyStats is the static stat bundle of an enemy kind.
type EnemyStats struct {
	Kind        EnemyKind
	Name        string
	Health      float64
	Speed       float64
	Reward      int
	LivesDamage int
	Regenerates bool
}

var enemyTable = map[EnemyKind]EnemyStats{
	EnemyBasic: {Kind: EnemyBasic, Name: "basic_bloon", Health: 1, Speed: 1, Reward: 1, LivesDamage: 1},
	EnemyFast:  {Kind: EnemyFast, Name: "fast_bloon", Health: 1, Speed: 1.5, Reward: 2, LivesDamage: 1},
	EnemyHeavy: {Kind: EnemyHeavy, Name: "heavy_bloon", Health: 3, Speed: 0.8, Reward: 3, LivesDamage: 2},
	EnemyCamo:  {Kind: EnemyCamo, Name: "camo_bloon", Health: 1.5, Speed: 1, Reward: 3, LivesDamage: 1},
	EnemyRegen: {Kind: EnemyRegen, Name: "regen_bloon", Health: 2, Speed: 1, Reward: 4, LivesDamage: 2, Regenerates: true},
	EnemyBoss:  {Kind: EnemyBoss, Name: "boss_bloon", Health: 15, Speed: 0.5, Reward: 10, LivesDamage: 10},
}

// EnemyKinds lists every enemy kind in declaration order.
func EnemyKinds() []EnemyKind {
	return []EnemyKind{EnemyBasic, EnemyFast, EnemyHeavy, EnemyCamo, EnemyRegen, EnemyBoss}
}

// Stats returns the static bundle for the kind.
func (k EnemyKind) Stats() (EnemyStats, bool) {
	stats, ok := enemyTable[k]
	return stats, ok
}

// Valid reports whether the kind is a known enemy.
func (k EnemyKind) Valid() bool {
	_, ok := enemyTable[k]
	return ok
}

func (k EnemyKind) String() string {
	if stats, ok := enemyTable[k]; ok {
		return stats.Name
	}
	return "unknown_bloon"
}

// ParseEnemyKind maps a wire name such as "boss_bloon" to its kind.
func ParseEnemyKind(name string) (EnemyKind, bool) {
	for kind, stats := range enemyTable {
		if stats.Name == name {
			return kind, true
		}
	}
	return 0, false
}

// MarshalText encodes the kind by its wire name.
func (k EnemyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a wire name; unknown names decode to the zero kind.
func (k *EnemyKind) UnmarshalText(text []byte) error {
	kind, _ := ParseEnemyKind(string(text))
	*k = kind
	return nil
}

// HealthForRound scales base health: base * (1 + 0.2*round).
func (s EnemyStats) HealthForRound(round int) float64 {
	return s.Health * (1 + healthGrowthPerRound*float64(round))
}

// RewardForRound scales the defeat reward: ceil(base * (1 + 0.1*round)).
func (s EnemyStats) RewardForRound(round int) int {
	return int(math.Ceil(float64(s.Reward) * (1 + rewardGrowthPerRound*float64(round))))
}
