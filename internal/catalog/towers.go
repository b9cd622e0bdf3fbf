package catalog

import (
	"math"
	"time"
)

// TowerKind enumerates the placeable defensive units.
type TowerKind uint8

const (
	TowerBasic TowerKind = iota + 1
	TowerRapid
	TowerSplash
	TowerFreeze
	TowerLightning
	TowerIncome
	TowerBuff
)

// MaxTowerLevel caps upgrades.
const MaxTowerLevel = 3

const (
	rangeGrowthPerLevel    = 0.2
	damageGrowthPerLevel   = 0.3
	intervalShrinkPerLevel = 0.15
	minFireInterval        = 100 * time.Millisecond
	upgradeCostFactor      = 0.75

	// IncomeInterval is the fixed payout period for income towers.
	IncomeInterval = 5 * time.Second
	// IncomePerLevel is credited to the owner per payout and tower level.
	IncomePerLevel = 10
)

// Attack describes how a tower resolves its shot.
type Attack uint8

const (
	AttackNone Attack = iota
	AttackSingle
	AttackSplash
	AttackFreeze
	AttackChain
)

// TowerStats is the static stat bundle of a tower kind.
type TowerStats struct {
	Kind         TowerKind
	Name         string
	Cost         int
	Range        float64
	Damage       float64
	FireInterval time.Duration
	Attack       Attack
	Income       bool
}

var towerTable = map[TowerKind]TowerStats{
	TowerBasic:     {Kind: TowerBasic, Name: "basic_tower", Cost: 200, Range: 150, Damage: 1, FireInterval: 1000 * time.Millisecond, Attack: AttackSingle},
	TowerRapid:     {Kind: TowerRapid, Name: "rapid_tower", Cost: 350, Range: 120, Damage: 0.5, FireInterval: 400 * time.Millisecond, Attack: AttackSingle},
	TowerSplash:    {Kind: TowerSplash, Name: "splash_tower", Cost: 400, Range: 180, Damage: 0.8, FireInterval: 1500 * time.Millisecond, Attack: AttackSplash},
	TowerFreeze:    {Kind: TowerFreeze, Name: "freeze_tower", Cost: 500, Range: 140, Damage: 0.3, FireInterval: 1200 * time.Millisecond, Attack: AttackFreeze},
	TowerLightning: {Kind: TowerLightning, Name: "lightning_tower", Cost: 650, Range: 200, Damage: 0.7, FireInterval: 1000 * time.Millisecond, Attack: AttackChain},
	TowerIncome:    {Kind: TowerIncome, Name: "income_tower", Cost: 800, Range: 100, Damage: 0, FireInterval: 5000 * time.Millisecond, Income: true},
	TowerBuff:      {Kind: TowerBuff, Name: "buff_tower", Cost: 450, Range: 250, Damage: 0, FireInterval: 3000 * time.Millisecond},
}

// TowerKinds lists every tower kind in declaration order.
func TowerKinds() []TowerKind {
	return []TowerKind{TowerBasic, TowerRapid, TowerSplash, TowerFreeze, TowerLightning, TowerIncome, TowerBuff}
}

// Stats returns the static bundle for the kind. Unknown kinds report false.
func (k TowerKind) Stats() (TowerStats, bool) {
	stats, ok := towerTable[k]
	return stats, ok
}

// Valid reports whether the kind is a known tower.
func (k TowerKind) Valid() bool {
	_, ok := towerTable[k]
	return ok
}

func (k TowerKind) String() string {
	if stats, ok := towerTable[k]; ok {
		return stats.Name
	}
	return "unknown_tower"
}

// ParseTowerKind maps a wire name such as "splash_tower" to its kind.
func ParseTowerKind(name string) (TowerKind, bool) {
	for kind, stats := range towerTable {
		if stats.Name == name {
			return kind, true
		}
	}
	return 0, false
}

// MarshalText encodes the kind by its wire name.
func (k TowerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a wire name; unknown names decode to the zero kind.
func (k *TowerKind) UnmarshalText(text []byte) error {
	kind, _ := ParseTowerKind(string(text))
	*k = kind
	return nil
}

func levelSteps(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > MaxTowerLevel {
		level = MaxTowerLevel
	}
	return float64(level - 1)
}

// RangeAt returns the targeting radius at the given level. Growth is
// cumulative from level 1 and truncated to whole units.
func (s TowerStats) RangeAt(level int) float64 {
	return math.Floor(s.Range * (1 + rangeGrowthPerLevel*levelSteps(level)))
}

// DamageAt returns the per-hit damage at the given level.
func (s TowerStats) DamageAt(level int) float64 {
	return s.Damage * (1 + damageGrowthPerLevel*levelSteps(level))
}

// FireIntervalAt returns the cooldown between shots at the given level,
// never shorter than 100ms.
func (s TowerStats) FireIntervalAt(level int) time.Duration {
	scaled := time.Duration(float64(s.FireInterval) * (1 - intervalShrinkPerLevel*levelSteps(level)))
	if scaled < minFireInterval {
		return minFireInterval
	}
	return scaled
}

// UpgradeCost returns the price of moving from currentLevel to the next.
func (s TowerStats) UpgradeCost(currentLevel int) int {
	return int(math.Ceil(float64(s.Cost) * upgradeCostFactor * float64(currentLevel)))
}

// IncomeAt returns the payout of an income tower at the given level.
func (s TowerStats) IncomeAt(level int) int {
	if !s.Income {
		return 0
	}
	return IncomePerLevel * level
}
