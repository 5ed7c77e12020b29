package services

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"fizzcaps-server/models"
)

// XPGrowth is the xpToNext multiplier applied on every level-up (floored).
const XPGrowth = 1.5

// RewardSummary is what one successful claim granted.
type RewardSummary struct {
	Location     string           `json:"location"`
	Rarity       models.Rarity    `json:"rarity"`
	CapsGained   int64            `json:"capsGained"`
	XPGained     int64            `json:"xpGained"`
	RadsGained   int              `json:"radsGained"`
	LevelsGained int              `json:"levelsGained"`
	GearDropped  bool             `json:"gearDropped"`
	Gear         *models.GearItem `json:"gear,omitempty"`
}

// ProgressionEngine owns the player state machine. Every reward-affecting
// roll (drop chance, effect type, magnitude) happens here on the server; the
// client only ever sees results.
type ProgressionEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewProgressionEngine() *ProgressionEngine {
	return NewProgressionEngineWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewProgressionEngineWithSource pins the RNG; tests use a fixed seed.
func NewProgressionEngineWithSource(src rand.Source) *ProgressionEngine {
	return &ProgressionEngine{rng: rand.New(src)}
}

// ApplyClaim applies the full reward transition for loc to state, in order:
// claimed-set append, hazard gain, caps, xp, level-ups, drop roll, derived
// stat recomputation. The only failure is already-claimed, which happens
// before any mutation, so callers observe all-or-nothing. The caller owns
// state (a fresh load per attempt) and commits it with a CAS afterwards.
func (e *ProgressionEngine) ApplyClaim(state *models.PlayerState, loc *models.Location) (*RewardSummary, error) {
	if state.HasClaimed(loc.Name) {
		return nil, errAlreadyClaimed(loc.Name)
	}

	summary := &RewardSummary{Location: loc.Name, Rarity: loc.Rarity}
	state.AddClaimed(loc.Name)

	// Hazard: equipped resistance soaks a third of the base dose, but a claim
	// is never free — 5 rads minimum.
	radGain := models.BaseRads[loc.Rarity] - state.RadResist/3
	if radGain < 5 {
		radGain = 5
	}
	if state.Rads+radGain > models.MaxRads {
		radGain = models.MaxRads - state.Rads
	}
	state.Rads += radGain
	summary.RadsGained = radGain

	capsGain := models.CapsReward[loc.Rarity] + int64(state.CapsBonus)
	state.Caps += capsGain
	summary.CapsGained = capsGain

	// xpBonus effects are percentage points on the base award.
	xpGain := models.XPReward[loc.Rarity]
	xpGain += xpGain * int64(state.XPBonus) / 100
	state.XP += xpGain
	summary.XPGained = xpGain

	// Reward size is bounded per claim, so this loop is too.
	for state.XP >= state.XPToNext {
		state.XP -= state.XPToNext
		state.Level++
		state.XPToNext = int64(math.Floor(float64(state.XPToNext) * XPGrowth))
		state.MaxHP += models.HPPerLevel
		state.HP = state.MaxHP
		summary.LevelsGained++
	}

	if e.rollDrop(loc.Rarity, state.CritDropBonus()) {
		item := e.RollGear(loc.Rarity)
		state.Gear = append(state.Gear, item)
		summary.GearDropped = true
		summary.Gear = &item
	}

	state.RecomputeBonuses()
	return summary, nil
}

func (e *ProgressionEngine) rollDrop(rarity models.Rarity, critBonus int) bool {
	chance := models.DropChance[rarity] * (1 + float64(critBonus)/100)
	if chance > 0.95 {
		chance = 0.95
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < chance
}

// RollGear generates a fresh item: uniform name from the tier's pool, the
// tier's effect count, each effect an independent uniform draw of type and
// magnitude from the tier's effect pool.
func (e *ProgressionEngine) RollGear(rarity models.Rarity) models.GearItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := models.GearNames[rarity]
	pool := models.EffectPool[rarity]
	effects := make([]models.GearEffect, 0, models.EffectCount(rarity))
	for i := 0; i < models.EffectCount(rarity); i++ {
		r := pool[e.rng.Intn(len(pool))]
		effects = append(effects, models.GearEffect{
			Type: r.Type,
			Val:  r.Min + e.rng.Intn(r.Max-r.Min+1),
		})
	}
	return models.GearItem{
		ID:      "gear_" + uuid.NewString(),
		Name:    names[e.rng.Intn(len(names))],
		Rarity:  rarity,
		Effects: effects,
	}
}
