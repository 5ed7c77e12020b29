package models

import "encoding/json"

const (
	// CurrentSchema is bumped whenever the persisted layout changes shape.
	// Schema 0 is the original ad hoc blob (no schema field at all).
	CurrentSchema = 1

	MaxRads      = 1000
	BaseMaxHP    = 100
	HPPerLevel   = 10
	BaseXPToNext = 100
)

// PlayerState is the durable per-identity aggregate. One JSON document per
// wallet in the shared store; mutated only inside a successful signed action
// and persisted with a compare-and-swap on the store version.
type PlayerState struct {
	Schema int `json:"schema"`

	Level    int   `json:"lvl"`
	HP       int   `json:"hp"`
	MaxHP    int   `json:"maxHp"`
	Caps     int64 `json:"caps"`
	Rads     int   `json:"rads"`
	XP       int64 `json:"xp"`
	XPToNext int64 `json:"xpToNext"`

	Gear     []GearItem          `json:"gear"`
	Equipped map[string]GearItem `json:"equipped"`
	Claimed  []string            `json:"claimed"`
	Quests   []json.RawMessage   `json:"quests"`

	// LastClaimAt (unix millis) is the authoritative cooldown stamp. It lives
	// inside the document so the cooldown commits atomically with the claim.
	LastClaimAt int64 `json:"lastClaimAt,omitempty"`

	// LegacyFound carries the schema-0 key for the claimed set; Normalize
	// merges it into Claimed and clears it.
	LegacyFound []string `json:"found,omitempty"`

	// Derived from equipped gear, never persisted.
	RadResist int `json:"-"`
	CapsBonus int `json:"-"`
	XPBonus   int `json:"-"`
}

// NewPlayerState returns the documented first-claim defaults.
func NewPlayerState() *PlayerState {
	return &PlayerState{
		Schema:   CurrentSchema,
		Level:    1,
		HP:       BaseMaxHP,
		MaxHP:    BaseMaxHP,
		XPToNext: BaseXPToNext,
		Gear:     []GearItem{},
		Equipped: map[string]GearItem{},
		Claimed:  []string{},
		Quests:   []json.RawMessage{},
	}
}

// Normalize migrates older stored documents to the current schema: missing
// fields get their defaults, the legacy "found" key merges into Claimed,
// equipped entries must reference owned gear, and the derived bonuses are
// recomputed. Safe to call on a fresh document.
func (p *PlayerState) Normalize() {
	// A document with no maxHp at all is one of the bare legacy blobs the
	// old terminal-reward path wrote ({caps} only); hp is missing too, so
	// the player comes back at full health once the ceiling is recomputed.
	healToFull := p.MaxHP == 0

	if p.Level < 1 {
		p.Level = 1
	}
	if p.XPToNext <= 0 {
		p.XPToNext = BaseXPToNext
	}
	if p.Gear == nil {
		p.Gear = []GearItem{}
	}
	if p.Equipped == nil {
		p.Equipped = map[string]GearItem{}
	}
	if p.Claimed == nil {
		p.Claimed = []string{}
	}
	if p.Quests == nil {
		p.Quests = []json.RawMessage{}
	}

	for _, name := range p.LegacyFound {
		p.AddClaimed(name)
	}
	p.LegacyFound = nil

	// Equipped is a view over owned gear; drop any stale entries and refresh
	// the rest so effect edits on owned items win over the stored copy.
	owned := map[string]GearItem{}
	for _, g := range p.Gear {
		owned[g.ID] = g
	}
	for id := range p.Equipped {
		g, ok := owned[id]
		if !ok {
			delete(p.Equipped, id)
			continue
		}
		p.Equipped[id] = g
	}

	if p.Rads < 0 {
		p.Rads = 0
	}
	if p.Rads > MaxRads {
		p.Rads = MaxRads
	}
	if p.HP < 0 {
		p.HP = 0
	}

	p.Schema = CurrentSchema
	p.RecomputeBonuses()
	if healToFull {
		p.HP = p.MaxHP
	}
}

// RecomputeBonuses rebuilds every equipment-derived stat from the equipped
// set. MaxHP = 100 + (lvl-1)*10 + equipped maxHp effects; HP is clamped down
// if the recomputed ceiling shrank.
func (p *PlayerState) RecomputeBonuses() {
	var hpBonus, radRes, capsBonus, xpBonus int
	for _, g := range p.Equipped {
		for _, e := range g.Effects {
			switch e.Type {
			case EffectMaxHP:
				hpBonus += e.Val
			case EffectRadResist:
				radRes += e.Val
			case EffectCapsBonus:
				capsBonus += e.Val
			case EffectXPBonus:
				xpBonus += e.Val
			case EffectCritDrop:
				// aggregated by the drop roll, not a stat
			}
		}
	}
	p.MaxHP = BaseMaxHP + (p.Level-1)*HPPerLevel + hpBonus
	p.RadResist = radRes
	p.CapsBonus = capsBonus
	p.XPBonus = xpBonus
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
}

// CritDropBonus sums equipped critDrop effects; the drop roll scales the base
// chance by (1 + bonus/100).
func (p *PlayerState) CritDropBonus() int {
	total := 0
	for _, g := range p.Equipped {
		for _, e := range g.Effects {
			if e.Type == EffectCritDrop {
				total += e.Val
			}
		}
	}
	return total
}

func (p *PlayerState) HasClaimed(location string) bool {
	for _, n := range p.Claimed {
		if n == location {
			return true
		}
	}
	return false
}

// AddClaimed appends to the claimed set; the set only ever grows.
func (p *PlayerState) AddClaimed(location string) {
	if !p.HasClaimed(location) {
		p.Claimed = append(p.Claimed, location)
	}
}

// FindGear returns the owned item with the given id.
func (p *PlayerState) FindGear(id string) (GearItem, bool) {
	for _, g := range p.Gear {
		if g.ID == id {
			return g, true
		}
	}
	return GearItem{}, false
}

// RemoveGear deletes an owned item (and its equipped entry) by id.
func (p *PlayerState) RemoveGear(id string) bool {
	for i, g := range p.Gear {
		if g.ID == id {
			p.Gear = append(p.Gear[:i], p.Gear[i+1:]...)
			delete(p.Equipped, id)
			return true
		}
	}
	return false
}
