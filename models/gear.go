package models

// Rarity is one of the four fixed tiers that drive every reward table.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// NormalizeRarity falls back to common for unknown or missing tiers,
// the same way the reward tables do.
func NormalizeRarity(s string) Rarity {
	switch Rarity(s) {
	case RarityRare, RarityEpic, RarityLegendary:
		return Rarity(s)
	default:
		return RarityCommon
	}
}

// EffectType is the closed set of gear stat modifiers. Aggregation code must
// switch exhaustively over these — adding a type means touching every switch.
type EffectType string

const (
	EffectMaxHP     EffectType = "maxHp"
	EffectRadResist EffectType = "radResist"
	EffectCapsBonus EffectType = "capsBonus"
	EffectXPBonus   EffectType = "xpBonus"
	EffectCritDrop  EffectType = "critDrop"
)

// GearEffect is a typed, magnitude-bearing modifier on a gear item.
type GearEffect struct {
	Type EffectType `json:"type"`
	Val  int        `json:"val"`
}

// GearItem is immutable once generated, except for NFTMint which the external
// minting collaborator attaches asynchronously.
type GearItem struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Rarity  Rarity       `json:"rarity"`
	Effects []GearEffect `json:"effects"`
	NFTMint *string      `json:"nftMint"`
}

// EffectRange bounds the magnitude roll for one effect type within a tier.
type EffectRange struct {
	Type EffectType
	Min  int
	Max  int
}

// Per-rarity reward tables. The drop chances, name pools and effect pools are
// part of the game balance and are not tunable via env.
var (
	DropChance = map[Rarity]float64{
		RarityCommon:    0.04,
		RarityRare:      0.09,
		RarityEpic:      0.18,
		RarityLegendary: 0.35,
	}

	BaseRads = map[Rarity]int{
		RarityCommon:    20,
		RarityRare:      50,
		RarityEpic:      80,
		RarityLegendary: 120,
	}

	XPReward = map[Rarity]int64{
		RarityCommon:    30,
		RarityRare:      60,
		RarityEpic:      100,
		RarityLegendary: 150,
	}

	CapsReward = map[Rarity]int64{
		RarityCommon:    15,
		RarityRare:      40,
		RarityEpic:      75,
		RarityLegendary: 150,
	}

	// SalvageCaps is what burning an item pays out.
	SalvageCaps = map[Rarity]int64{
		RarityCommon:    10,
		RarityRare:      25,
		RarityEpic:      60,
		RarityLegendary: 150,
	}

	GearNames = map[Rarity][]string{
		RarityCommon:    {"Pipe Rifle", "10mm Pistol", "Leather Armor", "Vault Suit"},
		RarityRare:      {"Hunting Rifle", "Combat Shotgun", "Laser Pistol", "Metal Armor"},
		RarityEpic:      {"Plasma Rifle", "Gauss Rifle", "Combat Armor", "T-51b Power Armor"},
		RarityLegendary: {"Alien Blaster", "Fat Man", "Lincoln's Repeater", "Experimental MIRV"},
	}

	EffectPool = map[Rarity][]EffectRange{
		RarityCommon: {
			{EffectMaxHP, 5, 20},
			{EffectRadResist, 20, 60},
		},
		RarityRare: {
			{EffectMaxHP, 25, 50},
			{EffectRadResist, 70, 140},
			{EffectCapsBonus, 10, 25},
		},
		RarityEpic: {
			{EffectMaxHP, 50, 90},
			{EffectRadResist, 150, 250},
			{EffectCapsBonus, 25, 45},
			{EffectXPBonus, 15, 30},
		},
		RarityLegendary: {
			{EffectMaxHP, 100, 180},
			{EffectRadResist, 300, 500},
			{EffectCapsBonus, 40, 80},
			{EffectCritDrop, 20, 40},
		},
	}
)

// EffectCount returns how many effects a freshly rolled item of the tier gets.
func EffectCount(r Rarity) int {
	switch r {
	case RarityLegendary:
		return 3
	case RarityEpic, RarityRare:
		return 2
	default:
		return 1
	}
}
