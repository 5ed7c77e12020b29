package models

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// Location is static reference data owned by configuration. Read-only at
// claim time; the name doubles as the claimed-set key and the voucher hint,
// so it is NFC-normalized once at load and never again downstream.
type Location struct {
	Name   string  `json:"n"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Rarity Rarity  `json:"rarity"`
	Level  int     `json:"lvl"`

	Slug string `json:"-"`
}

// Catalog holds the static game data loaded from DATA_DIR. Quests and
// mintables are opaque to the claim core and served as-is.
type Catalog struct {
	Locations []Location
	Quests    json.RawMessage
	Mintables json.RawMessage

	byName map[string]*Location
}

// NewCatalog builds a catalog from an in-memory location list, applying the
// same normalization as LoadCatalog.
func NewCatalog(locations []Location) *Catalog {
	c := &Catalog{
		Locations: locations,
		Quests:    json.RawMessage("[]"),
		Mintables: json.RawMessage("[]"),
		byName:    map[string]*Location{},
	}
	c.index()
	return c
}

// LoadCatalog reads locations.json, quests.json and mintables.json from
// dataDir. A missing or malformed file logs and yields an empty section
// rather than failing startup.
func LoadCatalog(dataDir string) *Catalog {
	c := &Catalog{
		Quests:    json.RawMessage("[]"),
		Mintables: json.RawMessage("[]"),
		byName:    map[string]*Location{},
	}

	if err := readJSONFile(filepath.Join(dataDir, "locations.json"), &c.Locations); err != nil {
		log.Printf("⚠️ [CATALOG] locations.json: %v", err)
	}
	var quests, mintables json.RawMessage
	if err := readJSONFile(filepath.Join(dataDir, "quests.json"), &quests); err != nil {
		log.Printf("⚠️ [CATALOG] quests.json: %v", err)
	} else {
		c.Quests = quests
	}
	if err := readJSONFile(filepath.Join(dataDir, "mintables.json"), &mintables); err != nil {
		log.Printf("⚠️ [CATALOG] mintables.json: %v", err)
	} else {
		c.Mintables = mintables
	}

	c.index()

	log.Printf("🗺️ [CATALOG] Loaded %d locations from %s", len(c.Locations), dataDir)
	return c
}

func (c *Catalog) index() {
	for i := range c.Locations {
		loc := &c.Locations[i]
		loc.Name = norm.NFC.String(loc.Name)
		loc.Rarity = NormalizeRarity(string(loc.Rarity))
		if loc.Level < 1 {
			loc.Level = 1
		}
		loc.Slug = slug.Make(loc.Name)
		c.byName[loc.Name] = loc
	}
}

// Get looks a location up by name, NFC-normalizing the caller's spelling so
// a composed/decomposed mismatch cannot dodge the claimed-once rule.
func (c *Catalog) Get(name string) (*Location, bool) {
	loc, ok := c.byName[norm.NFC.String(name)]
	return loc, ok
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
