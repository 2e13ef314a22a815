// Package protest provides the embedded reagent test-result dataset:
// substances, spot-test reagents, and the observed reaction of each
// reagent on each substance.
package protest

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed reagents.json
var rawDataset []byte

// Reagent is a chemical spot test.
type Reagent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Substance is a compound with recorded test results.
type Substance struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// Result is the observed outcome of one reagent applied to one
// substance. An empty color list means no observable color change.
type Result struct {
	Description string   `json:"description"`
	Colors      []string `json:"colors"`
}

// Colorful reports whether the reaction produces a visible color.
func (r Result) Colorful() bool {
	return len(r.Colors) > 0
}

// dataset mirrors the JSON file layout.
type dataset struct {
	Reagents   []Reagent                    `json:"reagents"`
	Substances []Substance                  `json:"substances"`
	Results    map[string]map[string]Result `json:"results"`
}

// Database is the indexed, read-only view of the dataset.
type Database struct {
	reagents      []Reagent
	substances    []Substance
	reagentByID   map[string]Reagent
	substanceByID map[string]Substance
	results       map[string]map[string]Result
}

// Load parses the embedded dataset.
func Load() (*Database, error) {
	return Parse(rawDataset)
}

// Parse builds a database from raw dataset JSON. Results referring to
// unknown substances or reagents are rejected.
func Parse(data []byte) (*Database, error) {
	var ds dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing reagent dataset: %w", err)
	}

	db := &Database{
		reagents:      ds.Reagents,
		substances:    ds.Substances,
		reagentByID:   make(map[string]Reagent, len(ds.Reagents)),
		substanceByID: make(map[string]Substance, len(ds.Substances)),
		results:       ds.Results,
	}
	for _, r := range ds.Reagents {
		db.reagentByID[r.ID] = r
	}
	for _, s := range ds.Substances {
		db.substanceByID[s.ID] = s
	}

	for substanceID, row := range ds.Results {
		if _, ok := db.substanceByID[substanceID]; !ok {
			return nil, fmt.Errorf("reagent dataset: results for unknown substance %q", substanceID)
		}
		for reagentID := range row {
			if _, ok := db.reagentByID[reagentID]; !ok {
				return nil, fmt.Errorf("reagent dataset: result for unknown reagent %q on %q", reagentID, substanceID)
			}
		}
	}

	return db, nil
}

// Reagent looks up a reagent by id.
func (d *Database) Reagent(id string) (Reagent, bool) {
	r, ok := d.reagentByID[id]
	return r, ok
}

// Substance looks up a substance by id.
func (d *Database) Substance(id string) (Substance, bool) {
	s, ok := d.substanceByID[id]
	return s, ok
}

// Reagents returns all reagents in dataset order.
func (d *Database) Reagents() []Reagent {
	out := make([]Reagent, len(d.reagents))
	copy(out, d.reagents)
	return out
}

// Substances returns all substances in dataset order.
func (d *Database) Substances() []Substance {
	out := make([]Substance, len(d.substances))
	copy(out, d.substances)
	return out
}

// Results returns the recorded reagent → result row for a substance.
func (d *Database) Results(substanceID string) map[string]Result {
	row := d.results[substanceID]
	out := make(map[string]Result, len(row))
	for reagentID, res := range row {
		out[reagentID] = res
	}
	return out
}

// Result returns the outcome of one reagent on one substance.
func (d *Database) Result(substanceID, reagentID string) (Result, bool) {
	res, ok := d.results[substanceID][reagentID]
	return res, ok
}

// WellKnown returns the substances with at least minResults recorded
// results, of which at least minColorful produce a color change. These
// make fair targets for a deduction round.
func (d *Database) WellKnown(minResults, minColorful int) []Substance {
	known := make([]Substance, 0, len(d.substances))
	for _, s := range d.substances {
		results, colorful := 0, 0
		for _, res := range d.results[s.ID] {
			results++
			if res.Colorful() {
				colorful++
			}
		}
		if results >= minResults && colorful >= minColorful {
			known = append(known, s)
		}
	}
	return known
}
