// Package staticdata provides the read-only reference dataset of cleaned
// council member names, parties, boroughs and social handles.
package staticdata

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/jjenkins/billtracker/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed council_data.yaml
var embedded []byte

// Dataset maps council API person id to cleaned reference data
type Dataset struct {
	byID map[int]model.StaticLegislator
}

// Load reads the dataset from path, or the embedded default when path is empty
func Load(path string) (*Dataset, error) {
	raw := embedded
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read static data %s: %w", path, err)
		}
		raw = b
	}
	return Parse(raw)
}

// Parse decodes a YAML document of id -> entry
func Parse(raw []byte) (*Dataset, error) {
	byID := make(map[int]model.StaticLegislator)
	if err := yaml.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("failed to parse static data: %w", err)
	}
	return &Dataset{byID: byID}, nil
}

// Lookup returns the entry for a council person id
func (d *Dataset) Lookup(councilPersonID int) (model.StaticLegislator, bool) {
	entry, ok := d.byID[councilPersonID]
	return entry, ok
}

// IDs returns every id in the dataset in ascending order
func (d *Dataset) IDs() []int {
	ids := make([]int, 0, len(d.byID))
	for id := range d.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of entries
func (d *Dataset) Len() int {
	return len(d.byID)
}
