// Package seeds loads vignette seed files: a JSON document mapping
// disease names to roleplay script variants.
package seeds

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/clinagen/clinagen/clinagen"
)

// DefaultVariations are the variation types kept when the caller
// supplies none.
var DefaultVariations = []string{"typical", "severe"}

type scriptEntry struct {
	RoleplayScript string `json:"roleplay_script"`
	VariationType  string `json:"variation_type"`
}

type seedFile struct {
	RoleplayScripts map[string][]scriptEntry `json:"roleplay_scripts"`
}

// Load reads a seed file and flattens it into an ordered seed list.
// Diseases are visited in sorted order and entries in file order, so the
// vignette index assignment is deterministic across runs. Entries whose
// variation type is not in variations are dropped; a nil or empty
// variations set means DefaultVariations.
func Load(path string, variations []string) ([]clinagen.VignetteSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data, variations)
}

// Parse flattens raw seed JSON. See Load.
func Parse(data []byte, variations []string) ([]clinagen.VignetteSeed, error) {
	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(file.RoleplayScripts) == 0 {
		return nil, fmt.Errorf("seed file has no roleplay_scripts")
	}

	if len(variations) == 0 {
		variations = DefaultVariations
	}
	wanted := make(map[string]bool, len(variations))
	for _, v := range variations {
		wanted[v] = true
	}

	diseases := make([]string, 0, len(file.RoleplayScripts))
	for name := range file.RoleplayScripts {
		diseases = append(diseases, name)
	}
	sort.Strings(diseases)

	var out []clinagen.VignetteSeed
	for _, disease := range diseases {
		for _, entry := range file.RoleplayScripts[disease] {
			if !wanted[entry.VariationType] {
				continue
			}
			if entry.RoleplayScript == "" {
				return nil, fmt.Errorf("disease %q has an entry with an empty roleplay_script", disease)
			}
			out = append(out, clinagen.VignetteSeed{
				Disease:       disease,
				Script:        entry.RoleplayScript,
				VariationType: entry.VariationType,
			})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no seeds match variation types %v", variations)
	}
	return out, nil
}
