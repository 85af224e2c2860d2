// Package classify maps block type ids to interaction categories. The
// protection layer consumes the classifier as an opaque function; this
// implementation matches exact ids and lowercase substring patterns, both
// overridable from a YAML file.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is what kind of interactable a block is.
type Category int

const (
	// CategoryGeneric is any block with no special classification.
	CategoryGeneric Category = iota
	// CategoryUse covers doors, trapdoors, gates, buttons, levers.
	CategoryUse
	// CategoryContainer covers chests, barrels, crates and other storage.
	CategoryContainer
	// CategoryWorkstation covers crafting and processing stations.
	CategoryWorkstation
)

func (c Category) String() string {
	switch c {
	case CategoryUse:
		return "use"
	case CategoryContainer:
		return "container"
	case CategoryWorkstation:
		return "workstation"
	}
	return "generic"
}

// Func classifies a block type id. An empty id is CategoryGeneric.
type Func func(blockID string) Category

// Groups holds the configurable id sets and substring patterns per
// category.
type Groups struct {
	UseBlocks           []string `yaml:"use_blocks"`
	UsePatterns         []string `yaml:"use_patterns"`
	ContainerBlocks     []string `yaml:"container_blocks"`
	ContainerPatterns   []string `yaml:"container_patterns"`
	WorkstationBlocks   []string `yaml:"workstation_blocks"`
	WorkstationPatterns []string `yaml:"workstation_patterns"`

	useExact         map[string]struct{}
	containerExact   map[string]struct{}
	workstationExact map[string]struct{}
}

// DefaultGroups returns the built-in classification tables.
func DefaultGroups() *Groups {
	g := &Groups{
		UseBlocks: []string{
			"Door_Wooden", "Door_Village", "Door_Tavern",
			"Trapdoor_Village", "Trapdoor_Crude",
		},
		UsePatterns: []string{
			"door", "trapdoor", "gate", "button", "lever", "switch", "bell",
		},
		ContainerBlocks: []string{
			"Chest_Wooden", "Chest_Legendary", "Container_Coffin",
		},
		ContainerPatterns: []string{
			"chest", "wardrobe", "coffin", "barrel", "crate", "container_", "storage", "pot_",
		},
		WorkstationBlocks: []string{
			"Bench_Workbench", "Bench_Furnace", "Bench_Anvil", "Deco_Cauldron",
		},
		WorkstationPatterns: []string{
			"workbench", "furnace", "anvil", "alchemy", "armory", "carpenter",
			"cooking", "farming", "loom", "lumbermill", "salvage", "tannery",
			"campfire", "arcanetable", "cauldron", "brewing", "enchant", "_bench",
		},
	}
	g.compile()
	return g
}

// LoadGroups reads group overrides from a YAML file. An empty path yields
// the defaults; a present file replaces only the lists it sets.
func LoadGroups(path string) (*Groups, error) {
	g := DefaultGroups()
	if strings.TrimSpace(path) == "" {
		return g, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return g, err
	}
	var loaded Groups
	if err := yaml.Unmarshal(b, &loaded); err != nil {
		return g, fmt.Errorf("block_groups.yaml: %w", err)
	}
	if loaded.UseBlocks != nil {
		g.UseBlocks = loaded.UseBlocks
	}
	if loaded.UsePatterns != nil {
		g.UsePatterns = loaded.UsePatterns
	}
	if loaded.ContainerBlocks != nil {
		g.ContainerBlocks = loaded.ContainerBlocks
	}
	if loaded.ContainerPatterns != nil {
		g.ContainerPatterns = loaded.ContainerPatterns
	}
	if loaded.WorkstationBlocks != nil {
		g.WorkstationBlocks = loaded.WorkstationBlocks
	}
	if loaded.WorkstationPatterns != nil {
		g.WorkstationPatterns = loaded.WorkstationPatterns
	}
	g.compile()
	return g, nil
}

func (g *Groups) compile() {
	g.useExact = exactSet(g.UseBlocks)
	g.containerExact = exactSet(g.ContainerBlocks)
	g.workstationExact = exactSet(g.WorkstationBlocks)
}

func exactSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[strings.ToLower(id)] = struct{}{}
	}
	return m
}

// Classify implements Func. More specific categories win: workstation over
// container over use.
func (g *Groups) Classify(blockID string) Category {
	if blockID == "" {
		return CategoryGeneric
	}
	lower := strings.ToLower(blockID)
	if matches(lower, g.workstationExact, g.WorkstationPatterns) {
		return CategoryWorkstation
	}
	if matches(lower, g.containerExact, g.ContainerPatterns) {
		return CategoryContainer
	}
	if matches(lower, g.useExact, g.UsePatterns) {
		return CategoryUse
	}
	return CategoryGeneric
}

func matches(lowerID string, exact map[string]struct{}, patterns []string) bool {
	if _, ok := exact[lowerID]; ok {
		return true
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(lowerID, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
