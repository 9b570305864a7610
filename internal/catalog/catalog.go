// Package catalog loads card definitions from a YAML file and builds decks
// from card code lists.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

// Catalog is the immutable set of known card definitions, keyed by card
// code.
type Catalog struct {
	cards map[string]*board.CardDefinition
}

type catalogFile struct {
	Cards []*board.CardDefinition `yaml:"cards"`
}

// Load reads a catalog file. Duplicate card codes are an error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse card catalog: %w", err)
	}
	cards := make(map[string]*board.CardDefinition, len(file.Cards))
	for _, def := range file.Cards {
		if def.Code == "" {
			return nil, fmt.Errorf("card catalog entry %q has no card_code", def.Name)
		}
		if _, dup := cards[def.Code]; dup {
			return nil, fmt.Errorf("duplicate card code %s in catalog", def.Code)
		}
		cards[def.Code] = def
	}
	return &Catalog{cards: cards}, nil
}

// Card looks up a definition by code.
func (c *Catalog) Card(code string) (*board.CardDefinition, bool) {
	def, ok := c.cards[code]
	return def, ok
}

// Len returns the number of definitions in the catalog.
func (c *Catalog) Len() int { return len(c.cards) }

// All returns every definition sorted by card code.
func (c *Catalog) All() []*board.CardDefinition {
	defs := make([]*board.CardDefinition, 0, len(c.cards))
	for _, def := range c.cards {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// BuildDeck resolves a list of card codes into definitions. Unknown codes
// fail the whole deck.
func (c *Catalog) BuildDeck(codes []string) ([]*board.CardDefinition, error) {
	deck := make([]*board.CardDefinition, 0, len(codes))
	for _, code := range codes {
		def, ok := c.cards[code]
		if !ok {
			return nil, fmt.Errorf("unknown card code %s in deck", code)
		}
		deck = append(deck, def)
	}
	return deck, nil
}
