package pricing

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Globals are the pricing parameters shared by every item.
type Globals struct {
	PriceFactor           float64
	ReferenceAmount       int64
	RegressionTimeMinutes int64
	SellRatio             float64
}

// ItemPrice is the configured price band of one item. PriceFactor and
// ReferenceAmount override the globals when set.
type ItemPrice struct {
	BasePrice       float64 `validate:"gt=0,gtefield=MinPrice,ltefield=MaxPrice"`
	MinPrice        float64 `validate:"gt=0"`
	MaxPrice        float64 `validate:"gt=0"`
	Buyable         bool
	Sellable        bool
	PriceFactor     *float64 `validate:"omitempty,gte=0"`
	ReferenceAmount *int64   `validate:"omitempty,gt=0"`
}

func (p ItemPrice) EffectivePriceFactor(g Globals) float64 {
	if p.PriceFactor != nil {
		return *p.PriceFactor
	}
	return g.PriceFactor
}

func (p ItemPrice) EffectiveReferenceAmount(g Globals) int64 {
	if p.ReferenceAmount != nil && *p.ReferenceAmount > 0 {
		return *p.ReferenceAmount
	}
	return g.ReferenceAmount
}

// Catalog is an immutable set of item prices keyed by upper-case item id.
type Catalog struct {
	globals Globals
	items   map[string]ItemPrice
	names   []string
}

func NewCatalog(g Globals, items map[string]ItemPrice) *Catalog {
	c := &Catalog{globals: g, items: make(map[string]ItemPrice, len(items))}
	for name, p := range items {
		c.items[NormalizeItem(name)] = p
	}
	for name := range c.items {
		c.names = append(c.names, name)
	}
	slices.Sort(c.names)
	return c
}

// NormalizeItem turns "diamond sword" or "Diamond_Sword" into "DIAMOND_SWORD".
func NormalizeItem(item string) string {
	item = strings.TrimSpace(item)
	item = strings.ReplaceAll(item, " ", "_")
	return strings.ToUpper(item)
}

func (c *Catalog) Globals() Globals {
	return c.globals
}

func (c *Catalog) Lookup(item string) (ItemPrice, bool) {
	p, ok := c.items[NormalizeItem(item)]
	return p, ok
}

// Items returns the configured item ids in sorted order.
func (c *Catalog) Items() []string {
	return slices.Clone(c.names)
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Resolve maps a player-typed name to a configured item id. Exact matches win;
// otherwise the best fuzzy match is returned.
func (c *Catalog) Resolve(query string) (string, bool) {
	normalized := NormalizeItem(query)
	if normalized == "" {
		return "", false
	}
	if _, ok := c.items[normalized]; ok {
		return normalized, true
	}

	matches := fuzzy.Find(normalized, c.names)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
