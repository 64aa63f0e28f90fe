package catalog

import (
	"sort"

	"fedramphub/internal"
	"fedramphub/internal/controlid"
)

// Catalog is the read-only result of a build. Callers must not modify the
// entries it hands out; rebuild instead.
type Catalog struct {
	entries  map[string]*internal.CatalogEntry
	ids      []string
	families map[string][]string
	warnings []Warning
}

func (c *Catalog) entry(id string) *internal.CatalogEntry {
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &internal.CatalogEntry{ID: id, FamilyCode: controlid.Family(id), Baselines: []string{}}
	c.entries[id] = e
	return e
}

func (c *Catalog) finish() {
	c.ids = make([]string, 0, len(c.entries))
	c.families = map[string][]string{}
	for id, e := range c.entries {
		sort.Strings(e.Baselines)
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	for _, id := range c.ids {
		fam := c.entries[id].FamilyCode
		c.families[fam] = append(c.families[fam], id)
	}
}

func (c *Catalog) Len() int { return len(c.ids) }

func (c *Catalog) Get(id string) (*internal.CatalogEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// IDs returns all canonical ids in ascending order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

func (c *Catalog) Entries() []*internal.CatalogEntry {
	out := make([]*internal.CatalogEntry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.entries[id])
	}
	return out
}

func (c *Catalog) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// Families returns the family codes present, sorted.
func (c *Catalog) Families() []string {
	out := make([]string, 0, len(c.families))
	for fam := range c.families {
		out = append(out, fam)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) FamilyIDs(family string) []string {
	return append([]string(nil), c.families[family]...)
}

// Baselines lists the distinct baseline names found across entries.
func (c *Catalog) Baselines() []string {
	set := map[string]struct{}{}
	for _, e := range c.entries {
		for _, b := range e.Baselines {
			set[b] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// BaselineIDs returns the ids that belong to the named baseline.
func (c *Catalog) BaselineIDs(baseline string) []string {
	out := []string{}
	for _, id := range c.ids {
		for _, b := range c.entries[id].Baselines {
			if b == baseline {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// IndicatorIDs returns the ids referenced by the indicator document.
func (c *Catalog) IndicatorIDs() []string {
	out := []string{}
	for _, id := range c.ids {
		if c.entries[id].InIndicator {
			out = append(out, id)
		}
	}
	return out
}
