// Package tzcatalog holds the canonical IANA time-zone list used by the trigger pipeline.
//
// A Catalog is built once per process and never mutated afterwards, so it is
// safe to share between goroutines without locking.
package tzcatalog

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"
)

//go:embed zones.txt
var canonicalZones string

// Zone is a canonical zone name with its loaded location.
type Zone struct {
	Name     string
	Location *time.Location
}

// Catalog is an immutable, de-duplicated set of canonical zones.
type Catalog struct {
	zones   []Zone
	byName  map[string]*time.Location
	missing []string
}

// Load builds the catalog from the embedded canonical zone list.
func Load() (*Catalog, error) {
	return New(Names())
}

// Names returns the embedded canonical zone names in sorted order.
func Names() []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(canonicalZones))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// New builds a catalog from names. Duplicates are dropped. Names the zone
// database does not know are left out and reported by Missing; an error is
// returned only when no zone could be loaded.
func New(names []string) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*time.Location, len(names))}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := c.byName[name]; dup {
			continue
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			c.missing = append(c.missing, name)
			continue
		}
		c.byName[name] = loc
		c.zones = append(c.zones, Zone{Name: name, Location: loc})
	}
	if len(c.zones) == 0 {
		return nil, errors.New("tzcatalog: no loadable time zones")
	}
	sort.Slice(c.zones, func(i, j int) bool { return c.zones[i].Name < c.zones[j].Name })
	return c, nil
}

// Zones returns a copy of the catalog entries.
func (c *Catalog) Zones() []Zone {
	out := make([]Zone, len(c.zones))
	copy(out, c.zones)
	return out
}

// Len returns the number of zones in the catalog.
func (c *Catalog) Len() int { return len(c.zones) }

// Contains reports whether name is a canonical zone.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Location returns the loaded location for name.
func (c *Catalog) Location(name string) (*time.Location, error) {
	loc, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("tzcatalog: unknown zone %q", name)
	}
	return loc, nil
}

// Missing lists names that were requested but could not be loaded.
func (c *Catalog) Missing() []string {
	out := make([]string, len(c.missing))
	copy(out, c.missing)
	return out
}

// Each calls fn for every zone in name order.
func (c *Catalog) Each(fn func(Zone)) {
	for _, z := range c.zones {
		fn(z)
	}
}
