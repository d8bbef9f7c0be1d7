package catalog

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

//go:embed default.txt
var defaultCatalog string

// Range is an inclusive numeric interval used for quality thresholds.
type Range struct {
	Low  float64
	High float64
}

// Contains reports whether v falls inside the interval.
func (r *Range) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// Parameter is one canonical machine parameter.
type Parameter struct {
	// ID is the canonical machine name, e.g. "magnetronFlow".
	ID string
	// FriendlyName is the operator-facing display name.
	FriendlyName string
	// Unit is the measurement unit as spelled in the catalog source.
	Unit string
	// Category groups parameters by physical subsystem (flow,
	// temperature, voltage, pressure, humidity, fan_speed, motion,
	// event, general).
	Category string
	// Expected is the nominal operating range, nil when none is known.
	Expected *Range
	// Critical is the wider alarm range, nil when none is known.
	Critical *Range
}

// Catalog is the resolved parameter set plus the lookup surfaces built from
// it. All lookups are read-only and safe for concurrent use.
type Catalog struct {
	params    map[string]*Parameter
	order     []string
	keys      map[string]*Parameter
	paramKeys map[string][]string
	tokens    map[string][]string
}

func newCatalog() *Catalog {
	return &Catalog{
		params:    make(map[string]*Parameter),
		keys:      make(map[string]*Parameter),
		paramKeys: make(map[string][]string),
		tokens:    make(map[string][]string),
	}
}

// Len returns the number of canonical parameters.
func (c *Catalog) Len() int { return len(c.order) }

// Parameters returns the parameters in catalog order.
func (c *Catalog) Parameters() []*Parameter {
	out := make([]*Parameter, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.params[id])
	}
	return out
}

// Lookup returns the parameter registered under the exact canonical ID.
func (c *Catalog) Lookup(id string) (*Parameter, bool) {
	p, ok := c.params[id]
	return p, ok
}

// add registers p and every normalized spelling derived from its machine
// name and friendly name. When a spelling is already owned by a different
// parameter the first registration wins and the collision is logged.
func (c *Catalog) add(p *Parameter) {
	if _, dup := c.params[p.ID]; dup {
		slog.Warn("catalog: duplicate parameter id, keeping first", "id", p.ID)
		return
	}
	if p.Category == "" {
		p.Category = classify(p.FriendlyName, p.Unit)
	}
	if p.Expected == nil && p.Critical == nil {
		p.Expected, p.Critical = inferRanges(p.Category)
	}

	c.params[p.ID] = p
	c.order = append(c.order, p.ID)

	seen := make(map[string]bool)
	for _, name := range []string{p.ID, p.FriendlyName} {
		for _, k := range variantKeys(name) {
			if seen[k] {
				continue
			}
			seen[k] = true
			owner, taken := c.keys[k]
			if taken {
				if owner.ID != p.ID {
					slog.Warn("catalog: ambiguous spelling, keeping first owner",
						"spelling", k, "owner", owner.ID, "dropped", p.ID)
				}
				continue
			}
			c.keys[k] = p
			c.paramKeys[p.ID] = append(c.paramKeys[p.ID], k)
		}
	}
	c.tokens[p.ID] = significantTokens(p.ID, p.FriendlyName)
}

// Parse reads a pipe-delimited parameter table:
//
//	machineName | Friendly Name | unit
//
// Blank lines, '#' comments, '---' separators and header rows are skipped.
// Lines without a pipe are treated as section headings. Rows whose machine
// or friendly field is missing or too short to be a real name are dropped
// with a debug log. Built-in event parameters are appended after the table.
func Parse(r io.Reader) (*Catalog, error) {
	c := newCatalog()
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
			continue
		}
		if !strings.Contains(line, "|") {
			continue
		}
		if isHeaderRow(line) {
			continue
		}
		parts := strings.Split(line, "|")
		machine := stripNumbering(strings.TrimSpace(parts[0]))
		friendly := ""
		unit := ""
		if len(parts) > 1 {
			friendly = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			unit = strings.TrimSpace(parts[2])
		}
		if len(machine) <= 2 || len(friendly) <= 2 {
			slog.Debug("catalog: skipping malformed row", "line", lineNum)
			continue
		}
		c.add(&Parameter{ID: machine, FriendlyName: friendly, Unit: unit})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	registerBuiltins(c)
	return c, nil
}

// isHeaderRow recognizes the column-header line some catalog exports carry.
func isHeaderRow(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "machine parameter") ||
		(strings.Contains(l, "friendly") && strings.Contains(l, "unit"))
}

// Load reads the catalog at path. It never fails: a missing, empty, or
// unreadable file logs a warning and yields the embedded default catalog so
// the pipeline always has a working parameter set.
func Load(path string) *Catalog {
	if path != "" {
		f, err := os.Open(path)
		if err == nil {
			c, perr := Parse(f)
			f.Close()
			if perr == nil && c.Len() > builtinCount {
				slog.Info("catalog: loaded", "path", path, "parameters", c.Len())
				return c
			}
			if perr != nil {
				err = perr
			} else {
				err = fmt.Errorf("no parameter rows")
			}
		}
		slog.Warn("catalog: using embedded defaults", "path", path, "err", err)
	}
	c, err := Parse(strings.NewReader(defaultCatalog))
	if err != nil {
		// The embedded table is compiled in; a read error here means a
		// broken build, but degrade to an empty catalog rather than die.
		slog.Error("catalog: embedded defaults unreadable", "err", err)
		return newCatalog()
	}
	return c
}

// builtinCount is the number of parameters registerBuiltins adds; Load uses
// it to tell an empty file (builtins only) from a real catalog.
const builtinCount = 5

// registerBuiltins adds the discrete-event parameters every catalog carries
// regardless of the source file. The tab-grammar event extractors emit these
// IDs directly.
func registerBuiltins(c *Catalog) {
	for _, p := range []*Parameter{
		{ID: "systemMode", FriendlyName: "System Mode", Category: "event"},
		{ID: "emoEvent", FriendlyName: "EMO Events", Category: "event"},
		{ID: "motionInterlock", FriendlyName: "Motion Interlock Events", Category: "event"},
		{ID: "odometerUpdate", FriendlyName: "Odometer Updates", Unit: "MU", Category: "event"},
		{ID: "odometerBackup", FriendlyName: "Odometer Backups", Category: "event"},
	} {
		c.add(p)
	}
}
