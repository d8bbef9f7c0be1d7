package catalog

import (
	"regexp"
	"strings"
)

// numberingRE matches the "3." style list numbering some catalog exports
// and log spellings carry in front of the parameter name.
var numberingRE = regexp.MustCompile(`^\s*\d+\.?\s*`)

// stripNumbering removes that leading numbering from a raw name.
func stripNumbering(s string) string {
	return numberingRE.ReplaceAllString(s, "")
}

// squash lowercases s and drops the separator characters that vary between
// spellings of the same parameter.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '_', '-', ':', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeKey reduces a raw parameter spelling to its lookup key: list
// numbering and trailing colons stripped, then squashed.
func normalizeKey(raw string) string {
	s := numberingRE.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.TrimRight(s, ":")
	return squash(s)
}

// variantKeys returns the lookup keys one catalog name contributes: the
// normalized name itself plus, for "...Statistics" spellings, the common
// abbreviations logs use for the same sensor.
func variantKeys(name string) []string {
	key := normalizeKey(name)
	if key == "" {
		return nil
	}
	vs := []string{key}
	if strings.Contains(key, "statistics") {
		base := strings.ReplaceAll(key, "statistics", "")
		if base != "" {
			vs = append(vs, base, base+"stats", base+"stat")
		}
	}
	return vs
}

// significantTokens collects the words (longer than three characters) from
// the given names, lowercased and deduplicated, for the token-overlap
// resolution tier.
func significantTokens(names ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		for _, t := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		}) {
			if len(t) <= 3 || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Resolve maps a raw parameter spelling to its canonical parameter. Tiers
// are tried in order and the first hit wins: exact/variant key, substring
// containment against registered keys, then token overlap against the
// parameter names. A miss means the spelling is rejected, never guessed.
func (c *Catalog) Resolve(raw string) (*Parameter, bool) {
	key := normalizeKey(raw)
	if key == "" {
		return nil, false
	}
	if p, ok := c.keys[key]; ok {
		return p, true
	}
	if len(key) > 3 {
		for _, id := range c.order {
			for _, k := range c.paramKeys[id] {
				if len(k) > 3 && (strings.Contains(key, k) || strings.Contains(k, key)) {
					return c.params[id], true
				}
			}
		}
	}
	rawTokens := significantTokens(raw)
	if len(rawTokens) >= 2 {
		for _, id := range c.order {
			overlap := 0
			for _, t := range rawTokens {
				for _, pt := range c.tokens[id] {
					if t == pt {
						overlap++
						break
					}
				}
			}
			if overlap >= 2 {
				return c.params[id], true
			}
		}
	}
	return nil, false
}

// IsAllowed reports whether raw is a registered spelling of some catalog
// parameter. This is a constant-time set membership check; unlike Resolve
// it never falls back to fuzzy tiers.
func (c *Catalog) IsAllowed(raw string) bool {
	_, ok := c.keys[normalizeKey(raw)]
	return ok
}

// LineHasAllowed reports whether any registered spelling occurs anywhere in
// the log line. The free-text pre-filter uses it to discard lines before
// any regex work. Keys shorter than four characters are ignored to avoid
// accidental hits.
func (c *Catalog) LineHasAllowed(line string) bool {
	lk := squash(line)
	if lk == "" {
		return false
	}
	for k := range c.keys {
		if len(k) > 3 && strings.Contains(lk, k) {
			return true
		}
	}
	return false
}
