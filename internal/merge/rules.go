// Package merge combines readings from equivalent sensors. Some machine
// revisions report the same physical quantity under different parameter
// names (e.g. magnetronFlow vs CoolingmagnetronFlowLowStatistics); merge
// rules declare those equivalence groups and the engine folds matching
// readings into one.
package merge

import (
	"errors"
	"fmt"
)

// ErrSourceConflict is returned by Register when a source parameter already
// belongs to a different group. The first registration wins; callers log
// the conflict and keep going.
var ErrSourceConflict = errors.New("merge: source already assigned to another group")

// Rules maps source canonical IDs to their unified ID. Rules are built once
// at startup from config and are read-only afterwards.
type Rules struct {
	groups   map[string][]string
	bySource map[string]string
}

// NewRules returns an empty rule set.
func NewRules() *Rules {
	return &Rules{
		groups:   make(map[string][]string),
		bySource: make(map[string]string),
	}
}

// Register declares that the given source IDs all measure unifiedID.
// Re-registering the same unifiedID replaces its source list. A source
// already claimed by a different group fails with ErrSourceConflict and
// leaves the rule set unchanged.
func (r *Rules) Register(unifiedID string, sources []string) error {
	for _, s := range sources {
		if owner, ok := r.bySource[s]; ok && owner != unifiedID {
			return fmt.Errorf("%w: %q already in group %q", ErrSourceConflict, s, owner)
		}
	}
	for _, s := range r.groups[unifiedID] {
		delete(r.bySource, s)
	}
	list := make([]string, len(sources))
	copy(list, sources)
	r.groups[unifiedID] = list
	for _, s := range list {
		r.bySource[s] = unifiedID
	}
	return nil
}

// Resolve returns the unified ID a source belongs to. ok is false for
// parameters outside every group.
func (r *Rules) Resolve(sourceID string) (unifiedID string, ok bool) {
	unifiedID, ok = r.bySource[sourceID]
	return unifiedID, ok
}

// Sources returns the registered source list for a unified ID.
func (r *Rules) Sources(unifiedID string) []string {
	return r.groups[unifiedID]
}

// Len returns the number of registered groups.
func (r *Rules) Len() int { return len(r.groups) }
