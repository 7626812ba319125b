// Package filter narrows a record set by the dashboard criteria.
package filter

import (
	"net/url"
	"sort"
	"strings"

	"github.com/okian/mdpsurvey/internal/domain/model"
)

// Query parameter names read by FromQuery.
const (
	ParamFunction = "function"
	ParamManager  = "manager"
	ParamRotation = "rotation"
	ParamSearch   = "search"
)

// Criteria is a conjunctive filter. An empty field matches anything.
type Criteria struct {
	Function string `json:"function,omitempty"`
	Manager  string `json:"manager,omitempty"`
	Rotation string `json:"rotation,omitempty"`
	Search   string `json:"search,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Key is a stable string form of c, usable as a cache key.
func (c Criteria) Key() string {
	return c.Function + "\x1f" + c.Manager + "\x1f" + c.Rotation + "\x1f" + strings.ToLower(c.Search)
}

// Matches reports whether r satisfies every non-empty criterion in c.
func Matches(r model.Record, c Criteria) bool {
	if c.Function != "" && string(r.Function) != c.Function {
		return false
	}
	if c.Manager != "" && r.ManagerName != c.Manager {
		return false
	}
	if c.Rotation != "" && r.Rotation != c.Rotation {
		return false
	}
	if c.Search != "" && !strings.Contains(strings.ToLower(r.MDPName), strings.ToLower(c.Search)) {
		return false
	}
	return true
}

// Apply returns the records matching c in their original order.
// The input slice is never modified; the result is always a fresh slice.
func Apply(records []model.Record, c Criteria) []model.Record {
	out := make([]model.Record, 0, len(records))
	if c.IsZero() {
		return append(out, records...)
	}
	for _, r := range records {
		if Matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// FromQuery reads criteria from URL query parameters.
func FromQuery(q url.Values) Criteria {
	return Criteria{
		Function: strings.TrimSpace(q.Get(ParamFunction)),
		Manager:  strings.TrimSpace(q.Get(ParamManager)),
		Rotation: strings.TrimSpace(q.Get(ParamRotation)),
		Search:   strings.TrimSpace(q.Get(ParamSearch)),
	}
}

// Options lists the distinct values available to each filter drop-down.
type Options struct {
	Functions []string `json:"functions"`
	Managers  []string `json:"managers"`
	Rotations []string `json:"rotations"`
	MDPNames  []string `json:"mdpNames"`
}

// OptionsOf collects sorted distinct values from records.
func OptionsOf(records []model.Record) Options {
	functions := map[string]struct{}{}
	managers := map[string]struct{}{}
	rotations := map[string]struct{}{}
	names := map[string]struct{}{}
	for _, r := range records {
		functions[string(r.Function)] = struct{}{}
		managers[r.ManagerName] = struct{}{}
		rotations[r.Rotation] = struct{}{}
		names[r.MDPName] = struct{}{}
	}
	return Options{
		Functions: sortedKeys(functions),
		Managers:  sortedKeys(managers),
		Rotations: sortedKeys(rotations),
		MDPNames:  sortedKeys(names),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		if k == "" {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
