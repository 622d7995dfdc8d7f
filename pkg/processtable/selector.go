package processtable

import (
	"fmt"
	"strconv"
	"strings"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
)

// SelectMode is how a row chooses its variables.
type SelectMode int

const (
	// SelectExplicit applies the row to one group made of the listed ids.
	SelectExplicit SelectMode = iota
	// SelectAll applies the row to one group holding every present variable.
	SelectAll
	// SelectAllIndependent applies the row to each present variable on its own.
	SelectAllIndependent
)

// MaxSelectorIDs bounds how many ids one explicit selector may list once
// its ranges are expanded.
const MaxSelectorIDs = 100000

const (
	allKeyword            = "all"
	allIndependentKeyword = "all_independent"
)

// Selector identifies the variables a processing-table row applies to.
type Selector struct {
	Mode SelectMode
	VIDs []int
}

// All returns the "all" selector.
func All() Selector { return Selector{Mode: SelectAll} }

// AllIndependent returns the "all_independent" selector.
func AllIndependent() Selector { return Selector{Mode: SelectAllIndependent} }

// Explicit returns a selector for the given ids, in order.
func Explicit(vids ...int) Selector { return Selector{Mode: SelectExplicit, VIDs: vids} }

// ParseSelector parses "all", "all_independent" or a comma separated list of
// variable ids. An entry "a:b" expands to the ids a through b inclusive.
// Selectors listing more than MaxSelectorIDs ids are rejected.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case allKeyword:
		return All(), nil
	case allIndependentKeyword:
		return AllIndependent(), nil
	case "":
		return Selector{}, tferrors.NewValidationError("processtable", "variables", s, "cannot be empty").
			WithHint(`use "all", "all_independent" or a list of variable ids`)
	}

	var vids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, isRange := strings.Cut(part, ":"); isRange {
			first, err := parseVID(lo)
			if err != nil {
				return Selector{}, err
			}
			last, err := parseVID(hi)
			if err != nil {
				return Selector{}, err
			}
			if last < first {
				return Selector{}, tferrors.NewValidationError("processtable", "variables", part, "range end before start")
			}
			if last-first >= MaxSelectorIDs-len(vids) {
				return Selector{}, tferrors.NewValidationError("processtable", "variables", part,
					fmt.Sprintf("selects more than %d variables", MaxSelectorIDs))
			}
			for vid := first; vid <= last; vid++ {
				vids = append(vids, vid)
			}
			continue
		}
		vid, err := parseVID(part)
		if err != nil {
			return Selector{}, err
		}
		if len(vids) >= MaxSelectorIDs {
			return Selector{}, tferrors.NewValidationError("processtable", "variables", part,
				fmt.Sprintf("selects more than %d variables", MaxSelectorIDs))
		}
		vids = append(vids, vid)
	}
	return Explicit(vids...), nil
}

func parseVID(s string) (int, error) {
	vid, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || vid <= 0 {
		return 0, tferrors.NewValidationError("processtable", "variables", s, "not a positive variable id")
	}
	return vid, nil
}

// Groups resolves s against the ids of the variables currently present,
// given in ascending order. Explicit ids that are not present are dropped
// and empty groups are omitted, so the result may be empty.
func (s Selector) Groups(present []int) [][]int {
	switch s.Mode {
	case SelectAll:
		if len(present) == 0 {
			return nil
		}
		return [][]int{append([]int(nil), present...)}

	case SelectAllIndependent:
		groups := make([][]int, 0, len(present))
		for _, vid := range present {
			groups = append(groups, []int{vid})
		}
		return groups

	default:
		live := make(map[int]struct{}, len(present))
		for _, vid := range present {
			live[vid] = struct{}{}
		}
		var group []int
		seen := make(map[int]struct{}, len(s.VIDs))
		for _, vid := range s.VIDs {
			if _, ok := live[vid]; !ok {
				continue
			}
			if _, dup := seen[vid]; dup {
				continue
			}
			seen[vid] = struct{}{}
			group = append(group, vid)
		}
		if len(group) == 0 {
			return nil
		}
		return [][]int{group}
	}
}

// String formats s the way ParseSelector reads it.
func (s Selector) String() string {
	switch s.Mode {
	case SelectAll:
		return allKeyword
	case SelectAllIndependent:
		return allIndependentKeyword
	default:
		parts := make([]string, len(s.VIDs))
		for i, vid := range s.VIDs {
			parts[i] = strconv.Itoa(vid)
		}
		return strings.Join(parts, ",")
	}
}

func (m SelectMode) String() string {
	switch m {
	case SelectAll:
		return allKeyword
	case SelectAllIndependent:
		return allIndependentKeyword
	case SelectExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("SelectMode(%d)", int(m))
	}
}
