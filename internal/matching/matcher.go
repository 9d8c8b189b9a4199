package matching

import (
	"sort"
	"strings"

	"github.com/xelth-com/alloyplan/internal/models"
)

// Candidate is an alternate finish a source item could be converted to
type Candidate struct {
	FinishName string `json:"finishName"`
	Stock      int    `json:"stock"`
	ItemID     int64  `json:"itemId"`
}

// FinishMatcher finds finish variants of the same physical product
type FinishMatcher struct {
	index *SpecificationIndex
}

// NewFinishMatcher creates a matcher over a specification index
func NewFinishMatcher(index *SpecificationIndex) *FinishMatcher {
	return &FinishMatcher{index: index}
}

// FindCandidates returns the alternate finishes available for source,
// leaving out the source's own finish and every name in excluded.
// Each finish name appears once (first catalog occurrence) and the result
// is sorted by finish name.
func (m *FinishMatcher) FindCandidates(source models.StockItem, excluded []string) []Candidate {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	seen := make(map[string]struct{})
	var candidates []Candidate
	for _, item := range m.index.Lookup(source.Spec()) {
		if isSameFinish(source, item) {
			continue
		}
		if _, ok := skip[item.FinishName]; ok {
			continue
		}
		if _, ok := seen[item.FinishName]; ok {
			continue
		}
		seen[item.FinishName] = struct{}{}
		candidates = append(candidates, Candidate{
			FinishName: item.FinishName,
			Stock:      item.Stock(),
			ItemID:     item.ID,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessFinish(candidates[i].FinishName, candidates[j].FinishName)
	})
	return candidates
}

// FirstCandidate returns the alphabetically-first available finish
func (m *FinishMatcher) FirstCandidate(source models.StockItem, excluded []string) (Candidate, bool) {
	candidates := m.FindCandidates(source, excluded)
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

// HasCandidate reports whether finish is currently offered for source
func (m *FinishMatcher) HasCandidate(source models.StockItem, excluded []string, finish string) bool {
	for _, c := range m.FindCandidates(source, excluded) {
		if c.FinishName == finish {
			return true
		}
	}
	return false
}

// isSameFinish checks both the finish id and the finish name; catalogs are
// not consistent about which one is authoritative. A zero id means unknown.
func isSameFinish(source, item models.StockItem) bool {
	if item.ID == source.ID {
		return true
	}
	if source.FinishID != 0 && item.FinishID == source.FinishID {
		return true
	}
	return item.FinishName == source.FinishName
}

func lessFinish(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
