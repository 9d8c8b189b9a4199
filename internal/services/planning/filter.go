package planning

import (
	"strconv"
	"strings"

	"github.com/xelth-com/alloyplan/internal/models"
)

// MatchesFilters applies the catalog filters of the planning view.
// Size and Pcd hold specification ids in text form; Finish compares
// the finish name case-insensitively; Search looks at display and finish
// names.
func MatchesFilters(item models.StockItem, f models.Filters) bool {
	if f.OnlyWithStock && item.Stock() <= 0 {
		return false
	}
	if f.Size != "" && f.Size != strconv.FormatInt(item.SizeID, 10) {
		return false
	}
	if f.Pcd != "" && f.Pcd != strconv.FormatInt(item.PcdID, 10) {
		return false
	}
	if f.Finish != "" && !strings.EqualFold(f.Finish, item.FinishName) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(item.DisplayName), q) &&
			!strings.Contains(strings.ToLower(item.FinishName), q) &&
			strconv.FormatInt(item.ID, 10) != q {
			return false
		}
	}
	return true
}

// FilterCatalog keeps the items matching f, in catalog order
func FilterCatalog(items []models.StockItem, f models.Filters) []models.StockItem {
	out := make([]models.StockItem, 0, len(items))
	for _, item := range items {
		if MatchesFilters(item, f) {
			out = append(out, item)
		}
	}
	return out
}
