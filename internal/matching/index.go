package matching

import "github.com/xelth-com/alloyplan/internal/models"

// SpecificationIndex groups catalog items by physical identity.
// It is built from an immutable catalog snapshot and never mutated;
// a new catalog means a new index.
type SpecificationIndex struct {
	groups map[models.ProductSpecification][]models.StockItem
	byID   map[int64]int
	items  []models.StockItem
}

// NewSpecificationIndex builds the index. Items keep their catalog order
// inside each group.
func NewSpecificationIndex(catalog []models.StockItem) *SpecificationIndex {
	items := make([]models.StockItem, len(catalog))
	copy(items, catalog)

	groups := make(map[models.ProductSpecification][]models.StockItem)
	byID := make(map[int64]int, len(items))
	for i, item := range items {
		spec := item.Spec()
		groups[spec] = append(groups[spec], item)
		if _, dup := byID[item.ID]; !dup {
			byID[item.ID] = i
		}
	}

	return &SpecificationIndex{groups: groups, byID: byID, items: items}
}

// Lookup returns the items sharing spec, in catalog order
func (idx *SpecificationIndex) Lookup(spec models.ProductSpecification) []models.StockItem {
	if idx == nil {
		return nil
	}
	return idx.groups[spec]
}

// Item returns the catalog item with the given id
func (idx *SpecificationIndex) Item(id int64) (models.StockItem, bool) {
	if idx == nil {
		return models.StockItem{}, false
	}
	i, ok := idx.byID[id]
	if !ok {
		return models.StockItem{}, false
	}
	return idx.items[i], true
}

// Items returns the catalog snapshot the index was built from
func (idx *SpecificationIndex) Items() []models.StockItem {
	if idx == nil {
		return nil
	}
	return idx.items
}

// Len is the number of distinct specifications
func (idx *SpecificationIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.groups)
}
