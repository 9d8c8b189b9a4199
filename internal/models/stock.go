package models

import (
	"time"
)

// ProductSpecification is the physical identity of a wheel, everything
// except its finish. Items with equal specifications are the same product.
type ProductSpecification struct {
	ModelID int64 `gorm:"index:idx_stock_spec" json:"modelId"`
	SizeID  int64 `gorm:"index:idx_stock_spec" json:"sizeId"`
	PcdID   int64 `gorm:"index:idx_stock_spec" json:"pcdId"`
	HolesID int64 `gorm:"index:idx_stock_spec" json:"holesId"`
	WidthID int64 `gorm:"index:idx_stock_spec" json:"widthId"`
}

// StockItem is one finish variant of a product with its stock levels.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type StockItem struct {
	ProductSpecification

	ID            int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FinishID      int64  `gorm:"index" json:"finishId"`
	FinishName    string `json:"finishName"`
	DisplayName   string `json:"displayName"`
	InHouseStock  int    `json:"inHouseStock"`
	ShowroomStock int    `json:"showroomStock"`

	// Catalog cache meta
	LastSyncedAt time.Time `json:"-"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

// Spec returns the physical identity of the item
func (s StockItem) Spec() ProductSpecification {
	return s.ProductSpecification
}

// Stock is the total on-hand quantity across in-house and showroom stock
func (s StockItem) Stock() int {
	return s.InHouseStock + s.ShowroomStock
}

// UnmarshalJSON normalizes the field-name variants the catalog API and the
// ERP use (camelCase, snake_case, Odoo relation pairs) into a StockItem.
func (s *StockItem) UnmarshalJSON(data []byte) error {
	p, err := decodePayload(data)
	if err != nil {
		return err
	}

	var item StockItem
	if item.ID, err = p.Int("id", "item_id", "stock_id"); err != nil {
		return err
	}
	if item.ModelID, err = p.Int("model_id"); err != nil {
		return err
	}
	if item.SizeID, err = p.Int("size_id"); err != nil {
		return err
	}
	if item.PcdID, err = p.Int("pcd_id"); err != nil {
		return err
	}
	if item.HolesID, err = p.Int("holes_id", "hole_id"); err != nil {
		return err
	}
	if item.WidthID, err = p.Int("width_id"); err != nil {
		return err
	}
	if item.FinishID, err = p.Int("finish_id"); err != nil {
		return err
	}

	item.FinishName = p.String("finish_name")
	if item.FinishName == "" {
		item.FinishName = p.Name("finish_id")
	}
	if item.FinishName == "" {
		item.FinishName = p.String("finish")
	}
	item.DisplayName = p.String("display_name", "product_name", "name")

	inHouse, err := p.Int("in_house_stock", "stock")
	if err != nil {
		return err
	}
	showroom, err := p.Int("showroom_stock")
	if err != nil {
		return err
	}
	item.InHouseStock = int(inHouse)
	item.ShowroomStock = int(showroom)

	*s = item
	return nil
}
