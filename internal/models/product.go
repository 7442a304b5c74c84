package models

// Product represents a catalog product available for purchase
type Product struct {
	ID          string           `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	BasePrice   float64          `gorm:"not null" json:"basePrice"`
	SalePrice   float64          `json:"salePrice,omitempty"`
	OnSale      bool             `json:"onSale"`
	Category    string           `json:"category"`
	MaxQuantity int              `json:"maxQuantity"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

// ProductVariant is a selectable variation of a product (size, color, ...).
// Variants share the product's price; the label is appended to the display
// name on order items.
type ProductVariant struct {
	ID        string `gorm:"primaryKey" json:"id"`
	ProductID string `gorm:"index;not null" json:"productId"`
	Label     string `gorm:"not null" json:"label"`
}

// CurrentPrice returns the sale price when the product is on sale, otherwise
// the base price.
func (p *Product) CurrentPrice() float64 {
	if p.OnSale && p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.BasePrice
}

// Variant returns the variant with the given ID, or nil if the product has no
// such variant.
func (p *Product) Variant(variantID string) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}
