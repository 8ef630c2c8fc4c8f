package state

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryButton     Category = "button"
	CategoryAdditional Category = "additional"
	CategorySoftSkill  Category = "soft-skill"
	CategoryHardSkill  Category = "hard-skill"
	CategoryOther      Category = "other"
)

var categoryLabels = map[string]Category{
	"кнопка":         CategoryButton,
	"дополнительное": CategoryAdditional,
	"софт-скил":      CategorySoftSkill,
	"софт-скилл":     CategorySoftSkill,
	"хард-скил":      CategoryHardSkill,
	"хард-скилл":     CategoryHardSkill,
	"другое":         CategoryOther,
}

// ParseCategory maps a feed label onto a Category. Unknown labels are "other".
func ParseCategory(label string) Category {
	label = strings.ToLower(strings.TrimSpace(label))
	if c, ok := categoryLabels[label]; ok {
		return c
	}

	switch c := Category(label); c {
	case CategoryButton, CategoryAdditional, CategorySoftSkill, CategoryHardSkill:
		return c
	}
	return CategoryOther
}

// Label returns the storefront caption of the category.
func (c Category) Label() string {
	switch c {
	case CategoryButton:
		return "кнопка"
	case CategoryAdditional:
		return "дополнительное"
	case CategorySoftSkill:
		return "софт-скил"
	case CategoryHardSkill:
		return "хард-скил"
	default:
		return "другое"
	}
}

// Price is a product price in synapses. Priceless products cannot be bought.
type Price int64

const Priceless Price = -1

func (p Price) Purchasable() bool { return p >= 0 }

func (p Price) String() string {
	if !p.Purchasable() {
		return "Бесценно"
	}
	return fmt.Sprintf("%d синапсов", int64(p))
}

// ProductData is a raw catalog record.
type ProductData struct {
	ID          string
	Category    string
	Title       string
	Image       string
	Price       Price
	Description string
}

// Product is an immutable catalog item.
type Product struct {
	ID          string
	Category    Category
	Title       string
	Image       string
	Price       Price
	Description string
}

func NewProduct(data ProductData) Product {
	return Product{
		ID:          data.ID,
		Category:    ParseCategory(data.Category),
		Title:       data.Title,
		Image:       data.Image,
		Price:       data.Price,
		Description: data.Description,
	}
}
