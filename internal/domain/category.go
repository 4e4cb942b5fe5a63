package domain

import "github.com/lbksmart/storefront/pkg/slug"

// Category is a catalog category tag.
type Category string

const (
	CategoryPharmacie      Category = "pharmacie"
	CategoryVetements      Category = "vetements"
	CategoryHabillement    Category = "habillement"
	CategoryCosmetiques    Category = "cosmetiques"
	CategoryElectronique   Category = "electronique"
	CategoryElectrique     Category = "electrique"
	CategoryElectromenager Category = "electromenager"
	CategoryAutomobile     Category = "automobile"
	CategoryAutoPieces     Category = "auto-pieces"
)

// DefaultIcon is shown for categories without their own icon.
const DefaultIcon = "📦"

var categories = []Category{
	CategoryPharmacie,
	CategoryVetements,
	CategoryHabillement,
	CategoryCosmetiques,
	CategoryElectronique,
	CategoryElectrique,
	CategoryElectromenager,
	CategoryAutomobile,
	CategoryAutoPieces,
}

var categoryIcons = map[Category]string{
	CategoryPharmacie:      "💊",
	CategoryHabillement:    "👕",
	CategoryElectronique:   "📱",
	CategoryElectromenager: "🏠",
	CategoryCosmetiques:    "💄",
	CategoryAutoPieces:     "🚗",
}

// Categories returns every known category.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory normalizes a display label such as "Cosmétiques" or
// "Auto Pièces" into a tag. ok is false for unknown categories, whose
// normalized tag is still returned.
func ParseCategory(label string) (Category, bool) {
	c := Category(slug.Generate(label))
	return c, c.Known()
}

// Known reports whether c is one of the enumerated tags.
func (c Category) Known() bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// Icon returns the emoji shown next to c.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return DefaultIcon
}
