package domain

// FieldKind is the input kind of a variant field.
type FieldKind string

const (
	FieldSelect FieldKind = "select"
	FieldText   FieldKind = "text"
)

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// VariantField describes one editable variant attribute.
type VariantField struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Kind        FieldKind `json:"type"`
	Options     []Option  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// VariantTemplate is the set of variant fields a category exposes.
type VariantTemplate struct {
	Category Category       `json:"category"`
	Fields   []VariantField `json:"fields"`
}

var variantTemplates = map[Category][]VariantField{
	CategoryHabillement: {
		{Name: "taille", Label: "Taille", Kind: FieldSelect, Options: []Option{
			{Value: "xs", Label: "XS"},
			{Value: "s", Label: "S"},
			{Value: "m", Label: "M"},
			{Value: "l", Label: "L"},
			{Value: "xl", Label: "XL"},
			{Value: "xxl", Label: "XXL"},
		}},
		{Name: "couleur", Label: "Couleur", Kind: FieldText, Placeholder: "Ex: Rouge, Bleu, Noir"},
		{Name: "matiere", Label: "Matière", Kind: FieldText, Placeholder: "Ex: Coton, Polyester"},
	},
	CategoryElectronique: {
		{Name: "modele", Label: "Modèle", Kind: FieldText},
		{Name: "couleur", Label: "Couleur", Kind: FieldText},
		{Name: "capacite", Label: "Capacité", Kind: FieldText, Placeholder: "Ex: 128GB, 256GB"},
	},
}

// VariantTemplateFor returns the editable fields of c. Categories without
// a template get an empty field list.
func VariantTemplateFor(c Category) VariantTemplate {
	fields := variantTemplates[c]
	out := make([]VariantField, len(fields))
	copy(out, fields)
	return VariantTemplate{Category: c, Fields: out}
}

// Accepts reports whether value is allowed for a select field. Text fields
// accept anything.
func (f VariantField) Accepts(value string) bool {
	if f.Kind != FieldSelect {
		return true
	}
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}
