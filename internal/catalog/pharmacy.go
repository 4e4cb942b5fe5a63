// Package catalog holds the category product form templates used by the
// back office to enter products.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/lbksmart/storefront/internal/domain"
)

// FieldType is the HTML input type of a form field.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
	TypeRadio    FieldType = "radio"
	TypeDate     FieldType = "date"
	TypeNumber   FieldType = "number"
)

// Field is one input of a product form.
type Field struct {
	Name        string          `json:"name"`
	Label       string          `json:"label"`
	Type        FieldType       `json:"type"`
	Required    bool            `json:"required,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Options     []domain.Option `json:"options,omitempty"`
	Min         *int            `json:"min,omitempty"`
}

// Template is a category product form.
type Template struct {
	Category domain.Category `json:"category"`
	Fields   []Field         `json:"fields"`
	Warnings []string        `json:"warnings"`
}

// DateLayout is the layout of date_peremption.
const DateLayout = "2006-01-02"

const (
	fieldExpiry = "date_peremption"
	fieldStock  = "quantite_stock"
)

func opts(values ...string) []domain.Option {
	out := make([]domain.Option, len(values))
	for i, v := range values {
		out[i] = domain.Option{Value: v, Label: v}
	}
	return out
}

func intPtr(v int) *int { return &v }

var pharmacyFields = []Field{
	{Name: "nom", Label: "Nom commercial", Type: TypeText, Required: true, Placeholder: "Ex: Paracétamol 500mg"},
	{Name: "dci", Label: "Dénomination Commune Internationale", Type: TypeText, Required: true, Placeholder: "Ex: Paracétamol"},
	{Name: "dosage", Label: "Dosage", Type: TypeSelect, Required: true,
		Options: opts("50mg", "100mg", "250mg", "500mg", "750mg", "1000mg", "Autre")},
	{Name: "forme", Label: "Forme galénique", Type: TypeSelect, Required: true,
		Options: opts("Comprimé", "Gélule", "Sirop", "Solution", "Pommade", "Crème", "Gel", "Injectable", "Suppositoire", "Collyre", "Autre")},
	{Name: "composition", Label: "Composition", Type: TypeTextarea, Placeholder: "Liste des principes actifs et excipients"},
	{Name: "indications", Label: "Indications thérapeutiques", Type: TypeTextarea, Required: true},
	{Name: "contre_indications", Label: "Contre-indications", Type: TypeTextarea},
	{Name: "posologie", Label: "Posologie", Type: TypeTextarea, Required: true, Placeholder: "Ex: 1 comprimé 3 fois par jour"},
	{Name: "prescription", Label: "Type de prescription", Type: TypeSelect,
		Options: opts("Médicament en vente libre", "Médicament sur ordonnance", "Médicament stupéfiant", "Produit pharmaceutique")},
	{Name: "laboratoire", Label: "Laboratoire fabricant", Type: TypeText},
	{Name: "pays_origine", Label: "Pays d'origine", Type: TypeText},
	{Name: "numero_lot", Label: "Numéro de lot", Type: TypeText},
	{Name: fieldExpiry, Label: "Date de péremption", Type: TypeDate},
	{Name: "conditionnement", Label: "Conditionnement", Type: TypeSelect,
		Options: opts("Boîte de 10 comprimés", "Boîte de 20 comprimés", "Flacon de 100ml", "Tube de 30g", "Sachet", "Autre")},
	{Name: "conservation", Label: "Conditions de conservation", Type: TypeSelect,
		Options: opts("À température ambiante", "Au réfrigérateur (2-8°C)", "À l'abri de la lumière", "Au sec", "Conditions spéciales")},
	{Name: "avertissements", Label: "Avertissements spéciaux", Type: TypeTextarea, Placeholder: "Précautions d'emploi, effets secondaires"},
	{Name: "interactions", Label: "Interactions médicamenteuses", Type: TypeTextarea},
	{Name: "sous_traitement", Label: "Sous traitement médical", Type: TypeRadio, Options: []domain.Option{
		{Value: "avis_medical", Label: "Nécessite avis médical"},
		{Value: "autotraitement", Label: "Autotraitement possible"},
	}},
	{Name: "classe_therapeutique", Label: "Classe thérapeutique", Type: TypeText, Placeholder: "Ex: Antalgique, Antibiotique"},
	{Name: fieldStock, Label: "Quantité en stock", Type: TypeNumber, Required: true, Min: intPtr(0)},
	{Name: "quantite_commande", Label: "Quantité par commande", Type: TypeSelect,
		Options: opts("1 unité", "Boîte complète", "10 unités", "20 unités", "50 unités", "100 unités")},
	{Name: "delai_approvisionnement", Label: "Délai d'approvisionnement", Type: TypeSelect,
		Options: opts("Immédiat (en stock)", "24-48 heures", "3-5 jours", "1-2 semaines", "Sur commande spéciale")},
}

var pharmacyWarnings = []string{
	"Consultez un médecin ou un pharmacien avant utilisation",
	"Respectez la posologie indiquée",
	"Ne dépassez pas la dose recommandée",
	"Conservez hors de portée des enfants",
}

// PharmacyTemplate returns a copy of the pharmacy product form.
func PharmacyTemplate() Template {
	fields := make([]Field, len(pharmacyFields))
	copy(fields, pharmacyFields)
	warnings := make([]string, len(pharmacyWarnings))
	copy(warnings, pharmacyWarnings)
	return Template{Category: domain.CategoryPharmacie, Fields: fields, Warnings: warnings}
}

// ValidationResult lists the problems found in a product form.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	// StockStatus is set when the stock quantity is readable.
	StockStatus string `json:"stock_status,omitempty"`
}

// ValidatePharmacy checks required fields, a non-negative integer stock and
// an expiry date strictly after the calendar day of now.
func ValidatePharmacy(data map[string]string, now time.Time) ValidationResult {
	errs := []string{}
	for _, f := range pharmacyFields {
		if f.Required && strings.TrimSpace(data[f.Name]) == "" {
			errs = append(errs, f.Label+" est obligatoire")
		}
	}

	var status string
	if v := strings.TrimSpace(data[fieldStock]); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n < 0 {
			errs = append(errs, "Validation échouée pour "+fieldStock)
		} else {
			status = StockStatus(n)
		}
	}

	if v := strings.TrimSpace(data[fieldExpiry]); v != "" {
		expired, err := IsExpired(v, now)
		switch {
		case err != nil:
			errs = append(errs, "Date de péremption invalide (format AAAA-MM-JJ)")
		case expired:
			errs = append(errs, "Le produit est périmé ou proche de la date de péremption")
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs, StockStatus: status}
}

// IsExpired reports whether expiry (YYYY-MM-DD) is on or before the
// calendar day of now, evaluated in now's location.
func IsExpired(expiry string, now time.Time) (bool, error) {
	exp, err := time.ParseInLocation(DateLayout, expiry, now.Location())
	if err != nil {
		return false, err
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !exp.After(today), nil
}

// StockStatus labels a stock quantity the way product cards show it.
func StockStatus(quantity int) string {
	if quantity > 0 {
		return "🟢 En stock"
	}
	return "🟡 Sur commande"
}
