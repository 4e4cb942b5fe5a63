package catalog

import (
	"strconv"
	"strings"
	"time"
)

const notSpecified = "Non spécifié"

// PharmacyMessage renders the WhatsApp text that orders one pharmacy
// product. data is the flat product form. Empty fields print as not
// specified.
func PharmacyMessage(data map[string]string) string {
	get := func(name, fallback string) string {
		if v := strings.TrimSpace(data[name]); v != "" {
			return v
		}
		return fallback
	}

	var b strings.Builder
	b.WriteString("🏥 COMMANDE PRODUIT PHARMACEUTIQUE - LB-K SMART\n\n")

	b.WriteString("📋 INFORMATIONS DU PRODUIT:\n")
	b.WriteString("────────────────────────────\n")
	b.WriteString("• Nom commercial: " + get("nom", notSpecified) + "\n")
	b.WriteString("• DCI: " + get("dci", notSpecified) + "\n")
	b.WriteString("• Dosage: " + get("dosage", notSpecified) + "\n")
	b.WriteString("• Forme: " + get("forme", notSpecified) + "\n")
	b.WriteString("• Laboratoire: " + get("laboratoire", notSpecified) + "\n\n")

	b.WriteString("💊 PRESCRIPTION:\n")
	b.WriteString("• Type: " + get("prescription", notSpecified) + "\n")
	b.WriteString("• Posologie: " + get("posologie", notSpecified) + "\n")
	b.WriteString("• Indications: " + get("indications", notSpecified) + "\n\n")

	b.WriteString("⚠️ PRÉCAUTIONS:\n")
	b.WriteString(get("avertissements", "Aucune précaution particulière") + "\n\n")

	b.WriteString("📦 COMMANDE:\n")
	b.WriteString("• Conditionnement: " + get("conditionnement", notSpecified) + "\n")
	b.WriteString("• Quantité: " + get("quantite_commande", notSpecified) + "\n")
	b.WriteString("• Délai: " + get("delai_approvisionnement", notSpecified) + "\n\n")

	b.WriteString("📝 INFORMATIONS SUPPLÉMENTAIRES:\n")
	b.WriteString("• Numéro de lot: " + get("numero_lot", notSpecified) + "\n")
	b.WriteString("• Date de péremption: " + get(fieldExpiry, "Non spécifiée") + "\n")
	b.WriteString("• Conservation: " + get("conservation", notSpecified) + "\n\n")

	b.WriteString("🔒 MISE EN GARDE:\n")
	b.WriteString("Ce produit nécessite une utilisation responsable.\n")
	b.WriteString("Consultez un professionnel de santé avant utilisation.\n\n")

	b.WriteString("📍 LB-K SMART - Votre santé, notre priorité\n")
	return b.String()
}

// PrescriptionRequired is the prescription type that needs an ordonnance.
const PrescriptionRequired = "Médicament sur ordonnance"

// Card is the product card view of a pharmacy product.
type Card struct {
	ID                   string `json:"id,omitempty"`
	Name                 string `json:"name"`
	DCI                  string `json:"dci"`
	Dosage               string `json:"dosage"`
	Form                 string `json:"form"`
	Prescription         string `json:"prescription"`
	RequiresPrescription bool   `json:"requires_prescription"`
	Badge                string `json:"badge"`
	Expired              bool   `json:"expired"`
	StockQuantity        int    `json:"stock_quantity"`
	StockStatus          string `json:"stock_status"`
}

// PharmacyCard builds the card of a pharmacy product. A missing or
// unreadable expiry date is not expired; an unreadable stock counts as 0.
func PharmacyCard(data map[string]string, now time.Time) Card {
	expired := false
	if v := strings.TrimSpace(data[fieldExpiry]); v != "" {
		expired, _ = IsExpired(v, now)
	}
	stock, err := strconv.Atoi(strings.TrimSpace(data[fieldStock]))
	if err != nil || stock < 0 {
		stock = 0
	}

	badge := "💊 PHARMACIE"
	if expired {
		badge = "⚠️ PÉRIMÉ"
	}

	return Card{
		ID:                   data["id"],
		Name:                 data["nom"],
		DCI:                  data["dci"],
		Dosage:               data["dosage"],
		Form:                 data["forme"],
		Prescription:         data["prescription"],
		RequiresPrescription: data["prescription"] == PrescriptionRequired,
		Badge:                badge,
		Expired:              expired,
		StockQuantity:        stock,
		StockStatus:          StockStatus(stock),
	}
}
