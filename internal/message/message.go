// Package message renders an order as the plain-text message sent to the
// responsible party, and builds the link that opens it in WhatsApp.
package message

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lbksmart/storefront/internal/domain"
)

const (
	// DefaultCurrencyLabel follows every amount.
	DefaultCurrencyLabel = "FC"
	// DefaultBaseURL is the WhatsApp click-to-chat endpoint.
	DefaultBaseURL = "https://wa.me/"

	separator = "=============================="
	footer    = "— LB-K SMART Boutique Intelligence —"
)

var instructions = []string{
	"Confirmer la disponibilité",
	"Informer le client des délais",
	"Préparer la facture",
	"Organiser la livraison",
}

// Formatter renders orders.
type Formatter struct {
	currency string
	location *time.Location
	printer  *message.Printer
}

// NewFormatter creates a formatter that suffixes amounts with currency and
// dates the header in loc. Empty or nil arguments fall back to defaults.
func NewFormatter(currency string, loc *time.Location) *Formatter {
	if currency == "" {
		currency = DefaultCurrencyLabel
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		currency: currency,
		location: loc,
		printer:  message.NewPrinter(language.English),
	}
}

// Money formats an integer amount with thousands separators, "25,000 FC".
func (f *Formatter) Money(amount int64) string {
	return f.printer.Sprintf("%d", amount) + " " + f.currency
}

// Format renders o addressed to p. The output depends only on its inputs.
func (f *Formatter) Format(o *domain.Order, p domain.Party) string {
	var b strings.Builder

	b.WriteString(p.Header(o.CreatedAt.In(f.location)))

	b.WriteString("\n👤 CLIENT\n")
	line(&b, "Nom: ", o.Client.Name)
	line(&b, "Téléphone: ", o.Client.Phone)
	line(&b, "Adresse: ", o.Client.Address)

	b.WriteString("\n📦 DÉTAILS DE LA COMMANDE\n")
	b.WriteString(separator + "\n")
	for i, it := range o.Items {
		f.writeItem(&b, i+1, it)
	}

	b.WriteString("\n🚚 LOGISTIQUE\n")
	line(&b, "Mode: ", o.Delivery.Label)
	line(&b, "Délai: ", o.Delivery.Delay)
	line(&b, "Frais: ", f.Money(o.Delivery.Cost))

	b.WriteString("\n💰 FINANCIER\n")
	line(&b, "Sous-total: ", f.Money(o.Financial.Subtotal))
	line(&b, "Livraison: ", f.Money(o.Financial.Delivery))
	line(&b, "TOTAL: ", f.Money(o.Financial.Total))
	line(&b, "Mode paiement: ", o.Payment.Method.Label())

	b.WriteString("\n📋 INSTRUCTIONS\n")
	for i, s := range instructions {
		b.WriteString(f.printer.Sprintf("%d. %s\n", i+1, s))
	}

	b.WriteString("\nMerci pour votre confiance ! 🙏\n")
	b.WriteString(footer)

	return b.String()
}

func (f *Formatter) writeItem(b *strings.Builder, n int, it domain.LineItem) {
	b.WriteString(f.printer.Sprintf("%d. %s\n", n, it.Name))
	line(b, "   Catégorie: ", string(it.Category))
	line(b, "   Variante: ", it.Variants.String())
	line(b, "   Quantité: ", f.printer.Sprintf("%d", it.Quantity))
	line(b, "   Prix unitaire: ", f.Money(it.Price))
	line(b, "   Sous-total: ", f.Money(it.LineTotal()))

	keys := make([]string, 0, len(it.Specifications))
	for k := range it.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(b, "   "+k+": ", it.Specifications[k])
	}
	b.WriteString("\n")
}

func line(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(value)
	b.WriteString("\n")
}

// Link builds baseURL + the digits of phone + "?text=" + the escaped text.
// Spaces are escaped as %20 so every client decodes them the same way.
func Link(baseURL, phone, text string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return baseURL + Digits(phone) + "?text=" + escaped
}

// Digits strips everything but 0-9 from phone.
func Digits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
