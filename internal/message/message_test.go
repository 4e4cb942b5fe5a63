package message

import (
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/pricing"
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          "CMD-1",
		SessionID:   "session-0001",
		CreatedAt:   time.Date(2026, 3, 4, 23, 30, 0, 0, time.UTC),
		Responsible: domain.PartyBetty.ID,
		Client: domain.ClientInfo{
			Name:          "Amani Mwamba",
			Phone:         "+243 990 000 111",
			Address:       "Av. Kasavubu 12, Kolwezi",
			PaymentMethod: domain.PaymentMobileMoney,
		},
		Items: []domain.LineItem{
			{
				ProductID: "p1",
				Name:      "Robe wax",
				Category:  domain.CategoryVetements,
				Price:     12500,
				Quantity:  2,
				Variants:  domain.Variants{"taille": "m", "couleur": "rouge"},
				Specifications: map[string]string{
					"matiere": "coton",
					"coupe":   "droite",
				},
			},
			{
				ProductID: "p2",
				Name:      "Savon",
				Category:  domain.CategoryCosmetiques,
				Price:     1500,
				Quantity:  1,
			},
		},
		Delivery: domain.Delivery{
			Method: pricing.MethodAirExpress,
			Label:  "Aérien Express",
			Delay:  "15 jours",
			Cost:   25000,
		},
		Financial: domain.Financial{Subtotal: 26500, Delivery: 25000, Total: 51500},
		Payment:   domain.Payment{Method: domain.PaymentMobileMoney, Status: domain.PaymentStatusPending},
	}
}

const expected = `🛍️ COMMANDE BETTY KABEY SMART
📍 Kolwezi
📅 05/03/2026

👤 CLIENT
Nom: Amani Mwamba
Téléphone: +243 990 000 111
Adresse: Av. Kasavubu 12, Kolwezi

📦 DÉTAILS DE LA COMMANDE
==============================
1. Robe wax
   Catégorie: vetements
   Variante: couleur: rouge, taille: m
   Quantité: 2
   Prix unitaire: 12,500 FC
   Sous-total: 25,000 FC
   coupe: droite
   matiere: coton

2. Savon
   Catégorie: cosmetiques
   Variante: Standard
   Quantité: 1
   Prix unitaire: 1,500 FC
   Sous-total: 1,500 FC


🚚 LOGISTIQUE
Mode: Aérien Express
Délai: 15 jours
Frais: 25,000 FC

💰 FINANCIER
Sous-total: 26,500 FC
Livraison: 25,000 FC
TOTAL: 51,500 FC
Mode paiement: Mobile Money

📋 INSTRUCTIONS
1. Confirmer la disponibilité
2. Informer le client des délais
3. Préparer la facture
4. Organiser la livraison

Merci pour votre confiance ! 🙏
— LB-K SMART Boutique Intelligence —`

func lubumbashi(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Lubumbashi")
	require.NoError(t, err)
	return loc
}

func TestFormat_Layout(t *testing.T) {
	f := NewFormatter("", lubumbashi(t))
	o := sampleOrder()

	assert.Equal(t, expected, f.Format(o, o.Party()))
}

func TestFormat_Deterministic(t *testing.T) {
	f := NewFormatter("FC", lubumbashi(t))
	o := sampleOrder()

	first := f.Format(o, domain.PartyLaurent)
	for range 20 {
		assert.Equal(t, first, f.Format(o, domain.PartyLaurent))
	}
	assert.True(t, strings.HasPrefix(first, "🛒 COMMANDE LAURENT KABESHA SMART\n"))
}

func TestFormat_HeaderDateUsesLocation(t *testing.T) {
	o := sampleOrder()

	assert.Contains(t, NewFormatter("", nil).Format(o, o.Party()), "📅 04/03/2026\n")
	assert.Contains(t, NewFormatter("", lubumbashi(t)).Format(o, o.Party()), "📅 05/03/2026\n")
}

func TestMoney(t *testing.T) {
	f := NewFormatter("CDF", nil)

	assert.Equal(t, "0 CDF", f.Money(0))
	assert.Equal(t, "150 CDF", f.Money(150))
	assert.Equal(t, "1,250,000 CDF", f.Money(1250000))
}

func TestLink(t *testing.T) {
	text := "Nom: A & B\nTotal: 25,000 FC +"
	link := Link("https://wa.me", "+243 971-455-335", text)

	require.True(t, strings.HasPrefix(link, "https://wa.me/243971455335?text="))
	assert.NotContains(t, link, " ")
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "%20")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, text, u.Query().Get("text"))
}

func TestLink_DefaultBase(t *testing.T) {
	assert.Equal(t, "https://wa.me/243822937321?text=ok", Link("", "+243822937321", "ok"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "243971455335", Digits("+243 (971) 455-335"))
	assert.Equal(t, "", Digits("abc"))
}
