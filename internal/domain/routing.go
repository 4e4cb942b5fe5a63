package domain

import "time"

// Party is a business contact that receives and fulfills orders.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city"`
	// Badge prefixes the message header.
	Badge string `json:"-"`
}

// Header renders the first lines of an order message for date.
func (p Party) Header(date time.Time) string {
	return p.Badge + " COMMANDE " + p.Name + "\n📍 " + p.City + "\n📅 " + date.Format("02/01/2006") + "\n"
}

var (
	PartyBetty = Party{
		ID:    "betty",
		Name:  "BETTY KABEY SMART",
		Phone: "+243971455335",
		City:  "Kolwezi",
		Badge: "🛍️",
	}
	PartyLaurent = Party{
		ID:    "laurent",
		Name:  "LAURENT KABESHA SMART",
		Phone: "+243822937321",
		City:  "Kolwezi",
		Badge: "🛒",
	}
)

// DefaultParty receives orders for categories without a route.
var DefaultParty = PartyBetty

var routes = map[Category]Party{
	CategoryVetements:    PartyBetty,
	CategoryCosmetiques:  PartyBetty,
	CategoryPharmacie:    PartyBetty,
	CategoryElectronique: PartyLaurent,
	CategoryElectrique:   PartyLaurent,
	CategoryAutomobile:   PartyLaurent,
}

// PartyForCategory returns the party responsible for c, or DefaultParty.
func PartyForCategory(c Category) Party {
	if p, ok := routes[c]; ok {
		return p
	}
	return DefaultParty
}

// PartyByID looks a party up by its id.
func PartyByID(id string) (Party, bool) {
	for _, p := range []Party{PartyBetty, PartyLaurent} {
		if p.ID == id {
			return p, true
		}
	}
	return Party{}, false
}

// RouteItems picks the party for an order from its first item only. Mixed
// carts are not split.
func RouteItems(items []LineItem) Party {
	if len(items) == 0 {
		return DefaultParty
	}
	return PartyForCategory(items[0].Category)
}
