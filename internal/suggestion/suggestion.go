// Package suggestion produces the cart assistant's advisory hints. The rules
// are a fixed heuristic over the cart lines; nothing is learned.
package suggestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/lbksmart/storefront/internal/domain"
)

// MaxSuggestions caps the hints returned for one cart.
const MaxSuggestions = 3

// bundleThreshold is the number of lines from which the pack offer shows.
const bundleThreshold = 3

// Kind classifies a suggestion.
type Kind string

const (
	KindComplementary Kind = "complementary"
	KindSaving        Kind = "saving"
	KindShipping      Kind = "shipping"
	KindStock         Kind = "stock"
)

// Suggestion is one advisory hint.
type Suggestion struct {
	Kind       Kind   `json:"type"`
	Icon       string `json:"icon"`
	Text       string `json:"text"`
	Action     string `json:"action,omitempty"`
	ActionText string `json:"action_text,omitempty"`
}

// Generate applies the rules in order (complementary, bundle, free shipping,
// then one low-stock warning per line) and keeps the first MaxSuggestions.
// An empty cart gets no suggestions.
func Generate(items []domain.LineItem) []Suggestion {
	if len(items) == 0 {
		return []Suggestion{}
	}

	out := make([]Suggestion, 0, MaxSuggestions+len(items))
	out = append(out, Suggestion{
		Kind:       KindComplementary,
		Icon:       "🔄",
		Text:       "Les clients ayant acheté ces produits prennent aussi souvent: Chargeur rapide",
		Action:     "add_complementary",
		ActionText: "Ajouter",
	})
	if len(items) >= bundleThreshold {
		out = append(out, Suggestion{
			Kind:       KindSaving,
			Icon:       "💰",
			Text:       "Économisez 15% en achetant le pack complet",
			Action:     "apply_pack_discount",
			ActionText: "Appliquer",
		})
	}
	out = append(out, Suggestion{
		Kind:       KindShipping,
		Icon:       "🚚",
		Text:       "Ajoutez 5,000 FCFA de plus pour bénéficier de la livraison gratuite",
		Action:     "suggest_cheap_product",
		ActionText: "Voir suggestions",
	})
	for _, it := range items {
		if it.LowStock() {
			out = append(out, Suggestion{
				Kind: KindStock,
				Icon: "⚠️",
				Text: fmt.Sprintf("%q - Stock limité (%d restants)", it.Name, it.StockQuantity),
			})
		}
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// CartReader loads a session's cart.
type CartReader interface {
	Get(ctx context.Context, session string) (*domain.Cart, error)
}

// Engine memoizes suggestions per session until the cart store marks them
// stale.
type Engine struct {
	mu    sync.Mutex
	cache map[string][]Suggestion
	// gen counts MarkStale calls so a computation that raced with a cart
	// mutation is not cached.
	gen uint64
}

// maxCached bounds the cache; it is reset wholesale when full.
const maxCached = 10_000

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string][]Suggestion)}
}

// MarkStale drops the cached suggestions of session.
func (e *Engine) MarkStale(session string) {
	e.mu.Lock()
	delete(e.cache, session)
	e.gen++
	e.mu.Unlock()
}

// For returns the suggestions of session, computing them from carts on a
// cache miss.
func (e *Engine) For(ctx context.Context, session string, carts CartReader) ([]Suggestion, error) {
	e.mu.Lock()
	cached, ok := e.cache[session]
	gen := e.gen
	e.mu.Unlock()
	if ok {
		return clone(cached), nil
	}

	cart, err := carts.Get(ctx, session)
	if err != nil {
		return nil, err
	}
	s := Generate(cart.Items)

	e.mu.Lock()
	if e.gen == gen {
		if len(e.cache) >= maxCached {
			e.cache = make(map[string][]Suggestion)
		}
		e.cache[session] = s
	}
	e.mu.Unlock()
	return clone(s), nil
}

func clone(s []Suggestion) []Suggestion {
	out := make([]Suggestion, len(s))
	copy(out, s)
	return out
}
