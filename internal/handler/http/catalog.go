package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lbksmart/storefront/internal/catalog"
	"github.com/lbksmart/storefront/internal/domain"
	"github.com/lbksmart/storefront/internal/message"
	apperrors "github.com/lbksmart/storefront/pkg/errors"
	"github.com/lbksmart/storefront/pkg/httputil"
)

// CatalogHandler serves the static catalog metadata: categories, variant
// templates and the pharmacy product form.
type CatalogHandler struct {
	loc     *time.Location
	baseURL string
	now     func() time.Time
	logger  *slog.Logger
}

// NewCatalogHandler creates a catalog handler. Expiry dates are compared
// against the current day in loc; pharmacy order links start with baseURL.
func NewCatalogHandler(loc *time.Location, baseURL string, logger *slog.Logger) *CatalogHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogHandler{loc: loc, baseURL: baseURL, now: time.Now, logger: logger}
}

// PharmacyOrderView is the answer of the pharmacy message endpoint.
type PharmacyOrderView struct {
	Message     string       `json:"message"`
	DispatchURL string       `json:"dispatch_url"`
	Card        catalog.Card `json:"card"`
}

// CategoryView is one category tag with its icon.
type CategoryView struct {
	Tag  domain.Category `json:"tag"`
	Icon string          `json:"icon"`
}

// ListCategories handles GET /api/v1/catalog/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := domain.Categories()
	out := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryView{Tag: c, Icon: c.Icon()})
	}
	httputil.WriteData(w, out)
}

// GetVariantTemplate handles GET /api/v1/catalog/categories/{category}/variant-template
func (h *CatalogHandler) GetVariantTemplate(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "category")
	c, ok := domain.ParseCategory(label)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("category", label), h.logger)
		return
	}
	httputil.WriteData(w, domain.VariantTemplateFor(c))
}

// GetPharmacyTemplate handles GET /api/v1/catalog/pharmacie/template
func (h *CatalogHandler) GetPharmacyTemplate(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, catalog.PharmacyTemplate())
}

// ValidatePharmacy handles POST /api/v1/catalog/pharmacie/validate. The
// body is the flat form data; the answer is always 200 with the result.
func (h *CatalogHandler) ValidatePharmacy(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}
	httputil.WriteData(w, catalog.ValidatePharmacy(formValues(raw), h.now().In(h.loc)))
}

// PharmacyMessage handles POST /api/v1/catalog/pharmacie/message. It renders
// the product order text and the link that sends it to the pharmacy's party.
func (h *CatalogHandler) PharmacyMessage(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return
	}
	data := formValues(raw)
	text := catalog.PharmacyMessage(data)
	party := domain.PartyForCategory(domain.CategoryPharmacie)
	httputil.WriteData(w, PharmacyOrderView{
		Message:     text,
		DispatchURL: message.Link(h.baseURL, party.Phone, text),
		Card:        catalog.PharmacyCard(data, h.now().In(h.loc)),
	})
}

// formValues flattens JSON scalars to the strings a form would submit.
func formValues(raw map[string]any) map[string]string {
	data := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			data[k] = v
		default:
			data[k] = fmt.Sprint(v)
		}
	}
	return data
}
