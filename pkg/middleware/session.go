package middleware

import (
	"net/http"
	"regexp"

	"github.com/lbksmart/storefront/pkg/httputil"
	"github.com/lbksmart/storefront/pkg/logger"
)

// SessionHeader identifies the browser session that owns a cart.
const SessionHeader = "X-Session-ID"

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// RequireSession rejects requests without a well-formed session header and
// stores the session id in the context for SessionFromContext.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := r.Header.Get(SessionHeader)
		if !sessionPattern.MatchString(session) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "MISSING_SESSION",
					Message:   "header " + SessionHeader + " is required (8-128 characters of [A-Za-z0-9_-])",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
			return
		}
		ctx := logger.WithSessionID(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session id set by RequireSession.
func SessionFromContext(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
