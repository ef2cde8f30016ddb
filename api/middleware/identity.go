package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/avelasquez/gearshare-backend/api/responses"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
)

// UserIDHeader carries the caller identity, set by the upstream gateway.
const UserIDHeader = "X-Sharer-User-Id"

// Identity requires the gateway identity header on every request it wraps
// and makes the parsed user id available downstream.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity header required"))
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity header"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
