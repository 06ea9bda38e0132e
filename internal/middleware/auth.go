package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/benchmarket/benchchat/internal/model/chat"
	"github.com/benchmarket/benchchat/internal/model/company"
	"github.com/benchmarket/benchchat/pkg/utils"
)

type identityKey struct{}

// Auth resolves the bearer token to a company identity. Websocket clients
// that cannot set headers may pass the token as the "token" query value.
func Auth(store company.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			id, ok := store.ResolveToken(token)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id chat.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by Auth.
func IdentityFrom(ctx context.Context) (chat.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(chat.Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
