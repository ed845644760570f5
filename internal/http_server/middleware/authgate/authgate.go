package authgate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"account_service/internal/auth"
	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type accountKey struct{}

// Protect admits only requests carrying a valid session token and attaches
// the resolved account to the request context.
func Protect(log *slog.Logger, authService *auth.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authgate.Protect"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			account, err := authService.Authorize(r.Context(), extractToken(r))
			if err != nil {
				log.Info("request rejected", sl.Err(err))

				status, body := resp.Translate(err)
				render.Status(r, status)
				render.JSON(w, r, body)

				return
			}

			ctx := context.WithValue(r.Context(), accountKey{}, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo gates an already-admitted request on role membership. It must
// be mounted after Protect; without an account in context the request is
// rejected as not logged in.
func RestrictTo(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authgate.RestrictTo"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			account, ok := AccountFromContext(r.Context())
			if !ok {
				status, body := resp.Translate(auth.ErrNotLoggedIn)
				render.Status(r, status)
				render.JSON(w, r, body)

				return
			}

			if err := auth.RequireRole(account, roles...); err != nil {
				log.Info("role rejected",
					slog.String("role", string(account.Role)),
					slog.Int64("id", account.ID),
				)

				status, body := resp.Translate(err)
				render.Status(r, status)
				render.JSON(w, r, body)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AccountFromContext(ctx context.Context) (models.Account, bool) {
	account, ok := ctx.Value(accountKey{}).(models.Account)

	return account, ok
}

// * extractToken берет токен из заголовка Authorization или из cookie
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}

		return ""
	}

	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}

	return ""
}
