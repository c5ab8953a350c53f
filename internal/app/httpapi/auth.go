package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator valida bearer tokens HS256 emitidos pelo provedor de identidade.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator devolve nil quando não há segredo; um Authenticator nil deixa passar tudo.
func NewAuthenticator(secret, issuer string) *Authenticator {
	if secret == "" {
		return nil
	}
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromRequest(r)
		if err != nil {
			responderErro(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// userFromRequest monta o usuário a partir das claims: sub, name (ou given_name) e family_name.
func (a *Authenticator) userFromRequest(r *http.Request) (domain.User, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return domain.User{}, domain.ErrAuthentication
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return domain.User{}, errors.Join(domain.ErrAuthentication, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.User{}, domain.ErrAuthentication
	}

	user := domain.User{ID: domain.VoterID(sub), Surname: stringClaim(claims, "family_name")}
	user.DisplayName = stringClaim(claims, "name")
	if user.DisplayName == "" {
		user.DisplayName = stringClaim(claims, "given_name")
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}

// UserFromContext devolve o usuário autenticado pelo middleware, se houver.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userKey).(domain.User)
	return user, ok
}

// VoterFromContext devolve o eleitor autenticado pelo middleware, se houver.
func VoterFromContext(ctx context.Context) (domain.VoterID, bool) {
	user, ok := UserFromContext(ctx)
	return user.ID, ok
}
