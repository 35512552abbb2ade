package types

const (
	ContextUserKey = "user"

	// TokenCookieName is the httpOnly cookie carrying the access token.
	TokenCookieName = "token"
)

// Principal is the authenticated caller, resolved once per request by the
// auth middleware.
type Principal struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	RealName string `json:"real_name"`
}
