package invest

import (
	"context"
	"errors"
	"net/http"
)

// TokenStatus is the explicit outcome of a token validation probe.
type TokenStatus string

const (
	// TokenValid means the API accepted the token.
	TokenValid TokenStatus = "valid"
	// TokenInvalid means the API rejected the token as unauthorised.
	TokenInvalid TokenStatus = "invalid"
	// TokenUnreachable means the probe could not reach a verdict.
	TokenUnreachable TokenStatus = "unreachable"
)

// ValidateToken probes the API with the token and returns an explicit
// tri-state verdict. The error adds detail for the non-valid states.
func (c *Client) ValidateToken(ctx context.Context, token string) (TokenStatus, error) {
	_, err := c.UserInfo(ctx, token)
	if err == nil {
		return TokenValid, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return TokenInvalid, err
		}
	}
	return TokenUnreachable, err
}
