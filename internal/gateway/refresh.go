package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TokenResponse is the resume API's token payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// OAuth2Token converts the payload, defaulting the type to Bearer.
func (t TokenResponse) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// refresh renews stale credentials. Concurrent callers share one request;
// a caller arriving after another already rotated the token reuses it. The
// shared request outlives the caller that started it, so one cancelled
// caller cannot fail the refresh for the others.
func (c *Client) refresh(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	ch := c.refreshes.DoChan("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()

		cur := c.tokens.Token()
		if cur == nil {
			return nil, errNoRefreshToken
		}
		if cur.AccessToken != stale.AccessToken {
			return cur, nil
		}
		if cur.RefreshToken == "" {
			return nil, errNoRefreshToken
		}

		var out TokenResponse
		status, body, err := c.send(rctx, http.MethodPost, c.refreshPath,
			mustJSON(map[string]string{"refresh_token": cur.RefreshToken}), nil)
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, &APIError{Status: status, Message: errorMessage(status, body)}
		}
		if err := decodeInto(body, &out); err != nil {
			return nil, err
		}
		if out.AccessToken == "" {
			return nil, fmt.Errorf("refresh response missing access_token")
		}

		fresh := out.OAuth2Token()
		if fresh.RefreshToken == "" {
			fresh.RefreshToken = cur.RefreshToken
		}
		c.tokens.SetToken(fresh)
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*oauth2.Token), nil
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.httpClient != nil && c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return defaultTimeout
}

// isContextErr reports a refresh that was cut short rather than rejected.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
