package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// tokenResponse is the token endpoint's JSON answer, success or failure
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// refreshToken exchanges the mailbox's refresh token for an access token.
// The exchange is built by hand because x/oauth2 omits scope on refresh.
func (p *Provider) refreshToken(ctx context.Context, mailbox email.GraphMailbox) (*oauth2.Token, error) {
	form := url.Values{
		"client_id":     {mailbox.ClientID},
		"client_secret": {mailbox.ClientSecret},
		"refresh_token": {mailbox.RefreshToken},
		"grant_type":    {"refresh_token"},
		"scope":         {p.cfg.Scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, email.TransportError(mailbox.Name, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, email.TransportError(mailbox.Name, "failed to read token response", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		if resp.StatusCode >= 500 {
			return nil, email.TransportError(mailbox.Name, fmt.Sprintf("token endpoint returned HTTP %d", resp.StatusCode), nil)
		}
		return nil, email.AuthError(mailbox.Name, "token endpoint did not return JSON")
	}

	if tr.AccessToken == "" {
		msg := "token response missing access_token"
		switch {
		case tr.ErrorDescription != "":
			msg = tr.ErrorDescription
		case tr.Error != "":
			msg = tr.Error
		}
		return nil, email.AuthError(mailbox.Name, msg)
	}

	token := &oauth2.Token{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return token, nil
}
