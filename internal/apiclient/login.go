package apiclient

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	api "github.com/mind-engage/mindengage-revise/pkg/revisionapi"
)

const clientID = "revise-cli"

// LoginResult is either a token or a request to verify an OTP first.
type LoginResult struct {
	Token       string
	RequiresOTP bool
	UserID      int64
}

// Login runs the OAuth2 resource-owner password grant against
// /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	cfg := oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/auth/login",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http.GetClient())
	tok, err := cfg.PasswordCredentialsToken(ctx, email, password)
	if err == nil {
		return LoginResult{Token: tok.AccessToken}, nil
	}

	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return LoginResult{}, errors.Wrap(err, "login")
	}
	if re.Response.StatusCode == http.StatusForbidden {
		var need api.OTPRequired
		if json.Unmarshal(re.Body, &need) == nil && need.RequiresOTP {
			return LoginResult{RequiresOTP: true, UserID: need.UserID}, nil
		}
	}
	var eb api.ErrorBody
	_ = json.Unmarshal(re.Body, &eb)
	return LoginResult{}, &Error{Status: re.Response.StatusCode, Detail: eb.Detail}
}
