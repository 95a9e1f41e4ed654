package main

import (
	"context"
	"fmt"

	"github.com/faxmishok/passave-server/internal/oauth/google"
)

// disabledFederation responde error en todo camino federado cuando Google
// no está configurado. Mantiene el wiring simple sin nil checks.
type disabledFederation struct{}

var errFederationDisabled = fmt.Errorf("federated login is not configured")

func (disabledFederation) AuthURL(context.Context, string) (string, error) {
	return "", errFederationDisabled
}

func (disabledFederation) ExchangeCode(context.Context, string) (*google.TokenResponse, error) {
	return nil, errFederationDisabled
}

func (disabledFederation) FetchProfile(context.Context, *google.TokenResponse) (*google.Profile, error) {
	return nil, errFederationDisabled
}
