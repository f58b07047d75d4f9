package sheets

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

const spreadsheetsReadonlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// newServiceAccountConfig reads a service account key. subject, when set, is
// the user impersonated through domain-wide delegation.
func newServiceAccountConfig(keyFile string, subject string) (*jwt.Config, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}
	config, err := google.JWTConfigFromJSON(data, spreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account file %s: %w", keyFile, err)
	}
	config.Subject = subject
	return config, nil
}

// newServiceAccountClient returns an HTTP client authorizing its requests as the
// service account. Its transport wraps base's.
func newServiceAccountClient(base *http.Client, keyFile string, subject string) (*http.Client, error) {
	config, err := newServiceAccountConfig(keyFile, subject)
	if err != nil {
		return nil, err
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := config.Client(ctx)
	client.Timeout = base.Timeout
	return client, nil
}
