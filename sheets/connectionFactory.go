package sheets

import (
	"net/http"

	"github.com/sheetsql/sheets-client-go/processing"
)

// New creates a sheets connection for public sheets with default settings.
func New() (*Connection, error) {
	return NewWithConfig(&ClientConfig{})
}

// NewWithConfig create a new sheets connection.
func NewWithConfig(config *ClientConfig) (*Connection, error) {
	return NewWithConfigAndClient(config, &http.Client{})
}

// NewWithConfigAndClient create a new sheets connection that sends its requests
// through httpClient.
func NewWithConfigAndClient(config *ClientConfig, httpClient *http.Client) (*Connection, error) {
	if _, err := acceptEncoding(config.Compression); err != nil {
		return nil, err
	}
	if config.HTTPTimeout != 0 {
		httpClient.Timeout = config.HTTPTimeout
	}
	if config.ServiceAccountFile != "" {
		client, err := newServiceAccountClient(httpClient, config.ServiceAccountFile, config.Subject)
		if err != nil {
			return nil, err
		}
		httpClient = client
	}
	return &Connection{
		transport: &jsonHTTPClientTransport{
			client:      httpClient,
			header:      config.ExtraHTTPHeader,
			compression: config.Compression,
		},
		pipeline: processing.NewPipeline(),
		columns:  newColumnMapCache(),
		headers:  config.Headers,
	}, nil
}
