package board

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// ClientOptions configures a remote client implementation. Zero values fall
// back to the implementation's defaults.
type ClientOptions struct {
	// Endpoint is the service's GraphQL endpoint.
	Endpoint string
	// Token authenticates every request.
	Token string
	// HTTPClient overrides the transport.
	HTTPClient *http.Client
	// PageLimit caps listing page sizes.
	PageLimit int
	// Logger receives request failure logs.
	Logger *logrus.Logger
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// NewClientOptions folds the provided options into a ClientOptions value.
func NewClientOptions(options ...ClientOption) ClientOptions {
	var cfg ClientOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(cfg *ClientOptions) { cfg.Endpoint = endpoint }
}

// WithToken sets the API token sent on every request.
func WithToken(token string) ClientOption {
	return func(cfg *ClientOptions) { cfg.Token = token }
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(cfg *ClientOptions) { cfg.HTTPClient = httpClient }
}

// WithPageLimit caps listing page sizes.
func WithPageLimit(limit int) ClientOption {
	return func(cfg *ClientOptions) { cfg.PageLimit = limit }
}

// WithLogger injects a logger for request failures.
func WithLogger(log *logrus.Logger) ClientOption {
	return func(cfg *ClientOptions) { cfg.Logger = log }
}
