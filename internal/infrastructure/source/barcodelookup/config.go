package barcodelookup

import (
	"errors"
	"time"
)

// DefaultAPIURL is the production products endpoint
const DefaultAPIURL = "https://api.barcodelookup.com/v3/products"

// Config holds configuration for the BarcodeLookup API
type Config struct {
	// APIKey is sent as the key query parameter
	APIKey string
	// APIURL is the products endpoint
	APIURL string
	// Timeout bounds one lookup request
	Timeout time.Duration
}

// ErrMissingAPIKey is returned by Validate when no API key is configured
var ErrMissingAPIKey = errors.New("barcodelookup: api key is required")

// NewConfig creates a configuration with defaults
func NewConfig(apiKey string) *Config {
	return &Config{
		APIKey:  apiKey,
		APIURL:  DefaultAPIURL,
		Timeout: 30 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
