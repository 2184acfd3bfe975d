package icecat

import (
	"errors"
	"time"
)

// DefaultAPIURL is the live JSON product endpoint
const DefaultAPIURL = "https://live.icecat.biz/api"

// Config holds configuration for the Icecat JSON API
type Config struct {
	// Username is the Icecat shop name, also used for Basic auth
	Username string
	// Password is the Icecat account password
	Password string
	// APIURL is the product endpoint
	APIURL string
	// Timeout bounds one product request
	Timeout time.Duration
}

// Errors for Icecat configuration
var (
	ErrMissingUsername = errors.New("icecat: username is required")
	ErrMissingPassword = errors.New("icecat: password is required")
)

// NewConfig creates a configuration with defaults
func NewConfig(username, password string) *Config {
	return &Config{
		Username: username,
		Password: password,
		APIURL:   DefaultAPIURL,
		Timeout:  30 * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Username == "" {
		return ErrMissingUsername
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}
