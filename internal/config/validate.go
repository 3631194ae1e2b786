package config

import (
	"fmt"
	"net/url"
)

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the resolved configuration for internal consistency.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Field: "api_url", Message: fmt.Sprintf("not a valid URL: %q", c.APIURL)}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ValidationError{Field: "api_url", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
		}
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return ValidationError{Field: "api_port", Message: fmt.Sprintf("out of range: %d", c.APIPort)}
	}
	if err := c.ClientType.Validate(); err != nil {
		return ValidationError{Field: "client_type", Message: err.Error()}
	}
	if c.SnapshotKeep < 0 {
		return ValidationError{Field: "snapshots.keep", Message: "must be non-negative"}
	}
	if c.CheckInterval <= 0 {
		return ValidationError{Field: "check_interval", Message: "must be positive"}
	}
	if c.LiveEdit.InitialDelay <= 0 || c.LiveEdit.MaxDelay < c.LiveEdit.InitialDelay {
		return ValidationError{Field: "live_edit", Message: "delays must be positive and max_delay >= initial_delay"}
	}
	if c.LiveEdit.MaxRetries < 0 {
		return ValidationError{Field: "live_edit.max_retries", Message: "must be non-negative"}
	}
	return nil
}
