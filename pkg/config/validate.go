package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rhuss/groovycheck/pkg/api"
)

// Validate checks the testbed for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (e *Environment) Validate() error {
	var errs []error

	// endpoint is required and must be an absolute http(s) URL.
	if e.Endpoint == "" {
		errs = append(errs, fmt.Errorf("endpoint is required"))
	} else if u, err := url.Parse(e.Endpoint); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("endpoint must be an absolute http or https URL, got %q", e.Endpoint))
	}

	if e.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %v", e.Timeout))
	}

	return errors.Join(errs...)
}

// Validate checks the fixtures document.
func (v *Validation) Validate() error {
	var errs []error

	if len(v.AuthUsers) == 0 {
		errs = append(errs, fmt.Errorf("auth_users must list at least one user"))
	}
	for i, pair := range v.AuthUsers {
		if len(pair) != 2 {
			errs = append(errs, fmt.Errorf("auth_users[%d] must be a [username, password] pair, got %d elements", i, len(pair)))
			continue
		}
		if pair[0] == "" {
			errs = append(errs, fmt.Errorf("auth_users[%d] username is empty", i))
		}
	}

	if len(v.ExecutionStatus) == 0 {
		errs = append(errs, fmt.Errorf("execution_status must not be empty"))
	}
	for i, s := range v.ExecutionStatus {
		if !api.ExecutionStatus(s).Valid() {
			errs = append(errs, fmt.Errorf("execution_status[%d] = %q is not a known status", i, s))
		}
	}

	return errors.Join(errs...)
}
