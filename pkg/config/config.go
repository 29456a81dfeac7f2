// Package config provides the two configuration documents that drive a
// groovycheck run: the environment (testbed) and the validation fixtures.
//
// Each document is loaded with a layered approach:
//  1. Built-in defaults
//  2. Optional .env file (never overrides variables already set)
//  3. YAML file
//  4. Environment variable overrides (GROOVYCHECK_ prefix, environment only)
//  5. File reference resolution (_file suffix fields)
//  6. Validation
//
// Both documents are loaded once and are read-only afterwards.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rhuss/groovycheck/pkg/api"
)

// Default file locations, relative to the working directory.
const (
	DefaultTestbedPath    = "resources/testbeds/local_host.yml"
	DefaultValidationPath = "resources/validation/validation_config.yml"
	DefaultTestDataDir    = "resources/test_data"
)

// Environment describes the service under test.
type Environment struct {
	Endpoint     string        `yaml:"endpoint"`      // required
	Username     string        `yaml:"username"`      // default principal
	Password     string        `yaml:"password"`      // default principal
	PasswordFile string        `yaml:"password_file"` // _file variant for password
	Timeout      time.Duration `yaml:"timeout"`       // default: 0 (transport default)
}

// Credential returns the default principal.
func (e *Environment) Credential() api.Credential {
	return api.NewCredential(e.Username, e.Password)
}

// Validation holds the read-only reference data used by the scenarios.
type Validation struct {
	AuthUsers              [][]string `yaml:"auth_users"`
	InvalidCode            []string   `yaml:"invalid_code"`
	SpecialCharactersCodes []string   `yaml:"special_characters_codes"`
	SampleCodes            []string   `yaml:"sample_codes"`
	ExecutionStatus        []string   `yaml:"execution_status"`
	TestFileName           string     `yaml:"test_file_name"`
	TestDataDir            string     `yaml:"test_data_dir"` // default: resources/test_data
}

// Credentials converts the auth_users pairs into credentials.
// Entries are validated to be pairs by Validate.
func (v *Validation) Credentials() []api.Credential {
	creds := make([]api.Credential, 0, len(v.AuthUsers))
	for _, pair := range v.AuthUsers {
		if len(pair) != 2 {
			continue
		}
		creds = append(creds, api.NewCredential(pair[0], pair[1]))
	}
	return creds
}

// Statuses returns execution_status as typed values.
func (v *Validation) Statuses() []api.ExecutionStatus {
	out := make([]api.ExecutionStatus, len(v.ExecutionStatus))
	for i, s := range v.ExecutionStatus {
		out[i] = api.ExecutionStatus(s)
	}
	return out
}

// LargeCodePath returns the path of the large code sample.
func (v *Validation) LargeCodePath() string {
	return filepath.Join(v.TestDataDir, v.TestFileName)
}

// LargeCode reads the large code sample referenced by test_file_name.
func (v *Validation) LargeCode() (string, error) {
	if v.TestFileName == "" {
		return "", fmt.Errorf("test_file_name is not set")
	}
	data, err := os.ReadFile(v.LargeCodePath())
	if err != nil {
		return "", fmt.Errorf("reading large code sample: %w", err)
	}
	return string(data), nil
}

// DefaultEnvironment returns an Environment with all default values filled in.
func DefaultEnvironment() Environment {
	return Environment{}
}

// DefaultValidation returns a Validation with all default values filled in.
func DefaultValidation() Validation {
	statuses := api.AllStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return Validation{
		ExecutionStatus: names,
		TestDataDir:     DefaultTestDataDir,
	}
}
