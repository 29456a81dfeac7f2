package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/groovycheck/pkg/debug"
)

// LoadEnvironment loads the testbed document.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env in the working directory, if present
//  3. YAML file (explicit path, GROOVYCHECK_TESTBED env, DefaultTestbedPath)
//  4. GROOVYCHECK_* environment overrides
//  5. File reference resolution (_file suffix)
//  6. Validation
func LoadEnvironment(path string) (*Environment, error) {
	cfg := DefaultEnvironment()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	filePath := discoverFile(path, "GROOVYCHECK_TESTBED", DefaultTestbedPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading testbed %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if cfg.PasswordFile != "" && cfg.Password == "" {
		val, err := readSecretFile(cfg.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("resolving file references: password_file: %w", err)
		}
		cfg.Password = val
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("testbed validation: %w", err)
	}

	debug.Log("config", "testbed loaded", "file", filePath, "endpoint", cfg.Endpoint, "username", cfg.Username)
	return &cfg, nil
}

// LoadValidation loads the validation fixtures document.
// Discovery order: explicit path, GROOVYCHECK_VALIDATION env, DefaultValidationPath.
func LoadValidation(path string) (*Validation, error) {
	cfg := DefaultValidation()

	filePath := discoverFile(path, "GROOVYCHECK_VALIDATION", DefaultValidationPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading validation config %s: %w", filePath, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation config validation: %w", err)
	}

	debug.Log("config", "validation config loaded",
		"file", filePath,
		"auth_users", len(cfg.AuthUsers),
		"sample_codes", len(cfg.SampleCodes),
	)
	return &cfg, nil
}

// discoverFile returns the explicit path, the path named by envKey, or
// fallback if it exists. Returns empty string if nothing is found.
func discoverFile(path, envKey, fallback string) string {
	if path != "" {
		return path
	}
	if envPath := os.Getenv(envKey); envPath != "" {
		return envPath
	}
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return ""
}

// loadDotEnv loads KEY=VALUE pairs into the process environment. A missing
// file is not an error. Existing variables win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// loadYAMLFile reads and parses a YAML file into out.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// applyEnvOverrides maps GROOVYCHECK_* environment variables onto the testbed.
func applyEnvOverrides(cfg *Environment) error {
	if v := os.Getenv("GROOVYCHECK_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("GROOVYCHECK_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("GROOVYCHECK_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("GROOVYCHECK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GROOVYCHECK_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
