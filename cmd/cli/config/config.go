package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".lending_token"
)

// APIURL returns the base URL for the lending API.
// It can be overridden with the LENDING_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("LENDING_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// TokenPath is where login stores the JWT. LENDING_TOKEN_FILE overrides the default in the home directory.
func TokenPath() string {
	if v := os.Getenv("LENDING_TOKEN_FILE"); v != "" {
		return v
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return tokenFileName
	}
	return filepath.Join(dir, tokenFileName)
}

func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0o600)
}

// ReadToken returns the stored token, or an error telling the user to log in.
func ReadToken() (string, error) {
	data, err := os.ReadFile(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", errors.New("not logged in: run `lending login` first")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func RemoveToken() error {
	err := os.Remove(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
