package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOAN_PERIOD_DAYS", "")
	t.Setenv("STORE_TIMEOUT_SECONDS", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()
	if cfg.LoanPeriod != 7*24*time.Hour {
		t.Errorf("LoanPeriod: got %v, want 168h", cfg.LoanPeriod)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("StoreTimeout: got %v, want 5s", cfg.StoreTimeout)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins: got %v, want nil", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOAN_PERIOD_DAYS", "14")
	t.Setenv("STORE_TIMEOUT_SECONDS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MIGRATE_ON_START", "true")

	cfg := Load()
	if cfg.LoanPeriod != 14*24*time.Hour {
		t.Errorf("LoanPeriod: got %v", cfg.LoanPeriod)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("StoreTimeout: got %v", cfg.StoreTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart: want true")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev default secret", Config{Env: "dev", JWTSecret: defaultJWTSecret}, false},
		{"prod default secret", Config{Env: "prod", JWTSecret: defaultJWTSecret}, true},
		{"prod custom secret", Config{Env: "prod", JWTSecret: "s3cret"}, false},
		{"half tls", Config{Env: "dev", TLSCertFile: "cert.pem"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate: err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}
