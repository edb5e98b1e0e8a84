package cache

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"minimal", Config{Scope: "Story"}, nil},
		{"missing scope", Config{}, ErrMissingScope},
		{"blank scope", Config{Scope: "  "}, ErrMissingScope},
		{"separator with space", Config{Scope: "Story", Separator: "/ "}, ErrInvalidSeparator},
		{"namespace eats key size", Config{Scope: "Story", KeySize: 5, StoreNamespace: "abcd"}, ErrInvalidKeySize},
		{"tiny but usable", Config{Scope: "Story", KeySize: 20}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate_Defaults(t *testing.T) {
	cfg := Config{Scope: "Story", FindBy: "slug"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.Separator != "/" {
		t.Errorf("Separator = %q, want %q", cfg.Separator, "/")
	}
	if cfg.KeySize != DefaultKeySize {
		t.Errorf("KeySize = %d, want %d", cfg.KeySize, DefaultKeySize)
	}
	if cfg.Finder != "find_by_slug" {
		t.Errorf("Finder = %q, want %q", cfg.Finder, "find_by_slug")
	}

	explicit := Config{Scope: "Story", FindBy: "slug", Finder: "lookup"}
	_ = explicit.Validate()
	if explicit.Finder != "lookup" {
		t.Errorf("explicit Finder overwritten: %q", explicit.Finder)
	}
}

func TestConfigMaxKeyLength(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{"default", Config{}, 250},
		{"custom size", Config{KeySize: 100}, 100},
		{"store namespace and colon subtracted", Config{StoreNamespace: "app"}, 246},
		{"both", Config{KeySize: 50, StoreNamespace: "prod"}, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.MaxKeyLength(); got != tt.want {
				t.Errorf("MaxKeyLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPolicyEffectiveTTL(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		override time.Duration
		want     time.Duration
	}{
		{"zero policy no override", Policy{}, 0, 0},
		{"default used", Policy{DefaultTTL: time.Minute}, 0, time.Minute},
		{"override wins", Policy{DefaultTTL: time.Minute}, 10 * time.Second, 10 * time.Second},
		{"negative override ignored", Policy{DefaultTTL: time.Minute}, -time.Second, time.Minute},
		{"clamped to max", Policy{DefaultTTL: time.Minute, MaxTTL: time.Hour}, 2 * time.Hour, time.Hour},
		{"no expiry clamped to max", Policy{MaxTTL: time.Hour}, 0, time.Hour},
		{"below max untouched", Policy{MaxTTL: time.Hour}, 30 * time.Minute, 30 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}
}
