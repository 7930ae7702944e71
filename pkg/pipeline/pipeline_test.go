package pipeline

import (
	"testing"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/fannkuch"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"yaml", true},
		{"JSON", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code perrors.Code
	}{
		{"valid", Options{N: 7}, ""},
		{"zero size", Options{N: 0}, ""},
		{"largest size", Options{N: fannkuch.MaxN - 1}, ""},
		{"size at bound", Options{N: fannkuch.MaxN}, perrors.ErrCodeInvalidSize},
		{"negative size", Options{N: -1}, perrors.ErrCodeInvalidSize},
		{"negative block count", Options{N: 7, BlockCount: -1}, perrors.ErrCodeInvalidBlockCount},
		{"block count too large", Options{N: 7, BlockCount: fannkuch.MaxBlockCount + 1}, perrors.ErrCodeInvalidBlockCount},
		{"negative workers", Options{N: 7, Workers: -1}, perrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateAndSetDefaults() error: %v", err)
				}
				return
			}
			if !perrors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidateAndSetDefaultsApplied(t *testing.T) {
	opts := Options{N: 9}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if opts.BlockCount != DefaultBlockCount {
		t.Errorf("BlockCount = %d, want %d", opts.BlockCount, DefaultBlockCount)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	opts.BlockCount = 3
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second ValidateAndSetDefaults() error: %v", err)
	}
	if opts.BlockCount != 3 {
		t.Errorf("BlockCount = %d after second call, want 3", opts.BlockCount)
	}
}

func TestOversizeMessage(t *testing.T) {
	opts := Options{N: 16}
	err := opts.ValidateAndSetDefaults()
	if got := perrors.UserMessage(err); got != "value of n must be less than 16" {
		t.Errorf("UserMessage() = %q, want %q", got, "value of n must be less than 16")
	}
}

func TestResultFormat(t *testing.T) {
	r := &Result{N: 7, Result: fannkuch.Result{Checksum: 228, MaxFlips: 16}}
	want := "228\nPfannkuchen(7) = 16"
	if got := r.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestVerificationMatch(t *testing.T) {
	v := &Verification{Engine: fannkuch.Result{Checksum: 2, MaxFlips: 2}, Reference: fannkuch.Result{Checksum: 2, MaxFlips: 2}}
	if !v.Match() {
		t.Error("Match() = false for equal results")
	}
	v.Reference.MaxFlips = 3
	if v.Match() {
		t.Error("Match() = true for different results")
	}
}
