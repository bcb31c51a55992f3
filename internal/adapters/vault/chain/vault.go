package chain

import (
	"context"
	"errors"
	"fmt"

	filevault "github.com/bnema/moonbix-cli/internal/adapters/vault/file"
	passvault "github.com/bnema/moonbix-cli/internal/adapters/vault/pass"
	"github.com/bnema/moonbix-cli/internal/ports"
)

// Vault tries primary first and falls back on any error except cancellation.
type Vault struct {
	primary  ports.CredentialVault
	fallback ports.CredentialVault
}

var _ ports.CredentialVault = (*Vault)(nil)

var (
	errNilPrimaryVault  = errors.New("primary vault is nil")
	errNilFallbackVault = errors.New("fallback vault is nil")
)

func NewVault(primary ports.CredentialVault, fallback ports.CredentialVault) (*Vault, error) {
	if primary == nil {
		return nil, errNilPrimaryVault
	}
	if fallback == nil {
		return nil, errNilFallbackVault
	}

	return &Vault{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(fileRoot string) (*Vault, error) {
	return NewVault(passvault.NewVault(), filevault.NewVault(fileRoot))
}

func (v *Vault) Put(ctx context.Context, key string, value string) error {
	err := v.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := v.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary vault put failed: %w; fallback vault put failed: %w", err, fallbackErr)
}

func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	value, err := v.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := v.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary vault get failed: %w; fallback vault get failed: %w", err, fallbackErr)
}

func (v *Vault) Delete(ctx context.Context, key string) error {
	err := v.primary.Delete(ctx, key)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := v.fallback.Delete(ctx, key)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary vault delete failed: %w; fallback vault delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
