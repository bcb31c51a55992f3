package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
)

const (
	vaultDirMode  = 0o700
	entryFileMode = 0o600
	keySchemeSep  = "://"
)

// Vault keeps one login query per file under root. Keys may carry a
// scheme prefix such as moonbix://alice/query; the scheme is not part of
// the on-disk path.
type Vault struct {
	root string
	mu   sync.RWMutex
}

var _ ports.CredentialVault = (*Vault)(nil)

func NewVault(root string) *Vault {
	return &Vault{root: filepath.Clean(root)}
}

func (v *Vault) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := v.pathForKey(key)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), vaultDirMode); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(value), entryFileMode); err != nil {
		return fmt.Errorf("write vault entry %q: %w", key, err)
	}

	return nil
}

func (v *Vault) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := v.pathForKey(key)
	if err != nil {
		return "", err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("vault entry %q: %w", key, domain.ErrCredentialNotFound)
		}
		return "", fmt.Errorf("read vault entry %q: %w", key, err)
	}

	return string(data), nil
}

// Delete succeeds when the entry is already gone.
func (v *Vault) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := v.pathForKey(key)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete vault entry %q: %w", key, err)
	}

	return nil
}

func (v *Vault) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if _, rest, ok := strings.Cut(trimmed, keySchemeSep); ok {
		trimmed = rest
	}
	if trimmed == "" {
		return "", errors.New("vault key is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid vault key %q", key)
	}

	return filepath.Join(v.root, cleaned), nil
}
