package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
)

type AccountService struct {
	repo  ports.AccountRepository
	vault ports.CredentialVault
}

func NewAccountService(repo ports.AccountRepository, vault ports.CredentialVault) *AccountService {
	return &AccountService{repo: repo, vault: vault}
}

func CredentialKey(name domain.AccountName) string {
	return fmt.Sprintf("moonbix://%s/query", name)
}

type AddAccountCommand struct {
	Name  domain.AccountName
	Query string
	Proxy string
	// InVault stores the query in the credential vault instead of accounts.toml.
	InVault bool
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Add creates or replaces an account. A vault write is rolled back when the
// account cannot be saved.
func (s *AccountService) Add(ctx context.Context, cmd AddAccountCommand) error {
	name := domain.AccountName(strings.TrimSpace(string(cmd.Name)))
	query := strings.TrimSpace(cmd.Query)

	account := domain.Account{Name: name, Proxy: strings.TrimSpace(cmd.Proxy)}
	if cmd.InVault {
		account.SecretRef = CredentialKey(name)
	} else {
		account.Query = query
	}
	if err := (domain.Credential{Name: name, LoginQuery: query}).Validate(); err != nil {
		return err
	}

	previous, err := s.repo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("get account by name: %w", err)
	}

	if cmd.InVault {
		if err := s.vault.Put(ctx, account.SecretRef, query); err != nil {
			return fmt.Errorf("store login query: %w", err)
		}
	}

	if err := s.repo.Save(ctx, account); err != nil {
		if cmd.InVault && previous.SecretRef != account.SecretRef {
			if rollbackErr := s.vault.Delete(ctx, account.SecretRef); rollbackErr != nil {
				return fmt.Errorf("save account and rollback stored query: %w", errors.Join(err, rollbackErr))
			}
		}
		return fmt.Errorf("save account: %w", err)
	}

	if previous.SecretRef != "" && previous.SecretRef != account.SecretRef {
		if err := s.vault.Delete(ctx, previous.SecretRef); err != nil {
			return fmt.Errorf("delete previous login query: %w", err)
		}
	}

	return nil
}

func (s *AccountService) Remove(ctx context.Context, name domain.AccountName) error {
	account, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get account by name: %w", err)
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if account.SecretRef != "" {
		if err := s.vault.Delete(ctx, account.SecretRef); err != nil {
			if restoreErr := s.repo.Save(ctx, account); restoreErr != nil {
				return fmt.Errorf("delete login query and restore account: %w", errors.Join(err, restoreErr))
			}
			return fmt.Errorf("delete login query: %w", err)
		}
	}

	return nil
}

// Import adds every name/query pair, in name order. It stops at the first failure.
func (s *AccountService) Import(ctx context.Context, queries map[string]string, inVault bool) (int, error) {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		err := s.Add(ctx, AddAccountCommand{
			Name:    domain.AccountName(name),
			Query:   queries[name],
			InVault: inVault,
		})
		if err != nil {
			return i, fmt.Errorf("import account %s: %w", name, err)
		}
	}

	return len(names), nil
}

// FleetEntries resolves credentials for the selected accounts (all when
// only is empty). Positional proxies are matched against the full account
// list so filtering does not shift them; an account's own proxy wins.
func (s *AccountService) FleetEntries(ctx context.Context, only []string, proxies []string) ([]FleetEntry, error) {
	accounts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	selected := make(map[domain.AccountName]bool, len(only))
	for _, name := range only {
		selected[domain.AccountName(strings.TrimSpace(name))] = true
	}

	entries := make([]FleetEntry, 0, len(accounts))
	for i, account := range accounts {
		if len(selected) > 0 && !selected[account.Name] {
			continue
		}
		delete(selected, account.Name)

		credential, err := s.resolve(ctx, account)
		if err != nil {
			return nil, err
		}

		entry := FleetEntry{Credential: credential, Proxy: account.Proxy}
		if entry.Proxy == "" && i < len(proxies) {
			entry.Proxy = proxies[i]
		}
		entries = append(entries, entry)
	}

	if len(selected) > 0 {
		missing := make([]string, 0, len(selected))
		for name := range selected {
			missing = append(missing, string(name))
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("account %s: %w", strings.Join(missing, ", "), domain.ErrAccountNotFound)
	}

	return entries, nil
}

func (s *AccountService) resolve(ctx context.Context, account domain.Account) (domain.Credential, error) {
	if err := account.Validate(); err != nil {
		return domain.Credential{}, err
	}

	query := account.Query
	if query == "" {
		value, err := s.vault.Get(ctx, account.SecretRef)
		if err != nil {
			return domain.Credential{}, fmt.Errorf("account %s: load login query: %w", account.Name, err)
		}
		query = strings.TrimSpace(value)
	}

	credential := domain.Credential{Name: account.Name, LoginQuery: query}
	if err := credential.Validate(); err != nil {
		return domain.Credential{}, err
	}

	return credential, nil
}
