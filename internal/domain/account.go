package domain

import (
	"fmt"
	"strings"
)

type AccountName string

// Account is a configured account as persisted in accounts.toml. The login
// query is either inline or referenced through SecretRef.
type Account struct {
	Name      AccountName
	Query     string
	SecretRef string
	Proxy     string
}

// Credential is the resolved login material for one account.
type Credential struct {
	Name       AccountName
	LoginQuery string
}

func (a Account) Validate() error {
	if strings.TrimSpace(string(a.Name)) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(a.Query) == "" && strings.TrimSpace(a.SecretRef) == "" {
		return fmt.Errorf("account %s: query or secret_ref is required", a.Name)
	}

	return nil
}

func (c Credential) Validate() error {
	if strings.TrimSpace(string(c.Name)) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(c.LoginQuery) == "" {
		return fmt.Errorf("account %s: login query is empty", c.Name)
	}

	return nil
}
