package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/moonbix-cli/internal/adapters/proxylist"
	statusadapter "github.com/bnema/moonbix-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/moonbix-cli/internal/adapters/repo/toml"
	"github.com/bnema/moonbix-cli/internal/adapters/scorer/httpscorer"
	"github.com/bnema/moonbix-cli/internal/adapters/transport/httpapi"
	chainvault "github.com/bnema/moonbix-cli/internal/adapters/vault/chain"
	filevault "github.com/bnema/moonbix-cli/internal/adapters/vault/file"
	passvault "github.com/bnema/moonbix-cli/internal/adapters/vault/pass"
	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/logging"
	"github.com/bnema/moonbix-cli/internal/ports"
	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	proxiesFile = "proxies.txt"
	secretsDir  = "secrets"
	vaultFile   = "file"
	vaultPass   = "pass"
	vaultChain  = "chain"
)

type envConfig struct {
	Home           string        `env:"MBX_HOME"`
	BaseURL        string        `env:"MBX_BASE_URL" envDefault:"https://www.binance.com/bapi/growth/v1"`
	ScorerURL      string        `env:"MBX_SCORER_URL"`
	LogLevel       string        `env:"MBX_LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"MBX_REQUEST_TIMEOUT" envDefault:"20s"`
	// Vault selects where vault-backed login queries live: file, pass, or
	// chain (pass first, file fallback).
	Vault string `env:"MBX_VAULT" envDefault:"chain"`
}

type app struct {
	env            envConfig
	home           string
	accounts       *application.AccountService
	logger         *logrus.Logger
	scorer         ports.GameScorer
	clock          ports.Clock
	statusRenderer func([]application.AccountSnapshot, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	home, err := tomlrepo.ResolveHome(cfg.Home)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	repo, err := tomlrepo.NewRepository(viper.New(), home)
	if err != nil {
		return nil, fmt.Errorf("wire account repository: %w", err)
	}

	vault, err := newVault(cfg.Vault, filepath.Join(home, secretsDir))
	if err != nil {
		return nil, fmt.Errorf("wire credential vault: %w", err)
	}

	return &app{
		env:      cfg,
		home:     home,
		accounts: application.NewAccountService(repo, vault),
		logger:   logger,
		scorer: &httpscorer.Scorer{
			URL:            cfg.ScorerURL,
			RequestTimeout: cfg.RequestTimeout,
		},
		clock:          ports.SystemClock{},
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

func newVault(kind string, fileRoot string) (ports.CredentialVault, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case vaultFile:
		return filevault.NewVault(fileRoot), nil
	case vaultPass:
		return passvault.NewVault(), nil
	case vaultChain, "":
		vault, err := chainvault.NewPassFirstWithFileFallback(fileRoot)
		if err != nil {
			return nil, err
		}
		return vault, nil
	default:
		return nil, fmt.Errorf("unknown vault %q (want %s, %s or %s)", kind, vaultFile, vaultPass, vaultChain)
	}
}

// transportFor builds one API client per account so that every account keeps
// its own proxy and connection pool.
func (a *app) transportFor(entry application.FleetEntry) (ports.Transport, error) {
	httpClient, err := httpapi.NewHTTPClient(entry.Proxy)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", entry.Credential.Name, err)
	}

	return &httpapi.Client{
		BaseURL:        a.env.BaseURL,
		HTTPClient:     httpClient,
		RequestTimeout: a.env.RequestTimeout,
	}, nil
}

func (a *app) loadSettings() (domain.Settings, error) {
	settings, err := tomlrepo.LoadSettings(viper.New(), a.home)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (a *app) loadProxies() ([]string, error) {
	proxies, err := proxylist.Load(filepath.Join(a.home, proxiesFile))
	if err != nil {
		return nil, fmt.Errorf("load proxies: %w", err)
	}
	return proxies, nil
}

func (a *app) fleetEntries(ctx context.Context, only []string) ([]application.FleetEntry, error) {
	proxies, err := a.loadProxies()
	if err != nil {
		return nil, err
	}
	return a.accounts.FleetEntries(ctx, only, proxies)
}

func (a *app) logTo(w io.Writer) {
	a.logger.SetOutput(w)
}
