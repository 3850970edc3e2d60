// Package common holds helpers shared by the CLI commands: building the
// service stack from configuration and opening an authenticated session.
package common

import (
	"fmt"

	"github.com/leviipope/finance-dashboard/internal/auth"
	"github.com/leviipope/finance-dashboard/internal/config"
	"github.com/leviipope/finance-dashboard/internal/service"
	"github.com/leviipope/finance-dashboard/internal/session"
	"github.com/leviipope/finance-dashboard/internal/statement"
	"github.com/leviipope/finance-dashboard/internal/storage"
	"github.com/leviipope/finance-dashboard/internal/vault"
)

// Stack bundles the layers a command needs to do real work.
type Stack struct {
	Credentials *auth.CredentialStore
	Vault       *vault.Vault
	Service     *service.Service
}

// BuildStack wires storage, credentials, vault and service from the loaded
// configuration.
func BuildStack(cfg *config.Config) (*Stack, error) {
	backend := storage.NewLocal(cfg.Data.Directory)

	var hideRules []statement.HideRule
	if cfg.Rules.HideRulesPath != "" {
		rules, err := statement.LoadHideRules(cfg.Rules.HideRulesPath)
		if err != nil {
			return nil, fmt.Errorf("error loading hide rules: %w", err)
		}
		hideRules = rules
	}

	creds := auth.NewCredentialStore(backend)
	v := vault.New(backend, creds)
	svc := service.New(v, cfg.Currency.Fallback, hideRules)
	return &Stack{Credentials: creds, Vault: v, Service: svc}, nil
}

// Login authenticates the username/password pair and returns a session.
// An empty username opens a guest session with nothing persisted.
func Login(creds *auth.CredentialStore, username, password string) (*session.Session, error) {
	if username == "" {
		return session.NewGuest(), nil
	}
	if _, err := creds.Authenticate(username, password); err != nil {
		return nil, err
	}
	return session.NewUser(username), nil
}
