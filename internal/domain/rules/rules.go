// Package rules loads the per-entity clearing rule files.
//
// A rule file maps entity codes to their country and GL accounts, and each
// account to an ordered list of matching criterion codes. Rules are loaded
// once per run and treated as read-only input by the matching engine.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoActiveEntity is returned when the rule file contains no entity that
// is both active and has at least one active account.
var ErrNoActiveEntity = errors.New("no active entity in clearing rules")

// Account holds the matching configuration of one GL account.
type Account struct {
	Active   bool     `yaml:"active"`
	Criteria []string `yaml:"criteria"`
}

// Entity holds the clearing configuration of one accounting entity.
type Entity struct {
	Active   bool               `yaml:"active"`
	Country  string             `yaml:"country"`
	Accounts map[string]Account `yaml:"accounts"`
}

// Set maps entity codes to their clearing configuration. A loaded Set
// contains active entities only.
type Set map[string]Entity

// ActiveAccounts returns the account ids with matching enabled.
func (e Entity) ActiveAccounts() []string {
	var accs []string
	for id, acc := range e.Accounts {
		if acc.Active {
			accs = append(accs, id)
		}
	}
	return accs
}

// Load reads and parses a clearing rule file, dropping inactive entities
// and entities without any active account. Returns ErrNoActiveEntity when
// nothing is left after filtering.
func Load(path string, logger *slog.Logger) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading clearing rules: %w", err)
	}
	return Parse(data, logger)
}

// Parse filters a raw rule document down to the active entity set.
func Parse(data []byte, logger *slog.Logger) (Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var all Set
	if err := yaml.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parsing clearing rules: %w", err)
	}

	active := make(Set)
	for code, entity := range all {
		if !entity.Active {
			logger.Warn("Entity excluded from clearing by rule settings",
				"entity", code)
			continue
		}
		if len(entity.ActiveAccounts()) == 0 {
			logger.Warn("Entity excluded from clearing: active but has no active accounts",
				"entity", code)
			continue
		}
		active[code] = entity
	}

	if len(active) == 0 {
		return nil, ErrNoActiveEntity
	}
	return active, nil
}

// Entities returns the entity codes of the set in unspecified order.
func (s Set) Entities() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	return codes
}
