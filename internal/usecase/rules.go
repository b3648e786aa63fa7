package usecase

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/zakupnik/backend/internal/brand"
	"github.com/zakupnik/backend/internal/classify"
	"github.com/zakupnik/backend/internal/guard"
	"github.com/zakupnik/backend/internal/search"
)

// Rules is one immutable snapshot of every compiled rule table plus the
// engine assembled over them. Swapped whole; never mutated.
type Rules struct {
	Classifier *classify.Classifier
	Brands     *brand.Resolver
	Tables     *guard.Tables
	Engine     *search.Engine
}

// rulesFile is the on-disk override format: one YAML document with a
// section per table. Absent sections keep the built-in defaults.
type rulesFile struct {
	Classification *classify.Config `yaml:"classification,omitempty"`
	Guards         *guard.Config    `yaml:"guards,omitempty"`
	Brands         *brand.Config    `yaml:"brands,omitempty"`
}

// RuleProvider owns the current rule snapshot and its reload. Reload is
// all-or-nothing: a file that fails to parse or compile leaves the
// serving snapshot untouched.
type RuleProvider struct {
	path    string
	opts    search.Options
	log     zerolog.Logger
	current atomic.Pointer[Rules]
}

// NewRuleProvider compiles the initial snapshot. An empty path serves
// the built-in tables.
func NewRuleProvider(path string, opts search.Options, log zerolog.Logger) (*RuleProvider, error) {
	p := &RuleProvider{path: path, opts: opts, log: log}
	rules, err := buildRules(path, opts)
	if err != nil {
		return nil, err
	}
	p.current.Store(rules)
	return p, nil
}

// Current returns the serving snapshot.
func (p *RuleProvider) Current() *Rules {
	return p.current.Load()
}

// Reload recompiles the rule file and atomically swaps the snapshot.
func (p *RuleProvider) Reload() error {
	rules, err := buildRules(p.path, p.opts)
	if err != nil {
		p.log.Error().Err(err).Str("path", p.path).Msg("rules reload failed, keeping current snapshot")
		return err
	}
	p.current.Store(rules)
	p.log.Info().Str("path", p.path).Msg("rule tables reloaded")
	return nil
}

// buildRules compiles a complete snapshot from the override file, filling
// omitted sections from the built-in defaults.
func buildRules(path string, opts search.Options) (*Rules, error) {
	var file rulesFile
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse rules file: %w", err)
		}
	}

	ruleSet := classify.DefaultRuleSet()
	if file.Classification != nil {
		rs, err := classify.NewRuleSet(*file.Classification)
		if err != nil {
			return nil, fmt.Errorf("classification rules: %w", err)
		}
		ruleSet = rs
	}
	classifier := classify.NewClassifier(ruleSet)

	tables := guard.DefaultTables()
	if file.Guards != nil {
		t, err := guard.NewTables(*file.Guards)
		if err != nil {
			return nil, fmt.Errorf("guard tables: %w", err)
		}
		tables = t
	}

	brands := brand.DefaultResolver()
	if file.Brands != nil {
		r, err := brand.NewResolver(*file.Brands)
		if err != nil {
			return nil, fmt.Errorf("brand tables: %w", err)
		}
		brands = r
	}

	return &Rules{
		Classifier: classifier,
		Brands:     brands,
		Tables:     tables,
		Engine:     search.NewEngine(classifier, brands, tables, opts),
	}, nil
}
