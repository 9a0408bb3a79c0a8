package config

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/randalmurphal/omnibus/pkg/omnibus"
	"github.com/randalmurphal/omnibus/pkg/omnibus/observability"
	"github.com/randalmurphal/omnibus/pkg/omnibus/policy"
)

// DefaultName names channels built from Settings that leave name unset.
const DefaultName = "omnibus"

// Settings is the typed view of a configuration document:
//
//	name: checkout
//	log_level: debug
//	metrics: true
//	tracing: false
//	default_policy: queued
//	services:
//	  search:
//	    policy: restarting
type Settings struct {
	Name          string
	LogLevel      slog.Level
	Metrics       bool
	Tracing       bool
	DefaultPolicy policy.Policy
	Services      map[string]ServiceSettings
}

// ServiceSettings holds per-namespace overrides.
type ServiceSettings struct {
	Policy policy.Policy
}

// Load reads path with FromFile and decodes its Settings.
func Load(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return cfg.Settings()
}

// Settings decodes the typed view. Unknown keys are ignored; a log level or
// policy name that does not parse is an error naming the offending key.
func (c Config) Settings() (Settings, error) {
	s := Settings{
		Name:     c.String("name", DefaultName),
		Metrics:  c.Bool("metrics", false),
		Tracing:  c.Bool("tracing", false),
		Services: map[string]ServiceSettings{},
	}

	if lvl := c.String("log_level", ""); lvl != "" {
		if err := s.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Settings{}, fmt.Errorf("log_level: %w", err)
		}
	}

	var err error
	if s.DefaultPolicy, err = parsePolicy(c, "default_policy", policy.Parallel); err != nil {
		return Settings{}, err
	}

	services := c.Sub("services")
	for _, ns := range services.Keys() {
		p, err := parsePolicy(services.Sub(ns), "policy", s.DefaultPolicy)
		if err != nil {
			return Settings{}, fmt.Errorf("services.%s.%w", ns, err)
		}
		s.Services[ns] = ServiceSettings{Policy: p}
	}
	return s, nil
}

func parsePolicy(c Config, key string, def policy.Policy) (policy.Policy, error) {
	name := c.String(key, "")
	if name == "" {
		return def, nil
	}
	p, err := policy.Parse(name)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return p, nil
}

// PolicyFor returns the policy configured for namespace ns, falling back to
// DefaultPolicy.
func (s Settings) PolicyFor(ns string) policy.Policy {
	if svc, ok := s.Services[ns]; ok {
		return svc.Policy
	}
	return s.DefaultPolicy
}

// Logger returns a text logger writing to w at LogLevel.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: s.LogLevel}))
}

// ChannelOptions returns the channel options these settings imply: the
// name, the given logger, and OpenTelemetry metrics and tracing when enabled.
func (s Settings) ChannelOptions(logger *slog.Logger) []omnibus.Option {
	opts := []omnibus.Option{omnibus.WithName(s.Name), omnibus.WithLogger(logger)}
	if s.Metrics {
		opts = append(opts, omnibus.WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		opts = append(opts, omnibus.WithSpanManager(observability.NewSpanManager()))
	}
	return opts
}
