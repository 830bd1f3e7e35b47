package config

import (
	"os"
	"strconv"
)

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.session-saver/config.yaml"
	SourceProject Source = ".session-saver/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

type resolved struct {
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Output            resolved `json:"output" yaml:"output"`
	Verbose           resolved `json:"verbose" yaml:"verbose"`
	LogLevel          resolved `json:"log_level" yaml:"log_level"`
	SessionsFile      resolved `json:"sessions_file" yaml:"sessions_file"`
	MaxHistory        resolved `json:"max_history" yaml:"max_history"`
	StaleLockAfter    resolved `json:"stale_lock_after" yaml:"stale_lock_after"`
	QuarantineCorrupt resolved `json:"quarantine_corrupt" yaml:"quarantine_corrupt"`
	Advisory          resolved `json:"advisory" yaml:"advisory"`
}

// layer is one configuration source in precedence order.
type layer struct {
	source Source
	cfg    *Config
}

// Resolve returns configuration with source tracking for projectDir.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(projectDir string, flags *Config) *ResolvedConfig {
	homeConfig, _ := loadFromPath(HomeConfigPath())
	projectConfig, _ := loadFromPath(ProjectConfigPath(projectDir))
	envConfig := applyEnv(&Config{})

	layers := []layer{
		{SourceHome, homeConfig},
		{SourceProject, projectConfig},
		{SourceEnv, envConfig},
		{SourceFlag, flags},
	}
	def := Default()

	rc := &ResolvedConfig{
		Output:         resolveString(layers, def.Output, func(c *Config) string { return c.Output }),
		LogLevel:       resolveString(layers, def.LogLevel, func(c *Config) string { return c.LogLevel }),
		SessionsFile:   resolveString(layers, def.SessionsFile, func(c *Config) string { return c.SessionsFile }),
		StaleLockAfter: resolveString(layers, def.StaleLockAfter, func(c *Config) string { return c.StaleLockAfter }),
		MaxHistory: resolveString(layers, strconv.Itoa(def.MaxHistory), func(c *Config) string {
			if c.MaxHistory == 0 {
				return ""
			}
			return strconv.Itoa(c.MaxHistory)
		}),
		QuarantineCorrupt: resolveBool(layers, *def.QuarantineCorrupt, func(c *Config) *bool { return c.QuarantineCorrupt }),
		Advisory:          resolveBool(layers, *def.Advisory, func(c *Config) *bool { return c.Advisory }),
		Verbose:           resolved{Value: false, Source: SourceDefault},
	}

	if n, err := strconv.Atoi(rc.MaxHistory.Value.(string)); err == nil {
		rc.MaxHistory.Value = n
	}

	// Verbose has OR semantics through the chain: it can only be switched on.
	for _, l := range layers {
		if l.cfg != nil && l.cfg.Verbose {
			rc.Verbose = resolved{Value: true, Source: l.source}
		}
	}

	return rc
}

func resolveString(layers []layer, def string, get func(*Config) string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	for _, l := range layers {
		if l.cfg == nil {
			continue
		}
		if v := get(l.cfg); v != "" {
			result = resolved{Value: v, Source: l.source}
		}
	}
	return result
}

func resolveBool(layers []layer, def bool, get func(*Config) *bool) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	for _, l := range layers {
		if l.cfg == nil {
			continue
		}
		if v := get(l.cfg); v != nil {
			result = resolved{Value: *v, Source: l.source}
		}
	}
	return result
}

// ConfigFileStatus reports whether the home and project config files exist.
func ConfigFileStatus(projectDir string) (home, project string, homeFound, projectFound bool) {
	home = HomeConfigPath()
	project = ProjectConfigPath(projectDir)
	if home != "" {
		_, err := os.Stat(home)
		homeFound = err == nil
	}
	if project != "" {
		_, err := os.Stat(project)
		projectFound = err == nil
	}
	return home, project, homeFound, projectFound
}
