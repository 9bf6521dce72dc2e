// Package config provides Viper-based configuration loading for the dungeon simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path. The terminal frontend owns
	// the screen, so interactive runs should log to a file.
	Output string `mapstructure:"output"`
}

// SimulationConfig holds every tunable constant of the combat-and-progression
// simulation. Durations are expressed in ticks; distances in world units.
type SimulationConfig struct {
	TickRate int `mapstructure:"tick_rate"`
	TileSize int `mapstructure:"tile_size"`

	DetectionRange             float64 `mapstructure:"detection_range"`
	MonsterAttackRange         float64 `mapstructure:"monster_attack_range"`
	MonsterAttackCooldownTicks int     `mapstructure:"monster_attack_cooldown_ticks"`
	MonsterMoveSpeed           float64 `mapstructure:"monster_move_speed"`
	MonsterAttackDamage        int     `mapstructure:"monster_attack_damage"`
	MonsterBaseHP              int     `mapstructure:"monster_base_hp"`
	ReturnThreshold            float64 `mapstructure:"return_threshold"`

	PlayerMaxHealth               int     `mapstructure:"player_max_health"`
	PlayerMoveSpeed               float64 `mapstructure:"player_move_speed"`
	PlayerInvincibleDurationTicks int     `mapstructure:"player_invincible_duration_ticks"`
	PlayerAttackRange             float64 `mapstructure:"player_attack_range"`
	PlayerAttackCooldownTicks     int     `mapstructure:"player_attack_cooldown_ticks"`
	// PlayerDamage is a dice expression rolled once per monster hit.
	PlayerDamage string `mapstructure:"player_damage"`

	AttackResolveDelayTicks int `mapstructure:"attack_resolve_delay_ticks"`
	DecayDelayTicks         int `mapstructure:"decay_delay_ticks"`
	HitFlashTicks           int `mapstructure:"hit_flash_ticks"`
	AnimationPeriodTicks    int `mapstructure:"animation_period_ticks"`

	ExpToFirstLevel      int            `mapstructure:"exp_to_first_level"`
	ExpPerKill           map[string]int `mapstructure:"exp_per_kill"`
	LevelExpGrowthFactor float64        `mapstructure:"level_exp_growth_factor"`
	HealthGainPerLevel   int            `mapstructure:"health_gain_per_level"`
}

// TickDuration returns the wall-clock length of one tick.
//
// Precondition: TickRate > 0.
func (s SimulationConfig) TickDuration() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// TickSeconds returns the length of one tick in seconds, used to scale speeds.
//
// Precondition: TickRate > 0.
func (s SimulationConfig) TickSeconds() float64 {
	return 1.0 / float64(s.TickRate)
}

// FrontendConfig selects how the simulation is presented.
type FrontendConfig struct {
	// Mode is "terminal" (interactive tcell screen) or "headless" (log-only run).
	Mode string `mapstructure:"mode"`
	// HeadlessTicks is the number of ticks a headless run advances before exiting.
	HeadlessTicks int `mapstructure:"headless_ticks"`
	// Seed seeds the dice source; 0 selects the crypto-backed source.
	Seed uint64 `mapstructure:"seed"`
	// ScriptInstructionLimit caps Lua opcodes per hook call; 0 uses the default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Frontend   FrontendConfig   `mapstructure:"frontend"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateFrontend(c.Frontend); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	positiveInts := []struct {
		name string
		v    int
	}{
		{"tick_rate", s.TickRate},
		{"tile_size", s.TileSize},
		{"monster_base_hp", s.MonsterBaseHP},
		{"player_max_health", s.PlayerMaxHealth},
		{"exp_to_first_level", s.ExpToFirstLevel},
		{"attack_resolve_delay_ticks", s.AttackResolveDelayTicks},
		{"decay_delay_ticks", s.DecayDelayTicks},
		{"hit_flash_ticks", s.HitFlashTicks},
		{"animation_period_ticks", s.AnimationPeriodTicks},
	}
	for _, p := range positiveInts {
		if p.v < 1 {
			errs = append(errs, fmt.Sprintf("simulation.%s must be >= 1, got %d", p.name, p.v))
		}
	}
	nonNegativeInts := []struct {
		name string
		v    int
	}{
		{"monster_attack_cooldown_ticks", s.MonsterAttackCooldownTicks},
		{"monster_attack_damage", s.MonsterAttackDamage},
		{"player_invincible_duration_ticks", s.PlayerInvincibleDurationTicks},
		{"player_attack_cooldown_ticks", s.PlayerAttackCooldownTicks},
		{"health_gain_per_level", s.HealthGainPerLevel},
	}
	for _, p := range nonNegativeInts {
		if p.v < 0 {
			errs = append(errs, fmt.Sprintf("simulation.%s must be >= 0, got %d", p.name, p.v))
		}
	}
	ranges := []struct {
		name string
		v    float64
	}{
		{"detection_range", s.DetectionRange},
		{"monster_attack_range", s.MonsterAttackRange},
		{"monster_move_speed", s.MonsterMoveSpeed},
		{"player_move_speed", s.PlayerMoveSpeed},
		{"player_attack_range", s.PlayerAttackRange},
		{"return_threshold", s.ReturnThreshold},
	}
	for _, r := range ranges {
		if r.v < 0 {
			errs = append(errs, fmt.Sprintf("simulation.%s must not be negative, got %g", r.name, r.v))
		}
	}
	if s.LevelExpGrowthFactor < 1 {
		errs = append(errs, fmt.Sprintf("simulation.level_exp_growth_factor must be >= 1, got %g", s.LevelExpGrowthFactor))
	}
	if s.PlayerDamage == "" {
		errs = append(errs, "simulation.player_damage must not be empty")
	}
	for kind, exp := range s.ExpPerKill {
		if exp < 0 {
			errs = append(errs, fmt.Sprintf("simulation.exp_per_kill.%s must be >= 0, got %d", kind, exp))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateFrontend(f FrontendConfig) error {
	var errs []string
	validModes := map[string]bool{"terminal": true, "headless": true}
	if !validModes[f.Mode] {
		errs = append(errs, fmt.Sprintf("frontend.mode must be one of [terminal, headless], got %q", f.Mode))
	}
	if f.HeadlessTicks < 0 {
		errs = append(errs, fmt.Sprintf("frontend.headless_ticks must be >= 0, got %d", f.HeadlessTicks))
	}
	if f.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("frontend.script_instruction_limit must be >= 0, got %d", f.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Default returns the configuration used when no file is supplied.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("config: unmarshalling defaults: " + err.Error())
	}
	return cfg
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DUNGEON_ prefix
	v.SetEnvPrefix("DUNGEON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "dungeon.log")

	v.SetDefault("simulation.tick_rate", 60)
	v.SetDefault("simulation.tile_size", 32)
	v.SetDefault("simulation.detection_range", 150.0)
	v.SetDefault("simulation.monster_attack_range", 40.0)
	v.SetDefault("simulation.monster_attack_cooldown_ticks", 60)
	v.SetDefault("simulation.monster_move_speed", 80.0)
	v.SetDefault("simulation.monster_attack_damage", 15)
	v.SetDefault("simulation.monster_base_hp", 8)
	v.SetDefault("simulation.return_threshold", 5.0)
	v.SetDefault("simulation.player_max_health", 100)
	v.SetDefault("simulation.player_move_speed", 150.0)
	v.SetDefault("simulation.player_invincible_duration_ticks", 120)
	v.SetDefault("simulation.player_attack_range", 50.0)
	v.SetDefault("simulation.player_attack_cooldown_ticks", 30)
	v.SetDefault("simulation.player_damage", "1d3")
	v.SetDefault("simulation.attack_resolve_delay_ticks", 30)
	v.SetDefault("simulation.decay_delay_ticks", 30)
	v.SetDefault("simulation.hit_flash_ticks", 12)
	v.SetDefault("simulation.animation_period_ticks", 60)
	v.SetDefault("simulation.exp_to_first_level", 100)
	v.SetDefault("simulation.exp_per_kill", map[string]any{"normal": 10, "elite": 25, "boss": 50})
	v.SetDefault("simulation.level_exp_growth_factor", 1.5)
	v.SetDefault("simulation.health_gain_per_level", 20)

	v.SetDefault("frontend.mode", "terminal")
	v.SetDefault("frontend.headless_ticks", 600)
	v.SetDefault("frontend.seed", 0)
	v.SetDefault("frontend.script_instruction_limit", 0)
}
