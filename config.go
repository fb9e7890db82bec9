package main

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigName = "turret.cfg.json"
	EnvPrefix  = "TURRET"

	DefaultWorldWidth  = 800.0
	DefaultWorldHeight = 600.0
	DefaultPlatformVX  = 100.0 // m/s along +X
	DefaultMinSpeed    = 50.0  // screen frame stall speed

	DefaultSpeedMultiplierGrowth = 0.02
	DefaultSpawnIntervalFloor    = 0.3
	DefaultSpawnIntervalBase     = 1.2
	DefaultSpawnIntervalDecay    = 0.05
)

// FieldConfig describes the playfield and the turret mount
type FieldConfig struct {
	Width       float64 `json:"width" mapstructure:"width"`
	Height      float64 `json:"height" mapstructure:"height"`
	TurretX     float64 `json:"turretX" mapstructure:"turretX"`
	TurretY     float64 `json:"turretY" mapstructure:"turretY"`
	TrailLength int     `json:"trailLength" mapstructure:"trailLength"`
	AimHorizon  float64 `json:"aimHorizon" mapstructure:"aimHorizon"`
	AimStep     float64 `json:"aimStep" mapstructure:"aimStep"`
	Seed        int64   `json:"seed" mapstructure:"seed"` // 0 = seed from clock
}

// PhysicsConfig holds the projectile flight parameters
type PhysicsConfig struct {
	DragParams  `mapstructure:",squash"`
	PlatformVX  float64 `json:"platformVX" mapstructure:"platformVX"`
	PlatformVY  float64 `json:"platformVY" mapstructure:"platformVY"`
	MuzzleSpeed float64 `json:"muzzleSpeed" mapstructure:"muzzleSpeed"`
	Frame       string  `json:"frame" mapstructure:"frame"`
	MinSpeed    float64 `json:"minSpeed" mapstructure:"minSpeed"`
	Margin      float64 `json:"margin" mapstructure:"margin"`
}

// EnemyConfig holds hostile spawn and hitbox parameters
type EnemyConfig struct {
	MinSpeed    float64 `json:"minSpeed" mapstructure:"minSpeed"`
	MaxSpeed    float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	SpawnMargin float64 `json:"spawnMargin" mapstructure:"spawnMargin"`
	LaneMargin  float64 `json:"laneMargin" mapstructure:"laneMargin"`
	HitWidth    float64 `json:"hitWidth" mapstructure:"hitWidth"`
	HitHeight   float64 `json:"hitHeight" mapstructure:"hitHeight"`
}

// DifficultyConfig controls how spawning escalates with score
type DifficultyConfig struct {
	SpeedMultiplierGrowth float64 `json:"speedMultiplierGrowth" mapstructure:"speedMultiplierGrowth"`
	SpawnIntervalFloor    float64 `json:"spawnIntervalFloor" mapstructure:"spawnIntervalFloor"`
	SpawnIntervalBase     float64 `json:"spawnIntervalBase" mapstructure:"spawnIntervalBase"`
	SpawnIntervalDecay    float64 `json:"spawnIntervalDecay" mapstructure:"spawnIntervalDecay"`
}

// WorldConfig is everything a World needs
type WorldConfig struct {
	Field      FieldConfig      `json:"field" mapstructure:"field"`
	Physics    PhysicsConfig    `json:"physics" mapstructure:"physics"`
	Enemy      EnemyConfig      `json:"enemy" mapstructure:"enemy"`
	Difficulty DifficultyConfig `json:"difficulty" mapstructure:"difficulty"`
}

// GameplayConfig holds policies enforced by the frame driver, not the world
type GameplayConfig struct {
	FireCooldown   float64 `mapstructure:"fireCooldown"` // seconds between shots, 0 = every press
	MaxProjectiles int     `mapstructure:"maxProjectiles"`
	IdleTimeout    float64 `mapstructure:"idleTimeout"` // seconds an empty session lingers
}

// LeaderboardConfig selects the leaderboard backend
type LeaderboardConfig struct {
	Backend string `mapstructure:"backend"` // sqlite | redis | none
	Size    int    `mapstructure:"size"`
}

// RedisConfig is used when the leaderboard backend is redis
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// Config is the full server configuration
type Config struct {
	Addr        string            `mapstructure:"addr"`
	ClientDir   string            `mapstructure:"clientDir"`
	DBPath      string            `mapstructure:"dbPath"`
	LogLevel    string            `mapstructure:"logLevel"`
	LogPretty   bool              `mapstructure:"logPretty"`
	World       WorldConfig       `mapstructure:",squash"`
	Gameplay    GameplayConfig    `mapstructure:"gameplay"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Redis       RedisConfig       `mapstructure:"redis"`
}

// DefaultWorldConfig returns the reference arcade setup
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Field: FieldConfig{
			Width:       DefaultWorldWidth,
			Height:      DefaultWorldHeight,
			TurretX:     TurretX,
			TurretY:     TurretY,
			TrailLength: DefaultTrailLength,
			AimHorizon:  AimHorizon,
			AimStep:     1.0 / TickRate,
		},
		Physics: PhysicsConfig{
			DragParams:  DefaultDragParams(),
			PlatformVX:  DefaultPlatformVX,
			MuzzleSpeed: DefaultMuzzleSpeed,
			Frame:       FramePlatform.String(),
			MinSpeed:    DefaultMinSpeed,
			Margin:      ProjectileMargin,
		},
		Enemy: EnemyConfig{
			MinSpeed:    HostileMinSpeed,
			MaxSpeed:    HostileMaxSpeed,
			SpawnMargin: HostileSpawnMargin,
			LaneMargin:  HostileLaneMargin,
			HitWidth:    HostileHitWidth,
			HitHeight:   HostileHitHeight,
		},
		Difficulty: DifficultyConfig{
			SpeedMultiplierGrowth: DefaultSpeedMultiplierGrowth,
			SpawnIntervalFloor:    DefaultSpawnIntervalFloor,
			SpawnIntervalBase:     DefaultSpawnIntervalBase,
			SpawnIntervalDecay:    DefaultSpawnIntervalDecay,
		},
	}
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		DBPath:    "turret.db",
		LogLevel:  "info",
		LogPretty: true,
		World:     DefaultWorldConfig(),
		Gameplay: GameplayConfig{
			FireCooldown:   0.1,
			MaxProjectiles: 200,
			IdleTimeout:    SessionIdleTimeout.Seconds(),
		},
		Leaderboard: LeaderboardConfig{Backend: "sqlite", Size: 10},
		Redis:       RedisConfig{Addr: "localhost:6379", Key: "turret:leaderboard"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("clientDir", d.ClientDir)
	v.SetDefault("dbPath", d.DBPath)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("logPretty", d.LogPretty)

	f := d.World.Field
	v.SetDefault("field.width", f.Width)
	v.SetDefault("field.height", f.Height)
	v.SetDefault("field.turretX", f.TurretX)
	v.SetDefault("field.turretY", f.TurretY)
	v.SetDefault("field.trailLength", f.TrailLength)
	v.SetDefault("field.aimHorizon", f.AimHorizon)
	v.SetDefault("field.aimStep", f.AimStep)
	v.SetDefault("field.seed", f.Seed)

	p := d.World.Physics
	v.SetDefault("physics.mass", p.Mass)
	v.SetDefault("physics.dragCoefficient", p.DragCoefficient)
	v.SetDefault("physics.area", p.Area)
	v.SetDefault("physics.airDensity", p.AirDensity)
	v.SetDefault("physics.platformVX", p.PlatformVX)
	v.SetDefault("physics.platformVY", p.PlatformVY)
	v.SetDefault("physics.muzzleSpeed", p.MuzzleSpeed)
	v.SetDefault("physics.frame", p.Frame)
	v.SetDefault("physics.minSpeed", p.MinSpeed)
	v.SetDefault("physics.margin", p.Margin)

	e := d.World.Enemy
	v.SetDefault("enemy.minSpeed", e.MinSpeed)
	v.SetDefault("enemy.maxSpeed", e.MaxSpeed)
	v.SetDefault("enemy.spawnMargin", e.SpawnMargin)
	v.SetDefault("enemy.laneMargin", e.LaneMargin)
	v.SetDefault("enemy.hitWidth", e.HitWidth)
	v.SetDefault("enemy.hitHeight", e.HitHeight)

	df := d.World.Difficulty
	v.SetDefault("difficulty.speedMultiplierGrowth", df.SpeedMultiplierGrowth)
	v.SetDefault("difficulty.spawnIntervalFloor", df.SpawnIntervalFloor)
	v.SetDefault("difficulty.spawnIntervalBase", df.SpawnIntervalBase)
	v.SetDefault("difficulty.spawnIntervalDecay", df.SpawnIntervalDecay)

	v.SetDefault("gameplay.fireCooldown", d.Gameplay.FireCooldown)
	v.SetDefault("gameplay.maxProjectiles", d.Gameplay.MaxProjectiles)
	v.SetDefault("gameplay.idleTimeout", d.Gameplay.IdleTimeout)

	v.SetDefault("leaderboard.backend", d.Leaderboard.Backend)
	v.SetDefault("leaderboard.size", d.Leaderboard.Size)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.key", d.Redis.Key)
}

// LoadConfig reads turret.cfg.json from configDir if present, applies
// TURRET_* environment overrides and validates the result. A missing file
// is not an error; every key has a default.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(ConfigName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the server settings and the world they configure
func (c *Config) Validate() error {
	if err := c.World.Validate(); err != nil {
		return err
	}
	switch c.Leaderboard.Backend {
	case "sqlite", "redis", "none":
	default:
		return fmt.Errorf("%w: unknown leaderboard backend %q", ErrInvalidConfig, c.Leaderboard.Backend)
	}
	if c.Gameplay.FireCooldown < 0 || !isFinite(c.Gameplay.FireCooldown) {
		return fmt.Errorf("%w: gameplay.fireCooldown must be >= 0", ErrInvalidConfig)
	}
	if c.Gameplay.MaxProjectiles < 0 {
		return fmt.Errorf("%w: gameplay.maxProjectiles must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Validate checks that the world can be simulated with these numbers
func (c WorldConfig) Validate() error {
	f := c.Field
	if !positive(f.Width) || !positive(f.Height) {
		return fmt.Errorf("%w: field must have positive size, got %vx%v", ErrInvalidConfig, f.Width, f.Height)
	}
	if !(Rect{MaxX: f.Width, MaxY: f.Height}).Contains(f.TurretX, f.TurretY) {
		return fmt.Errorf("%w: turret (%v, %v) outside the field", ErrInvalidConfig, f.TurretX, f.TurretY)
	}
	if f.TrailLength < 0 {
		return fmt.Errorf("%w: field.trailLength must be >= 0", ErrInvalidConfig)
	}
	if !positive(f.AimHorizon) || !positive(f.AimStep) {
		return fmt.Errorf("%w: aim horizon and step must be positive", ErrInvalidConfig)
	}

	p := c.Physics
	if err := p.DragParams.Validate(); err != nil {
		return err
	}
	if !positive(p.MuzzleSpeed) {
		return fmt.Errorf("%w: physics.muzzleSpeed must be positive", ErrInvalidConfig)
	}
	if !isFinite(p.PlatformVX) || !isFinite(p.PlatformVY) {
		return fmt.Errorf("%w: platform velocity must be finite", ErrInvalidConfig)
	}
	if p.MinSpeed < 0 || p.Margin < 0 || !isFinite(p.MinSpeed) || !isFinite(p.Margin) {
		return fmt.Errorf("%w: physics.minSpeed and physics.margin must be >= 0", ErrInvalidConfig)
	}
	if _, err := ParseFrameMode(p.Frame); err != nil {
		return err
	}

	e := c.Enemy
	if !positive(e.MinSpeed) || e.MaxSpeed < e.MinSpeed || math.IsInf(e.MaxSpeed, 0) {
		return fmt.Errorf("%w: enemy speed range [%v, %v]", ErrInvalidConfig, e.MinSpeed, e.MaxSpeed)
	}
	if !positive(e.HitWidth) || !positive(e.HitHeight) {
		return fmt.Errorf("%w: enemy hitbox must be positive", ErrInvalidConfig)
	}
	if e.SpawnMargin < 0 || e.LaneMargin < 0 {
		return fmt.Errorf("%w: enemy margins must be >= 0", ErrInvalidConfig)
	}

	d := c.Difficulty
	if !positive(d.SpawnIntervalFloor) || d.SpawnIntervalBase < d.SpawnIntervalFloor {
		return fmt.Errorf("%w: spawn interval base %v below floor %v", ErrInvalidConfig, d.SpawnIntervalBase, d.SpawnIntervalFloor)
	}
	if d.SpeedMultiplierGrowth < 0 || d.SpawnIntervalDecay < 0 {
		return fmt.Errorf("%w: difficulty growth and decay must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
