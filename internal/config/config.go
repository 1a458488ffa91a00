// Package config holds every tunable of the simulation. The compiled-in
// defaults run the game as shipped; a YAML file can overlay any subset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full tunables set. Field groups follow the subsystems
// that consume them.
type Config struct {
	Port     int     `yaml:"port"`
	TickRate float64 `yaml:"tickRate"`

	Gravity struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
		Z float64 `yaml:"z"`
	} `yaml:"gravity"`

	Player struct {
		Height    float64 `yaml:"height"`
		Radius    float64 `yaml:"radius"`
		Speed     float64 `yaml:"speed"`
		JumpForce float64 `yaml:"jumpForce"`
		MaxHealth int     `yaml:"maxHealth"`
	} `yaml:"player"`

	Weapon struct {
		FireRate         float64 `yaml:"fireRate"`
		ProjectileSpeed  float64 `yaml:"projectileSpeed"`
		ProjectileRadius float64 `yaml:"projectileRadius"`
		ProjectileDamage int     `yaml:"projectileDamage"`
		ProjectileTTL    float64 `yaml:"projectileTTL"`
	} `yaml:"weapon"`

	Vehicle struct {
		CarSpeed         float64 `yaml:"carSpeed"`
		CarTurnSpeed     float64 `yaml:"carTurnSpeed"`
		HeliLift         float64 `yaml:"heliLift"`
		HeliTiltAngle    float64 `yaml:"heliTiltAngle"`
		HeliTurnSpeed    float64 `yaml:"heliTurnSpeed"`
		HeliMaxAlt       float64 `yaml:"heliMaxAlt"`
		PlaneAccel       float64 `yaml:"planeAccel"`
		PlaneMinSpeed    float64 `yaml:"planeMinSpeed"`
		PlaneLiftCoef    float64 `yaml:"planeLiftCoef"`
		PlanePitchSpeed  float64 `yaml:"planePitchSpeed"`
		PlaneTurnSpeed   float64 `yaml:"planeTurnSpeed"`
		InteractionRange float64 `yaml:"interactionRange"`
	} `yaml:"vehicle"`

	Ghost struct {
		Friction         float64 `yaml:"friction"`
		Restitution      float64 `yaml:"restitution"`
		CarryDistance    float64 `yaml:"carryDistance"`
		InteractionRange float64 `yaml:"interactionRange"`
		MaxCarryMass     float64 `yaml:"maxCarryMass"`
		ThrowForce       float64 `yaml:"throwForce"`
	} `yaml:"ghost"`
}

// Default returns the configuration the server ships with.
func Default() *Config {
	cfg := &Config{
		Port:     8080,
		TickRate: 30,
	}
	cfg.Gravity.Y = -9.81

	cfg.Player.Height = 1.8
	cfg.Player.Radius = 0.4
	cfg.Player.Speed = 8.0
	cfg.Player.JumpForce = 5.0
	cfg.Player.MaxHealth = 100

	cfg.Weapon.FireRate = 0.25
	cfg.Weapon.ProjectileSpeed = 40.0
	cfg.Weapon.ProjectileRadius = 0.2
	cfg.Weapon.ProjectileDamage = 25
	cfg.Weapon.ProjectileTTL = 5.0

	cfg.Vehicle.CarSpeed = 2.0
	cfg.Vehicle.CarTurnSpeed = 0.6
	cfg.Vehicle.HeliLift = 6.0
	cfg.Vehicle.HeliTiltAngle = 0.4
	cfg.Vehicle.HeliTurnSpeed = 0.5
	cfg.Vehicle.HeliMaxAlt = 60.0
	cfg.Vehicle.PlaneAccel = 0.8
	cfg.Vehicle.PlaneMinSpeed = 10.0
	cfg.Vehicle.PlaneLiftCoef = 0.5
	cfg.Vehicle.PlanePitchSpeed = 0.4
	cfg.Vehicle.PlaneTurnSpeed = 0.5
	cfg.Vehicle.InteractionRange = 5.0

	cfg.Ghost.Friction = 0.5
	cfg.Ghost.Restitution = 0.3
	cfg.Ghost.CarryDistance = 2.5
	cfg.Ghost.InteractionRange = 4.0
	cfg.Ghost.MaxCarryMass = 50.0
	cfg.Ghost.ThrowForce = 15.0

	return cfg
}

// Load returns the defaults overlaid with the YAML file at path. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %v", c.TickRate)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Player.Height <= 2*c.Player.Radius {
		return fmt.Errorf("player height %v must exceed its diameter", c.Player.Height)
	}
	if c.Player.MaxHealth <= 0 {
		return fmt.Errorf("maxHealth must be positive, got %d", c.Player.MaxHealth)
	}
	if c.Weapon.FireRate < 0 || c.Weapon.ProjectileTTL <= 0 {
		return fmt.Errorf("invalid weapon timings")
	}
	return nil
}
