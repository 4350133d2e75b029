package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/joho/godotenv"

	ropechain "github.com/Alexander-r/ropechain.go"
	"github.com/Alexander-r/ropechain.go/rig"
)

const (
	DefaultSettingsFile = "settings.json"

	EnvPort     = "ROPE_PORT"
	EnvTickHz   = "ROPE_TICK_HZ"
	EnvSettings = "ROPE_SETTINGS"
)

type Settings struct {
	Simulation SimulationSettings `json:"simulation"`
	Chain      ChainSettings      `json:"chain"`
	Grapple    GrappleSettings    `json:"grapple"`
	Server     ServerSettings     `json:"server"`
	Render     RenderSettings     `json:"render"`
}

type SimulationSettings struct {
	TickHz  int        `json:"tickHz"`
	Gravity mgl64.Vec3 `json:"gravity"`

	// "physics3d" or "cp"
	Engine string `json:"engine"`
}

type ChainSettings struct {
	MaximumEffectiveLinkLength float64 `json:"maximumEffectiveLinkLength"`
	LinkMass                   float64 `json:"linkMass"`
	Friction                   float64 `json:"friction"`
	ApplyReactionForce         bool    `json:"applyReactionForce"`
}

type GrappleSettings struct {
	ProjectileVelocity float64 `json:"projectileVelocity"`
	ProjectileMass     float64 `json:"projectileMass"`
	MaximumExpellSpeed float64 `json:"maximumExpellSpeed"`
	ExpellForce        float64 `json:"expellForce"`
	MaximumTakeUpSpeed float64 `json:"maximumTakeUpSpeed"`
	TakeUpForce        float64 `json:"takeUpForce"`
}

type ServerSettings struct {
	Port                int `json:"port"`
	BroadcastIntervalMs int `json:"broadcastIntervalMs"`
}

type RenderSettings struct {
	PointSpacing float64 `json:"pointSpacing"`
	RingVertices int     `json:"ringVertices"`
	TubeRadius   float64 `json:"tubeRadius"`

	// "linear", "smoothstep" or "spring"
	Easing          string  `json:"easing"`
	SpringFrequency float64 `json:"springFrequency"`
	SpringDamping   float64 `json:"springDamping"`
}

var (
	ErrInvalidEnv      = errors.New("invalid environment variable")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrUnknownEngine   = errors.New("unknown engine")
	ErrUnknownEasing   = errors.New("unknown easing")
)

func Defaults() Settings {
	return Settings{
		Simulation: SimulationSettings{
			TickHz:  60,
			Gravity: mgl64.Vec3{0.0, -10.0, 0.0},
			Engine:  "physics3d",
		},
		Chain: ChainSettings{
			MaximumEffectiveLinkLength: 0.5,
			LinkMass:                   0.1,
			Friction:                   0.0,
			ApplyReactionForce:         true,
		},
		Grapple: GrappleSettings{
			ProjectileVelocity: 20.0,
			ProjectileMass:     0.5,
			MaximumExpellSpeed: 4.0,
			ExpellForce:        2.0,
			MaximumTakeUpSpeed: 4.0,
			TakeUpForce:        2.0,
		},
		Server: ServerSettings{
			Port:                8080,
			BroadcastIntervalMs: 50,
		},
		Render: RenderSettings{
			PointSpacing:    0.1,
			RingVertices:    8,
			TubeRadius:      0.03,
			Easing:          "smoothstep",
			SpringFrequency: 6.0,
			SpringDamping:   1.0,
		},
	}
}

/// Load reads the settings file on top of the defaults and applies
/// environment overrides. An empty path means $ROPE_SETTINGS, then
/// settings.json. A missing file is not an error.
func Load(path string, envFiles ...string) (Settings, error) {
	settings := Defaults()

	env, err := readEnv(envFiles...)
	if err != nil {
		return settings, err
	}

	if path == "" {
		path = env[EnvSettings]
	}
	if path == "" {
		path = DefaultSettingsFile
	}

	if err := settings.readFile(path); err != nil {
		return settings, err
	}
	if err := settings.applyEnv(env); err != nil {
		return settings, err
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

func (settings *Settings) readFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("No %s found, using defaults", path)
			return nil
		}
		return fmt.Errorf("opening settings: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(settings); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}

	log.Printf("Loaded settings from %s", path)
	return nil
}

// readEnv merges the .env files with the process environment. The process
// environment wins. Missing .env files are skipped.
func readEnv(files ...string) (map[string]string, error) {
	env := map[string]string{}

	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		for key, value := range values {
			env[key] = value
		}
	}

	for _, key := range []string{EnvPort, EnvTickHz, EnvSettings} {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}

	return env, nil
}

func (settings *Settings) applyEnv(env map[string]string) error {
	if value, ok := env[EnvPort]; ok && value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvPort, value)
		}
		settings.Server.Port = port
	}

	if value, ok := env[EnvTickHz]; ok && value != "" {
		hz, err := strconv.Atoi(value)
		if err != nil || hz <= 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvTickHz, value)
		}
		settings.Simulation.TickHz = hz
	}

	return nil
}

/// Same as GetEnvVariable of the demo servers: an unset or empty variable is
/// an error.
func GetEnvVariable(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("input param empty")
	}
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("failed to get variable for %s", name)
	}
	return value, nil
}

func (settings Settings) Validate() error {
	var errs []error

	if settings.Simulation.TickHz <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick rate %d", ErrInvalidSettings, settings.Simulation.TickHz))
	}
	switch settings.Simulation.Engine {
	case "physics3d", "cp":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownEngine, settings.Simulation.Engine))
	}
	if settings.Server.Port <= 0 || settings.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d", ErrInvalidSettings, settings.Server.Port))
	}
	if settings.Server.BroadcastIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("%w: broadcast interval %dms", ErrInvalidSettings, settings.Server.BroadcastIntervalMs))
	}
	if !(settings.Chain.LinkMass > 0.0) || !(settings.Grapple.ProjectileMass > 0.0) {
		errs = append(errs, fmt.Errorf("%w: masses must be positive", ErrInvalidSettings))
	}
	if !(settings.Render.PointSpacing > 0.0) {
		errs = append(errs, fmt.Errorf("%w: point spacing %g", ErrInvalidSettings, settings.Render.PointSpacing))
	}
	if _, err := settings.Easing(); err != nil {
		errs = append(errs, err)
	}

	if !(settings.Chain.MaximumEffectiveLinkLength > 0.0) {
		errs = append(errs, fmt.Errorf("%w: %g", ropechain.ErrLinkLength, settings.Chain.MaximumEffectiveLinkLength))
	}
	if !(settings.Chain.Friction >= 0.0 && settings.Chain.Friction <= 1.0) {
		errs = append(errs, fmt.Errorf("%w: %g", ropechain.ErrFriction, settings.Chain.Friction))
	}
	if err := settings.GrappleDef().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (settings Settings) TickInterval() time.Duration {
	return time.Second / time.Duration(settings.Simulation.TickHz)
}

func (settings Settings) BroadcastInterval() time.Duration {
	return time.Duration(settings.Server.BroadcastIntervalMs) * time.Millisecond
}

func (settings Settings) Dt() float64 {
	return 1.0 / float64(settings.Simulation.TickHz)
}

func (settings Settings) Easing() (ropechain.Easing, error) {
	switch settings.Render.Easing {
	case "", "linear":
		return ropechain.Linear, nil
	case "smoothstep":
		return ropechain.SmoothStep, nil
	case "spring":
		spring, err := ropechain.MakeSpringEasing(settings.Render.SpringFrequency, settings.Render.SpringDamping, 64)
		if err != nil {
			return nil, fmt.Errorf("spring easing: %w", err)
		}
		return spring, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEasing, settings.Render.Easing)
}

func (settings Settings) GrappleDef() rig.GrappleDef {
	def := rig.MakeGrappleDef()

	def.ProjectileVelocity = settings.Grapple.ProjectileVelocity
	def.Projectile.Mass = settings.Grapple.ProjectileMass
	def.MaximumExpellSpeed = settings.Grapple.MaximumExpellSpeed
	def.ExpellForce = settings.Grapple.ExpellForce
	def.MaximumTakeUpSpeed = settings.Grapple.MaximumTakeUpSpeed
	def.TakeUpForce = settings.Grapple.TakeUpForce

	def.Source.MaximumEffectiveLinkLength = settings.Chain.MaximumEffectiveLinkLength
	def.Source.LinkBody.Mass = settings.Chain.LinkMass
	def.Source.Friction = settings.Chain.Friction
	def.Source.ApplyReactionForce = settings.Chain.ApplyReactionForce

	return def
}
