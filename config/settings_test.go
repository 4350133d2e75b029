package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ropechain "github.com/Alexander-r/ropechain.go"
	"github.com/Alexander-r/ropechain.go/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{config.EnvPort, config.EnvTickHz, config.EnvSettings} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	settings, err := config.Load(filepath.Join(dir, "settings.json"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	defaults := config.Defaults()
	if settings != defaults {
		t.Fatalf("settings %+v, expected defaults %+v", settings, defaults)
	}
	if err := defaults.Validate(); err != nil {
		t.Fatalf("defaults are invalid: %v", err)
	}
	if settings.TickInterval() != time.Second/60 || settings.BroadcastInterval() != 50*time.Millisecond {
		t.Fatalf("intervals %v and %v", settings.TickInterval(), settings.BroadcastInterval())
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.json", `{
		"simulation": {"tickHz": 120, "engine": "cp"},
		"chain": {"maximumEffectiveLinkLength": 0.25},
		"render": {"easing": "spring"}
	}`)

	settings, err := config.Load(path, filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if settings.Simulation.TickHz != 120 || settings.Simulation.Engine != "cp" {
		t.Fatalf("simulation %+v", settings.Simulation)
	}
	if settings.Chain.MaximumEffectiveLinkLength != 0.25 {
		t.Fatalf("link length %v", settings.Chain.MaximumEffectiveLinkLength)
	}
	// Untouched fields keep their defaults.
	if settings.Server.Port != 8080 || settings.Chain.LinkMass != 0.1 || settings.Simulation.Gravity.Y() != -10.0 {
		t.Fatalf("defaults lost: %+v", settings)
	}

	easing, err := settings.Easing()
	if err != nil {
		t.Fatalf("spring easing: %v", err)
	}
	if easing.Ease(0.0) != 0.0 || easing.Ease(1.0) != 1.0 {
		t.Fatalf("spring easing does not span [0,1]")
	}

	def := settings.GrappleDef()
	if def.Source.MaximumEffectiveLinkLength != 0.25 || def.ProjectileVelocity != 20.0 {
		t.Fatalf("grapple def %+v", def)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	settingsPath := writeFile(t, dir, "custom.json", `{"server": {"port": 9000}}`)
	envPath := writeFile(t, dir, ".env", "ROPE_PORT=9100\nROPE_TICK_HZ=30\nROPE_SETTINGS="+settingsPath+"\n")

	settings, err := config.Load("", envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Server.Port != 9100 || settings.Simulation.TickHz != 30 {
		t.Fatalf("env overrides not applied: port %d, tick %d", settings.Server.Port, settings.Simulation.TickHz)
	}

	// The process environment wins over the .env file.
	t.Setenv(config.EnvPort, "9200")
	settings, err = config.Load("", envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Server.Port != 9200 {
		t.Fatalf("process environment ignored: port %d", settings.Server.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	noEnv := filepath.Join(dir, ".env")

	broken := writeFile(t, dir, "broken.json", `{"simulation": `)
	if _, err := config.Load(broken, noEnv); err == nil {
		t.Fatalf("broken json loaded")
	}

	unknown := writeFile(t, dir, "unknown.json", `{"simulaton": {}}`)
	if _, err := config.Load(unknown, noEnv); err == nil {
		t.Fatalf("misspelled section loaded")
	}

	invalid := writeFile(t, dir, "invalid.json", `{
		"simulation": {"engine": "bullet"},
		"chain": {"maximumEffectiveLinkLength": 0, "friction": 2},
		"render": {"easing": "bounce"}
	}`)
	_, err := config.Load(invalid, noEnv)
	for _, expected := range []error{config.ErrUnknownEngine, config.ErrUnknownEasing, ropechain.ErrLinkLength, ropechain.ErrFriction} {
		if !errors.Is(err, expected) {
			t.Fatalf("Load(invalid) = %v, missing %v", err, expected)
		}
	}

	t.Setenv(config.EnvTickHz, "fast")
	if _, err := config.Load(filepath.Join(dir, "missing.json"), noEnv); !errors.Is(err, config.ErrInvalidEnv) {
		t.Fatalf("bad tick rate: %v", err)
	}
}

func TestGetEnvVariable(t *testing.T) {
	t.Setenv("ROPE_TEST_VARIABLE", "value")

	if value, err := config.GetEnvVariable("ROPE_TEST_VARIABLE"); err != nil || value != "value" {
		t.Fatalf("GetEnvVariable = %q, %v", value, err)
	}
	if _, err := config.GetEnvVariable(""); err == nil {
		t.Fatalf("empty name accepted")
	}
	if _, err := config.GetEnvVariable("ROPE_TEST_UNSET_VARIABLE"); err == nil {
		t.Fatalf("unset variable accepted")
	}
}
