package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"quack/game"
	"quack/protocol"
)

type Config struct {
	Addr          string
	MaxClients    int
	SimTickHz     int
	BroadcastHz   int
	Codec         string
	InputRate     float64 // messages per second per session
	InputBurst    int
	AllowedOrigin string // empty allows any origin

	Tuning game.Tuning
}

func Default() Config {
	return Config{
		Addr:        ":2567",
		MaxClients:  4,
		SimTickHz:   protocol.SimTickHz,
		BroadcastHz: protocol.BroadcastHz,
		Codec:       protocol.JSON.Name(),
		InputRate:   120,
		InputBurst:  30,
		Tuning:      game.DefaultTuning(),
	}
}

// InitConfig loads a .env file if there is one. A missing file is not an
// error; the process environment is used as is.
func InitConfig(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return
		}
		log.Printf("config: loading env file: %v", err)
		return
	}
	log.Println("config: loaded environment variables from file")
}

// Load reads the configuration from the environment, falling back to
// defaults for anything unset.
func Load() (Config, error) {
	InitConfig()
	c := Default()
	var err error
	c.Addr = getEnv("ADDR", c.Addr)
	c.Codec = getEnv("CODEC", c.Codec)
	c.AllowedOrigin = getEnv("ALLOWED_ORIGIN", c.AllowedOrigin)
	if c.MaxClients, err = getInt("MAX_CLIENTS", c.MaxClients); err != nil {
		return c, err
	}
	if c.SimTickHz, err = getInt("SIM_TICK_HZ", c.SimTickHz); err != nil {
		return c, err
	}
	if c.BroadcastHz, err = getInt("BROADCAST_HZ", c.BroadcastHz); err != nil {
		return c, err
	}
	if c.InputRate, err = getFloat("INPUT_RATE", c.InputRate); err != nil {
		return c, err
	}
	if c.InputBurst, err = getInt("INPUT_BURST", c.InputBurst); err != nil {
		return c, err
	}

	t := &c.Tuning
	if t.PanicRadius, err = getFloat("PANIC_RADIUS", t.PanicRadius); err != nil {
		return c, err
	}
	cooldown, err := getInt("PANIC_COOLDOWN_MS", int(t.PanicCooldownMs))
	if err != nil {
		return c, err
	}
	t.PanicCooldownMs = int64(cooldown)
	if t.FleeMinSpeed, err = getFloat("FLEE_MIN_SPEED", t.FleeMinSpeed); err != nil {
		return c, err
	}
	if t.FleeMaxSpeed, err = getFloat("FLEE_MAX_SPEED", t.FleeMaxSpeed); err != nil {
		return c, err
	}
	if t.FleeExponent, err = getFloat("FLEE_EXPONENT", t.FleeExponent); err != nil {
		return c, err
	}
	if t.StickRadius, err = getFloat("STICK_RADIUS", t.StickRadius); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.MaxClients <= 0 {
		return errors.Errorf("config: MAX_CLIENTS must be positive, got %d", c.MaxClients)
	}
	if c.SimTickHz <= 0 || c.BroadcastHz <= 0 {
		return errors.Errorf("config: tick rates must be positive, got %d/%d", c.SimTickHz, c.BroadcastHz)
	}
	if c.BroadcastHz > c.SimTickHz {
		return errors.Errorf("config: BROADCAST_HZ %d exceeds SIM_TICK_HZ %d", c.BroadcastHz, c.SimTickHz)
	}
	if _, err := protocol.CodecByName(c.Codec); err != nil {
		return errors.Wrap(err, "config: CODEC")
	}
	if c.InputRate <= 0 || c.InputBurst <= 0 {
		return errors.New("config: INPUT_RATE and INPUT_BURST must be positive")
	}
	if c.Tuning.FleeMinSpeed > c.Tuning.FleeMaxSpeed {
		return errors.Errorf("config: FLEE_MIN_SPEED %.2f exceeds FLEE_MAX_SPEED %.2f", c.Tuning.FleeMinSpeed, c.Tuning.FleeMaxSpeed)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, errors.Wrapf(err, "config: %s", key)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, errors.Wrapf(err, "config: %s", key)
	}
	return f, nil
}
