package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override key.
const EnvPrefix = "HDRSNIP_"

// Config holds runtime configuration for capture and the selection preview.
// Fields may be loaded from a JSON file, overridden from the environment and
// finally by command-line flags.
type Config struct {
	Debug   bool   `json:"debug"`
	LogJSON bool   `json:"log_json"`
	Backend string `json:"backend"` // auto, wgc, screenshot
	Preview string `json:"preview"` // auto, gl, tk

	// Selection
	Tolerance  int      `json:"tolerance"`
	AcceptKeys []string `json:"accept_keys"`
	CancelKeys []string `json:"cancel_keys"`

	// First-frame wait: attempts x poll interval
	FirstFrameAttempts int      `json:"first_frame_attempts"`
	FirstFramePoll     Duration `json:"first_frame_poll"`

	ScreenshotInterval Duration `json:"screenshot_interval"`
	Clipboard          bool     `json:"clipboard"`
}

// Duration is a time.Duration that marshals as a Go duration string.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or nanoseconds: %s", b)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:              false,
		LogJSON:            true,
		Backend:            "auto",
		Preview:            "auto",
		Tolerance:          3,
		AcceptKeys:         []string{"Return"},
		CancelKeys:         []string{"Escape"},
		FirstFrameAttempts: 100,
		FirstFramePoll:     Duration(50 * time.Millisecond),
		ScreenshotInterval: Duration(16 * time.Millisecond),
	}
}

// Validate clamps/normalizes values to safe ranges. Unknown backend or
// preview names are reported as errors.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Preview = strings.ToLower(strings.TrimSpace(c.Preview))
	if c.Backend == "" {
		c.Backend = "auto"
	}
	if c.Preview == "" {
		c.Preview = "auto"
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 3
	}
	if len(c.AcceptKeys) == 0 {
		c.AcceptKeys = []string{"Return"}
	}
	if len(c.CancelKeys) == 0 {
		c.CancelKeys = []string{"Escape"}
	}
	if c.FirstFrameAttempts <= 0 {
		c.FirstFrameAttempts = 100
	}
	if c.FirstFramePoll <= 0 {
		c.FirstFramePoll = Duration(50 * time.Millisecond)
	}
	if c.ScreenshotInterval <= 0 {
		c.ScreenshotInterval = Duration(16 * time.Millisecond)
	}
	switch c.Backend {
	case "auto", "wgc", "screenshot":
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	switch c.Preview {
	case "auto", "gl", "tk":
	default:
		return fmt.Errorf("config: unknown preview %q", c.Preview)
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// ApplyEnv overrides fields from HDRSNIP_* keys. Keys are read from the
// dotenv file at envPath (if it exists) and then from the process
// environment, which wins.
func (c *Config) ApplyEnv(envPath string) error {
	values := map[string]string{}
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			read, err := godotenv.Read(envPath)
			if err != nil {
				return fmt.Errorf("config: read %s: %w", envPath, err)
			}
			values = read
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			values[k] = v
		}
	}
	if err := c.applyValues(values); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) applyValues(values map[string]string) error {
	for key, raw := range values {
		name, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok {
			continue
		}
		v := strings.TrimSpace(raw)
		var err error
		switch name {
		case "DEBUG":
			c.Debug, err = strconv.ParseBool(v)
		case "LOG_JSON":
			c.LogJSON, err = strconv.ParseBool(v)
		case "CLIPBOARD":
			c.Clipboard, err = strconv.ParseBool(v)
		case "BACKEND":
			c.Backend = v
		case "PREVIEW":
			c.Preview = v
		case "TOLERANCE":
			c.Tolerance, err = strconv.Atoi(v)
		case "ACCEPT_KEYS":
			c.AcceptKeys = splitList(v)
		case "CANCEL_KEYS":
			c.CancelKeys = splitList(v)
		case "FIRST_FRAME_ATTEMPTS":
			c.FirstFrameAttempts, err = strconv.Atoi(v)
		case "FIRST_FRAME_POLL":
			err = parseDuration(v, &c.FirstFramePoll)
		case "SCREENSHOT_INTERVAL":
			err = parseDuration(v, &c.ScreenshotInterval)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
	}
	return nil
}

func parseDuration(v string, dst *Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = Duration(d)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
