package config

import "time"

// Config is the root configuration for inboxd.
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Poller  PollerConfig  `json:"poller"`
	Gmail   GmailConfig   `json:"gmail"`
	Models  ModelsConfig  `json:"models"`
	Storage StorageConfig `json:"storage"`
	Events  EventsConfig  `json:"events"`
}

// GatewayConfig holds the HTTP API server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// PollerConfig configures the background mail poller.
type PollerConfig struct {
	Interval        Duration `json:"interval"`         // time between scheduled cycles (default 60s)
	BatchSize       int      `json:"batch_size"`       // max messages fetched per cycle (default 10)
	Channel         string   `json:"channel"`          // source tag stamped on created todos (default "gmail")
	CronWindow      string   `json:"cron_window"`      // optional cron expression; scheduled cycles only fire in matching minutes
	ClassifyTimeout Duration `json:"classify_timeout"` // per-message classification deadline (default 30s)
	Autostart       *bool    `json:"autostart"`        // start polling with the gateway (default true)
}

// AutostartEnabled reports whether the poller should start with the gateway.
func (p PollerConfig) AutostartEnabled() bool {
	return p.Autostart == nil || *p.Autostart
}

// GmailConfig holds Gmail OAuth file locations.
type GmailConfig struct {
	CredentialsFile string `json:"credentials_file"`
	TokenFile       string `json:"token_file"`
}

// StorageConfig selects and configures the todo store backend.
type StorageConfig struct {
	Driver string `json:"driver"` // "file" or "sqlite"
	Dir    string `json:"dir"`    // file driver: base directory
	Path   string `json:"path"`   // sqlite driver: database file
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "openai", "anthropic", "ollama"
	Model     string         `json:"model"`
	APIKey    string         `json:"api_key,omitempty"` // direct key or ${{ .Env.VAR }} template
	BaseURL   string         `json:"base_url,omitempty"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// Duration is a time.Duration that marshals as a string like "90s".
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
