package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	Store struct {
		Dir string `koanf:"dir"`
	} `koanf:"store"`

	Admin struct {
		ID string `koanf:"id"`
	} `koanf:"admin"`

	Shop struct {
		Currencies          []string          `koanf:"currencies"`
		PaymentInstructions map[string]string `koanf:"payment_instructions"`
	} `koanf:"shop"`

	Sessions struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"sessions"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Rabbit struct {
		URL        string `koanf:"url"`
		Exchange   string `koanf:"exchange"`
		RoutingKey string `koanf:"routing_key"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers          []string `koanf:"brokers"`
		TopicEvents      string   `koanf:"topic_events"`
		TopicFulfillment string   `koanf:"topic_fulfillment"`
		GroupID          string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret    string        `koanf:"jwt_secret"`
		Issuer       string        `koanf:"issuer"`
		Audience     string        `koanf:"audience"`
		TTL          time.Duration `koanf:"ttl"`
		ClientID     string        `koanf:"client_id"`
		ClientSecret string        `koanf:"client_secret"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix MYBOT_, nested with __)
	// e.g. MYBOT_ADMIN__ID, MYBOT_SECURITY__JWT_SECRET
	if err := k.Load(env.Provider("MYBOT_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MYBOT_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate fails fast on the inputs the core cannot run without.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Admin.ID == "" {
		return fmt.Errorf("admin.id required")
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir required")
	}
	if len(c.Shop.Currencies) == 0 {
		return fmt.Errorf("shop.currencies required")
	}
	return nil
}
