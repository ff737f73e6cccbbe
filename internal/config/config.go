package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"kassaBack/internal/catalog"
)

const (
	defaultTokenTTLHours = 48
	defaultOrderReminder = 3600 * time.Second
	defaultPollTimeout   = 30 * time.Second
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		Token       string `yaml:"token"`
		ReviewerID  int64  `yaml:"reviewer_id"`
		PollTimeout time.Duration
	} `yaml:"telegram"`
	Payment struct {
		Phone     string `yaml:"phone"`
		Recipient string `yaml:"recipient"`
		Bank      string `yaml:"bank"`
	} `yaml:"payment"`
	Promo struct {
		Active bool               `yaml:"active"`
		EndsAt time.Time          `yaml:"ends_at"`
		Prices map[string]float64 `yaml:"prices"`
	} `yaml:"promo"`
	Tokens struct {
		TTLHours int    `yaml:"ttl_hours"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"tokens"`
	Reminders struct {
		OrderDelay     time.Duration
		CountdownHours []int `yaml:"countdown_hours"`
		OrderDelaySecs int   `yaml:"order_delay_seconds"`
	} `yaml:"reminders"`
	Bots struct {
		Unpack string `yaml:"unpack"`
		Copy   string `yaml:"copy"`
		Photo  string `yaml:"photo"`
	} `yaml:"bots"`
	Legal struct {
		PolicyURL     string `yaml:"policy_url"`
		OfferURL      string `yaml:"offer_url"`
		AdsConsentURL string `yaml:"ads_consent_url"`
	} `yaml:"legal"`
}

// LoadConfig reads the YAML config file, then applies environment overrides.
// The file path comes from CONFIG_PATH and defaults to config/config.yaml;
// a missing file at the default path is not an error so the process can run
// from environment variables alone.
func LoadConfig() Config {
	var cfg Config
	cfg.Tokens.TTLHours = defaultTokenTTLHours
	cfg.Telegram.PollTimeout = defaultPollTimeout

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if path == "" {
		path = "config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			log.Fatalf("Failed to read config file %s: %v", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	if err := applyEnv(&cfg); err != nil {
		log.Fatalf("Failed to apply environment config: %v", err)
	}

	if cfg.Reminders.OrderDelaySecs > 0 {
		cfg.Reminders.OrderDelay = time.Duration(cfg.Reminders.OrderDelaySecs) * time.Second
	}
	if cfg.Reminders.OrderDelay == 0 {
		cfg.Reminders.OrderDelay = defaultOrderReminder
	}
	if len(cfg.Reminders.CountdownHours) == 0 {
		cfg.Reminders.CountdownHours = []int{48, 24}
	}
	if len(cfg.Promo.Prices) == 0 {
		cfg.Promo.Prices = catalog.PromoPrices()
	}
	return cfg
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CASHIER_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v, err := readInt64Env("ADMIN_ID"); err != nil {
		return err
	} else if v != nil {
		cfg.Telegram.ReviewerID = *v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TOKEN_API_KEY"); v != "" {
		cfg.Tokens.APIKey = v
	}
	if v, err := readIntEnv("TOKEN_TTL_HOURS"); err != nil {
		return err
	} else if v != nil {
		cfg.Tokens.TTLHours = *v
	}
	if v := os.Getenv("PROMO_ACTIVE"); v != "" {
		cfg.Promo.Active = v == "true" || v == "1"
	}
	if v := os.Getenv("PROMO_ENDS_AT"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("parse PROMO_ENDS_AT: %w", err)
		}
		cfg.Promo.EndsAt = t
	}
	if v := os.Getenv("PAY_PHONE"); v != "" {
		cfg.Payment.Phone = v
	}
	if v := os.Getenv("PAY_NAME"); v != "" {
		cfg.Payment.Recipient = v
	}
	if v := os.Getenv("PAY_BANK"); v != "" {
		cfg.Payment.Bank = v
	}
	if v := os.Getenv("BOT_UNPACK"); v != "" {
		cfg.Bots.Unpack = v
	}
	if v := os.Getenv("BOT_COPY"); v != "" {
		cfg.Bots.Copy = v
	}
	if v := os.Getenv("BOT_PHOTO"); v != "" {
		cfg.Bots.Photo = v
	}
	if v := os.Getenv("POLICY_URL"); v != "" {
		cfg.Legal.PolicyURL = v
	}
	if v := os.Getenv("OFFER_URL"); v != "" {
		cfg.Legal.OfferURL = v
	}
	if v := os.Getenv("ADS_CONSENT_URL"); v != "" {
		cfg.Legal.AdsConsentURL = v
	}
	return nil
}

func readIntEnv(name string) (*int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &v, nil
}

func readInt64Env(name string) (*int64, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return &v, nil
}
