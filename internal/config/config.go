package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `mapstructure:"AUTH_JWKS_URL"`

	// Dispensing gate behaviour.
	BlockExpiredLots         bool `mapstructure:"BLOCK_EXPIRED_LOTS"`
	DefaultExpiryAlert       int  `mapstructure:"DEFAULT_EXPIRY_ALERT_DAYS"`
	PrescriptionValidityDays int  `mapstructure:"PRESCRIPTION_VALIDITY_DAYS"`

	// KRA eTIMS invoicing.
	KRAPin         string `mapstructure:"KRA_PIN"`
	KRAVatNumber   string `mapstructure:"KRA_VAT_NUMBER"`
	KRAControlUnit string `mapstructure:"KRA_CONTROL_UNIT_SERIAL"`
	KRAAPIBaseURL  string `mapstructure:"KRA_API_BASE_URL"`
	KRAUsername    string `mapstructure:"KRA_USERNAME"`
	KRAPassword    string `mapstructure:"KRA_PASSWORD"`
	KRAEnvironment string `mapstructure:"KRA_ENVIRONMENT"`

	// M-Pesa STK push.
	MpesaShortcode      string `mapstructure:"MPESA_SHORTCODE"`
	MpesaConsumerKey    string `mapstructure:"MPESA_CONSUMER_KEY"`
	MpesaConsumerSecret string `mapstructure:"MPESA_CONSUMER_SECRET"`
	MpesaPasskey        string `mapstructure:"MPESA_PASSKEY"`
	MpesaEnvironment    string `mapstructure:"MPESA_ENVIRONMENT"`
	MpesaCallbackURL    string `mapstructure:"MPESA_CALLBACK_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BLOCK_EXPIRED_LOTS", true)
	v.SetDefault("DEFAULT_EXPIRY_ALERT_DAYS", 90)
	v.SetDefault("PRESCRIPTION_VALIDITY_DAYS", 180)
	v.SetDefault("KRA_ENVIRONMENT", "sandbox")
	v.SetDefault("MPESA_ENVIRONMENT", "sandbox")

	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "CORS_ORIGINS",
		"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_JWKS_URL",
		"BLOCK_EXPIRED_LOTS", "DEFAULT_EXPIRY_ALERT_DAYS", "PRESCRIPTION_VALIDITY_DAYS",
		"KRA_PIN", "KRA_VAT_NUMBER", "KRA_CONTROL_UNIT_SERIAL", "KRA_API_BASE_URL",
		"KRA_USERNAME", "KRA_PASSWORD", "KRA_ENVIRONMENT",
		"MPESA_SHORTCODE", "MPESA_CONSUMER_KEY", "MPESA_CONSUMER_SECRET",
		"MPESA_PASSKEY", "MPESA_ENVIRONMENT", "MPESA_CALLBACK_URL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" {
		return fmt.Errorf("AUTH_ISSUER must be set outside development (current ENV=%q)", c.Env)
	}
	if c.KRAEnvironment != "sandbox" && c.KRAEnvironment != "production" {
		return fmt.Errorf("KRA_ENVIRONMENT must be \"sandbox\" or \"production\", got %q", c.KRAEnvironment)
	}
	if c.MpesaEnvironment != "sandbox" && c.MpesaEnvironment != "production" {
		return fmt.Errorf("MPESA_ENVIRONMENT must be \"sandbox\" or \"production\", got %q", c.MpesaEnvironment)
	}
	if c.PrescriptionValidityDays <= 0 {
		return fmt.Errorf("PRESCRIPTION_VALIDITY_DAYS must be positive, got %d", c.PrescriptionValidityDays)
	}
	if c.DefaultExpiryAlert < 0 {
		return fmt.Errorf("DEFAULT_EXPIRY_ALERT_DAYS must not be negative, got %d", c.DefaultExpiryAlert)
	}
	return nil
}
