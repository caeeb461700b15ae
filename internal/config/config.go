package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Exchange Exchange `mapstructure:"exchange"`
	Bot      Bot      `mapstructure:"bot"`
	DCA      DCA      `mapstructure:"dca"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Exchange holds the configuration for the exchange provider.
type Exchange struct {
	Provider        string  `mapstructure:"provider"`
	ApiKey          string  `mapstructure:"apiKey"`
	SecretKey       string  `mapstructure:"secretKey"`
	Testnet         bool    `mapstructure:"testnet"`
	RateLimitCalls  int     `mapstructure:"rate_limit_calls"`
	RateLimitPeriod float64 `mapstructure:"rate_limit_period"`
}

// Bot holds the configuration for the executor loop.
type Bot struct {
	Strategy     string `mapstructure:"strategy"`
	TickInterval int    `mapstructure:"tick_interval"`
}

// DCA holds the parameters for the dollar-cost-averaging strategy.
type DCA struct {
	Symbol          string  `mapstructure:"symbol"`
	Amount          float64 `mapstructure:"amount"`
	IntervalSeconds int     `mapstructure:"interval_seconds"`
}

// Server holds the configuration for the read API server.
type Server struct {
	Port           int     `mapstructure:"port"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("exchange.provider", "binance")
	viper.SetDefault("exchange.rate_limit_calls", 10) // calls per window
	viper.SetDefault("exchange.rate_limit_period", 1.0)
	viper.SetDefault("bot.strategy", "dca")
	viper.SetDefault("bot.tick_interval", 60)
	viper.SetDefault("dca.symbol", "BTC/USDT")
	viper.SetDefault("dca.amount", 0.001)
	viper.SetDefault("dca.interval_seconds", 3600)
	viper.SetDefault("server.requests_per_sec", 20)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	err = config.Validate()
	return
}

// Validate rejects parameter combinations the bot cannot run with.
// A failure here is fatal at startup.
func (c *Config) Validate() error {
	if c.Exchange.RateLimitCalls <= 0 {
		return fmt.Errorf("invalid configuration: exchange.rate_limit_calls must be > 0, got %d", c.Exchange.RateLimitCalls)
	}
	if c.Exchange.RateLimitPeriod <= 0 {
		return fmt.Errorf("invalid configuration: exchange.rate_limit_period must be > 0, got %v", c.Exchange.RateLimitPeriod)
	}
	if c.Bot.TickInterval <= 0 {
		return fmt.Errorf("invalid configuration: bot.tick_interval must be > 0, got %d", c.Bot.TickInterval)
	}
	if c.DCA.Symbol == "" {
		return fmt.Errorf("invalid configuration: dca.symbol must not be empty")
	}
	if c.DCA.Amount <= 0 {
		return fmt.Errorf("invalid configuration: dca.amount must be > 0, got %v", c.DCA.Amount)
	}
	if c.DCA.IntervalSeconds <= 0 {
		return fmt.Errorf("invalid configuration: dca.interval_seconds must be > 0, got %d", c.DCA.IntervalSeconds)
	}
	return nil
}
