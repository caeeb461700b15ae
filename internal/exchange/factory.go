package exchange

import (
	"fmt"
	"strings"

	"dca-trade-bot-go/internal/config"

	"go.uber.org/zap"
)

// Constructor builds a Provider from its configuration.
type Constructor func(cfg *config.Exchange, logger *zap.Logger) (Provider, error)

var registry = map[string]Constructor{}

// Register makes a provider constructor available under the given name.
// It is called from provider init functions.
func Register(name string, fn Constructor) {
	registry[strings.ToLower(name)] = fn
}

// New creates the provider named in the configuration.
func New(name string, cfg *config.Exchange, logger *zap.Logger) (Provider, error) {
	fn, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown exchange provider: %s", name)
	}
	return fn(cfg, logger)
}
