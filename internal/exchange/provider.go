package exchange

import "context"

// Order sides and types understood by providers.
const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeMarket = "market"
	OrderTypeLimit  = "limit"
)

// Normalized order statuses. The exchange-specific status is mapped
// onto this set and otherwise passed through unchanged.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusFilled   = "filled"
	StatusCanceled = "canceled"
)

// Order is the normalized result of placing or fetching an order.
// Raw keeps the untouched exchange response for persistence as trade
// metadata.
type Order struct {
	ID     string
	Symbol string
	Side   string
	Type   string
	Amount float64
	Price  float64
	Status string
	Raw    map[string]any
}

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp int64 // open time, milliseconds since epoch
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Asset is the balance of a single currency.
type Asset struct {
	Free   float64
	Locked float64
}

// Balance is a point-in-time account balance across assets.
type Balance struct {
	Assets map[string]Asset
}

// Provider defines the interface all exchange adapters implement.
// Every network method waits on the provider's rate limiter before
// calling out, and wraps any transport or exchange-side failure in an
// *Error. Providers never retry internally; retry policy belongs to
// the caller.
type Provider interface {
	// Name returns the provider's registry name, e.g. "binance".
	Name() string

	// FetchBalance returns the current account balance.
	FetchBalance(ctx context.Context) (*Balance, error)

	// FetchOHLCV returns up to limit candles for symbol at the given
	// timeframe. since is milliseconds since epoch; 0 means "from the
	// exchange's default".
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]Candle, error)

	// PlaceOrder submits an order. A nil price signals a market order.
	PlaceOrder(ctx context.Context, symbol, side string, amount float64, price *float64, orderType string) (*Order, error)

	// FetchOrder retrieves a previously placed order by exchange order id.
	FetchOrder(ctx context.Context, orderID, symbol string) (*Order, error)

	// Supports reports whether the provider implements the named
	// capability. It is a local lookup and performs no network call.
	Supports(capability string) bool

	// Close releases any resources held by the provider.
	Close() error
}
