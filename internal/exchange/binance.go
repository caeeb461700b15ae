package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dca-trade-bot-go/internal/config"
	"dca-trade-bot-go/internal/ratelimit"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	binanceBaseURL        = "https://api.binance.com/api/v3"
	binanceTestnetBaseURL = "https://testnet.binance.vision/api/v3"
	recvWindow            = "5000" // How long a request is valid in milliseconds
)

// Binance is an exchange Provider backed by the Binance spot REST API.
type Binance struct {
	client    *resty.Client
	apiKey    string
	secretKey string
	logger    *zap.Logger
	limiter   *ratelimit.Limiter
	caps      map[string]bool
}

// ensure Binance implements the interface
var _ Provider = (*Binance)(nil)

func init() {
	Register("binance", NewBinance)
}

// NewBinance creates a Binance provider from the exchange configuration.
func NewBinance(cfg *config.Exchange, logger *zap.Logger) (Provider, error) {
	var baseURL string
	if cfg.Testnet {
		baseURL = binanceTestnetBaseURL
		logger.Warn("Using Binance Testnet")
	} else {
		baseURL = binanceBaseURL
		logger.Info("Using Binance Production API")
	}

	period := time.Duration(cfg.RateLimitPeriod * float64(time.Second))
	limiter, err := ratelimit.New(cfg.RateLimitCalls, period)
	if err != nil {
		return nil, err
	}

	return &Binance{
		client:    resty.New().SetBaseURL(baseURL),
		apiKey:    cfg.ApiKey,
		secretKey: cfg.SecretKey,
		logger:    logger,
		limiter:   limiter,
		caps: map[string]bool{
			"fetchBalance":      true,
			"fetchOHLCV":        true,
			"createOrder":       true,
			"createMarketOrder": true,
			"fetchOrder":        true,
		},
	}, nil
}

// Name returns the provider's registry name.
func (b *Binance) Name() string { return "binance" }

// Supports reports whether the named capability is implemented.
// It never performs a network call.
func (b *Binance) Supports(capability string) bool {
	return b.caps[capability]
}

// Close releases provider resources. The REST client holds none.
func (b *Binance) Close() error { return nil }

// sign creates a HMAC-SHA256 signature for the request.
func (b *Binance) sign(data string) string {
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// signedQuery stamps and signs the given params for an authenticated
// endpoint.
func (b *Binance) signedQuery(params url.Values) string {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", recvWindow)
	qs := params.Encode()
	return qs + "&signature=" + b.sign(qs)
}

// doRequest waits on the rate limiter, then executes the request once.
// Failures are wrapped in *Error and surfaced to the caller; there is
// no internal retry.
func (b *Binance) doRequest(ctx context.Context, op, method, path string, req *resty.Request) (*resty.Response, error) {
	if err := b.limiter.Acquire(ctx); err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	b.logger.Debug("Executing request",
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("path", path),
	)

	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &Error{Op: op, Err: fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())}
	}
	return resp, nil
}

// binanceSymbol converts a unified "BTC/USDT" symbol to Binance's
// "BTCUSDT" form.
func binanceSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// mapOrderStatus maps Binance order statuses onto the normalized set.
func mapOrderStatus(status string) string {
	switch status {
	case "NEW", "PARTIALLY_FILLED":
		return StatusOpen
	case "FILLED":
		return StatusClosed
	case "CANCELED", "REJECTED", "EXPIRED":
		return StatusCanceled
	default:
		return strings.ToLower(status)
	}
}

type accountResponse struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

// FetchBalance returns the spot account balance for all assets with a
// non-zero amount.
func (b *Binance) FetchBalance(ctx context.Context) (*Balance, error) {
	req := b.client.R().
		SetHeader("X-MBX-APIKEY", b.apiKey).
		SetQueryString(b.signedQuery(url.Values{})).
		SetResult(&accountResponse{})

	resp, err := b.doRequest(ctx, "fetch_balance", "GET", "/account", req)
	if err != nil {
		return nil, err
	}

	account := resp.Result().(*accountResponse)
	balance := &Balance{Assets: make(map[string]Asset, len(account.Balances))}
	for _, entry := range account.Balances {
		free, _ := strconv.ParseFloat(entry.Free, 64)
		locked, _ := strconv.ParseFloat(entry.Locked, 64)
		if free == 0 && locked == 0 {
			continue
		}
		balance.Assets[entry.Asset] = Asset{Free: free, Locked: locked}
	}
	return balance, nil
}

// FetchOHLCV returns candles for the symbol at the given timeframe.
// Binance timeframe strings ("1m", "1h", "1d", ...) are used as-is.
func (b *Binance) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]Candle, error) {
	var rows [][]any

	req := b.client.R().
		SetQueryParam("symbol", binanceSymbol(symbol)).
		SetQueryParam("interval", timeframe).
		SetResult(&rows)
	if since > 0 {
		req.SetQueryParam("startTime", strconv.FormatInt(since, 10))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	if _, err := b.doRequest(ctx, "fetch_ohlcv", "GET", "/klines", req); err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(rows))
	for _, row := range rows {
		// Kline rows are [openTime, open, high, low, close, volume, ...].
		if len(row) < 6 {
			continue
		}
		candles = append(candles, Candle{
			Timestamp: asInt64(row[0]),
			Open:      asFloat(row[1]),
			High:      asFloat(row[2]),
			Low:       asFloat(row[3]),
			Close:     asFloat(row[4]),
			Volume:    asFloat(row[5]),
		})
	}
	return candles, nil
}

type orderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	TransactTime  int64  `json:"transactTime"`
	Price         string `json:"price"`
	OrigQuantity  string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Status        string `json:"status"`
	Type          string `json:"type"`
	Side          string `json:"side"`
}

// toOrder converts a Binance order payload to the normalized Order.
func (r *orderResponse) toOrder(raw map[string]any) *Order {
	amount, _ := strconv.ParseFloat(r.OrigQuantity, 64)
	price, _ := strconv.ParseFloat(r.Price, 64)
	return &Order{
		ID:     strconv.FormatInt(r.OrderID, 10),
		Symbol: r.Symbol,
		Side:   strings.ToLower(r.Side),
		Type:   strings.ToLower(r.Type),
		Amount: amount,
		Price:  price,
		Status: mapOrderStatus(r.Status),
		Raw:    raw,
	}
}

// PlaceOrder submits a new order. A nil price places a market order;
// otherwise a GTC limit order at that price.
func (b *Binance) PlaceOrder(ctx context.Context, symbol, side string, amount float64, price *float64, orderType string) (*Order, error) {
	params := url.Values{}
	params.Set("symbol", binanceSymbol(symbol))
	params.Set("side", strings.ToUpper(side))
	params.Set("quantity", strconv.FormatFloat(amount, 'f', -1, 64))
	params.Set("newClientOrderId", uuid.NewString())

	if price == nil || orderType == OrderTypeMarket {
		params.Set("type", "MARKET")
	} else {
		params.Set("type", strings.ToUpper(orderType))
		params.Set("price", strconv.FormatFloat(*price, 'f', -1, 64))
		params.Set("timeInForce", "GTC")
	}

	req := b.client.R().
		SetHeader("X-MBX-APIKEY", b.apiKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(b.signedQuery(params)).
		SetResult(&orderResponse{})

	resp, err := b.doRequest(ctx, "place_order", "POST", "/order", req)
	if err != nil {
		b.logger.Error("Failed to place order",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.String("side", side),
		)
		return nil, err
	}

	order := resp.Result().(*orderResponse).toOrder(rawBody(resp))
	b.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("symbol", symbol),
		zap.String("status", order.Status),
	)
	return order, nil
}

// FetchOrder retrieves an order by its exchange order id.
func (b *Binance) FetchOrder(ctx context.Context, orderID, symbol string) (*Order, error) {
	params := url.Values{}
	params.Set("symbol", binanceSymbol(symbol))
	params.Set("orderId", orderID)

	req := b.client.R().
		SetHeader("X-MBX-APIKEY", b.apiKey).
		SetQueryString(b.signedQuery(params)).
		SetResult(&orderResponse{})

	resp, err := b.doRequest(ctx, "fetch_order", "GET", "/order", req)
	if err != nil {
		return nil, err
	}

	return resp.Result().(*orderResponse).toOrder(rawBody(resp)), nil
}

// rawBody decodes the response body into a generic map so the exchange
// payload can be persisted verbatim as trade metadata.
func rawBody(resp *resty.Response) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil
	}
	return raw
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}
