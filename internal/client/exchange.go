package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anonymousminati/finly-backend/pkg/httpclient"
)

const rateKeyPrefix = "fx:"

// ExchangeRateClient fetches currency conversion rates from an external
// provider, with a Redis read-through cache in front. A cached rate is served
// until its TTL lapses; only misses hit the provider.
type ExchangeRateClient struct {
	http     HTTPDoer
	redis    *redis.Client
	baseURL  string
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewExchangeRateClient creates a new exchange rate client.
func NewExchangeRateClient(httpClient HTTPDoer, redisClient *redis.Client, baseURL string, cacheTTL time.Duration, logger *slog.Logger) *ExchangeRateClient {
	return &ExchangeRateClient{
		http:     httpClient,
		redis:    redisClient,
		baseURL:  baseURL,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Rate returns the conversion rate from one currency to another. Identical
// currencies convert at 1.
func (c *ExchangeRateClient) Rate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}

	key := rateKeyPrefix + from + ":" + to
	if rate, ok := c.cached(ctx, key); ok {
		return rate, nil
	}

	rate, err := c.fetch(ctx, from, to)
	if err != nil {
		return 0, err
	}

	c.store(ctx, key, rate)
	return rate, nil
}

// Convert converts an amount in minor units between currencies, rounding to
// the nearest minor unit.
func (c *ExchangeRateClient) Convert(ctx context.Context, amount int64, from, to string) (int64, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(float64(amount) * rate)), nil
}

func (c *ExchangeRateClient) cached(ctx context.Context, key string) (float64, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "exchange rate cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return 0, false
	}

	var rate float64
	if err := json.Unmarshal(data, &rate); err != nil {
		return 0, false
	}
	return rate, true
}

func (c *ExchangeRateClient) store(ctx context.Context, key string, rate float64) {
	data, err := json.Marshal(rate)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "exchange rate cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (c *ExchangeRateClient) fetch(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s/api/v1/rates?from=%s&to=%s", c.baseURL, from, to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create rate request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("call exchange rate provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, httpclient.ParseResponseError(resp, "exchange")
	}

	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}
	if body.Rate <= 0 {
		return 0, fmt.Errorf("provider returned non-positive rate %f for %s/%s", body.Rate, from, to)
	}

	c.logger.DebugContext(ctx, "exchange rate fetched",
		slog.String("pair", from+"/"+to),
		slog.Float64("rate", body.Rate),
	)

	return body.Rate, nil
}
