// Package yahoo implements pricelog.Source on top of the Yahoo Finance chart API.
package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/pricelog"
	"github.com/etnz/pricelog/date"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const chartPath = "/v8/finance/chart/{symbol}"

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds every http request, on top of the caller's context.
	Timeout time.Duration
	// CacheDir holds the daily cache of history responses. Empty means the
	// system temporary directory.
	CacheDir string
	Logger   zerolog.Logger
}

// Client fetches spot prices and daily closes.
type Client struct {
	spot    *resty.Client
	history *resty.Client
	log     zerolog.Logger
}

var _ pricelog.Source = (*Client)(nil)

// New returns a Client. Spot prices are never cached, daily histories are
// cached on disk for the day.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = pricelog.DefaultTimeout
	}
	return &Client{
		spot:    newResty(opts),
		history: newResty(opts).SetTransport(newDailyCache(opts.CacheDir, opts.Logger)),
		log:     opts.Logger,
	}
}

func newResty(opts Options) *resty.Client {
	return resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; pricelog)")
}

// SpotPrice implements pricelog.Source.
func (c *Client) SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	jobj, err := c.chart(ctx, c.spot, symbol, map[string]string{"range": "1d", "interval": "1m"})
	if err != nil {
		return decimal.Decimal{}, err
	}
	path := "$.chart.result[0].meta.regularMarketPrice"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: no %q: %w", pricelog.ErrDataUnavailable, symbol, path, err)
	}
	v, err := number(jval)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s: %q: %w", pricelog.ErrDataUnavailable, symbol, path, err)
	}
	return v, nil
}

// DailyHistory implements pricelog.Source. Days without a close are skipped.
func (c *Client) DailyHistory(ctx context.Context, symbol string, from, to date.Date) (*date.History[decimal.Decimal], error) {
	params := map[string]string{
		"period1":  strconv.FormatInt(from.In(time.UTC).Unix(), 10),
		"period2":  strconv.FormatInt(to.Add(1).In(time.UTC).Unix(), 10),
		"interval": "1d",
		"events":   "history",
	}
	jobj, err := c.chart(ctx, c.history, symbol, params)
	if err != nil {
		return nil, err
	}

	h := new(date.History[decimal.Decimal])
	stamps, _ := jsonpath.Get("$.chart.result[0].timestamp", jobj)
	closes, _ := jsonpath.Get("$.chart.result[0].indicators.quote[0].close", jobj)
	jstamps, _ := stamps.([]any)
	jcloses, _ := closes.([]any)
	if len(jstamps) != len(jcloses) {
		return nil, fmt.Errorf("%w: %s: %d timestamps for %d closes", pricelog.ErrDataUnavailable, symbol, len(jstamps), len(jcloses))
	}

	// timestamps are market open instants, the exchange offset gives their day.
	offset := int64(0)
	if jval, err := jsonpath.Get("$.chart.result[0].meta.gmtoffset", jobj); err == nil {
		if v, err := number(jval); err == nil {
			offset = v.IntPart()
		}
	}

	for i, jstamp := range jstamps {
		stamp, err := number(jstamp)
		if err != nil {
			continue
		}
		v, err := number(jcloses[i])
		if err != nil {
			// null close, the market was closed or the data is missing.
			continue
		}
		day := date.Of(time.Unix(stamp.IntPart()+offset, 0).UTC())
		if day.Before(from) || day.After(to) {
			continue
		}
		h.Append(day, v)
	}
	c.log.Debug().Str("symbol", symbol).Int("days", h.Len()).Msg("daily history fetched")
	return h, nil
}

// chart gets the chart of symbol and decodes it as a generic json object.
func (c *Client) chart(ctx context.Context, client *resty.Client, symbol string, params map[string]string) (any, error) {
	resp, err := client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(params).
		Get(chartPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot get %s: %w", pricelog.ErrDataUnavailable, symbol, err)
	}

	var jobj any
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	decodeErr := dec.Decode(&jobj)

	if resp.IsError() {
		if decodeErr == nil {
			if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil {
				return nil, fmt.Errorf("%w: %s: %s: %v", pricelog.ErrDataUnavailable, symbol, resp.Status(), desc)
			}
		}
		return nil, fmt.Errorf("%w: %s: %s", pricelog.ErrDataUnavailable, symbol, resp.Status())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: invalid json: %w", pricelog.ErrDataUnavailable, symbol, decodeErr)
	}
	return jobj, nil
}

// number converts a decoded json number into a decimal.
func number(jval any) (decimal.Decimal, error) {
	// jsonpath may return a list of one answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case nil:
		return decimal.Decimal{}, errors.New("null")
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %v", jval)
	}
}
