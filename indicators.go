package pricelog

import "math"

// Thresholds of the technical indicators.
const (
	zScoreThreshold = 1.5
	shortMA         = 50
	longMA          = 200
	rsiPeriod       = 14
	rsiOversold     = 30
	rsiOverbought   = 70
)

// Valuation classifies the last price against the symbol's own history.
type Valuation int

const (
	Neutral Valuation = iota
	Overvalued
	Undervalued
)

func (v Valuation) String() string {
	switch v {
	case Overvalued:
		return "overvalued"
	case Undervalued:
		return "undervalued"
	default:
		return "neutral"
	}
}

// Momentum compares the short and long moving averages.
type Momentum int

const (
	// NoMomentum means there are not enough points to compute it.
	NoMomentum Momentum = iota
	// Positive is a golden cross: short MA above long MA.
	Positive
	// Negative is a death cross.
	Negative
)

func (m Momentum) String() string {
	switch m {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "not enough data"
	}
}

// Signal is the RSI based recommendation.
type Signal int

const (
	Hold Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Indicators are technical statistics of one symbol's observed prices.
type Indicators struct {
	Symbol string
	Points int

	ZScore    float64
	Valuation Valuation

	ShortMA, LongMA float64
	Momentum        Momentum

	RSI      float64
	RSIValid bool
	Signal   Signal
}

// ComputeIndicators returns the indicators of every held symbol with at least
// one observation, in holdings order. Only observed prices are used,
// forward-filled values are not.
func ComputeIndicators(series AlignedSeries) []Indicators {
	var result []Indicators
	for _, symbol := range series.Symbols {
		var prices []float64
		for _, row := range series.Rows {
			if row.Observed(symbol) {
				prices = append(prices, row.Prices[symbol].InexactFloat64())
			}
		}
		if len(prices) == 0 {
			continue
		}
		result = append(result, indicatorsOf(symbol, prices))
	}
	return result
}

func indicatorsOf(symbol string, prices []float64) Indicators {
	ind := Indicators{Symbol: symbol, Points: len(prices)}

	ind.ZScore = zScore(prices)
	ind.Valuation = valuationOf(ind.ZScore)

	if len(prices) >= shortMA {
		ind.ShortMA = mean(prices[len(prices)-shortMA:])
		ind.LongMA = mean(prices[len(prices)-min(len(prices), longMA):])
		if ind.ShortMA > ind.LongMA {
			ind.Momentum = Positive
		} else {
			ind.Momentum = Negative
		}
	}

	ind.RSI, ind.RSIValid = rsi(prices, rsiPeriod)
	if ind.RSIValid {
		switch {
		case ind.RSI < rsiOversold:
			ind.Signal = Buy
		case ind.RSI > rsiOverbought:
			ind.Signal = Sell
		}
	}
	return ind
}

// valuationOf classifies a z-score; the threshold itself is Neutral.
func valuationOf(z float64) Valuation {
	switch {
	case z > zScoreThreshold:
		return Overvalued
	case z < -zScoreThreshold:
		return Undervalued
	}
	return Neutral
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// zScore of the last value, zero if the values do not vary.
func zScore(values []float64) float64 {
	std := stddev(values)
	if std <= 0 {
		return 0
	}
	return (values[len(values)-1] - mean(values)) / std
}

// rsi computes the relative strength index over the last period changes,
// using simple averages of gains and losses.
func rsi(prices []float64, period int) (float64, bool) {
	if len(prices) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	gain, loss = gain/float64(period), loss/float64(period)
	switch {
	case gain == 0 && loss == 0:
		return 0, false
	case loss == 0:
		return 100, true
	}
	rs := gain / loss
	return 100 - 100/(1+rs), true
}
