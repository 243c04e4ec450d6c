package market

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The aggregator's response shape differs per endpoint and has changed
// over time. Each matcher interprets one known shape; matchers run in
// priority order and stay independent of the fetch loop so a new shape
// is one more entry here.
type shapeFunc func(body []byte) (Snapshot, bool)

var shapes = []shapeFunc{
	parseBareList,
	parseNestedList,
	parseFlatObject,
}

// listAliases are field names under which endpoints nest their pair list.
var listAliases = []string{"pairs", "data", "results", "tokens"}

// parseSnapshot applies the shape matchers in order and returns the
// first non-empty snapshot.
func parseSnapshot(body []byte) (Snapshot, bool) {
	for _, shape := range shapes {
		if snap, ok := shape(body); ok && !snap.Empty() {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// pairEntry is one trading pair as the aggregator reports it. Numeric
// fields arrive as numbers or formatted strings depending on endpoint
// version, so they are captured raw and coerced.
type pairEntry struct {
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  json.RawMessage `json:"priceUsd"`
	Liquidity struct {
		USD json.RawMessage `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 json.RawMessage `json:"h24"`
	} `json:"volume"`
	URL string `json:"url"`
}

func (p pairEntry) snapshot() Snapshot {
	return Snapshot{
		Name:      p.BaseToken.Name,
		Symbol:    p.BaseToken.Symbol,
		Price:     coerceNumber(p.PriceUSD),
		Liquidity: coerceNumber(p.Liquidity.USD),
		Volume24h: coerceNumber(p.Volume.H24),
		URL:       p.URL,
	}
}

// parseBareList handles a body that is directly a pair array.
func parseBareList(body []byte) (Snapshot, bool) {
	var pairs []pairEntry
	if err := json.Unmarshal(body, &pairs); err != nil || len(pairs) == 0 {
		return Snapshot{}, false
	}
	return pairs[0].snapshot(), true
}

// parseNestedList handles a body with the pair array under an alias field.
func parseNestedList(body []byte) (Snapshot, bool) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return Snapshot{}, false
	}
	for _, alias := range listAliases {
		raw, ok := wrapper[alias]
		if !ok {
			continue
		}
		var pairs []pairEntry
		if err := json.Unmarshal(raw, &pairs); err != nil || len(pairs) == 0 {
			continue
		}
		return pairs[0].snapshot(), true
	}
	return Snapshot{}, false
}

// parseFlatObject handles a body that carries the fields directly.
func parseFlatObject(body []byte) (Snapshot, bool) {
	var flat struct {
		Name      string          `json:"name"`
		Symbol    string          `json:"symbol"`
		Price     json.RawMessage `json:"price"`
		PriceUSD  json.RawMessage `json:"priceUsd"`
		Liquidity json.RawMessage `json:"liquidity"`
		Volume24h json.RawMessage `json:"volume24h"`
		URL       string          `json:"url"`
	}
	if err := json.Unmarshal(body, &flat); err != nil {
		return Snapshot{}, false
	}

	price := coerceNumber(flat.PriceUSD)
	if price == nil {
		price = coerceNumber(flat.Price)
	}
	return Snapshot{
		Name:      flat.Name,
		Symbol:    flat.Symbol,
		Price:     price,
		Liquidity: coerceNumber(flat.Liquidity),
		Volume24h: coerceNumber(flat.Volume24h),
		URL:       flat.URL,
	}, true
}

// coerceNumber turns a raw JSON value (number, or a string like
// "$1,234.56") into a float. Everything but digits, sign and decimal
// point is stripped before parsing. Unparseable values stay absent.
func coerceNumber(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' {
			b.WriteRune(c)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &f
}
