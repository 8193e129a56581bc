package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price is a decimal(10,2) amount. It encodes as a JSON number with two
// decimals and decodes from either a number or a numeric string, since
// HTML forms post prices as text. Empty strings and null decode to zero.
type Price float64

// String renders p with two decimals.
func (p Price) String() string {
	return strconv.FormatFloat(p.rounded(), 'f', 2, 64)
}

func (p Price) rounded() float64 {
	return math.Round(float64(p)*100) / 100
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*p = 0
			return nil
		}
	}

	v, err := parsePrice(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Scan reads DECIMAL columns, which drivers return as float64, int64,
// []byte or string depending on the dialect.
func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = 0
		return nil
	case float64:
		*p = Price(v)
		return nil
	case float32:
		*p = Price(v)
		return nil
	case int64:
		*p = Price(v)
		return nil
	case []byte:
		return p.scanString(string(v))
	case string:
		return p.scanString(v)
	}
	return fmt.Errorf("price: cannot scan %T", src)
}

func (p *Price) scanString(s string) error {
	v, err := parsePrice(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Price) Value() (driver.Value, error) {
	return p.rounded(), nil
}

func parsePrice(s string) (Price, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("price: %q is not a number", s)
	}
	return Price(f), nil
}
