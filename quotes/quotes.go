// Package quotes fetches real-time prices and company profiles and caches
// them with per-kind TTLs. Prices move constantly and expire quickly;
// profiles are near-static and are kept for a day.
package quotes

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote is the real-time price snapshot for a symbol. Field tags follow the
// upstream API's single-letter naming.
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
}

// Profile is the static company record for a symbol.
type Profile struct {
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Industry string `json:"finnhubIndustry"`
	Logo     string `json:"logo"`
}

// Source produces quotes and profiles for a symbol. Implementations must be
// safe for concurrent use.
type Source interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
	Profile(ctx context.Context, symbol string) (Profile, error)
}

var hundred = decimal.NewFromInt(100)

// Cents converts a dollar amount to integer cents, truncating toward zero.
// Going through decimal avoids float artifacts: 0.29 becomes 29, not 28.
func Cents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(hundred).IntPart()
}
