package settings

import "time"

// SystemSetting is a key->value row backing the tunables the pricing,
// matching, and payments components resolve at call time (§3): things
// like base_price_multiplier and max_search_time live here instead of in
// code, so ops can retune them without a deploy.
type SystemSetting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults mirror the fallbacks every SettingsProvider caller already
// passes inline; kept here too so Seed can populate a fresh database with
// the same values the system would otherwise silently fall back to.
var Defaults = map[string]string{
	"base_price_multiplier":   "1.0",
	"urgent_price_multiplier": "1.5",
	"express_price_multiplier": "1.2",
	"tax_rate":                "0.0875",
	"courier_commission_rate": "0.80",
	"max_delivery_distance":   "50",
	"min_courier_rating":      "4.0",
	"max_search_time":         "15",
	"courier_idle_timeout":    "30",
}
