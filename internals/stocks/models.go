package stocks

import "time"

// Stock is a draftable instrument. It holds only plain values, so a copy is an
// independent snapshot: later score updates to the live row never reach it.
type Stock struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Symbol        string    `json:"symbol" gorm:"uniqueIndex;not null"`
	Company       string    `json:"company" gorm:"not null"`
	Sector        string    `json:"sector" gorm:"index"`
	TotalScore    float64   `json:"total_score"`
	GrowthScore   float64   `json:"growth_score"`
	ValueScore    float64   `json:"value_score"`
	RiskScore     float64   `json:"risk_score"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"market_cap"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Filter narrows stock listings the way the players page does.
type Filter struct {
	Query    string  `json:"query"`
	Sector   string  `json:"sector"`
	MinScore float64 `json:"min_score"`
	Limit    int     `json:"limit"`
}

// ScoreUpdate carries freshly computed scores and market fields for one symbol.
type ScoreUpdate struct {
	Symbol        string   `json:"symbol"`
	Company       string   `json:"company,omitempty"`
	Sector        string   `json:"sector,omitempty"`
	TotalScore    *float64 `json:"total_score,omitempty"`
	GrowthScore   *float64 `json:"growth_score,omitempty"`
	ValueScore    *float64 `json:"value_score,omitempty"`
	RiskScore     *float64 `json:"risk_score,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Change        *float64 `json:"change,omitempty"`
	ChangePercent *float64 `json:"change_percent,omitempty"`
	Volume        *int64   `json:"volume,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
}
