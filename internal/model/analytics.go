package model

import "gnosislens-api/internal/fairness"

// UserAnalytics summarises one user's purchases.
type UserAnalytics struct {
	UserID               string   `json:"userId"`
	TotalPurchases       int      `json:"totalPurchases"`
	TotalSpent           float64  `json:"totalSpent"`
	AverageFairnessScore float64  `json:"averageFairnessScore"`
	HighestFairnessScore int      `json:"highestFairnessScore"`
	LowestFairnessScore  int      `json:"lowestFairnessScore"`
	Countries            []string `json:"countries"`
	Personas             []string `json:"personas"`
	TotalScammed         int      `json:"totalScammed"`
	TotalFairDeals       int      `json:"totalFairDeals"`
	Insights             Insights `json:"insights"`
}

// Insights are the derived hints shown next to user analytics.
type Insights struct {
	RiskLevel           fairness.Label   `json:"riskLevel"`
	ScamPercentage      int              `json:"scamPercentage"`
	FairDealPercentage  int              `json:"fairDealPercentage"`
	EstimatedMoneySaved float64          `json:"estimatedMoneySaved"`
	MostScammedCountry  string           `json:"mostScammedCountry,omitempty"`
	FavoritePersona     fairness.Persona `json:"favoritePersona,omitempty"`
}

// CountryScore is the mean fairness score observed in one country.
type CountryScore struct {
	Country              string  `json:"country"`
	Purchases            int     `json:"purchases"`
	AverageFairnessScore float64 `json:"averageFairnessScore"`
}

// GlobalAnalytics summarises every stored purchase.
type GlobalAnalytics struct {
	TotalPurchases       int            `json:"totalPurchases"`
	AverageFairnessScore float64        `json:"averageFairnessScore"`
	HighestFairnessScore int            `json:"highestFairnessScore"`
	LowestFairnessScore  int            `json:"lowestFairnessScore"`
	TotalScammed         int            `json:"totalScammed"`
	TotalFairDeals       int            `json:"totalFairDeals"`
	Countries            []string       `json:"countries"`
	PersonaUsage         map[string]int `json:"personaUsage"`
	CountryScores        []CountryScore `json:"countryScores"`
	MostScammedCountry   string         `json:"mostScammedCountry,omitempty"`
}

// PriceStatistics describes the reports collected for one (country, item) pair.
type PriceStatistics struct {
	Country              string        `json:"country"`
	ItemName             string        `json:"itemName"`
	Currency             string        `json:"currency"`
	AveragePrice         float64       `json:"averagePrice"`
	MinPrice             float64       `json:"minPrice"`
	MaxPrice             float64       `json:"maxPrice"`
	StandardDeviation    float64       `json:"standardDeviation"`
	TotalReports         int           `json:"totalReports"`
	AverageFairnessScore float64       `json:"averageFairnessScore"`
	RecentReports        []PriceReport `json:"recentReports"`
}
