package model

import "time"

// MarketDataSource marks aggregates built from user submissions.
const MarketDataSource = "user_reports"

// PriceReport is a single user submission appended to a market aggregate.
type PriceReport struct {
	Price         float64   `json:"price" bson:"price"`
	FairnessScore int       `json:"fairnessScore" bson:"fairnessScore"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	UserID        string    `json:"userId" bson:"userId"`
}

// MarketPriceAggregate is the rolling summary for one (country, item) pair.
// Scalar fields hold the most recent estimate; PriceReports only grows.
type MarketPriceAggregate struct {
	Country      string        `json:"country" bson:"country"`
	ItemName     string        `json:"itemName" bson:"itemName"`
	Currency     string        `json:"currency" bson:"currency"`
	FairPriceMin float64       `json:"fairPriceMin" bson:"fairPriceMin"`
	FairPriceMax float64       `json:"fairPriceMax" bson:"fairPriceMax"`
	LastUpdated  time.Time     `json:"lastUpdated" bson:"lastUpdated"`
	ReportCount  int64         `json:"reportCount" bson:"reportCount"`
	PriceReports []PriceReport `json:"priceReports" bson:"priceReports"`
	DataSource   string        `json:"dataSource" bson:"dataSource"`
}

// MarketPriceUpdate carries one report into an upsert.
type MarketPriceUpdate struct {
	Currency     string
	FairPriceMin float64
	FairPriceMax float64
	Report       PriceReport
}

// MarketPriceUpdateFrom builds the market upsert payload for a stored purchase.
func MarketPriceUpdateFrom(p *PurchaseRecord) MarketPriceUpdate {
	return MarketPriceUpdate{
		Currency:     p.Currency,
		FairPriceMin: p.FairPriceMin,
		FairPriceMax: p.FairPriceMax,
		Report: PriceReport{
			Price:         p.PricePaid,
			FairnessScore: p.FairnessScore,
			Timestamp:     p.CreatedAt,
			UserID:        p.UserID,
		},
	}
}
