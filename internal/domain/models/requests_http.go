package models

// Requests for sentiment HTTP endpoints. Defined in domain for consistency and reuse.

type RecentRequest struct {
	Source   string `query:"source" json:"source" default:"twitter" validate:"oneof=twitter facebook reviews surveys all"`
	Keywords string `query:"keywords" json:"keywords" default:"brand"`
	Limit    int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type AnalyzeRequest struct {
	Text   string `json:"text" validate:"required,min=1,max=5000"`
	Source string `json:"source" default:"manual"`
}

type HistoricalRequest struct {
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
	Source string `query:"source" json:"source" default:"all" validate:"oneof=twitter facebook reviews surveys all"`
}

type ForecastRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1,lte=30"`
}

type BatchAnalyzeRequest struct {
	Texts  []string `json:"texts" validate:"required,min=1,max=1000,dive,required,max=5000"`
	Source string   `json:"source" default:"manual"`
}

type TrendsRequest struct {
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
	Source string `query:"source" json:"source" default:"all" validate:"oneof=twitter facebook reviews surveys all"`
}

type AlertsRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1,lte=30"`
}
