package entity

// Price is an amount quoted by the data API, kept as the API formats it.
type Price struct {
	Currency *Currency `json:"currency,omitempty"`
	Amount   *Amount   `json:"amount,omitempty"`
}

// Currency identifies the token a price is denominated in.
type Currency struct {
	Contract string `json:"contract,omitempty"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals,omitempty"`
}

// Amount carries the raw, decimal and fiat forms of a price.
type Amount struct {
	Raw     string  `json:"raw,omitempty"`
	Decimal float64 `json:"decimal,omitempty"`
	USD     float64 `json:"usd,omitempty"`
	Native  float64 `json:"native,omitempty"`
}

// FloorAsk is the cheapest active listing of a collection.
type FloorAsk struct {
	ID    string `json:"id,omitempty"`
	Price *Price `json:"price,omitempty"`
}

// Collection is one row of a collection ranking.
type Collection struct {
	ID              string                `json:"id"`
	Slug            string                `json:"slug,omitempty"`
	Name            string                `json:"name,omitempty"`
	Image           string                `json:"image,omitempty"`
	Banner          string                `json:"banner,omitempty"`
	Description     string                `json:"description,omitempty"`
	TokenCount      string                `json:"tokenCount,omitempty"`
	OnSaleCount     string                `json:"onSaleCount,omitempty"`
	OwnerCount      int                   `json:"ownerCount,omitempty"`
	FloorAsk        *FloorAsk             `json:"floorAsk,omitempty"`
	Volume          map[VolumeKey]float64 `json:"volume,omitempty"`
	VolumeChange    map[VolumeKey]float64 `json:"volumeChange,omitempty"`
	FloorSaleChange map[VolumeKey]float64 `json:"floorSaleChange,omitempty"`
}

// VolumeFor returns the collection's traded volume in the given window.
func (c Collection) VolumeFor(key VolumeKey) float64 {
	return c.Volume[key]
}

// FloorPrice returns the decimal floor price and its currency symbol, if listed.
func (c Collection) FloorPrice() (float64, string, bool) {
	if c.FloorAsk == nil || c.FloorAsk.Price == nil || c.FloorAsk.Price.Amount == nil {
		return 0, "", false
	}
	symbol := ""
	if c.FloorAsk.Price.Currency != nil {
		symbol = c.FloorAsk.Price.Currency.Symbol
	}
	return c.FloorAsk.Price.Amount.Decimal, symbol, true
}

// Mint is one row of a trending mints ranking.
type Mint struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Image        string  `json:"image,omitempty"`
	MintType     string  `json:"mintType,omitempty"`
	MintStatus   string  `json:"mintStatus,omitempty"`
	MintCount    int     `json:"mintCount,omitempty"`
	OneHourCount int     `json:"oneHourCount,omitempty"`
	SixHourCount int     `json:"sixHourCount,omitempty"`
	TokenCount   int     `json:"tokenCount,omitempty"`
	OwnerCount   int     `json:"ownerCount,omitempty"`
	MintPrice    *Price  `json:"mintPrice,omitempty"`
	MintVolume   float64 `json:"mintVolume,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// CollectionsPayload is the body of a collections ranking response.
// The zero value encodes as an empty object.
type CollectionsPayload struct {
	Collections  []Collection `json:"collections,omitempty"`
	Continuation *string      `json:"continuation,omitempty"`
}

// IsEmpty reports whether the payload carries no rows.
func (p CollectionsPayload) IsEmpty() bool {
	return len(p.Collections) == 0
}

// NextPage returns the continuation token for the following page, if any.
func (p CollectionsPayload) NextPage() (string, bool) {
	if p.Continuation == nil || *p.Continuation == "" {
		return "", false
	}
	return *p.Continuation, true
}

// MintsPayload is the body of a trending mints response.
// The zero value encodes as an empty object.
type MintsPayload struct {
	Mints []Mint `json:"mints,omitempty"`
}

// IsEmpty reports whether the payload carries no rows.
func (p MintsPayload) IsEmpty() bool {
	return len(p.Mints) == 0
}

// HomeRankings is the initial data of the landing page, one field per logical query.
type HomeRankings struct {
	TrendingCollections CollectionsPayload `json:"trendingCollections"`
	FeaturedCollections CollectionsPayload `json:"featuredCollections"`
	TrendingMints       MintsPayload       `json:"trendingMints"`
	SortBy              SortBy             `json:"sortBy"`
	Period              MintPeriod         `json:"period"`
	Failed              []DatasetTag       `json:"failed,omitempty"`
}
