package models

// Seller summarizes a listing's seller reputation.
type Seller struct {
	Name    string `json:"name"`
	Percent string `json:"percent"`
	Ratings string `json:"ratings"`
}

// Listing is one normalized marketplace item, display-ready.
type Listing struct {
	URL       string   `json:"url"`
	Images    []string `json:"images"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Price     string   `json:"price"`
	Shipping  string   `json:"shipping"`
	Condition string   `json:"condition"`
	Text      *string  `json:"text"`
	End       string   `json:"end"`
	Location  string   `json:"location"`
	Seller    Seller   `json:"seller"`
}

// ListingPage is the result of one marketplace pull. On provider
// failure Error carries the upstream message and List is empty.
type ListingPage struct {
	Count int       `json:"count"`
	List  []Listing `json:"list"`
	Error string    `json:"error,omitempty"`
}

// FilterGroupView is one group of selectable filters for the panel.
type FilterGroupView struct {
	Name    string   `json:"name"`
	Slug    string   `json:"slug"`
	Filters []Filter `json:"filters"`
}

// ProductResponse is the full product page payload.
type ProductResponse struct {
	Product *Product            `json:"product"`
	Models  []Product           `json:"models"`
	Filters []FilterGroupView   `json:"filters"`
	Items   *ListingPage        `json:"items"`
	Query   map[string][]string `json:"query"`
}

// CategoryResponse is the category page payload.
type CategoryResponse struct {
	Category *Category  `json:"category"`
	Children []Category `json:"children"`
	Products []Product  `json:"products"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
