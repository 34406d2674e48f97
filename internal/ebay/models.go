package ebay

import "strconv"

// Typed views of the two provider responses. Fields the normalizer
// treats as optional are pointers; everything else decodes to its zero
// value and is validated where it is consumed.

// Money is a provider price amount, kept as the provider's string.
type Money struct {
	CurrencyID string `json:"_currencyId"`
	Value      string `json:"value"`
}

type Condition struct {
	ConditionID          string `json:"conditionId"`
	ConditionDisplayName string `json:"conditionDisplayName"`
}

type ListingInfo struct {
	ListingType            string `json:"listingType"`
	BuyItNowAvailable      string `json:"buyItNowAvailable"`
	ConvertedBuyItNowPrice *Money `json:"convertedBuyItNowPrice"`
	StartTime              string `json:"startTime"`
	EndTime                string `json:"endTime"`
}

type SellingStatus struct {
	ConvertedCurrentPrice Money  `json:"convertedCurrentPrice"`
	BidCount              string `json:"bidCount"`
	TimeLeft              string `json:"timeLeft"`
	SellingState          string `json:"sellingState"`
}

type ShippingInfo struct {
	ShippingServiceCost *Money `json:"shippingServiceCost"`
	ShippingType        string `json:"shippingType"`
}

type SellerInfo struct {
	SellerUserName          string `json:"sellerUserName"`
	PositiveFeedbackPercent string `json:"positiveFeedbackPercent"`
	FeedbackScore           string `json:"feedbackScore"`
	TopRatedSeller          string `json:"topRatedSeller"`
}

// FindingItem is one search hit from findItemsAdvanced.
type FindingItem struct {
	ItemID        string        `json:"itemId"`
	Title         string        `json:"title"`
	ViewItemURL   string        `json:"viewItemURL"`
	GalleryURL    string        `json:"galleryURL"`
	Location      string        `json:"location"`
	Condition     *Condition    `json:"condition"`
	ListingInfo   ListingInfo   `json:"listingInfo"`
	SellingStatus SellingStatus `json:"sellingStatus"`
	ShippingInfo  ShippingInfo  `json:"shippingInfo"`
	SellerInfo    SellerInfo    `json:"sellerInfo"`
}

type PaginationOutput struct {
	PageNumber     string `json:"pageNumber"`
	EntriesPerPage string `json:"entriesPerPage"`
	TotalPages     string `json:"totalPages"`
	TotalEntries   string `json:"totalEntries"`
}

type SearchResult struct {
	Count string        `json:"count"`
	Items []FindingItem `json:"item"`
}

type errorDetail struct {
	Message string `json:"message"`
}

type errorMessage struct {
	Error errorDetail `json:"error"`
}

// FindResponse is the findItemsAdvanced envelope.
type FindResponse struct {
	Ack          string           `json:"ack"`
	Timestamp    string           `json:"timestamp"`
	ErrorMessage *errorMessage    `json:"errorMessage"`
	Pagination   PaginationOutput `json:"paginationOutput"`
	SearchResult SearchResult     `json:"searchResult"`
}

// TotalEntries parses the provider's string count, zero on anything
// unparseable.
func (r *FindResponse) TotalEntries() int {
	n, err := strconv.Atoi(r.Pagination.TotalEntries)
	if err != nil {
		return 0
	}
	return n
}

func (r *FindResponse) errText() string {
	if r.ErrorMessage != nil {
		return r.ErrorMessage.Error.Message
	}
	return "unknown provider error"
}

// ItemDetail is one GetMultipleItems record. The provider returns a
// bare object for single-item batches on some SDKs; here Item is
// always decoded as a list and matched by id.
type ItemDetail struct {
	ItemID               string   `json:"ItemID"`
	Description          string   `json:"Description"`
	ConditionDescription string   `json:"ConditionDescription"`
	PictureURL           []string `json:"PictureURL"`
}

type shoppingError struct {
	ShortMessage string `json:"ShortMessage"`
	LongMessage  string `json:"LongMessage"`
}

// ShoppingResponse is the GetMultipleItems envelope.
type ShoppingResponse struct {
	Ack       string          `json:"Ack"`
	Timestamp string          `json:"Timestamp"`
	Errors    []shoppingError `json:"Errors"`
	Items     []ItemDetail    `json:"Item"`
}

// DetailFor matches a detail record to a search hit by item id.
func (r *ShoppingResponse) DetailFor(itemID string) *ItemDetail {
	if r == nil {
		return nil
	}
	for i := range r.Items {
		if r.Items[i].ItemID == itemID {
			return &r.Items[i]
		}
	}
	return nil
}

func (r *ShoppingResponse) errText() string {
	if len(r.Errors) > 0 {
		if r.Errors[0].LongMessage != "" {
			return r.Errors[0].LongMessage
		}
		return r.Errors[0].ShortMessage
	}
	return "unknown provider error"
}

// APIError is a provider-reported failure, carrying the upstream
// message verbatim.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "ebay: " + e.Message
}
