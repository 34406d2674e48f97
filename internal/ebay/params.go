package ebay

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Sort keys accepted from the request layer.
const (
	SortBest      = "best"
	SortPrice     = "price"
	SortPriceDesc = "-price"
	SortTime      = "time"
	SortTimeDesc  = "-time"
)

type sortOrder struct {
	Order        string
	ListingTypes []string
}

// Each sort key maps to a provider order name and the listing types
// searched under it.
var sortOrders = map[string]sortOrder{
	SortBest:      {"BestMatch", []string{"Auction", "AuctionWithBIN", "FixedPrice"}},
	SortPrice:     {"PricePlusShippingLowest", []string{"AuctionWithBIN", "FixedPrice"}},
	SortPriceDesc: {"PricePlusShippingHighest", []string{"AuctionWithBIN", "FixedPrice"}},
	SortTime:      {"EndTimeSoonest", []string{"Auction", "AuctionWithBIN"}},
	SortTimeDesc:  {"StartTimeNewest", []string{"AuctionWithBIN", "FixedPrice"}},
}

// ValidSort reports whether s is a supported sort key.
func ValidSort(s string) bool {
	_, ok := sortOrders[s]
	return ok
}

// Condition ids allowed in results: new through acceptable tiers,
// excluding 7000 "for parts".
var allowedConditions = []string{
	"1000", "1500", "2000", "2500", "3000", "4000", "5000", "6000",
}

const (
	entriesPerPage   = 20
	minFeedbackScore = "10"
	affiliateNetwork = "9"
)

// AspectFilter restricts results to listings carrying one of the named
// attribute values.
type AspectFilter struct {
	Name   string
	Values []string
}

// ItemFilter is a generic provider item filter.
type ItemFilter struct {
	Name   string
	Values []string
}

// FindRequest holds everything findItemsAdvanced needs for one page.
type FindRequest struct {
	CategoryID    string
	Queries       []string
	Aspects       []AspectFilter
	Sort          string
	Page          int
	PostalCode    string
	TrackingID    string
	descriptionOn bool
}

// NewFindRequest assembles the fixed filter set around the caller's
// category, queries and aspects. Unknown sort keys fall back to best
// match.
func NewFindRequest(categoryID string, queries []string, aspects []AspectFilter, sort string, page int) *FindRequest {
	if !ValidSort(sort) {
		sort = SortBest
	}
	if page < 1 {
		page = 1
	}
	return &FindRequest{
		CategoryID:    categoryID,
		Queries:       queries,
		Aspects:       aspects,
		Sort:          sort,
		Page:          page,
		descriptionOn: len(queries) > 0,
	}
}

// Keywords joins the query fragments the way the provider expects.
func (r *FindRequest) Keywords() string {
	return strings.Join(r.Queries, " ")
}

// ItemFilters returns the fixed filter allowlist plus the listing-type
// restriction derived from the sort key.
func (r *FindRequest) ItemFilters() []ItemFilter {
	return []ItemFilter{
		{Name: "Condition", Values: allowedConditions},
		{Name: "FeedbackScoreMin", Values: []string{minFeedbackScore}},
		{Name: "HideDuplicateItems", Values: []string{"true"}},
		{Name: "ListingType", Values: sortOrders[r.Sort].ListingTypes},
		{Name: "LocatedIn", Values: []string{"US"}},
		{Name: "MaxQuantity", Values: []string{"1"}},
	}
}

// SortOrder maps the sort key to the provider's order name.
func (r *FindRequest) SortOrder() string {
	return sortOrders[r.Sort].Order
}

// Values encodes the request as Finding API query parameters.
func (r *FindRequest) Values(appID string) url.Values {
	v := url.Values{}
	v.Set("OPERATION-NAME", "findItemsAdvanced")
	v.Set("SERVICE-VERSION", "1.13.0")
	v.Set("SECURITY-APPNAME", appID)
	v.Set("RESPONSE-DATA-FORMAT", "JSON")
	v.Set("GLOBAL-ID", "EBAY-US")

	if r.CategoryID != "" {
		v.Set("categoryId", r.CategoryID)
	}
	if kw := r.Keywords(); kw != "" {
		v.Set("keywords", kw)
		v.Set("descriptionSearch", "true")
	}
	for i, aspect := range r.Aspects {
		v.Set(fmt.Sprintf("aspectFilter(%d).aspectName", i), aspect.Name)
		for j, val := range aspect.Values {
			v.Set(fmt.Sprintf("aspectFilter(%d).aspectValueName(%d)", i, j), val)
		}
	}
	for i, filter := range r.ItemFilters() {
		v.Set(fmt.Sprintf("itemFilter(%d).name", i), filter.Name)
		for j, val := range filter.Values {
			v.Set(fmt.Sprintf("itemFilter(%d).value(%d)", i, j), val)
		}
	}
	v.Set("outputSelector(0)", "SellerInfo")
	v.Set("affiliate.networkId", affiliateNetwork)
	if r.TrackingID != "" {
		v.Set("affiliate.trackingId", r.TrackingID)
	}
	if r.PostalCode != "" {
		v.Set("buyerPostalCode", r.PostalCode)
	}
	v.Set("paginationInput.entriesPerPage", strconv.Itoa(entriesPerPage))
	v.Set("paginationInput.pageNumber", strconv.Itoa(r.Page))
	v.Set("sortOrder", r.SortOrder())
	return v
}

// shoppingValues encodes a GetMultipleItems call.
func shoppingValues(appID string, itemIDs []string) url.Values {
	v := url.Values{}
	v.Set("callname", "GetMultipleItems")
	v.Set("responseencoding", "JSON")
	v.Set("version", "967")
	v.Set("appid", appID)
	v.Set("ItemID", strings.Join(itemIDs, ","))
	v.Set("IncludeSelector", "TextDescription")
	return v
}
