package ebay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortTable(t *testing.T) {
	cases := []struct {
		sort         string
		order        string
		listingTypes []string
	}{
		{"best", "BestMatch", []string{"Auction", "AuctionWithBIN", "FixedPrice"}},
		{"price", "PricePlusShippingLowest", []string{"AuctionWithBIN", "FixedPrice"}},
		{"-price", "PricePlusShippingHighest", []string{"AuctionWithBIN", "FixedPrice"}},
		{"time", "EndTimeSoonest", []string{"Auction", "AuctionWithBIN"}},
		{"-time", "StartTimeNewest", []string{"AuctionWithBIN", "FixedPrice"}},
	}

	for _, tc := range cases {
		t.Run(tc.sort, func(t *testing.T) {
			req := NewFindRequest("", nil, nil, tc.sort, 1)
			assert.Equal(t, tc.order, req.SortOrder())

			var listingTypes []string
			for _, f := range req.ItemFilters() {
				if f.Name == "ListingType" {
					listingTypes = f.Values
				}
			}
			assert.Equal(t, tc.listingTypes, listingTypes)
		})
	}
}

func TestNewFindRequest_Defaults(t *testing.T) {
	req := NewFindRequest("", nil, nil, "bogus", 0)
	assert.Equal(t, SortBest, req.Sort)
	assert.Equal(t, 1, req.Page)
}

func TestFindRequest_Values(t *testing.T) {
	req := NewFindRequest(
		"293",
		[]string{"iphone", "(64gb,128gb)"},
		[]AspectFilter{{Name: "Color", Values: []string{"Red", "Blue"}}},
		"price",
		3,
	)
	req.PostalCode = "90210"
	req.TrackingID = "5338417073"

	v := req.Values("test-app-id")

	assert.Equal(t, "findItemsAdvanced", v.Get("OPERATION-NAME"))
	assert.Equal(t, "test-app-id", v.Get("SECURITY-APPNAME"))
	assert.Equal(t, "293", v.Get("categoryId"))
	assert.Equal(t, "iphone (64gb,128gb)", v.Get("keywords"))
	assert.Equal(t, "true", v.Get("descriptionSearch"))
	assert.Equal(t, "Color", v.Get("aspectFilter(0).aspectName"))
	assert.Equal(t, "Red", v.Get("aspectFilter(0).aspectValueName(0)"))
	assert.Equal(t, "Blue", v.Get("aspectFilter(0).aspectValueName(1)"))
	assert.Equal(t, "90210", v.Get("buyerPostalCode"))
	assert.Equal(t, "5338417073", v.Get("affiliate.trackingId"))
	assert.Equal(t, "9", v.Get("affiliate.networkId"))
	assert.Equal(t, "20", v.Get("paginationInput.entriesPerPage"))
	assert.Equal(t, "3", v.Get("paginationInput.pageNumber"))
	assert.Equal(t, "PricePlusShippingLowest", v.Get("sortOrder"))
	assert.Equal(t, "SellerInfo", v.Get("outputSelector(0)"))
}

func TestFindRequest_Values_NoKeywords(t *testing.T) {
	req := NewFindRequest("293", nil, nil, "best", 1)
	v := req.Values("test-app-id")

	assert.Empty(t, v.Get("keywords"))
	assert.Empty(t, v.Get("descriptionSearch"))
}

func TestFindRequest_ConditionAllowlist(t *testing.T) {
	req := NewFindRequest("", nil, nil, "best", 1)

	var conditions []string
	for _, f := range req.ItemFilters() {
		if f.Name == "Condition" {
			conditions = f.Values
		}
	}

	assert.Equal(t, []string{"1000", "1500", "2000", "2500", "3000", "4000", "5000", "6000"}, conditions)
	assert.NotContains(t, conditions, "7000")
}
