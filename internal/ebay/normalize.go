package ebay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmaher/gearbay/internal/models"
	"github.com/shopspring/decimal"
)

const maxDescriptionLen = 1000
const maxSellerNameLen = 20

// timeLeft is an ISO-8601 duration like "P2DT11H3M52S".
var timeLeftPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// NormalizePage maps a search response plus its detail batch into the
// display-ready listing page. A zero-entry search yields an empty list;
// callers skip the detail call entirely in that case and pass nil.
func NormalizePage(find *FindResponse, shop *ShoppingResponse, sort string) *models.ListingPage {
	page := &models.ListingPage{
		Count: find.TotalEntries(),
		List:  []models.Listing{},
	}

	if page.Count == 0 {
		return page
	}

	for _, item := range find.SearchResult.Items {
		page.List = append(page.List, NormalizeItem(item, shop.DetailFor(item.ItemID), sort))
	}

	return page
}

// NormalizeItem produces one Listing from a raw search hit and its
// optional detail record. Pure: same inputs always yield the same
// result.
func NormalizeItem(item FindingItem, detail *ItemDetail, sort string) models.Listing {
	price, listingType := normalizePrice(item, sort)
	text, images := normalizeDetail(detail)

	return models.Listing{
		URL:       item.ViewItemURL,
		Images:    images,
		Type:      listingType,
		Title:     item.Title,
		Price:     price,
		Shipping:  normalizeShipping(item.ShippingInfo),
		Condition: normalizeCondition(item.Condition),
		Text:      text,
		End:       normalizeTimeLeft(item.SellingStatus.TimeLeft),
		Location:  normalizeLocation(item.Location),
		Seller: models.Seller{
			Name:    truncate(item.SellerInfo.SellerUserName, maxSellerNameLen, ""),
			Percent: item.SellerInfo.PositiveFeedbackPercent,
			Ratings: item.SellerInfo.FeedbackScore,
		},
	}
}

// Under best-match and ending-soonest sorts the current auction price
// is what's shown; otherwise the buy-it-now price wins when the listing
// has one.
func normalizePrice(item FindingItem, sort string) (string, string) {
	bin := item.ListingInfo.ConvertedBuyItNowPrice

	if sort == SortBest || sort == SortTime || bin == nil {
		listingType := "Fixed"
		if strings.Contains(item.ListingInfo.ListingType, "Auction") {
			listingType = "Auction"
		}
		return formatAmount(item.SellingStatus.ConvertedCurrentPrice.Value), listingType
	}

	return formatAmount(bin.Value), "Fixed/Auction"
}

func normalizeShipping(info ShippingInfo) string {
	if info.ShippingServiceCost == nil {
		return "variable"
	}
	cost := formatAmount(info.ShippingServiceCost.Value)
	if cost == "0.00" {
		return "free"
	}
	return cost
}

func normalizeCondition(condition *Condition) string {
	if condition == nil {
		return "Used"
	}
	switch condition.ConditionID {
	case "1000", "1500":
		return "New"
	case "2000", "2500":
		return "Refurb"
	default:
		return "Used"
	}
}

// The condition-specific description is preferred over the general one.
// Absent detail yields nil text and images.
func normalizeDetail(detail *ItemDetail) (*string, []string) {
	if detail == nil {
		return nil, nil
	}

	var text *string
	switch {
	case detail.ConditionDescription != "":
		t := truncate(detail.ConditionDescription, maxDescriptionLen, "...")
		text = &t
	case detail.Description != "":
		t := truncate(detail.Description, maxDescriptionLen, "...")
		text = &t
	}

	return text, detail.PictureURL
}

func normalizeTimeLeft(timeLeft string) string {
	parts := [4]string{"0", "0", "0", "0"}
	if m := timeLeftPattern.FindStringSubmatch(timeLeft); m != nil {
		for i, v := range m[1:] {
			if v != "" {
				parts[i] = v
			}
		}
	}
	return fmt.Sprintf("%sd %sh %sm %ss", parts[0], parts[1], parts[2], parts[3])
}

// Only the first two comma components (city, state) are kept.
func normalizeLocation(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ", ")
}

// formatAmount renders a provider amount with two decimals, passing the
// raw string through when it does not parse.
func formatAmount(value string) string {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return value
	}
	return d.StringFixed(2)
}

func truncate(s string, max int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + suffix
}
