package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/dmaher/gearbay/internal/ebay"
	"github.com/dmaher/gearbay/internal/geo"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/dmaher/gearbay/internal/search"
	"github.com/sirupsen/logrus"
)

// ListingService drives one marketplace pull: request context, optional
// geo bias, the chained search and detail calls, then normalization.
type ListingService struct {
	client *ebay.Client
	repos  *repository.RepositoryManager
	geo    geo.Resolver
	logger *logrus.Logger
}

// NewListingService wires the service. geoResolver may be nil when no
// GeoIP database is configured; searches then run without postal bias.
func NewListingService(
	client *ebay.Client,
	repos *repository.RepositoryManager,
	geoResolver geo.Resolver,
	logger *logrus.Logger,
) *ListingService {
	return &ListingService{
		client: client,
		repos:  repos,
		geo:    geoResolver,
		logger: logger,
	}
}

// GetListings returns the normalized listing page for a product under
// the given request parameters. Provider failures surface as a page
// carrying the upstream error message; they never become a hard error
// for the caller.
func (s *ListingService) GetListings(ctx context.Context, product *models.Product, params url.Values, clientIP string) *models.ListingPage {
	sctx, err := search.NewContext(params, product, s.repos)
	if err != nil {
		s.logger.WithError(err).WithField("product", product.Slug).Error("Failed to build search context")
		return &models.ListingPage{List: []models.Listing{}, Error: "catalog lookup failed"}
	}

	req := ebay.NewFindRequest(
		product.Category.EbayCatID,
		sctx.QueryFragments(),
		sctx.AspectFilters(),
		sctx.Sort,
		sctx.Page,
	)

	// Geo bias is best-effort; a failed lookup just means no
	// buyerPostalCode on the search.
	if s.geo != nil && clientIP != "" {
		postal, err := s.geo.PostalCode(ctx, clientIP)
		if err != nil {
			s.logger.WithError(err).WithField("ip", clientIP).Debug("Postal code lookup skipped")
		} else {
			req.PostalCode = postal
		}
	}

	find, err := s.client.FindItems(ctx, product.Slug, req)
	if err != nil {
		s.logger.WithError(err).WithField("product", product.Slug).Warn("Finding call failed")
		return &models.ListingPage{List: []models.Listing{}, Error: providerMessage(err)}
	}

	if find.TotalEntries() == 0 {
		return ebay.NormalizePage(find, nil, sctx.Sort)
	}

	ids := make([]string, 0, len(find.SearchResult.Items))
	for _, item := range find.SearchResult.Items {
		ids = append(ids, item.ItemID)
	}

	shop, err := s.client.GetMultipleItems(ctx, product.Slug, sctx.Page, ids)
	if err != nil {
		s.logger.WithError(err).WithField("product", product.Slug).Warn("Shopping call failed")
		return &models.ListingPage{List: []models.Listing{}, Error: providerMessage(err)}
	}

	page := ebay.NormalizePage(find, shop, sctx.Sort)

	s.logger.WithFields(logrus.Fields{
		"product": product.Slug,
		"page":    sctx.Page,
		"sort":    sctx.Sort,
		"count":   page.Count,
		"items":   len(page.List),
	}).Info("Listing page assembled")

	return page
}

func providerMessage(err error) string {
	var apiErr *ebay.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
