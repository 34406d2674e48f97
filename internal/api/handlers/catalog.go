package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dmaher/gearbay/internal/geo"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/dmaher/gearbay/internal/services"
	"github.com/dmaher/gearbay/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const listingTimeout = 30 * time.Second

type CatalogHandler struct {
	repos    *repository.RepositoryManager
	listings *services.ListingService
	logger   *logrus.Logger
}

func NewCatalogHandler(
	repos *repository.RepositoryManager,
	listings *services.ListingService,
	logger *logrus.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		repos:    repos,
		listings: listings,
		logger:   logger,
	}
}

// HandleCategoryList returns the root categories.
func (h *CatalogHandler) HandleCategoryList(c *gin.Context) {
	categories, err := h.repos.Category.GetRoots()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load root categories")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load categories", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Categories retrieved", categories)
}

// HandleCategory returns one category with its descendant tree and
// products.
func (h *CatalogHandler) HandleCategory(c *gin.Context) {
	slug := c.Param("slug")

	category, err := h.repos.Category.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "category")
			return
		}
		h.logger.WithError(err).WithField("slug", slug).Error("Category lookup failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Category lookup failed", err)
		return
	}

	children, err := h.repos.Category.GetDescendants(category)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load category children")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Category lookup failed", err)
		return
	}

	products, err := h.repos.Category.GetProducts(slug)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load category products")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Category lookup failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Category retrieved", models.CategoryResponse{
		Category: category,
		Children: children,
		Products: products,
	})
}

// HandleProduct returns the full product page payload: the product,
// its model sub-products, the refinement panel and the first page of
// marketplace listings.
func (h *CatalogHandler) HandleProduct(c *gin.Context) {
	product, ok := h.lookupProduct(c)
	if !ok {
		return
	}

	children, err := h.repos.Product.GetChildren(product)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load product models")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Product lookup failed", err)
		return
	}

	panel, err := h.filterPanel(product)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load filter panel")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Product lookup failed", err)
		return
	}

	items := h.pullListings(c, product)

	utils.SuccessResponse(c, http.StatusOK, "Product retrieved", models.ProductResponse{
		Product: product,
		Models:  children,
		Filters: panel,
		Items:   items,
		Query:   c.Request.URL.Query(),
	})
}

// HandleProductItems is the incremental "load more" endpoint: the same
// parameters as HandleProduct, returning only the listing page.
func (h *CatalogHandler) HandleProductItems(c *gin.Context) {
	product, ok := h.lookupProduct(c)
	if !ok {
		return
	}

	items := h.pullListings(c, product)
	utils.SuccessResponse(c, http.StatusOK, "Items retrieved", items)
}

func (h *CatalogHandler) lookupProduct(c *gin.Context) (*models.Product, bool) {
	categorySlug := c.Param("category")
	slug := c.Param("slug")

	product, err := h.repos.Product.GetBySlug(categorySlug, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFoundResponse(c, "product")
			return nil, false
		}
		h.logger.WithError(err).WithFields(logrus.Fields{
			"category": categorySlug,
			"slug":     slug,
		}).Error("Product lookup failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Product lookup failed", err)
		return nil, false
	}

	return product, true
}

func (h *CatalogHandler) pullListings(c *gin.Context, product *models.Product) *models.ListingPage {
	ctx, cancel := context.WithTimeout(c.Request.Context(), listingTimeout)
	defer cancel()

	return h.listings.GetListings(ctx, product, c.Request.URL.Query(), geo.ClientIP(c.Request))
}

// filterPanel groups every filter attached to the product's family by
// its owning group, in panel order.
func (h *CatalogHandler) filterPanel(product *models.Product) ([]models.FilterGroupView, error) {
	family, err := h.repos.Product.GetFamily(product)
	if err != nil {
		return nil, err
	}
	familyIDs := make([]uint, len(family))
	for i, p := range family {
		familyIDs[i] = p.ID
	}

	filters, err := h.repos.Filter.GetForFamily(familyIDs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(filters, func(i, j int) bool {
		gi, gj := filters[i].Group, filters[j].Group
		if gi.Order != gj.Order {
			return gi.Order < gj.Order
		}
		if gi.Name != gj.Name {
			return gi.Name < gj.Name
		}
		if filters[i].Order != filters[j].Order {
			return filters[i].Order > filters[j].Order
		}
		return filters[i].Value < filters[j].Value
	})

	var panel []models.FilterGroupView
	for _, filter := range filters {
		if len(panel) == 0 || panel[len(panel)-1].Slug != filter.Group.Slug {
			panel = append(panel, models.FilterGroupView{
				Name: filter.Group.Name,
				Slug: filter.Group.Slug,
			})
		}
		panel[len(panel)-1].Filters = append(panel[len(panel)-1].Filters, filter)
	}

	return panel, nil
}
