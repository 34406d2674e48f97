package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmaher/gearbay/internal/ebay"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/dmaher/gearbay/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter stands up the catalog routes over an in-memory catalog
// and a fake marketplace answering every search with zero results.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Aspect{},
		&models.Group{},
		&models.Filter{},
		&models.Category{},
		&models.Product{},
	))

	repos := repository.NewRepositoryManager(db)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"ack": "Success",
			"timestamp": %q,
			"paginationOutput": {"totalEntries": "0"},
			"searchResult": {"item": []}
		}`, time.Now().UTC().Format(time.RFC3339Nano))
	}))
	t.Cleanup(provider.Close)

	client := ebay.NewClient(ebay.Config{
		FindingURL:  provider.URL,
		ShoppingURL: provider.URL,
		AppID:       "test-app-id",
	}, ebay.NewFileCache(t.TempDir(), log), log)
	listings := services.NewListingService(client, repos, nil, log)

	handler := NewCatalogHandler(repos, listings, log)

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/categories", handler.HandleCategoryList)
		api.GET("/categories/:slug", handler.HandleCategory)
		api.GET("/products/:category/:slug", handler.HandleProduct)
		api.GET("/products/:category/:slug/items", handler.HandleProductItems)
	}
	return router, db
}

func seedHandlers(t *testing.T, db *gorm.DB) {
	repos := repository.NewRepositoryManager(db)

	bikes := models.Category{Name: "Bikes", Slug: "bikes", Featured: true}
	require.NoError(t, repos.Category.Create(&bikes))
	components := models.Category{Name: "Components", Slug: "components"}
	require.NoError(t, repos.Category.Create(&components))
	drivetrain := models.Category{Name: "Drivetrain", Slug: "drivetrain", ParentID: &components.ID, EbayCatID: "177814"}
	require.NoError(t, repos.Category.Create(&drivetrain))

	derailleur := models.Product{Name: "Rear Derailleur", Slug: "rear-derailleur", CategoryID: drivetrain.ID, Query: "rear derailleur"}
	require.NoError(t, repos.Product.Create(&derailleur))
	m105 := models.Product{Name: "105", Slug: "105", CategoryID: drivetrain.ID, ParentID: &derailleur.ID, Query: "105"}
	require.NoError(t, repos.Product.Create(&m105))

	speed := models.Group{Name: "Speed", Slug: "speed", Order: 1}
	require.NoError(t, repos.Group.Create(&speed))
	f10 := models.Filter{GroupID: speed.ID, Value: "10 Speed", Slug: "10-speed", Query: "10 speed"}
	require.NoError(t, repos.Filter.Create(&f10))
	f11 := models.Filter{GroupID: speed.ID, Value: "11 Speed", Slug: "11-speed", Query: "11 speed"}
	require.NoError(t, repos.Filter.Create(&f11))

	require.NoError(t, db.Model(&derailleur).Association("Filters").Append(&f10, &f11))
}

func doRequest(router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]json.RawMessage
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHandleCategoryList(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	w, body := doRequest(router, "/api/categories")
	require.Equal(t, http.StatusOK, w.Code)

	var categories []models.Category
	require.NoError(t, json.Unmarshal(body["data"], &categories))
	// Roots only, featured first.
	require.Len(t, categories, 2)
	assert.Equal(t, "bikes", categories[0].Slug)
	assert.Equal(t, "components", categories[1].Slug)
}

func TestHandleCategory(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	w, body := doRequest(router, "/api/categories/components")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CategoryResponse
	require.NoError(t, json.Unmarshal(body["data"], &resp))
	assert.Equal(t, "components", resp.Category.Slug)
	require.Len(t, resp.Children, 1)
	assert.Equal(t, "drivetrain", resp.Children[0].Slug)
}

func TestHandleCategory_NotFound(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	w, _ := doRequest(router, "/api/categories/gravel")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "category not found")
}

func TestHandleProduct(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	w, body := doRequest(router, "/api/products/drivetrain/rear-derailleur?sort=price")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Product *models.Product          `json:"product"`
		Models  []models.Product         `json:"models"`
		Filters []models.FilterGroupView `json:"filters"`
		Items   *models.ListingPage      `json:"items"`
		Query   map[string][]string      `json:"query"`
	}
	require.NoError(t, json.Unmarshal(body["data"], &resp))

	assert.Equal(t, "rear-derailleur", resp.Product.Slug)
	require.Len(t, resp.Models, 1)
	assert.Equal(t, "105", resp.Models[0].Slug)

	// Panel holds the attached filters grouped under "speed", ordered
	// within the group by value.
	require.Len(t, resp.Filters, 1)
	assert.Equal(t, "speed", resp.Filters[0].Slug)
	require.Len(t, resp.Filters[0].Filters, 2)
	assert.Equal(t, "10-speed", resp.Filters[0].Filters[0].Slug)
	assert.Equal(t, "11-speed", resp.Filters[0].Filters[1].Slug)

	require.NotNil(t, resp.Items)
	assert.Equal(t, 0, resp.Items.Count)
	assert.Equal(t, []string{"price"}, resp.Query["sort"])
}

func TestHandleProduct_NotFound(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	// Right slug, wrong category.
	w, _ := doRequest(router, "/api/products/bikes/rear-derailleur")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "product not found")
}

func TestHandleProductItems(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlers(t, db)

	w, body := doRequest(router, "/api/products/drivetrain/rear-derailleur/items?page=2")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.ListingPage
	require.NoError(t, json.Unmarshal(body["data"], &page))
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Error)
}
