package search

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
)

type fixture struct {
	repos   *repository.RepositoryManager
	product *models.Product
}

// newFixture seeds one product tree with a filter panel:
// rear-derailleur -> {105, ultegra}, speed {10-speed, 11-speed},
// brand {shimano}, all attached to the root product.
func newFixture(t *testing.T) *fixture {
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

	category := models.Category{Name: "Drivetrain", Slug: "drivetrain", EbayCatID: "177814"}
	require.NoError(t, repos.Category.Create(&category))

	root := models.Product{Name: "Rear Derailleur", Slug: "rear-derailleur", CategoryID: category.ID, Query: "rear derailleur"}
	require.NoError(t, repos.Product.Create(&root))
	m105 := models.Product{Name: "105", Slug: "105", CategoryID: category.ID, ParentID: &root.ID, Query: "105"}
	require.NoError(t, repos.Product.Create(&m105))
	ultegra := models.Product{Name: "Ultegra", Slug: "ultegra", CategoryID: category.ID, ParentID: &root.ID, Query: "ultegra"}
	require.NoError(t, repos.Product.Create(&ultegra))

	speed := models.Group{Name: "Speed", Slug: "speed", Order: 1}
	require.NoError(t, repos.Group.Create(&speed))
	brand := models.Group{Name: "Brand", Slug: "brand", Order: 2}
	require.NoError(t, repos.Group.Create(&brand))

	f10 := models.Filter{GroupID: speed.ID, Value: "10 Speed", Slug: "10-speed", Query: "10 speed"}
	require.NoError(t, repos.Filter.Create(&f10))
	f11 := models.Filter{GroupID: speed.ID, Value: "11 Speed", Slug: "11-speed", Query: "11 speed"}
	require.NoError(t, repos.Filter.Create(&f11))
	shimano := models.Filter{GroupID: brand.ID, Value: "Shimano", Slug: "shimano", Query: "shimano"}
	require.NoError(t, repos.Filter.Create(&shimano))

	require.NoError(t, db.Model(&root).Association("Filters").Append(&f10, &f11, &shimano))

	colorAspect := models.Aspect{Name: "Color", Value: "Black|Silver"}
	require.NoError(t, repos.Aspect.Create(&colorAspect))
	typeAspect := models.Aspect{Name: "Type", Value: "Rear Derailleurs", Strict: true}
	require.NoError(t, repos.Aspect.Create(&typeAspect))
	require.NoError(t, db.Model(&root).Association("Aspects").Append(&colorAspect, &typeAspect))

	product, err := repos.Product.GetBySlug("drivetrain", "rear-derailleur")
	require.NoError(t, err)

	return &fixture{repos: repos, product: product}
}

func TestNewContext_Defaults(t *testing.T) {
	fx := newFixture(t)

	ctx, err := NewContext(url.Values{}, fx.product, fx.repos)
	require.NoError(t, err)

	assert.Equal(t, "best", ctx.Sort)
	assert.True(t, ctx.Strict)
	assert.Equal(t, 1, ctx.Page)
	assert.Empty(t, ctx.Keywords)
	assert.Empty(t, ctx.Models)
	assert.Empty(t, ctx.Filters)
	assert.Equal(t, []string{"rear derailleur"}, ctx.QueryFragments())
}

func TestNewContext_ParamParsing(t *testing.T) {
	fx := newFixture(t)

	params := url.Values{
		"sort":   {"-price"},
		"page":   {"3"},
		"strict": {"false"},
	}
	ctx, err := NewContext(params, fx.product, fx.repos)
	require.NoError(t, err)
	assert.Equal(t, "-price", ctx.Sort)
	assert.Equal(t, 3, ctx.Page)
	assert.False(t, ctx.Strict)

	// Unparseable values degrade to defaults.
	params = url.Values{
		"sort":   {"alphabetical"},
		"page":   {"-2"},
		"strict": {"kinda"},
	}
	ctx, err = NewContext(params, fx.product, fx.repos)
	require.NoError(t, err)
	assert.Equal(t, "best", ctx.Sort)
	assert.Equal(t, 1, ctx.Page)
	assert.True(t, ctx.Strict)
}

func TestNewContext_KeywordsSanitized(t *testing.T) {
	fx := newFixture(t)

	params := url.Values{"keywords": {"  <b>carbon</b> cage "}}
	ctx, err := NewContext(params, fx.product, fx.repos)
	require.NoError(t, err)
	assert.Equal(t, "carbon cage", ctx.Keywords)
}

func TestQueryFragments_Ordering(t *testing.T) {
	fx := newFixture(t)

	params := url.Values{
		"model":    {"105", "ultegra"},
		"speed":    {"10-speed", "11-speed"},
		"brand":    {"shimano"},
		"keywords": {"short cage"},
	}
	ctx, err := NewContext(params, fx.product, fx.repos)
	require.NoError(t, err)

	// Product query, model queries, one fragment per group in panel
	// order, keywords last. Filters sharing a group OR together.
	fragments := ctx.QueryFragments()
	require.Len(t, fragments, 6)
	assert.Equal(t, "rear derailleur", fragments[0])
	assert.ElementsMatch(t, []string{"105", "ultegra"}, fragments[1:3])
	assert.Equal(t, "(10 speed,11 speed)", fragments[3])
	assert.Equal(t, "shimano", fragments[4])
	assert.Equal(t, "short cage", fragments[5])
}

func TestQueryFragments_LoneFilterBare(t *testing.T) {
	fx := newFixture(t)

	params := url.Values{"speed": {"11-speed"}, "brand": {"shimano"}}
	ctx, err := NewContext(params, fx.product, fx.repos)
	require.NoError(t, err)

	fragments := ctx.QueryFragments()
	require.Len(t, fragments, 3)
	assert.Equal(t, "11 speed", fragments[1])
	assert.Equal(t, "shimano", fragments[2])
}

func TestAspectFilters(t *testing.T) {
	fx := newFixture(t)

	ctx, err := NewContext(url.Values{}, fx.product, fx.repos)
	require.NoError(t, err)

	filters := ctx.AspectFilters()
	require.Len(t, filters, 2)

	byName := map[string][]string{}
	for _, f := range filters {
		byName[f.Name] = f.Values
	}
	assert.Equal(t, []string{"Black", "Silver"}, byName["Color"])
	assert.Equal(t, []string{"Rear Derailleurs"}, byName["Type"])
}

func TestAspectFilters_NonStrict(t *testing.T) {
	fx := newFixture(t)

	ctx, err := NewContext(url.Values{"strict": {"false"}}, fx.product, fx.repos)
	require.NoError(t, err)

	byName := map[string][]string{}
	for _, f := range ctx.AspectFilters() {
		byName[f.Name] = f.Values
	}
	// Only non-strict aspects widen to Not Specified.
	assert.Equal(t, []string{"Black", "Silver", "Not Specified"}, byName["Color"])
	assert.Equal(t, []string{"Rear Derailleurs"}, byName["Type"])
}

func TestNewContext_ModelSelection(t *testing.T) {
	fx := newFixture(t)

	ctx, err := NewContext(url.Values{"model": {"105"}}, fx.product, fx.repos)
	require.NoError(t, err)
	require.Len(t, ctx.Models, 1)
	assert.Equal(t, "105", ctx.Models[0].Slug)
}
