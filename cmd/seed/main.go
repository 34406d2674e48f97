// cmd/seed loads a catalog fixture file into the database: categories,
// products, filter groups, filters and aspects, with their links.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmaher/gearbay/internal/config"
	"github.com/dmaher/gearbay/internal/database"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/dmaher/gearbay/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Fixture is the seed file layout. Entities reference each other by
// slug; filters are referenced as "group-slug/filter-slug" and aspects
// by their fixture key.
type Fixture struct {
	Groups     []GroupFixture    `json:"groups"`
	Aspects    []AspectFixture   `json:"aspects"`
	Categories []CategoryFixture `json:"categories"`
	Filters    []FilterFixture   `json:"filters"`
	Products   []ProductFixture  `json:"products"`
}

type GroupFixture struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Order int    `json:"order"`
}

type AspectFixture struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Strict bool   `json:"strict"`
}

type CategoryFixture struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Nickname string `json:"nickname"`
	Parent   string `json:"parent"`
	EbayCat  string `json:"ebay_cat"`
	Featured bool   `json:"featured"`
}

type FilterFixture struct {
	Group   string   `json:"group"`
	Value   string   `json:"value"`
	Slug    string   `json:"slug"`
	Query   string   `json:"query"`
	Order   int      `json:"order"`
	Aspects []string `json:"aspects"`
}

type ProductFixture struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Nickname string   `json:"nickname"`
	Parent   string   `json:"parent"`
	Category string   `json:"category"`
	Query    string   `json:"query"`
	Featured bool     `json:"featured"`
	Order    int      `json:"order"`
	Aspects  []string `json:"aspects"`
	Filters  []string `json:"filters"`
}

// CatalogSeeder resolves fixture references and writes catalog rows
type CatalogSeeder struct {
	db         *gorm.DB
	repos      *repository.RepositoryManager
	logger     *logrus.Logger
	groups     map[string]*models.Group
	aspects    map[string]*models.Aspect
	categories map[string]*models.Category
	filters    map[string]*models.Filter
	products   map[string]*models.Product
}

var (
	fixtureFile = flag.String("file", "fixtures/catalog.json", "Catalog fixture file to load")
	dryRun      = flag.Bool("dry-run", false, "Parse and validate the fixture without writing")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.WithField("file", *fixtureFile).Info("Starting catalog seeder...")

	fixture, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load fixture")
	}

	logger.WithFields(logrus.Fields{
		"groups":     len(fixture.Groups),
		"aspects":    len(fixture.Aspects),
		"categories": len(fixture.Categories),
		"filters":    len(fixture.Filters),
		"products":   len(fixture.Products),
	}).Info("Fixture parsed")

	if *dryRun {
		logger.Info("DRY RUN: nothing written")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dbConfig := &database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	dbManager, err := database.NewManager(dbConfig, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Database migration failed")
	}

	seeder := NewCatalogSeeder(dbManager.DB, repository.NewRepositoryManager(dbManager.DB), logger)
	if err := seeder.Seed(fixture); err != nil {
		logger.WithError(err).Fatal("Seeding failed")
	}

	logger.Info("Catalog seeding completed successfully!")
}

func loadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &fixture, nil
}

func NewCatalogSeeder(db *gorm.DB, repos *repository.RepositoryManager, logger *logrus.Logger) *CatalogSeeder {
	return &CatalogSeeder{
		db:         db,
		repos:      repos,
		logger:     logger,
		groups:     make(map[string]*models.Group),
		aspects:    make(map[string]*models.Aspect),
		categories: make(map[string]*models.Category),
		filters:    make(map[string]*models.Filter),
		products:   make(map[string]*models.Product),
	}
}

// Seed writes the fixture in dependency order: groups and aspects
// first, then categories, filters and products, parents before
// children.
func (s *CatalogSeeder) Seed(fixture *Fixture) error {
	for _, g := range fixture.Groups {
		group := &models.Group{Name: g.Name, Slug: g.Slug, Order: g.Order}
		if err := s.repos.Group.Create(group); err != nil {
			return fmt.Errorf("group %s: %w", g.Slug, err)
		}
		s.groups[g.Slug] = group
	}

	for _, a := range fixture.Aspects {
		aspect := &models.Aspect{Name: a.Name, Value: a.Value, Strict: a.Strict}
		if err := s.repos.Aspect.Create(aspect); err != nil {
			return fmt.Errorf("aspect %s: %w", a.Key, err)
		}
		s.aspects[a.Key] = aspect
	}

	if err := s.seedCategories(fixture.Categories); err != nil {
		return err
	}

	for _, f := range fixture.Filters {
		group, ok := s.groups[f.Group]
		if !ok {
			return fmt.Errorf("filter %s/%s: unknown group", f.Group, f.Slug)
		}
		filter := &models.Filter{
			GroupID: group.ID,
			Value:   f.Value,
			Slug:    f.Slug,
			Query:   f.Query,
			Order:   f.Order,
		}
		if err := s.repos.Filter.Create(filter); err != nil {
			return fmt.Errorf("filter %s/%s: %w", f.Group, f.Slug, err)
		}
		if err := s.link(filter, "Aspects", f.Aspects); err != nil {
			return err
		}
		s.filters[f.Group+"/"+f.Slug] = filter
	}

	return s.seedProducts(fixture.Products)
}

// Parents may appear after children in the file, so unseeded parents
// defer the row to the next pass.
func (s *CatalogSeeder) seedCategories(fixtures []CategoryFixture) error {
	pending := fixtures
	for len(pending) > 0 {
		var next []CategoryFixture
		for _, c := range pending {
			if c.Parent != "" && s.categories[c.Parent] == nil {
				next = append(next, c)
				continue
			}
			category := &models.Category{
				Name:      c.Name,
				Slug:      c.Slug,
				Nickname:  c.Nickname,
				EbayCatID: c.EbayCat,
				Featured:  c.Featured,
			}
			if c.Parent != "" {
				category.ParentID = &s.categories[c.Parent].ID
			}
			if err := s.repos.Category.Create(category); err != nil {
				return fmt.Errorf("category %s: %w", c.Slug, err)
			}
			s.categories[c.Slug] = category
			s.logger.WithField("category", c.Slug).Debug("Category seeded")
		}
		if len(next) == len(pending) {
			return fmt.Errorf("unresolvable category parents: %d remaining", len(next))
		}
		pending = next
	}
	return nil
}

func (s *CatalogSeeder) seedProducts(fixtures []ProductFixture) error {
	pending := fixtures
	for len(pending) > 0 {
		var next []ProductFixture
		for _, p := range pending {
			if p.Parent != "" && s.products[p.Parent] == nil {
				next = append(next, p)
				continue
			}
			category, ok := s.categories[p.Category]
			if !ok {
				return fmt.Errorf("product %s: unknown category %s", p.Slug, p.Category)
			}
			product := &models.Product{
				CategoryID: category.ID,
				Name:       p.Name,
				Slug:       p.Slug,
				Nickname:   p.Nickname,
				Query:      p.Query,
				Featured:   p.Featured,
				Order:      p.Order,
			}
			if p.Parent != "" {
				product.ParentID = &s.products[p.Parent].ID
			}
			if err := s.repos.Product.Create(product); err != nil {
				return fmt.Errorf("product %s: %w", p.Slug, err)
			}
			if err := s.link(product, "Aspects", p.Aspects); err != nil {
				return err
			}
			if err := s.linkFilters(product, p.Filters); err != nil {
				return err
			}
			s.products[p.Slug] = product
			s.logger.WithField("product", p.Slug).Debug("Product seeded")
		}
		if len(next) == len(pending) {
			return fmt.Errorf("unresolvable product parents: %d remaining", len(next))
		}
		pending = next
	}
	return nil
}

func (s *CatalogSeeder) link(owner interface{}, association string, keys []string) error {
	for _, key := range keys {
		aspect, ok := s.aspects[key]
		if !ok {
			return fmt.Errorf("unknown aspect %q", key)
		}
		if err := s.db.Model(owner).Association(association).Append(aspect); err != nil {
			return fmt.Errorf("aspect link %q: %w", key, err)
		}
	}
	return nil
}

func (s *CatalogSeeder) linkFilters(product *models.Product, refs []string) error {
	for _, ref := range refs {
		filter, ok := s.filters[ref]
		if !ok {
			return fmt.Errorf("product %s: unknown filter %q", product.Slug, ref)
		}
		if err := s.db.Model(product).Association("Filters").Append(filter); err != nil {
			return fmt.Errorf("filter link %q: %w", ref, err)
		}
	}
	return nil
}
