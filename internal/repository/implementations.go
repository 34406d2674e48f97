package repository

import (
	"github.com/dmaher/gearbay/internal/models"
	"gorm.io/gorm"
)

// RepositoryManager bundles all catalog repositories
type RepositoryManager struct {
	Category models.CategoryRepository
	Product  models.ProductRepository
	Filter   models.FilterRepository
	Aspect   models.AspectRepository
	Group    models.GroupRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		Category: NewCategoryRepository(db),
		Product:  NewProductRepository(db),
		Filter:   NewFilterRepository(db),
		Aspect:   NewAspectRepository(db),
		Group:    NewGroupRepository(db),
	}
}

// CategoryRepositoryImpl implements CategoryRepository
type CategoryRepositoryImpl struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) models.CategoryRepository {
	return &CategoryRepositoryImpl{db: db}
}

func (r *CategoryRepositoryImpl) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *CategoryRepositoryImpl) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.Where("slug = ?", slug).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) GetRoots() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("parent_id IS NULL").
		Order("featured DESC, name").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepositoryImpl) GetDescendants(category *models.Category) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("path LIKE ?", category.Path+"/%").
		Order("path").
		Find(&categories).Error
	return categories, err
}

func (r *CategoryRepositoryImpl) GetProducts(categorySlug string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.slug = ?", categorySlug).
		Order(`products."order" DESC, products.name`).
		Find(&products).Error
	return products, err
}

// ProductRepositoryImpl implements ProductRepository
type ProductRepositoryImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) models.ProductRepository {
	return &ProductRepositoryImpl{db: db}
}

func (r *ProductRepositoryImpl) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *ProductRepositoryImpl) GetBySlug(categorySlug, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Category").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.slug = ? AND products.slug = ?", categorySlug, slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepositoryImpl) GetBySlugs(slugs []string) ([]models.Product, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.Where("slug IN ?", slugs).Find(&products).Error
	return products, err
}

func (r *ProductRepositoryImpl) GetChildren(product *models.Product) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("parent_id = ?", product.ID).
		Order(`"order" DESC, name`).
		Find(&products).Error
	return products, err
}

// GetAncestors returns the chain from root to the product itself,
// resolved from the materialized path.
func (r *ProductRepositoryImpl) GetAncestors(product *models.Product) ([]models.Product, error) {
	ids := product.AncestorIDs()
	if len(ids) == 0 {
		return []models.Product{*product}, nil
	}
	var products []models.Product
	err := r.db.Where("id IN ?", ids).
		Order("length(path)").
		Find(&products).Error
	return products, err
}

func (r *ProductRepositoryImpl) GetDescendants(product *models.Product) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Where("path LIKE ?", product.Path+"/%").
		Order("path").
		Find(&products).Error
	return products, err
}

// GetFamily returns ancestors, self and descendants in one query.
func (r *ProductRepositoryImpl) GetFamily(product *models.Product) ([]models.Product, error) {
	ids := product.AncestorIDs()
	if len(ids) == 0 {
		ids = []uint{product.ID}
	}
	var products []models.Product
	err := r.db.Where("id IN ? OR path LIKE ?", ids, product.Path+"/%").
		Order("length(path), path").
		Find(&products).Error
	return products, err
}

// FilterRepositoryImpl implements FilterRepository
type FilterRepositoryImpl struct {
	db *gorm.DB
}

func NewFilterRepository(db *gorm.DB) models.FilterRepository {
	return &FilterRepositoryImpl{db: db}
}

func (r *FilterRepositoryImpl) Create(filter *models.Filter) error {
	return r.db.Create(filter).Error
}

// GetApplicable intersects three conditions: the filter is attached to
// a product in the family, its group's slug appears among the request
// keys, and its own slug among that request's values.
func (r *FilterRepositoryImpl) GetApplicable(familyIDs []uint, groupSlugs, filterSlugs []string) ([]models.Filter, error) {
	if len(familyIDs) == 0 || len(groupSlugs) == 0 || len(filterSlugs) == 0 {
		return nil, nil
	}
	var filters []models.Filter
	err := r.db.Preload("Group").
		Joins("JOIN product_filters pf ON pf.filter_id = filters.id").
		Joins("JOIN filter_groups g ON g.id = filters.group_id").
		Where("pf.product_id IN ?", familyIDs).
		Where("g.slug IN ?", groupSlugs).
		Where("filters.slug IN ?", filterSlugs).
		Distinct("filters.*").
		Find(&filters).Error
	return filters, err
}

// GetForFamily returns every filter attached anywhere in the family,
// for the refinement panel.
func (r *FilterRepositoryImpl) GetForFamily(familyIDs []uint) ([]models.Filter, error) {
	if len(familyIDs) == 0 {
		return nil, nil
	}
	var filters []models.Filter
	err := r.db.Preload("Group").
		Joins("JOIN product_filters pf ON pf.filter_id = filters.id").
		Where("pf.product_id IN ?", familyIDs).
		Distinct("filters.*").
		Find(&filters).Error
	return filters, err
}

// AspectRepositoryImpl implements AspectRepository
type AspectRepositoryImpl struct {
	db *gorm.DB
}

func NewAspectRepository(db *gorm.DB) models.AspectRepository {
	return &AspectRepositoryImpl{db: db}
}

func (r *AspectRepositoryImpl) Create(aspect *models.Aspect) error {
	return r.db.Create(aspect).Error
}

// GetForSearch unions aspects attached to the product's ancestor chain,
// to any selected model, and to any applicable filter.
func (r *AspectRepositoryImpl) GetForSearch(ancestorIDs, modelIDs, filterIDs []uint) ([]models.Aspect, error) {
	var aspects []models.Aspect
	err := r.db.Raw(`
		SELECT a.* FROM aspects a
		JOIN product_aspects pa ON pa.aspect_id = a.id
		WHERE pa.product_id IN ?
		UNION
		SELECT a.* FROM aspects a
		JOIN product_aspects pa ON pa.aspect_id = a.id
		WHERE pa.product_id IN ?
		UNION
		SELECT a.* FROM aspects a
		JOIN filter_aspects fa ON fa.aspect_id = a.id
		WHERE fa.filter_id IN ?
		ORDER BY name, value
	`, nonEmpty(ancestorIDs), nonEmpty(modelIDs), nonEmpty(filterIDs)).
		Scan(&aspects).Error
	return aspects, err
}

// nonEmpty keeps the IN clause valid when a leg has no ids.
func nonEmpty(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}

// GroupRepositoryImpl implements GroupRepository
type GroupRepositoryImpl struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) models.GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

func (r *GroupRepositoryImpl) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

func (r *GroupRepositoryImpl) GetBySlug(slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.Where("slug = ?", slug).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}
