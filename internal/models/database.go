package models

// GORM models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a node in the category tree. Path is the materialized
// chain of ancestor ids ending with the node's own id, e.g. "/1/4/9".
type Category struct {
	BaseModel
	ParentID  *uint  `json:"parent_id"`
	Path      string `json:"-" gorm:"index"`
	Name      string `json:"name" gorm:"not null;index"`
	Slug      string `json:"slug" gorm:"unique;not null"`
	Nickname  string `json:"nickname"`
	Image     string `json:"image"`
	EbayCatID string `json:"ebay_cat_id"`
	Featured  bool   `json:"featured" gorm:"default:false"`

	// Associations
	Parent   *Category  `json:"-" gorm:"foreignKey:ParentID"`
	Children []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

// Product is a node in the product tree. A child product is a "model"
// of its parent (e.g. "iPhone" -> "iPhone 13").
type Product struct {
	BaseModel
	ParentID   *uint  `json:"parent_id"`
	Path       string `json:"-" gorm:"index"`
	CategoryID uint   `json:"category_id" gorm:"not null"`
	Name       string `json:"name" gorm:"not null;index"`
	Slug       string `json:"slug" gorm:"unique;not null"`
	Nickname   string `json:"nickname"`
	Image      string `json:"image"`
	Query      string `json:"query"`
	Featured   bool   `json:"featured" gorm:"default:false"`
	Order      int    `json:"order" gorm:"default:0"`

	// Associations
	Parent   *Product  `json:"-" gorm:"foreignKey:ParentID"`
	Children []Product `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Category Category  `json:"-" gorm:"foreignKey:CategoryID"`
	Aspects  []Aspect  `json:"-" gorm:"many2many:product_aspects"`
	Filters  []Filter  `json:"-" gorm:"many2many:product_filters"`
}

// Aspect is one marketplace attribute constraint. Value may hold
// several alternatives joined by "|" (e.g. "Black|Space Gray").
// Non-strict aspects admit an implicit "Not Specified" alternative
// when the caller opts into non-strict matching.
type Aspect struct {
	BaseModel
	Name   string `json:"name" gorm:"not null;index"`
	Value  string `json:"value" gorm:"not null;index"`
	Strict bool   `json:"strict" gorm:"default:false"`
}

// Group is an ordered named bucket of filters ("Brand", "Storage").
type Group struct {
	BaseModel
	Name  string `json:"name" gorm:"not null;index"`
	Slug  string `json:"slug" gorm:"unique;not null"`
	Order int    `json:"order" gorm:"default:0"`

	// Associations
	Filters []Filter `json:"filters,omitempty" gorm:"foreignKey:GroupID"`
}

// Filter is a selectable refinement inside a group. Slug is unique
// within its group.
type Filter struct {
	BaseModel
	GroupID uint   `json:"group_id" gorm:"not null;uniqueIndex:idx_group_slug,priority:1"`
	Value   string `json:"value" gorm:"not null;index"`
	Slug    string `json:"slug" gorm:"not null;uniqueIndex:idx_group_slug,priority:2"`
	Query   string `json:"query"`
	Order   int    `json:"order" gorm:"default:0"`

	// Associations
	Group   Group    `json:"-" gorm:"foreignKey:GroupID"`
	Aspects []Aspect `json:"-" gorm:"many2many:filter_aspects"`
}

// Database interfaces for repository pattern
type CategoryRepository interface {
	GetBySlug(slug string) (*Category, error)
	GetRoots() ([]Category, error)
	GetDescendants(category *Category) ([]Category, error)
	GetProducts(categorySlug string) ([]Product, error)
	Create(category *Category) error
}

type ProductRepository interface {
	GetBySlug(categorySlug, slug string) (*Product, error)
	GetBySlugs(slugs []string) ([]Product, error)
	GetChildren(product *Product) ([]Product, error)
	GetAncestors(product *Product) ([]Product, error)
	GetDescendants(product *Product) ([]Product, error)
	GetFamily(product *Product) ([]Product, error)
	Create(product *Product) error
}

type FilterRepository interface {
	GetApplicable(familyIDs []uint, groupSlugs, filterSlugs []string) ([]Filter, error)
	GetForFamily(familyIDs []uint) ([]Filter, error)
	Create(filter *Filter) error
}

type AspectRepository interface {
	GetForSearch(ancestorIDs, modelIDs, filterIDs []uint) ([]Aspect, error)
	Create(aspect *Aspect) error
}

type GroupRepository interface {
	GetBySlug(slug string) (*Group, error)
	Create(group *Group) error
}

// TableName methods for custom table names
func (Category) TableName() string { return "categories" }
func (Product) TableName() string  { return "products" }
func (Aspect) TableName() string   { return "aspects" }
func (Group) TableName() string    { return "filter_groups" }
func (Filter) TableName() string   { return "filters" }

// DisplayName prefers the nickname when one is set.
func (c *Category) DisplayName() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.Name
}

func (p *Product) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Name
}

// AncestorIDs parses the materialized path into the chain of ids from
// root to self.
func (p *Product) AncestorIDs() []uint {
	return parsePath(p.Path)
}

func (c *Category) AncestorIDs() []uint {
	return parsePath(c.Path)
}

func parsePath(path string) []uint {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// Model validation methods
func (c *Category) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("category name is required")
	}
	if c.Slug == "" {
		return fmt.Errorf("category slug is required")
	}
	return nil
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Slug == "" {
		return fmt.Errorf("product slug is required")
	}
	if p.CategoryID == 0 {
		return fmt.Errorf("product category is required")
	}
	return nil
}

func (f *Filter) Validate() error {
	if f.GroupID == 0 {
		return fmt.Errorf("filter group is required")
	}
	if f.Slug == "" {
		return fmt.Errorf("filter slug is required")
	}
	return nil
}

// GORM hooks. Paths depend on the generated id, so they are written in
// an AfterCreate update inside the same transaction.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	return c.Validate()
}

func (c *Category) AfterCreate(tx *gorm.DB) error {
	path := fmt.Sprintf("/%d", c.ID)
	if c.ParentID != nil {
		var parent Category
		if err := tx.First(&parent, *c.ParentID).Error; err != nil {
			return err
		}
		path = parent.Path + path
	}
	c.Path = path
	return tx.Model(&Category{}).Where("id = ?", c.ID).Update("path", path).Error
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}

func (p *Product) AfterCreate(tx *gorm.DB) error {
	path := fmt.Sprintf("/%d", p.ID)
	if p.ParentID != nil {
		var parent Product
		if err := tx.First(&parent, *p.ParentID).Error; err != nil {
			return err
		}
		path = parent.Path + path
	}
	p.Path = path
	return tx.Model(&Product{}).Where("id = ?", p.ID).Update("path", path).Error
}

func (f *Filter) BeforeCreate(tx *gorm.DB) error {
	return f.Validate()
}
