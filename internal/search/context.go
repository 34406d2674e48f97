package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dmaher/gearbay/internal/ebay"
	"github.com/dmaher/gearbay/internal/models"
	"github.com/dmaher/gearbay/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

var keywordPolicy = bluemonday.StrictPolicy()

// Context is one browsing request resolved against the catalog: the
// validated sort key, strictness, sanitized keywords, selected model
// sub-products, page number, and the applicable filters with their
// derived query fragments and aspects. Built once per request and not
// mutated afterwards.
type Context struct {
	Product  *models.Product
	Sort     string
	Strict   bool
	Keywords string
	Models   []models.Product
	Page     int
	Filters  []models.Filter

	queries []string
	aspects []models.Aspect
}

// NewContext parses the request parameters and resolves them against
// the catalog. Bad sort and page values degrade to defaults instead of
// failing.
func NewContext(params url.Values, product *models.Product, repos *repository.RepositoryManager) (*Context, error) {
	ctx := &Context{
		Product: product,
		Sort:    ebay.SortBest,
		Strict:  true,
		Page:    1,
	}

	if s := params.Get("sort"); ebay.ValidSort(s) {
		ctx.Sort = s
	}

	// "strict" takes any strconv.ParseBool literal; anything else,
	// including absence, means strict matching.
	if raw := params.Get("strict"); raw != "" {
		if strict, err := strconv.ParseBool(raw); err == nil {
			ctx.Strict = strict
		}
	}

	if kw := params.Get("keywords"); kw != "" {
		ctx.Keywords = strings.TrimSpace(keywordPolicy.Sanitize(kw))
	}

	if page, err := strconv.Atoi(params.Get("page")); err == nil && page > 0 {
		ctx.Page = page
	}

	selected, err := repos.Product.GetBySlugs(params["model"])
	if err != nil {
		return nil, err
	}
	ctx.Models = selected

	family, err := repos.Product.GetFamily(product)
	if err != nil {
		return nil, err
	}
	familyIDs := make([]uint, len(family))
	for i, p := range family {
		familyIDs[i] = p.ID
	}

	ctx.Filters, err = repos.Filter.GetApplicable(familyIDs, paramKeys(params), paramValues(params))
	if err != nil {
		return nil, err
	}

	ctx.queries = ctx.buildQueries()

	filterIDs := make([]uint, len(ctx.Filters))
	for i, f := range ctx.Filters {
		filterIDs[i] = f.ID
	}
	modelIDs := make([]uint, len(ctx.Models))
	for i, m := range ctx.Models {
		modelIDs[i] = m.ID
	}

	ctx.aspects, err = repos.Aspect.GetForSearch(product.AncestorIDs(), modelIDs, filterIDs)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}

// QueryFragments is the ordered free-text query list: the product's own
// query, each selected model's, one OR-fragment per filter group, and
// the user keywords last.
func (c *Context) QueryFragments() []string {
	out := make([]string, len(c.queries))
	copy(out, c.queries)
	return out
}

// AspectFilters expands each aspect's alternatives. Non-strict aspects
// additionally admit "Not Specified" when the request opted out of
// strict matching.
func (c *Context) AspectFilters() []ebay.AspectFilter {
	filters := make([]ebay.AspectFilter, 0, len(c.aspects))
	for _, aspect := range c.aspects {
		values := strings.Split(aspect.Value, "|")
		if !c.Strict && !aspect.Strict {
			values = append(values, "Not Specified")
		}
		filters = append(filters, ebay.AspectFilter{
			Name:   aspect.Name,
			Values: values,
		})
	}
	return filters
}

func (c *Context) buildQueries() []string {
	var queries []string
	if c.Product.Query != "" {
		queries = append(queries, c.Product.Query)
	}
	for _, model := range c.Models {
		if model.Query != "" {
			queries = append(queries, model.Query)
		}
	}

	queries = append(queries, groupFragments(c.Filters)...)

	if c.Keywords != "" {
		queries = append(queries, c.Keywords)
	}
	return queries
}

// groupFragments joins filters sharing a group into one OR-style
// fragment "(a,b)"; a lone filter contributes its query bare. Groups
// appear in their panel order.
func groupFragments(filters []models.Filter) []string {
	ordered := make([]models.Filter, len(filters))
	copy(ordered, filters)
	sort.SliceStable(ordered, func(i, j int) bool {
		gi, gj := ordered[i].Group, ordered[j].Group
		if gi.Order != gj.Order {
			return gi.Order < gj.Order
		}
		if gi.Name != gj.Name {
			return gi.Name < gj.Name
		}
		if ordered[i].Order != ordered[j].Order {
			return ordered[i].Order > ordered[j].Order
		}
		return ordered[i].Value < ordered[j].Value
	})

	var groupIDs []uint
	grouped := make(map[uint][]string)
	for _, f := range ordered {
		if f.Query == "" {
			continue
		}
		if _, seen := grouped[f.GroupID]; !seen {
			groupIDs = append(groupIDs, f.GroupID)
		}
		grouped[f.GroupID] = append(grouped[f.GroupID], f.Query)
	}

	fragments := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		qs := grouped[id]
		if len(qs) > 1 {
			fragments = append(fragments, "("+strings.Join(qs, ",")+")")
		} else {
			fragments = append(fragments, qs[0])
		}
	}
	return fragments
}

func paramKeys(params url.Values) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	return keys
}

func paramValues(params url.Values) []string {
	var values []string
	for _, vs := range params {
		values = append(values, vs...)
	}
	return values
}
