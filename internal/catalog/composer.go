package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// SchemaSource is the read side the composer needs.
type SchemaSource interface {
	Category(ctx context.Context, id int64) (Category, error)
	Brands(ctx context.Context, categoryID int64) ([]Brand, error)
	Subcategories(ctx context.Context, categoryID int64) ([]Subcategory, error)
	BrandSpecs(ctx context.Context, brandID int64) ([]SpecField, error)
	CategorySpecs(ctx context.Context, categoryID int64) ([]SpecField, error)
}

// Composer builds product forms from category and brand definitions.
type Composer struct {
	source SchemaSource
}

// NewComposer constructs a Composer.
func NewComposer(source SchemaSource) *Composer {
	return &Composer{source: source}
}

// Compose returns the form for categoryID and optional brandID. When stored
// is non-nil its spec values hydrate the matching fields.
func (c *Composer) Compose(ctx context.Context, categoryID int64, brandID *int64, stored map[string]string) (FormSchema, error) {
	if categoryID <= 0 {
		return FormSchema{}, fmt.Errorf("%w: category_id required", httpx.ErrValidation)
	}
	category, err := c.source.Category(ctx, categoryID)
	if err != nil {
		return FormSchema{}, err
	}
	brands, err := c.source.Brands(ctx, categoryID)
	if err != nil {
		return FormSchema{}, err
	}
	subcategories, err := c.source.Subcategories(ctx, categoryID)
	if err != nil {
		return FormSchema{}, err
	}

	schema := FormSchema{
		Category:      category,
		Subcategories: subcategories,
		Brand: BrandField{
			Visible:  len(brands) > 0,
			Required: len(brands) > 0 && category.RequiresBrand,
			Options:  brands,
		},
	}

	var defs []SpecField
	if brandID != nil && *brandID > 0 && schema.Brand.Visible {
		if !containsBrand(brands, *brandID) {
			return FormSchema{}, fmt.Errorf("%w: brand %d does not belong to category %s", httpx.ErrValidation, *brandID, category.Name)
		}
		selected := *brandID
		schema.Brand.Selected = &selected
		defs, err = c.source.BrandSpecs(ctx, selected)
	} else {
		defs, err = c.source.CategorySpecs(ctx, categoryID)
	}
	if err != nil {
		return FormSchema{}, err
	}

	schema.Fields = make([]FormField, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		name := strings.ToLower(strings.TrimSpace(def.Name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		if category.IsAccessory() {
			if _, excluded := phoneOnlyFields[name]; excluded {
				continue
			}
		}
		seen[name] = struct{}{}
		def.Name = name
		if def.Type == "" {
			def.Type = FieldText
		}
		field := FormField{SpecField: def}
		if stored != nil {
			field.Value = stored[name]
		}
		schema.Fields = append(schema.Fields, field)
	}
	sort.SliceStable(schema.Fields, func(i, j int) bool {
		return schema.Fields[i].SortOrder < schema.Fields[j].SortOrder
	})
	return schema, nil
}

// Validate checks input against the composed schema and returns the
// cleaned spec map holding only fields the schema defines.
func (s FormSchema) Validate(input ProductInput) (map[string]string, error) {
	var problems []string
	if s.Brand.Required && (input.BrandID == nil || *input.BrandID <= 0) {
		problems = append(problems, "brand is required")
	}
	if input.BrandID != nil && *input.BrandID > 0 && !containsBrand(s.Brand.Options, *input.BrandID) {
		problems = append(problems, "brand does not belong to category")
	}
	if input.SubcategoryID != nil && *input.SubcategoryID > 0 && !containsSubcategory(s.Subcategories, *input.SubcategoryID) {
		problems = append(problems, "subcategory does not belong to category")
	}

	specs := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		value := strings.TrimSpace(lookupSpec(input.Specs, f.Name))
		if value == "" {
			if f.Required {
				problems = append(problems, fmt.Sprintf("%s is required", labelOf(f)))
			}
			continue
		}
		switch f.Type {
		case FieldNumber:
			if _, err := decimal.NewFromString(value); err != nil {
				problems = append(problems, fmt.Sprintf("%s must be a number", labelOf(f)))
				continue
			}
		case FieldSelect:
			if len(f.Options) > 0 && !containsOption(f.Options, value) {
				problems = append(problems, fmt.Sprintf("%s must be one of %s", labelOf(f), strings.Join(f.Options, ", ")))
				continue
			}
		}
		specs[f.Name] = value
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(problems, "; "))
	}
	return specs, nil
}

func lookupSpec(specs map[string]string, name string) string {
	if v, ok := specs[name]; ok {
		return v
	}
	for k, v := range specs {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func labelOf(f FormField) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func containsBrand(brands []Brand, id int64) bool {
	for _, b := range brands {
		if b.ID == id {
			return true
		}
	}
	return false
}

func containsSubcategory(subs []Subcategory, id int64) bool {
	for _, s := range subs {
		if s.ID == id {
			return true
		}
	}
	return false
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return true
		}
	}
	return false
}
