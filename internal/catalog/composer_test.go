package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

type stubCatalog struct {
	categories    map[int64]Category
	brands        map[int64][]Brand
	subcategories map[int64][]Subcategory
	brandSpecs    map[int64][]SpecField
	categorySpecs map[int64][]SpecField
	products      map[int64]Product
}

func (s *stubCatalog) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubCatalog) Category(ctx context.Context, id int64) (Category, error) {
	c, ok := s.categories[id]
	if !ok {
		return Category{}, httpx.ErrNotFound
	}
	return c, nil
}

func (s *stubCatalog) Brands(ctx context.Context, categoryID int64) ([]Brand, error) {
	return s.brands[categoryID], nil
}

func (s *stubCatalog) Subcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	return s.subcategories[categoryID], nil
}

func (s *stubCatalog) BrandSpecs(ctx context.Context, brandID int64) ([]SpecField, error) {
	return s.brandSpecs[brandID], nil
}

func (s *stubCatalog) CategorySpecs(ctx context.Context, categoryID int64) ([]SpecField, error) {
	return s.categorySpecs[categoryID], nil
}

func (s *stubCatalog) ListProducts(ctx context.Context, filter ListFilter) ([]Product, int, error) {
	var out []Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int64, companyID *int64) (Product, error) {
	p, ok := s.products[id]
	if !ok || (companyID != nil && p.CompanyID != *companyID) {
		return Product{}, httpx.ErrNotFound
	}
	return p, nil
}

func (s *stubCatalog) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = int64(len(s.products) + 1)
	s.products[p.ID] = p
	return p, nil
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, p Product) error {
	s.products[p.ID] = p
	return nil
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id int64, companyID *int64) error {
	delete(s.products, id)
	return nil
}

const (
	phones      int64 = 1
	accessories int64 = 2
	laptops     int64 = 3
	apple       int64 = 10
	smartphones int64 = 20
)

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		categories: map[int64]Category{
			phones:      {ID: phones, Name: "Phones", Slug: "phones", Kind: KindPhone, RequiresBrand: true},
			accessories: {ID: accessories, Name: "Accessories", Slug: "accessories", Kind: KindAccessory},
			laptops:     {ID: laptops, Name: "Laptops", Slug: "laptops", Kind: KindGeneral, RequiresBrand: true},
		},
		brands: map[int64][]Brand{
			phones: {{ID: apple, CategoryID: phones, Name: "Apple"}},
		},
		subcategories: map[int64][]Subcategory{
			phones: {{ID: smartphones, CategoryID: phones, Name: "Smartphones"}},
		},
		brandSpecs: map[int64][]SpecField{
			apple: {
				{Name: "storage", Label: "Storage", Type: FieldSelect, Options: []string{"64GB", "128GB"}, Required: true, SortOrder: 2},
				{Name: "imei", Label: "IMEI", Type: FieldText, Required: true, SortOrder: 1},
			},
		},
		categorySpecs: map[int64][]SpecField{
			phones:      {{Name: "color", Label: "Color", SortOrder: 1}},
			accessories: {{Name: "imei", Label: "IMEI"}, {Name: "compatibility", Label: "Compatible with", Required: true}, {Name: "ram"}},
		},
		products: map[int64]Product{},
	}
}

func int64p(v int64) *int64 { return &v }

func TestComposeBrandRules(t *testing.T) {
	c := NewComposer(newStubCatalog())
	ctx := context.Background()

	schema, err := c.Compose(ctx, phones, nil, nil)
	require.NoError(t, err)
	assert.True(t, schema.Brand.Visible)
	assert.True(t, schema.Brand.Required)
	require.Len(t, schema.Fields, 1)
	assert.Equal(t, "color", schema.Fields[0].Name)

	schema, err = c.Compose(ctx, phones, int64p(apple), nil)
	require.NoError(t, err)
	require.Len(t, schema.Fields, 2)
	assert.Equal(t, "imei", schema.Fields[0].Name)
	assert.Equal(t, "storage", schema.Fields[1].Name)
	_, hasColor := schema.Field("color")
	assert.False(t, hasColor, "brand fields replace category fields")

	schema, err = c.Compose(ctx, laptops, nil, nil)
	require.NoError(t, err)
	assert.False(t, schema.Brand.Visible)
	assert.False(t, schema.Brand.Required, "a category without brands never requires one")

	_, err = c.Compose(ctx, accessories, int64p(apple), nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestComposeAccessoryExclusions(t *testing.T) {
	c := NewComposer(newStubCatalog())
	schema, err := c.Compose(context.Background(), accessories, nil, nil)
	require.NoError(t, err)
	require.Len(t, schema.Fields, 1)
	assert.Equal(t, "compatibility", schema.Fields[0].Name)
}

func TestComposeHydratesStoredValues(t *testing.T) {
	c := NewComposer(newStubCatalog())
	schema, err := c.Compose(context.Background(), phones, int64p(apple), map[string]string{"imei": "356789", "unknown": "x"})
	require.NoError(t, err)
	imei, ok := schema.Field("imei")
	require.True(t, ok)
	assert.Equal(t, "356789", imei.Value)
	storage, _ := schema.Field("storage")
	assert.Empty(t, storage.Value)
}

func TestValidateAgainstSchema(t *testing.T) {
	c := NewComposer(newStubCatalog())
	schema, err := c.Compose(context.Background(), phones, int64p(apple), nil)
	require.NoError(t, err)

	_, err = schema.Validate(ProductInput{CategoryID: phones, Specs: map[string]string{"imei": "1"}})
	require.ErrorIs(t, err, httpx.ErrValidation)
	assert.Contains(t, err.Error(), "brand is required")
	assert.Contains(t, err.Error(), "Storage is required")

	_, err = schema.Validate(ProductInput{CategoryID: phones, BrandID: int64p(apple), Specs: map[string]string{"imei": "1", "storage": "1TB"}})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	specs, err := schema.Validate(ProductInput{CategoryID: phones, BrandID: int64p(apple),
		Specs: map[string]string{"IMEI": " 35 ", "storage": "128gb", "extra": "dropped"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"imei": "35", "storage": "128gb"}, specs)
}

func TestServiceCreateProduct(t *testing.T) {
	repo := newStubCatalog()
	svc := NewService(repo, nil, nil, nil)
	mgr := shared.Principal{UserID: 1, Role: shared.RoleManager, CompanyID: int64p(4)}

	p, err := svc.Create(context.Background(), mgr, ProductInput{
		Name:         "Phone case",
		CategoryID:   accessories,
		SellingPrice: decimal.NewFromInt(50),
		Quantity:     3,
		Specs:        map[string]string{"compatibility": "iPhone 13", "imei": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.CompanyID)
	assert.Nil(t, p.BrandID)
	assert.Equal(t, map[string]string{"compatibility": "iPhone 13"}, p.Specs)

	_, err = svc.Create(context.Background(), mgr, ProductInput{Name: "Free", CategoryID: accessories})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	schema, err := svc.FormSchema(context.Background(), mgr, 0, nil, p.ID)
	require.NoError(t, err)
	assert.Equal(t, accessories, schema.Category.ID)
	field, ok := schema.Field("compatibility")
	require.True(t, ok)
	assert.Equal(t, "iPhone 13", field.Value)
}
