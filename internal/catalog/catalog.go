package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

//go:embed products.json
var embeddedProducts []byte

// ErrDuplicateID is returned when two catalog records share an identifier.
var ErrDuplicateID = errors.New("duplicate product id")

// Product is an immutable catalog entry. Discount is the default discount percentage.
type Product struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Value    decimal.Decimal `json:"value" validate:"gt=0"`
	Discount decimal.Decimal `json:"discount" validate:"gte=0,lte=100"`
	Emoji    string          `json:"emoji"`
}

type document struct {
	Products []Product `validate:"required,min=1,dive"`
}

// Catalog is an ordered, read-only product list with lookup by identifier.
type Catalog struct {
	products []Product
	index    map[string]int
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// New validates products and builds a catalog preserving their order.
func New(products []Product) (*Catalog, error) {
	cleaned := make([]Product, len(products))
	for i, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		cleaned[i] = p
	}
	if err := newValidator().Struct(document{Products: cleaned}); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	index := make(map[string]int, len(cleaned))
	for i, p := range cleaned {
		if _, exists := index[p.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		index[p.ID] = i
	}
	return &Catalog{products: cleaned, index: index}, nil
}

// Load decodes a JSON array of products from r.
func Load(r io.Reader) (*Catalog, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

// LoadFile reads a catalog from path, falling back to the embedded catalog when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(string(embeddedProducts)))
}

// Lookup returns the product with the given identifier. Unknown identifiers report false.
func (c *Catalog) Lookup(id string) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	i, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Products returns the catalog in display order.
func (c *Catalog) Products() []Product {
	if c == nil {
		return nil
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len reports the number of products.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
