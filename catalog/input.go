package catalog

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jmgilman/go/errors"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-storefront/domain"
)

// ProductInput carries caller supplied product fields. Nil means "not
// supplied"; for updates, zero-valued strings, price and images are treated
// the same as nil.
type ProductInput struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Brand        *string          `json:"brand"`
	Category     *string          `json:"category"`
	CountInStock *int             `json:"countInStock"`
	Images       []string         `json:"images"`
}

var nonNegativePrice = validation.By(func(value any) error {
	price, ok := value.(*decimal.Decimal)
	if !ok || price == nil {
		return nil
	}
	if price.IsNegative() {
		return validation.NewError("validation_price_negative", "must not be negative")
	}
	return nil
})

func (in ProductInput) validateCreate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.Price, validation.NotNil, nonNegativePrice),
		validation.Field(&in.Brand, validation.Required),
		validation.Field(&in.Category, validation.Required),
		validation.Field(&in.CountInStock, validation.NotNil, validation.Min(0)),
		validation.Field(&in.Images, validation.Each(validation.Required)),
	)
}

func (in ProductInput) validateUpdate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Price, nonNegativePrice),
		validation.Field(&in.CountInStock, validation.Min(0)),
		validation.Field(&in.Images, validation.Each(validation.Required)),
	)
}

// trimmed returns a copy with surrounding whitespace removed from every
// string field.
func (in ProductInput) trimmed() ProductInput {
	out := in
	out.Name = trimPtr(in.Name)
	out.Description = trimPtr(in.Description)
	out.Brand = trimPtr(in.Brand)
	out.Category = trimPtr(in.Category)
	if in.Images != nil {
		out.Images = make([]string, len(in.Images))
		for i, img := range in.Images {
			out.Images[i] = strings.TrimSpace(img)
		}
	}
	return out
}

func (in ProductInput) newProduct() *domain.Product {
	p := &domain.Product{
		Name:         *in.Name,
		Description:  *in.Description,
		Price:        *in.Price,
		Brand:        *in.Brand,
		Category:     *in.Category,
		CountInStock: *in.CountInStock,
		Images:       in.Images,
	}
	if len(p.Images) == 0 {
		p.Images = []string{domain.PlaceholderImage(p.Name)}
	}
	return p
}

// applyTo merges the input into p. Unset or zero-valued fields keep the
// prior value, except CountInStock which is replaced whenever supplied.
func (in ProductInput) applyTo(p *domain.Product) {
	if s := deref(in.Name); s != "" {
		p.Name = s
	}
	if s := deref(in.Description); s != "" {
		p.Description = s
	}
	if in.Price != nil && !in.Price.IsZero() {
		p.Price = *in.Price
	}
	if s := deref(in.Brand); s != "" {
		p.Brand = s
	}
	if s := deref(in.Category); s != "" {
		p.Category = s
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
	if len(in.Images) > 0 {
		p.Images = append([]string(nil), in.Images...)
	}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// invalidInput converts ozzo validation errors into an Invalid error whose
// context maps each offending field to its problem.
func invalidInput(err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return domain.Invalid(err.Error())
	}
	ctx := make(map[string]interface{}, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		ctx[field] = fieldErr.Error()
	}
	return errors.WithContextMap(domain.Invalid("invalid product input"), ctx)
}
