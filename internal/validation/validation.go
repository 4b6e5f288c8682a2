// Package validation holds the request schemas shared by the HTTP handlers and
// the client SDK. Failures are flattened to a map keyed by JSON field path.
package validation

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"reflect"
	"sort"
	"storefront/internal/entity"
	"strings"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
	v.RegisterStructValidation(placeOrderRules, PlaceOrder{})
	v.RegisterStructValidation(productRules, ProductInput{})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		return d.InexactFloat64()
	case decimal.NullDecimal:
		if d.Valid {
			return d.Decimal.InexactFloat64()
		}
	}
	return nil
}

// Errors maps a JSON field path such as "shippingAddress.city" to a message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates s and returns Errors when any rule fails.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe.Namespace())] = message(fe)
	}
	return out
}

func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "eqfield":
		return "must match " + lowerFirst(fe.Param())
	case "ltprice":
		return "must be less than price"
	}
	return "is invalid"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Register struct {
	FirstName       string      `json:"firstName" validate:"required"`
	LastName        string      `json:"lastName" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Password        string      `json:"password" validate:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            entity.Role `json:"role" validate:"omitempty,oneof=customer vendor admin"`
}

// Payment details are checked at checkout and never stored.
type Payment struct {
	CardNumber string `json:"cardNumber" validate:"required,min=16"`
	ExpiryDate string `json:"expiryDate" validate:"required,min=5"`
	CVV        string `json:"cvv" validate:"required,min=3"`
}

type OrderLine struct {
	ProductID int `json:"productId" validate:"gt=0"`
	Quantity  int `json:"quantity" validate:"min=1"`
}

type PlaceOrder struct {
	Items           []OrderLine            `json:"items" validate:"required,min=1,dive"`
	ShippingAddress entity.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   entity.PaymentMethod   `json:"paymentMethod" validate:"required,oneof=card paypal"`
	Payment         *Payment               `json:"payment,omitempty"`
}

// Normalize trims the address and drops card details for non-card payments.
func (p *PlaceOrder) Normalize() {
	a := &p.ShippingAddress
	for _, f := range []*string{&a.FirstName, &a.LastName, &a.Address, &a.City, &a.State, &a.ZipCode} {
		*f = strings.TrimSpace(*f)
	}
	if p.PaymentMethod != entity.PaymentCard {
		p.Payment = nil
	}
}

func placeOrderRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(PlaceOrder)
	if p.PaymentMethod == entity.PaymentCard && p.Payment == nil {
		sl.ReportError(p.Payment, "payment", "Payment", "required", "")
	}
}

type CartAdd struct {
	ProductID int `json:"productId" validate:"gt=0"`
	Quantity  int `json:"quantity" validate:"min=1"`
}

type CartUpdate struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type ProductInput struct {
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price" validate:"gt=0"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	ImageURL    string              `json:"imageUrl" validate:"omitempty,url"`
	Images      []string            `json:"images" validate:"omitempty,dive,url"`
	Stock       int                 `json:"stock" validate:"gte=0"`
	CategoryID  int                 `json:"categoryId" validate:"gt=0"`
}

func productRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(ProductInput)
	switch {
	case !p.SalePrice.Valid:
	case !p.SalePrice.Decimal.IsPositive():
		sl.ReportError(p.SalePrice, "salePrice", "SalePrice", "gt", "0")
	case p.SalePrice.Decimal.GreaterThanOrEqual(p.Price):
		sl.ReportError(p.SalePrice, "salePrice", "SalePrice", "ltprice", "")
	}
}

// Apply copies the input onto p, leaving identity and review fields alone.
func (in ProductInput) Apply(p *entity.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.SalePrice = in.SalePrice
	p.ImageURL = in.ImageURL
	p.Images = in.Images
	p.Stock = in.Stock
	p.CategoryID = in.CategoryID
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

type StatusUpdate struct {
	Status entity.OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}
