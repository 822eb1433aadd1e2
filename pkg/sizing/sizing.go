// Package sizing turns a measured body width into a clothing size and a
// marketplace search link for it.
package sizing

import (
	"fmt"
	"net/url"
	"strings"
)

// Gender is the shopper's gender as offered in the UI.
type Gender int

const (
	Male Gender = iota
	Female
)

// Genders lists the gender options in display order. The first one is the default.
func Genders() []Gender {
	return []Gender{Male, Female}
}

func (g Gender) String() string {
	switch g {
	case Male:
		return "Male"
	case Female:
		return "Female"
	default:
		return fmt.Sprintf("Gender(%d)", int(g))
	}
}

// Label returns the word used for the gender in shopping queries.
func (g Gender) Label() string {
	if g == Male {
		return "men"
	}
	return "women"
}

// ParseGender maps a UI option back to a Gender.
func ParseGender(s string) (Gender, error) {
	for _, g := range Genders() {
		if g.String() == s {
			return g, nil
		}
	}
	return Male, fmt.Errorf("unknown gender %q", s)
}

// ProductType is the kind of garment being shopped for.
type ProductType int

const (
	TShirt ProductType = iota
	Shirt
	Jeans
	Jacket
)

var productNames = [...]string{"T-shirt", "Shirt", "Jeans", "Jacket"}

// ProductTypes lists the product options in display order. The first one is the default.
func ProductTypes() []ProductType {
	return []ProductType{TShirt, Shirt, Jeans, Jacket}
}

func (p ProductType) String() string {
	if p < 0 || int(p) >= len(productNames) {
		return fmt.Sprintf("ProductType(%d)", int(p))
	}
	return productNames[p]
}

// ParseProductType maps a UI option back to a ProductType.
func ParseProductType(s string) (ProductType, error) {
	for _, p := range ProductTypes() {
		if p.String() == s {
			return p, nil
		}
	}
	return TShirt, fmt.Errorf("unknown product type %q", s)
}

// Bucket is a clothing size.
type Bucket string

const (
	S  Bucket = "S"
	M  Bucket = "M"
	L  Bucket = "L"
	XL Bucket = "XL"
)

// Classify maps a body width in centimetres to a size.
//
// The ranges share their end points and the first matching range wins, so a
// width of exactly 28 is S, 34 is M and 40 is L.
func Classify(widthCM float64) Bucket {
	switch {
	case widthCM <= 28:
		return S
	case 28 <= widthCM && widthCM <= 34:
		return M
	case 34 <= widthCM && widthCM <= 40:
		return L
	default:
		return XL
	}
}

// Query builds the marketplace search text, e.g. "men t-shirt size M".
// Gender and product only change the query, never the size.
func Query(g Gender, p ProductType, b Bucket) string {
	return fmt.Sprintf("%s %s size %s", g.Label(), strings.ToLower(p.String()), b)
}

// ShoppingURL returns the search link for the query on the marketplace at
// base. Parameters already in base are kept and k is replaced.
func ShoppingURL(base string, g Gender, p ProductType, b Bucket) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?k=" + url.QueryEscape(Query(g, p, b))
	}
	q := u.Query()
	q.Set("k", Query(g, p, b))
	u.RawQuery = q.Encode()
	return u.String()
}
