package helpers

import (
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

var contactValidator = validator.New()

// Contact is how a guest buyer is reached about an order.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Normalized trims every field and lower-cases the email.
func (c Contact) Normalized() Contact {
	return Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
}

// IsZero reports whether no contact detail was supplied.
func (c Contact) IsZero() bool {
	n := c.Normalized()
	return n.Name == "" && n.Email == "" && n.Phone == ""
}

// ValidateGuestContact requires a name and a well-formed email; phone is optional.
func ValidateGuestContact(c Contact) error {
	c = c.Normalized()
	if c.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest contact name is required")
	}
	if c.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest contact email is required")
	}
	if err := contactValidator.Var(c.Email, "email"); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "guest contact email is invalid").
			WithDetails(map[string]any{"email": c.Email})
	}
	if c.Phone != "" {
		if err := contactValidator.Var(c.Phone, "min=6,max=32"); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "guest contact phone is invalid")
		}
	}
	return nil
}
