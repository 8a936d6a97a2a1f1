package cart

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/db/models"
	pkgerrors "github.com/vinhvuiver2003/doantotnghiep-sub000/pkg/errors"
)

const minSessionTokenLength = 16

// OwnerKey identifies who a cart belongs to: a registered user or an anonymous
// session token. Exactly one is set.
type OwnerKey struct {
	UserID       uuid.UUID
	SessionToken string
}

// UserOwner keys a cart by registered user.
func UserOwner(userID uuid.UUID) (OwnerKey, error) {
	if userID == uuid.Nil {
		return OwnerKey{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return OwnerKey{UserID: userID}, nil
}

// GuestOwner keys a cart by an anonymous session token.
func GuestOwner(token string) (OwnerKey, error) {
	token = strings.TrimSpace(token)
	if len(token) < minSessionTokenLength {
		return OwnerKey{}, pkgerrors.New(pkgerrors.CodeValidation, "session token is missing or too short")
	}
	return OwnerKey{SessionToken: token}, nil
}

// Validate enforces that exactly one identity is present.
func (k OwnerKey) Validate() error {
	hasUser := k.UserID != uuid.Nil
	hasToken := strings.TrimSpace(k.SessionToken) != ""
	if hasUser == hasToken {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be exactly one of user or session token")
	}
	return nil
}

// IsGuest reports whether the key is a session token.
func (k OwnerKey) IsGuest() bool {
	return k.UserID == uuid.Nil
}

// HashSessionToken returns the stored form of a guest session token.
func HashSessionToken(token string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// EnsureOwner returns Forbidden when the cart does not belong to owner.
func EnsureOwner(c *models.Cart, owner OwnerKey) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	if owner.IsGuest() {
		if c.SessionTokenHash != nil && *c.SessionTokenHash == HashSessionToken(owner.SessionToken) {
			return nil
		}
	} else if c.UserID != nil && *c.UserID == owner.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another owner")
}

func (k OwnerKey) newCart() *models.Cart {
	if k.IsGuest() {
		hash := HashSessionToken(k.SessionToken)
		return &models.Cart{SessionTokenHash: &hash}
	}
	id := k.UserID
	return &models.Cart{UserID: &id}
}
