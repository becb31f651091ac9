package wishlist

import (
	"github.com/gofrs/uuid"

	"github.com/bookkart/bookkart/internal/product"
)

// Wishlist is a per-user set of products; adding an already-present product is
// a no-op.
type Wishlist struct {
	UserID   uuid.UUID         `json:"user_id"`
	Products []product.Product `json:"products"`
}
