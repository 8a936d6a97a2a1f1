package cart

import (
	"github.com/google/uuid"

	"github.com/vinhvuiver2003/doantotnghiep-sub000/api/controllers/dto"
)

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type updateLineRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type mergeResponse struct {
	Cart        dto.Cart `json:"cart"`
	MergedLines int      `json:"merged_lines"`
	Skipped     bool     `json:"skipped"`
}
