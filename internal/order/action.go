package order

import (
	"encoding/json"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
)

// Action is one of UpdateStatus, UpdateItems, UpdatePayment or
// UpdateWholeOrder.
type Action interface {
	action()
}

type UpdateStatus struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type ItemStatus struct {
	ID     uint               `json:"id" validate:"required"`
	Status models.OrderStatus `json:"status" validate:"required"`
}

type UpdateItems struct {
	Items []ItemStatus `json:"items" validate:"required,min=1,dive"`
}

type UpdatePayment struct {
	PaymentMethod string `json:"payment_method" validate:"required,max=30"`
}

type WholeOrderItem struct {
	ID       *uint  `json:"id"`
	MenuID   uint   `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Note     string `json:"note" validate:"max=255"`
}

type UpdateWholeOrder struct {
	BranchID    uint             `json:"branch_id"`
	TableNumber *int             `json:"table_number" validate:"omitempty,gt=0"`
	IsTakeAway  bool             `json:"is_take_away"`
	Items       []WholeOrderItem `json:"items" validate:"required,min=1,dive"`
}

func (UpdateStatus) action()     {}
func (UpdateItems) action()      {}
func (UpdatePayment) action()    {}
func (UpdateWholeOrder) action() {}

// DecodeAction reads the "type" discriminator and decodes the rest of the
// body into the matching action.
func DecodeAction(body []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, apperr.BadRequest("Format data tidak valid")
	}

	switch head.Type {
	case "updateStatus":
		return decode[UpdateStatus](body)
	case "updateItems":
		return decode[UpdateItems](body)
	case "updatePayment":
		return decode[UpdatePayment](body)
	case "updateOrder":
		return decode[UpdateWholeOrder](body)
	}
	return nil, apperr.BadRequest("Tipe pembaruan tidak dikenal")
}

func decode[T Action](body []byte) (Action, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, apperr.BadRequest("Format data tidak valid")
	}
	if err := request.Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}
