package stockrequest

import (
	"context"
	"encoding/json"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/request"
)

// Open requests first in workflow order, then closed ones newest first.
const (
	statusPriority = `CASE stock_requests.status
		WHEN 'Pending' THEN 0
		WHEN 'Diproses' THEN 1
		WHEN 'Siap' THEN 2
		ELSE 3 END`
	closedNewestFirst = `CASE WHEN stock_requests.status IN ('Ditolak', 'Selesai') THEN stock_requests.created_at END DESC`
)

type ListFilter struct {
	BranchID         *uint
	KitchenShiftID   *uint
	WarehouseShiftID *uint
	Status           models.StockRequestStatus
	Limit            int
	Offset           int
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]models.StockRequest, error) {
	q := withDetails(s.db.WithContext(ctx).Model(&models.StockRequest{}))
	if f.BranchID != nil {
		q = q.Where("stock_requests.branch_id = ?", *f.BranchID)
	}
	if f.KitchenShiftID != nil {
		q = q.Where("stock_requests.kitchen_shift_id = ?", *f.KitchenShiftID)
	}
	if f.WarehouseShiftID != nil {
		q = q.Where("stock_requests.warehouse_shift_id = ?", *f.WarehouseShiftID)
	}
	if f.Status != "" {
		q = q.Where("stock_requests.status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.StockRequest
	err := q.Order(statusPriority).Order(closedNewestFirst).Order("stock_requests.created_at ASC").
		Limit(limit).Find(&out).Error
	return out, err
}

// DecodeAction picks the update action from the "type" field: updateStock or
// approveStock.
func DecodeAction(body []byte) (Action, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, apperr.BadRequest("Format data tidak valid")
	}
	switch head.Type {
	case "updateStock":
		return decode[EditRequest](body)
	case "approveStock":
		return decode[Approve](body)
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
