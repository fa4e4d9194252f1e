// Package stockrequest runs the kitchen to warehouse request workflow:
// Pending, approved per item into Diproses or Ditolak, staged as Siap and
// finally received as Selesai.
package stockrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/audit"
	"github.com/PramesRay/pos-service/internal/auth"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/notify"
	"github.com/PramesRay/pos-service/internal/shift"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const msgNotFound = "Permintaan Stok tidak ditemukan"

type Service struct {
	db     *gorm.DB
	mailer notify.Mailer
}

func NewService(db *gorm.DB, mailer notify.Mailer) *Service {
	if mailer == nil {
		mailer = notify.Nop{}
	}
	return &Service{db: db, mailer: mailer}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

type ItemInput struct {
	InventoryItemID uint `json:"id" validate:"required"`
	Quantity        int  `json:"quantity" validate:"gt=0"`
}

type CreateRequest struct {
	BranchID uint        `json:"branch_id"`
	Note     string      `json:"note" validate:"max=255"`
	Items    []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create records a Pending request against the branch's open kitchen shift
// and the open warehouse shift, then mails the warehouse.
func (s *Service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*models.StockRequest, error) {
	if len(req.Items) == 0 {
		return nil, apperr.BadRequest("Item permintaan wajib diisi")
	}
	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, apperr.BadRequest("Jumlah item harus lebih dari 0")
		}
		ids = append(ids, it.InventoryItemID)
	}

	var sr models.StockRequest
	var branch models.Branch
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&branch, req.BranchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Cabang tidak ditemukan")
			}
			return err
		}
		ks, err := shift.OpenKitchenShift(tx, req.BranchID)
		if errors.Is(err, shift.ErrNoOpenShift) {
			return apperr.NotFound("Sif Dapur tidak ditemukan")
		}
		if err != nil {
			return err
		}
		ws, err := shift.OpenWarehouseShift(tx)
		if errors.Is(err, shift.ErrNoOpenShift) {
			return apperr.NotFound("Sif Gudang tidak ditemukan")
		}
		if err != nil {
			return err
		}

		var known int64
		if err := tx.Model(&models.InventoryItem{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
			return err
		}
		if int(known) != len(uniq(ids)) {
			return apperr.BadRequest("Barang gudang tidak ditemukan")
		}

		sr = models.StockRequest{
			BranchID:         req.BranchID,
			KitchenShiftID:   ks.ID,
			WarehouseShiftID: ws.ID,
			Status:           models.RequestPending,
			Note:             req.Note,
			RequestedBy:      actor.UserID,
			UpdatedBy:        actor.UserID,
		}
		for _, it := range req.Items {
			sr.Items = append(sr.Items, models.StockRequestItem{
				InventoryItemID: it.InventoryItemID,
				Quantity:        it.Quantity,
				Status:          models.RequestPending,
			})
		}
		if err := tx.Create(&sr).Error; err != nil {
			return err
		}
		return logRequest(tx, actor, &sr, models.AuditActionCreate, "Permintaan stok dibuat", nil, sr)
	})
	if err != nil {
		return nil, err
	}

	metrics.StockRequests.WithLabelValues(string(sr.Status)).Inc()
	out, err := s.Get(ctx, sr.ID)
	if err != nil {
		return nil, err
	}
	s.mailer.StockRequestCreated(*out, branch.Name)
	return out, nil
}

// Action is EditRequest or Approve.
type Action interface {
	action()
}

type ItemQuantity struct {
	ID       uint `json:"id" validate:"required"`
	Quantity int  `json:"quantity" validate:"gt=0"`
}

// EditRequest changes the note and the quantities of request items, keyed
// by request item id.
type EditRequest struct {
	Note  string         `json:"note" validate:"max=255"`
	Items []ItemQuantity `json:"items" validate:"dive"`
}

type Approval struct {
	ID       uint `json:"id" validate:"required"`
	Approved bool `json:"approved"`
}

// Approve decides every pending item at once. Items are matched on their
// inventory item id; anything not approved is rejected.
type Approve struct {
	Items []Approval `json:"items" validate:"dive"`
}

func (EditRequest) action() {}
func (Approve) action()     {}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id uint, a Action) (*models.StockRequest, error) {
	var err error
	switch a := a.(type) {
	case EditRequest:
		err = s.edit(ctx, actor, id, a)
	case Approve:
		err = s.approve(ctx, actor, id, a)
	default:
		err = apperr.BadRequest("Tipe pembaruan tidak dikenal")
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) edit(ctx context.Context, actor auth.Actor, id uint, a EditRequest) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		sr, err := load(tx, id, true)
		if err != nil {
			return err
		}
		if err := inBranch(actor, sr); err != nil {
			return err
		}
		if sr.Status != models.RequestPending {
			return apperr.Conflict("Permintaan Stok sudah diproses")
		}

		qty := make(map[uint]int, len(a.Items))
		for _, it := range a.Items {
			if it.Quantity <= 0 {
				return apperr.BadRequest("Jumlah item harus lebih dari 0")
			}
			qty[it.ID] = it.Quantity
		}
		for _, it := range sr.Items {
			q, ok := qty[it.ID]
			if !ok || it.Status != models.RequestPending || q == it.Quantity {
				continue
			}
			if err := tx.Model(&models.StockRequestItem{}).Where("id = ?", it.ID).
				Update("quantity", q).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&models.StockRequest{}).Where("id = ?", sr.ID).
			Updates(map[string]any{"note": a.Note, "updated_by": actor.UserID}).Error; err != nil {
			return err
		}
		return logRequest(tx, actor, sr, models.AuditActionUpdate, "Permintaan stok diubah", sr, a)
	})
}

func (s *Service) approve(ctx context.Context, actor auth.Actor, id uint, a Approve) error {
	var decided models.StockRequestStatus
	err := s.tx(ctx, func(tx *gorm.DB) error {
		sr, err := load(tx, id, true)
		if err != nil {
			return err
		}
		if err := inBranch(actor, sr); err != nil {
			return err
		}
		if sr.Status != models.RequestPending {
			return apperr.Conflict("Permintaan Stok sudah diproses")
		}

		approved := make([]uint, 0, len(a.Items))
		for _, it := range a.Items {
			if it.Approved {
				approved = append(approved, it.ID)
			}
		}

		var n int64
		if len(approved) > 0 {
			res := tx.Model(&models.StockRequestItem{}).
				Where("stock_request_id = ? AND status = ? AND inventory_item_id IN ?", sr.ID, models.RequestPending, approved).
				Update("status", models.RequestProcess)
			if res.Error != nil {
				return res.Error
			}
			n = res.RowsAffected
		}
		if err := tx.Model(&models.StockRequestItem{}).
			Where("stock_request_id = ? AND status = ?", sr.ID, models.RequestPending).
			Update("status", models.RequestRejected).Error; err != nil {
			return err
		}

		decided = models.RequestRejected
		if n > 0 {
			decided = models.RequestProcess
		}
		if err := tx.Model(&models.StockRequest{}).Where("id = ?", sr.ID).
			Updates(map[string]any{"status": decided, "updated_by": actor.UserID}).Error; err != nil {
			return err
		}
		return logRequest(tx, actor, sr, models.AuditActionUpdate,
			fmt.Sprintf("Permintaan stok %s", decided),
			map[string]any{"status": sr.Status}, map[string]any{"status": decided, "approved": approved})
	})
	if err != nil {
		return err
	}

	metrics.StockRequests.WithLabelValues(string(decided)).Inc()
	if out, err := s.Get(ctx, id); err == nil {
		s.mailer.StockRequestApproved(*out)
	}
	return nil
}

// Ready marks an approved request and all its items as staged.
func (s *Service) Ready(ctx context.Context, actor auth.Actor, id uint) (*models.StockRequest, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		sr, err := load(tx, id, true)
		if err != nil {
			return err
		}
		if err := inBranch(actor, sr); err != nil {
			return err
		}
		if sr.Status != models.RequestProcess {
			return apperr.Conflict("Permintaan Stok belum disetujui")
		}
		if err := tx.Model(&models.StockRequestItem{}).Where("stock_request_id = ?", sr.ID).
			Update("status", models.RequestReady).Error; err != nil {
			return err
		}
		if err := setStatus(tx, sr.ID, models.RequestReady, actor.UserID); err != nil {
			return err
		}
		return logRequest(tx, actor, sr, models.AuditActionUpdate, "Permintaan stok siap",
			map[string]any{"status": sr.Status}, map[string]any{"status": models.RequestReady})
	})
	if err != nil {
		return nil, err
	}
	metrics.StockRequests.WithLabelValues(string(models.RequestReady)).Inc()
	return s.Get(ctx, id)
}

// Finish closes a staged request once the kitchen has received it. Items
// keep their Siap status.
func (s *Service) Finish(ctx context.Context, actor auth.Actor, id uint) (*models.StockRequest, error) {
	err := s.tx(ctx, func(tx *gorm.DB) error {
		sr, err := load(tx, id, true)
		if err != nil {
			return err
		}
		if err := inBranch(actor, sr); err != nil {
			return err
		}
		if sr.Status != models.RequestReady {
			return apperr.Conflict("Permintaan Stok belum siap")
		}
		if err := setStatus(tx, sr.ID, models.RequestFinished, actor.UserID); err != nil {
			return err
		}
		return logRequest(tx, actor, sr, models.AuditActionUpdate, "Permintaan stok selesai",
			map[string]any{"status": sr.Status}, map[string]any{"status": models.RequestFinished})
	})
	if err != nil {
		return nil, err
	}
	metrics.StockRequests.WithLabelValues(string(models.RequestFinished)).Inc()
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.StockRequest, error) {
	return load(s.db.WithContext(ctx), id, false)
}

func withDetails(q *gorm.DB) *gorm.DB {
	return q.Preload("Branch").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.InventoryItem")
}

// load reads a request with its items. With lock the request row and its
// item rows are held FOR UPDATE.
func load(tx *gorm.DB, id uint, lock bool) (*models.StockRequest, error) {
	var sr models.StockRequest
	var err error
	if lock {
		forUpdate := clause.Locking{Strength: "UPDATE"}
		err = tx.Clauses(forUpdate).First(&sr, id).Error
		if err == nil {
			err = tx.Clauses(forUpdate).Where("stock_request_id = ?", id).Order("id").Find(&sr.Items).Error
		}
	} else {
		err = withDetails(tx).First(&sr, id).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// inBranch keeps branch-bound staff on their own branch's requests.
func inBranch(actor auth.Actor, sr *models.StockRequest) error {
	if auth.Can(actor, auth.ActionViewAllBranches) {
		return nil
	}
	if actor.BranchID == nil || *actor.BranchID != sr.BranchID {
		return apperr.Forbidden("Tidak dapat mengakses permintaan stok cabang lain")
	}
	return nil
}

func setStatus(tx *gorm.DB, id uint, status models.StockRequestStatus, by uint) error {
	return tx.Model(&models.StockRequest{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_by": by}).Error
}

func logRequest(tx *gorm.DB, actor auth.Actor, sr *models.StockRequest, action models.AuditAction, desc string, before, after any) error {
	branchID := sr.BranchID
	return audit.WriteLog(tx, audit.LogOptions{
		BranchID:    &branchID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		EntityType:  "stock_request",
		EntityID:    sr.ID,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

func uniq(ids []uint) map[uint]struct{} {
	out := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
