package order

import (
	"context"
	"errors"

	"github.com/PramesRay/pos-service/internal/apperr"
	"github.com/PramesRay/pos-service/internal/metrics"
	"github.com/PramesRay/pos-service/internal/models"
	"github.com/PramesRay/pos-service/internal/payment"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var webhookCaller = Caller{Source: SourceStaff, Name: "midtrans", AllBranches: true}

// HandleWebhook reconciles a gateway notification with the order payment.
// Notifications for settled, refunded or cancelled orders are acknowledged
// without changes.
func (s *Service) HandleWebhook(ctx context.Context, n payment.Notification) error {
	if !n.Verify(s.serverKey) {
		metrics.WebhookOutcomes.WithLabelValues("bad_signature").Inc()
		return apperr.Unauthorized("Signature Key Salah")
	}
	id, err := uuid.Parse(n.OrderID)
	if err != nil {
		return apperr.NotFound(msgOrderNotFound)
	}

	outcome := "noop"
	err = s.tx(ctx, func(tx *gorm.DB) error {
		o, err := loadOrder(tx, id, true)
		if err != nil {
			return err
		}
		if payment.Final(o.Payment.Status) || o.Status.Terminal() {
			return nil
		}
		gross, err := payment.ParseGrossAmount(n.GrossAmount)
		if err != nil {
			return apperr.BadRequest("gross_amount tidak valid")
		}
		if gross != o.Payment.Amount {
			log.Warnf("webhook %s: gross amount %d differs from payment amount %d", o.ID, gross, o.Payment.Amount)
			return apperr.Conflict("Jumlah pembayaran tidak sesuai")
		}

		switch n.Outcome() {
		case payment.OutcomeSettled:
			outcome = "settled"
			if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).
				Update("status", models.PaymentPaid).Error; err != nil {
				return err
			}
			if o.Status == models.OrderServed {
				if err := tx.Model(&models.Order{}).Where("id = ?", o.ID).
					Update("status", models.OrderFinished).Error; err != nil {
					return err
				}
			}
		case payment.OutcomeFailed:
			outcome = "failed"
			if payment.CanTransition(o.Payment.Status, models.PaymentFailed) {
				if err := tx.Model(&models.OrderPayment{}).Where("id = ?", o.Payment.ID).
					Update("status", models.PaymentFailed).Error; err != nil {
					return err
				}
				o.Payment.Status = models.PaymentFailed
			}
			byCustomer, err := createdByCustomer(tx, o.CreatedBy)
			if err != nil {
				return err
			}
			if byCustomer {
				if err := cancel(tx, o, o.CreatedBy); err != nil {
					return err
				}
			}
		default:
			return nil
		}
		return logOrder(tx, webhookCaller, o, models.AuditActionUpdate,
			"Notifikasi pembayaran "+n.TransactionStatus, nil, n)
	})
	if err != nil {
		if !apperr.IsNotFound(err) && !errors.Is(err, context.Canceled) {
			metrics.WebhookOutcomes.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.WebhookOutcomes.WithLabelValues(outcome).Inc()
	return nil
}

func createdByCustomer(tx *gorm.DB, userID uint) (bool, error) {
	var u models.User
	err := tx.Select("id", "type").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Type == models.UserTypeCustomer, nil
}
