// Package notify sends operational e-mail to warehouse staff.
package notify

import (
	"fmt"
	"strings"

	"github.com/PramesRay/pos-service/internal/config"
	"github.com/PramesRay/pos-service/internal/models"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	StockRequestCreated(req models.StockRequest, branchName string)
	StockRequestApproved(req models.StockRequest)
}

// New returns an SMTP mailer, or a no-op one when mail is not configured.
func New(cfg *config.Config) Mailer {
	if !cfg.MailEnabled() {
		return Nop{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPUser,
		to:     cfg.WarehouseNotifyEmails,
	}
}

type Nop struct{}

func (Nop) StockRequestCreated(models.StockRequest, string) {}
func (Nop) StockRequestApproved(models.StockRequest)        {}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

func (m *SMTPMailer) StockRequestCreated(req models.StockRequest, branchName string) {
	subject := fmt.Sprintf("Permintaan stok #%d dari %s", req.ID, branchName)
	m.sendAsync(subject, renderRequest("Permintaan stok baru", req))
}

func (m *SMTPMailer) StockRequestApproved(req models.StockRequest) {
	subject := fmt.Sprintf("Permintaan stok #%d: %s", req.ID, req.Status)
	m.sendAsync(subject, renderRequest("Permintaan stok diperbarui", req))
}

// sendAsync keeps SMTP latency out of the request path.
func (m *SMTPMailer) sendAsync(subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	go func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			log.Errorf("notify: send %q: %v", subject, err)
		}
	}()
}

func renderRequest(title string, req models.StockRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><h3>%s</h3>", title)
	fmt.Fprintf(&b, "<p>ID: <strong>%d</strong>, status: <strong>%s</strong></p>", req.ID, req.Status)
	if req.Note != "" {
		fmt.Fprintf(&b, "<p>Catatan: %s</p>", req.Note)
	}
	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>Barang</th><th>Jumlah</th><th>Status</th></tr>")
	for _, it := range req.Items {
		name := fmt.Sprintf("#%d", it.InventoryItemID)
		if it.InventoryItem != nil {
			name = it.InventoryItem.Name
		}
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>", name, it.Quantity, it.Status)
	}
	b.WriteString("</table><p>Email ini dikirim otomatis.</p></body></html>")
	return b.String()
}
