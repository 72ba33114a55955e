// internal/pkg/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"
	"github.com/your-org/plantstore-backend/internal/config"
	"github.com/your-org/plantstore-backend/internal/domain/order"
)

// Service sends transactional emails for order lifecycle events. It
// implements order.Notifier; every send is best-effort and runs in its
// own goroutine so the order flow never waits on SMTP.
type Service struct {
	config *config.Config
	log    *logrus.Logger
}

// NewService creates a new email service
func NewService(cfg *config.Config, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{config: cfg, log: log}
}

type orderMailData struct {
	OrderNumber  string
	CustomerName string
	Items        []order.OrderItem
	Subtotal     int64
	ShippingCost int64
	Total        int64
	StoreName    string
}

// OrderCreated sends the order placed email
func (s *Service) OrderCreated(o *order.Order) {
	go s.sendOrderMail(o, "Order received: "+o.OrderNumber, orderCreatedTemplate)
}

// OrderPaid sends the payment confirmation email
func (s *Service) OrderPaid(o *order.Order) {
	go s.sendOrderMail(o, "Payment confirmed for "+o.OrderNumber, orderPaidTemplate)
}

// PaymentFailed sends the payment failure email
func (s *Service) PaymentFailed(o *order.Order) {
	go s.sendOrderMail(o, "Payment failed for "+o.OrderNumber, paymentFailedTemplate)
}

func (s *Service) sendOrderMail(o *order.Order, subject string, tmpl *template.Template) {
	data := orderMailData{
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerInfo.Name,
		Items:        o.Items,
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		StoreName:    s.config.Payment.MerchantName,
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		s.log.WithError(err).WithField("order_number", o.OrderNumber).Error("Failed to render email")
		return
	}

	if err := s.send(o.CustomerInfo.Email, subject, body.String()); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"to":           o.CustomerInfo.Email,
		}).Error("Failed to send email")
		return
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"to":           o.CustomerInfo.Email,
		"subject":      subject,
	}).Info("Email sent")
}

func (s *Service) send(to, subject, htmlBody string) error {
	if s.config.Email.Provider != "smtp" || s.config.Email.SMTPHost == "" {
		// Log provider: development setups with no SMTP relay
		s.log.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email (log provider)")
		return nil
	}

	from := fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	var auth smtp.Auth
	if s.config.Email.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.config.Email.SMTPUser, s.config.Email.SMTPPass, s.config.Email.SMTPHost)
	}
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, []byte(msg))
}

var orderCreatedTemplate = template.Must(template.New("order_created").Parse(`
<h2>Thanks for your order, {{.CustomerName}}!</h2>
<p>We have received order <strong>{{.OrderNumber}}</strong> and are waiting for your payment.</p>
<table>
{{range .Items}}<tr><td>{{.Name}} x {{.Quantity}}</td><td>&#8377;{{.LineTotal}}</td></tr>
{{end}}<tr><td>Shipping</td><td>&#8377;{{.ShippingCost}}</td></tr>
<tr><td><strong>Total</strong></td><td><strong>&#8377;{{.Total}}</strong></td></tr>
</table>
<p>{{.StoreName}}</p>
`))

var orderPaidTemplate = template.Must(template.New("order_paid").Parse(`
<h2>Payment confirmed</h2>
<p>Hi {{.CustomerName}}, your payment of <strong>&#8377;{{.Total}}</strong> for order <strong>{{.OrderNumber}}</strong> is confirmed. We are getting your plants ready.</p>
<p>{{.StoreName}}</p>
`))

var paymentFailedTemplate = template.Must(template.New("payment_failed").Parse(`
<h2>Payment failed</h2>
<p>Hi {{.CustomerName}}, the payment for order <strong>{{.OrderNumber}}</strong> did not go through. You can retry the payment from your order page.</p>
<p>{{.StoreName}}</p>
`))
