// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/user"
)

// sender delivers a rendered email
type sender interface {
	send(ctx context.Context, email *Email) error
}

// EmailService renders and sends customer emails
type EmailService struct {
	config   config.EmailConfig
	siteName string
	sender   sender
	html     *htmltemplate.Template
	text     *texttemplate.Template
	log      logrus.FieldLogger
}

// NewEmailService creates a new email service for the configured provider
func NewEmailService(cfg config.EmailConfig, siteName string, log logrus.FieldLogger) (*EmailService, error) {
	log = log.WithField("component", "email")

	s := &EmailService{
		config:   cfg,
		siteName: siteName,
		html:     htmltemplate.Must(htmltemplate.New("order_confirmation").Parse(orderConfirmationHTML)),
		text:     texttemplate.Must(texttemplate.New("order_confirmation").Parse(orderConfirmationText)),
		log:      log,
	}

	switch cfg.Provider {
	case "smtp":
		s.sender = &smtpSender{config: cfg}
	case "log", "":
		s.sender = &logSender{log: log}
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}

	return s, nil
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sender.send(ctx, email)
}

// SendOrderConfirmation implements order.Notifier
func (s *EmailService) SendOrderConfirmation(ctx context.Context, o *order.Order, u *user.User) error {
	data := s.confirmationData(o, u)

	var html, text bytes.Buffer
	if err := s.html.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}
	if err := s.text.Execute(&text, data); err != nil {
		return fmt.Errorf("failed to render order confirmation text: %w", err)
	}

	email := &Email{
		To:          []string{u.Email},
		Subject:     fmt.Sprintf("Order Confirmation - %s", o.OrderNumber),
		HTMLContent: html.String(),
		TextContent: text.String(),
		Type:        EmailTypeOrderConfirmation,
	}

	if err := s.SendEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to send order confirmation for %s: %w", o.OrderNumber, err)
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"to":           u.Email,
	}).Info("Order confirmation sent")
	return nil
}

func (s *EmailService) confirmationData(o *order.Order, u *user.User) OrderConfirmationData {
	data := OrderConfirmationData{
		EmailTemplateData: GetBaseTemplateData(s.siteName, s.config.SupportEmail, u.GetDisplayName(), u.Email),
		OrderNumber:       o.OrderNumber,
		OrderDate:         o.CreatedAt.Format("January 2, 2006"),
		Status:            string(o.Status),
		PaymentMethod:     humanize(string(o.PaymentMethod)),
		PaymentStatus:     string(o.PaymentStatus),
		Subtotal:          money(o.Subtotal),
		Shipping:          money(o.ShippingAmount),
		Tax:               money(o.TaxAmount),
		Discount:          money(o.DiscountAmount),
		Total:             money(o.TotalAmount),
		ShippingAddress:   o.ShippingAddress,
	}
	if o.EstimatedDeliveryDate != nil {
		data.EstimatedDelivery = o.EstimatedDeliveryDate.Format("January 2, 2006")
	}

	for _, item := range o.Items {
		price := item.Price
		if item.DiscountPrice.Valid {
			price = item.DiscountPrice.Decimal
		}
		data.Items = append(data.Items, OrderItem{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    money(price),
			Total:    money(item.TotalPrice),
		})
	}
	return data
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// humanize turns CASH_ON_DELIVERY into Cash On Delivery
func humanize(s string) string {
	words := strings.Split(strings.ToLower(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// logSender writes emails to the log instead of delivering them
type logSender struct {
	log logrus.FieldLogger
}

func (l *logSender) send(_ context.Context, email *Email) error {
	l.log.WithFields(logrus.Fields{
		"to":      strings.Join(email.To, ", "),
		"subject": email.Subject,
		"type":    email.Type,
	}).Info("Email delivery skipped, log provider configured")
	return nil
}

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}} - Order {{.OrderNumber}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">Thanks for your order, {{.UserName}}!</h1>
        <p>Order <strong>{{.OrderNumber}}</strong> was placed on {{.OrderDate}}.</p>
        <table style="width: 100%; border-collapse: collapse;">
            <tr style="background-color: #f8f9fa;">
                <th style="text-align: left; padding: 8px;">Item</th>
                <th style="text-align: right; padding: 8px;">Qty</th>
                <th style="text-align: right; padding: 8px;">Price</th>
                <th style="text-align: right; padding: 8px;">Total</th>
            </tr>
            {{range .Items}}
            <tr>
                <td style="padding: 8px;">{{.Name}}</td>
                <td style="text-align: right; padding: 8px;">{{.Quantity}}</td>
                <td style="text-align: right; padding: 8px;">{{.Price}}</td>
                <td style="text-align: right; padding: 8px;">{{.Total}}</td>
            </tr>
            {{end}}
        </table>
        <p>Subtotal: {{.Subtotal}}<br>
        Shipping: {{.Shipping}}<br>
        Tax: {{.Tax}}<br>
        {{if ne .Discount "0.00"}}Discount: -{{.Discount}}<br>{{end}}
        <strong>Total: {{.Total}}</strong></p>
        <p>Payment: {{.PaymentMethod}} ({{.PaymentStatus}})</p>
        <p style="white-space: pre-line;">Shipping to:
{{.ShippingAddress}}</p>
        {{if .EstimatedDelivery}}<p>Estimated delivery: {{.EstimatedDelivery}}</p>{{end}}
        <p>Questions? Contact us at {{.SupportEmail}}.</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`

const orderConfirmationText = `Thanks for your order, {{.UserName}}!

Order {{.OrderNumber}} was placed on {{.OrderDate}}.
{{range .Items}}
- {{.Name}} x{{.Quantity}} @ {{.Price}} = {{.Total}}{{end}}

Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Tax: {{.Tax}}
Total: {{.Total}}

Payment: {{.PaymentMethod}} ({{.PaymentStatus}})
{{if .EstimatedDelivery}}Estimated delivery: {{.EstimatedDelivery}}
{{end}}
Questions? Contact us at {{.SupportEmail}}.
`
