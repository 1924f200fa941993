// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"

	"github.com/your-org/fitness-backend/internal/config"
	"github.com/your-org/fitness-backend/internal/domain/order"
)

// Service handles PDF generation
type Service struct {
	config config.InvoiceConfig
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg config.InvoiceConfig) *Service {
	return &Service{
		config: cfg,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber   string
	InvoiceDate     string
	OrderNumber     string
	OrderDate       string
	Status          string
	PaymentStatus   string
	Paid            bool
	BillingAddress  []string
	ShippingAddress []string
	Items           []InvoiceLine
	Subtotal        string
	Discount        string
	HasDiscount     bool
	Shipping        string
	Tax             string
	Total           string
	Company         CompanyInfo
}

// InvoiceLine is one product row on the invoice
type InvoiceLine struct {
	Name     string
	Category string
	Quantity int
	Price    string
	Total    string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Email   string
}

// GenerateInvoice generates a PDF invoice for an order. It needs the
// wkhtmltopdf binary on PATH.
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderHTML(o)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// RenderHTML renders the invoice markup for o
func (s *Service) RenderHTML(o *order.Order) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.invoiceData(o)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) invoiceData(o *order.Order) InvoiceData {
	data := InvoiceData{
		InvoiceNumber:   "INV-" + o.OrderNumber,
		InvoiceDate:     time.Now().Format("January 2, 2006"),
		OrderNumber:     o.OrderNumber,
		OrderDate:       o.CreatedAt.Format("January 2, 2006"),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Paid:            o.PaymentStatus == order.PaymentStatusPaid,
		BillingAddress:  lines(o.BillingAddress),
		ShippingAddress: lines(o.ShippingAddress),
		Subtotal:        s.money(o.Subtotal),
		Discount:        s.money(o.DiscountAmount),
		HasDiscount:     o.DiscountAmount.IsPositive(),
		Shipping:        s.money(o.ShippingAmount),
		Tax:             s.money(o.TaxAmount),
		Total:           s.money(o.TotalAmount),
		Company: CompanyInfo{
			Name:    s.config.CompanyName,
			Address: s.config.CompanyAddress,
			Email:   s.config.CompanyEmail,
		},
	}

	for _, item := range o.Items {
		price := item.Price
		if item.DiscountPrice.Valid {
			price = item.DiscountPrice.Decimal
		}
		data.Items = append(data.Items, InvoiceLine{
			Name:     item.ProductName,
			Category: item.ProductCategory,
			Quantity: item.Quantity,
			Price:    s.money(price),
			Total:    s.money(item.TotalPrice),
		})
	}
	return data
}

func (s *Service) money(d decimal.Decimal) string {
	return s.config.CurrencySymbol + d.StringFixed(2)
}

func lines(address string) []string {
	if address == "" {
		return nil
	}
	return strings.Split(address, "\n")
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .invoice-title { font-size: 28px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .addresses { display: flex; justify-content: space-between; margin-bottom: 30px; }
        .section-title { font-size: 16px; font-weight: bold; margin-bottom: 10px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        .items-table th, .items-table td { border: 1px solid #ddd; padding: 12px 8px; text-align: left; }
        .items-table th { background-color: #f8f9fa; }
        .num { text-align: right; width: 90px; }
        .totals { float: right; width: 300px; }
        .totals td { padding: 8px; border-bottom: 1px solid #eee; text-align: right; }
        .total-row { font-size: 18px; font-weight: bold; }
        .status-badge { padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; }
        .status-paid { background-color: #dcfce7; color: #166534; }
        .status-pending { background-color: #fef3c7; color: #92400e; }
        .footer { margin-top: 50px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            <p>Email: {{.Company.Email}}</p>
        </div>
        <div style="text-align: right;">
            <div class="invoice-title">INVOICE</div>
            <p><strong>Invoice #:</strong> {{.InvoiceNumber}}</p>
            <p><strong>Invoice Date:</strong> {{.InvoiceDate}}</p>
            <p><strong>Order #:</strong> {{.OrderNumber}}</p>
            <p><strong>Order Date:</strong> {{.OrderDate}}</p>
            <p><strong>Status:</strong> {{.Status}}
                <span class="status-badge {{if .Paid}}status-paid{{else}}status-pending{{end}}">{{.PaymentStatus}}</span></p>
        </div>
    </div>

    <div class="addresses">
        <div>
            <div class="section-title">Bill To:</div>
            {{range .BillingAddress}}<p>{{.}}</p>{{end}}
        </div>
        <div>
            <div class="section-title">Ship To:</div>
            {{range .ShippingAddress}}<p>{{.}}</p>{{end}}
        </div>
    </div>

    <table class="items-table">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr>
                <td><strong>{{.Name}}</strong>{{if .Category}}<br><small>{{.Category}}</small>{{end}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.Price}}</td>
                <td class="num">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <div class="totals">
        <table>
            <tr><td>Subtotal:</td><td>{{.Subtotal}}</td></tr>
            {{if .HasDiscount}}<tr><td>Discount:</td><td>-{{.Discount}}</td></tr>{{end}}
            <tr><td>Shipping:</td><td>{{.Shipping}}</td></tr>
            <tr><td>Tax:</td><td>{{.Tax}}</td></tr>
            <tr class="total-row"><td>Total:</td><td>{{.Total}}</td></tr>
        </table>
    </div>

    <div style="clear: both;"></div>

    <div class="footer">
        <p>Thank you for your business!</p>
        <p>If you have any questions about this invoice, please contact us at {{.Company.Email}}</p>
    </div>
</body>
</html>
`
