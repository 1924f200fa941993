// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	TextContent string    `json:"text_content,omitempty"`
	Type        EmailType `json:"type"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	SiteName     string
	SupportEmail string
	UserName     string
	UserEmail    string
	Year         int
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderNumber       string
	OrderDate         string
	Status            string
	PaymentMethod     string
	PaymentStatus     string
	Items             []OrderItem
	Subtotal          string
	Shipping          string
	Tax               string
	Discount          string
	Total             string
	ShippingAddress   string
	EstimatedDelivery string
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(siteName, supportEmail, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		SiteName:     siteName,
		SupportEmail: supportEmail,
		UserName:     userName,
		UserEmail:    userEmail,
		Year:         time.Now().Year(),
	}
}
