// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusCancelled     PaymentStatus = "CANCELLED"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
	PaymentStatusPartialRefund PaymentStatus = "PARTIAL_REFUND"
)

// PaymentMethod is how the customer pays
type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentMethodPayPal         PaymentMethod = "PAYPAL"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMethodDigitalWallet  PaymentMethod = "DIGITAL_WALLET"
)

// Order is an immutable snapshot of a checked-out cart plus its mutable lifecycle state
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	Status        OrderStatus   `gorm:"not null;size:20;default:'PENDING';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;default:'PENDING'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"not null;size:30" json:"payment_method"`

	// Financial Information
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	// Addresses, formatted at checkout
	ShippingAddress string `gorm:"type:text;not null" json:"shipping_address"`
	BillingAddress  string `gorm:"type:text" json:"billing_address"`

	CustomerNotes         string     `gorm:"type:text" json:"customer_notes"`
	TrackingNumber        string     `gorm:"size:100" json:"tracking_number"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	InventoryReleased     bool       `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
}

// OrderItem is a product line frozen at checkout time
type OrderItem struct {
	ID                 uint                `gorm:"primaryKey" json:"id"`
	OrderID            uint                `gorm:"not null;index" json:"order_id"`
	ProductID          uint                `gorm:"not null;index" json:"product_id"`
	Quantity           int                 `gorm:"not null" json:"quantity"`
	Price              decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPrice      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	TotalPrice         decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_price"`
	ProductName        string              `gorm:"not null;size:255" json:"product_name"`
	ProductDescription string              `gorm:"type:text" json:"product_description"`
	ProductCategory    string              `gorm:"size:500" json:"product_category"`
	ProductImageURL    string              `gorm:"size:500" json:"product_image_url"`
	CreatedAt          time.Time           `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderID       uint          `gorm:"not null;index" json:"order_id"`
	Status        OrderStatus   `gorm:"not null;size:20" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20" json:"payment_status"`
	Comment       string        `gorm:"type:text" json:"comment"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Address is the structured form of a shipping or billing address
type Address struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Street    string `json:"street" validate:"required,max=255"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	ZipCode   string `json:"zip_code" validate:"required,max=20"`
	Country   string `json:"country" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"max=20"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Format renders the address the way it is stored on the order
func (a Address) Format() string {
	var b strings.Builder
	if name := strings.TrimSpace(a.FirstName + " " + a.LastName); name != "" {
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString(a.Street)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s, %s %s\n", a.City, a.State, a.ZipCode)
	b.WriteString(a.Country)
	if a.Phone != "" {
		b.WriteString("\nPhone: ")
		b.WriteString(a.Phone)
	}
	return b.String()
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned, OrderStatusRefunded:
		return true
	}
	return false
}

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusCancelled, PaymentStatusRefunded, PaymentStatusPartialRefund:
		return true
	}
	return false
}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal,
		PaymentMethodBankTransfer, PaymentMethodCashOnDelivery, PaymentMethodDigitalWallet:
		return true
	}
	return false
}

// RequiresCard reports whether the method charges a card
func (m PaymentMethod) RequiresCard() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodDebitCard
}

// Business methods for Order

// CanBeCancelled checks if order can be cancelled
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending ||
		o.Status == OrderStatusConfirmed ||
		o.Status == OrderStatusProcessing
}

// HoldsInventory reports whether the order's items are still taken out of stock.
// Stock goes back at most once per order, whatever statuses it moves through later.
func (o *Order) HoldsInventory() bool {
	return !o.InventoryReleased && o.CanBeCancelled()
}

// ItemCount sums item quantities
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// AppendNote adds text to the customer notes without discarding what is there
func (o *Order) AppendNote(note string) {
	if o.CustomerNotes == "" {
		o.CustomerNotes = strings.TrimLeft(note, "\n")
		return
	}
	o.CustomerNotes += note
}

// AddStatusHistory records the current status pair with a comment and returns
// the appended entry so the caller can persist it in place
func (o *Order) AddStatusHistory(comment string) *OrderStatusHistory {
	history := OrderStatusHistory{
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Comment:       comment,
		CreatedAt:     time.Now().UTC(),
	}
	o.StatusHistory = append(o.StatusHistory, history)
	return &o.StatusHistory[len(o.StatusHistory)-1]
}
