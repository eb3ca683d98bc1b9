package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidStatus = errors.New("invalid invoice status")
	ErrInvalidTheme  = errors.New("invalid theme")
)

// DateLayout is the wire format of Invoice.Date.
const DateLayout = "2006-01-02"

type InvoiceStatus string

const (
	StatusPendingDelivery InvoiceStatus = "pending_delivery"
	StatusDelivered       InvoiceStatus = "delivered"
	StatusReturned        InvoiceStatus = "returned"
)

// Labels used by the legacy seed documents.
var legacyStatusLabels = map[string]InvoiceStatus{
	norm.NFC.String("قيد التوصيل"): StatusPendingDelivery,
	norm.NFC.String("مسلمة"):       StatusDelivered,
	norm.NFC.String("مرتجعة"):      StatusReturned,
}

func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{StatusPendingDelivery, StatusDelivered, StatusReturned}
}

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusPendingDelivery, StatusDelivered, StatusReturned:
		return true
	default:
		return false
	}
}

// ParseInvoiceStatus accepts the enum values and the legacy Arabic labels.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	value := norm.NFC.String(strings.TrimSpace(raw))
	if status := InvoiceStatus(value); status.IsValid() {
		return status, nil
	}
	if status, ok := legacyStatusLabels[value]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	status, err := ParseInvoiceStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

type Invoice struct {
	ID               string        `json:"id"`
	CustomerName     string        `json:"customerName"`
	PhoneNumber      string        `json:"phoneNumber"`
	Address          string        `json:"address"`
	Status           InvoiceStatus `json:"status"`
	DriverID         string        `json:"driverId,omitempty"`
	Amount           float64       `json:"amount,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	Date             string        `json:"date"`
	LastStatusUpdate time.Time     `json:"lastStatusUpdate"`
	ArchivedDate     *time.Time    `json:"archivedDate,omitempty"`
}

// CreatedOn parses Date. Unparseable dates yield the zero time.
func (inv Invoice) CreatedOn() time.Time {
	day, err := time.Parse(DateLayout, inv.Date)
	if err != nil {
		return time.Time{}
	}
	return day
}

func (inv Invoice) Clone() Invoice {
	if inv.ArchivedDate != nil {
		at := *inv.ArchivedDate
		inv.ArchivedDate = &at
	}
	return inv
}

// StatusChange is the result of a successful status update.
type StatusChange struct {
	Invoice  Invoice       `json:"invoice"`
	Previous InvoiceStatus `json:"previous"`
}

type InvoiceInput struct {
	CustomerName string        `json:"customerName"`
	PhoneNumber  string        `json:"phoneNumber"`
	Address      string        `json:"address"`
	Status       InvoiceStatus `json:"status,omitempty"`
	DriverID     string        `json:"driverId,omitempty"`
	Amount       float64       `json:"amount,omitempty"`
	Notes        string        `json:"notes,omitempty"`
}

type Driver struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PhoneNumber     string `json:"phoneNumber"`
	VehicleNumber   string `json:"vehicleNumber,omitempty"`
	Status          string `json:"status,omitempty"`
	TotalDeliveries int    `json:"totalDeliveries"`
	TotalReturns    int    `json:"totalReturns"`
}

type DriverInput struct {
	Name          string `json:"name"`
	PhoneNumber   string `json:"phoneNumber"`
	VehicleNumber string `json:"vehicleNumber,omitempty"`
	Status        string `json:"status,omitempty"`
}

type StockItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"minQuantity"`
}

type StockItemInput struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"minQuantity"`
}

// IsLow reports whether the item has fallen below its threshold.
func (s StockItem) IsLow() bool {
	return s.Quantity < s.MinQuantity
}

type Collections struct {
	Invoices         []Invoice
	Drivers          []Driver
	Stock            []StockItem
	ArchivedInvoices []Invoice
}

// Sequences holds the last issued number per entity kind.
type Sequences struct {
	Invoice int64 `json:"invoice"`
	Driver  int64 `json:"driver"`
	Stock   int64 `json:"stock"`
}

// Total is monotonic as long as every counter is.
func (s Sequences) Total() int64 {
	return s.Invoice + s.Driver + s.Stock
}

type Statistics struct {
	TotalInvoices     int `json:"totalInvoices"`
	PendingInvoices   int `json:"pendingInvoices"`
	DeliveredInvoices int `json:"deliveredInvoices"`
	ReturnedInvoices  int `json:"returnedInvoices"`
	TotalDrivers      int `json:"totalDrivers"`
	TotalStockItems   int `json:"totalStockItems"`
	ArchivedInvoices  int `json:"archivedInvoices"`
	LowStockItems     int `json:"lowStockItems"`
}

type DriverSummary struct {
	Driver            Driver `json:"driver"`
	PendingInvoices   int    `json:"pendingInvoices"`
	DeliveredInvoices int    `json:"deliveredInvoices"`
	ReturnedInvoices  int    `json:"returnedInvoices"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(raw string) (Theme, error) {
	switch theme := Theme(strings.ToLower(strings.TrimSpace(raw))); theme {
	case ThemeLight, ThemeDark:
		return theme, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, raw)
	}
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
