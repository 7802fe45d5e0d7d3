package services

import (
	"fmt"
	"strings"

	"visadesk-backend/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvoiceTotals are derived from the line items, tax rate and deposit; never stored on their own
type InvoiceTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
}

// ParseAmount coerces form input to a decimal; anything unparsable is zero
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FlexDecimal accepts a JSON number, a numeric string, or anything else as zero
type FlexDecimal struct {
	decimal.Decimal
}

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		f.Decimal = decimal.Zero
		return nil
	}
	f.Decimal = ParseAmount(strings.Trim(raw, `"`))
	return nil
}

// RecomputeLineAmount sets amount = quantity * unitPrice
func RecomputeLineAmount(item *models.InvoiceLineItem) {
	item.Amount = item.Quantity.Mul(item.UnitPrice)
}

// ComputeTotals derives subtotal, tax, total, deposit and due from already-computed line amounts.
// A negative deposit counts as zero and the due amount never goes below zero.
func ComputeTotals(items []models.InvoiceLineItem, taxRatePercent, deposit decimal.Decimal) InvoiceTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}

	taxAmount := subtotal.Mul(taxRatePercent).Div(hundred)
	total := subtotal.Add(taxAmount)
	deposit = decimal.Max(decimal.Zero, deposit)
	due := decimal.Max(decimal.Zero, total.Sub(deposit))

	return InvoiceTotals{
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		TotalAmount:   total,
		DepositAmount: deposit,
		DueAmount:     due,
	}
}

// ApplyTotals copies computed totals onto the invoice
func ApplyTotals(inv *models.Invoice, t InvoiceTotals) {
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.TotalAmount = t.TotalAmount
	inv.DepositAmount = t.DepositAmount
	inv.DueAmount = t.DueAmount
}

// ApplyPayments sets the due amount from the stored totals less what has been paid.
// Once anything is paid the status follows the balance, except for cancelled invoices.
func ApplyPayments(inv *models.Invoice) {
	inv.DueAmount = decimal.Max(decimal.Zero, inv.TotalAmount.Sub(inv.DepositAmount).Sub(inv.PaidAmount))
	if !inv.PaidAmount.IsPositive() || inv.Status == models.InvoiceStatusCancelled {
		return
	}
	if inv.DueAmount.IsZero() {
		inv.Status = models.InvoiceStatusPaid
	} else {
		inv.Status = models.InvoiceStatusPartiallyPaid
	}
}

// ValidateAgainstPayments flags totals that would fall below the deposit plus payments already received
func ValidateAgainstPayments(totals InvoiceTotals, paid decimal.Decimal) map[string]string {
	fields := make(map[string]string)
	if paid.IsPositive() && totals.DepositAmount.Add(paid).GreaterThan(totals.TotalAmount) {
		fields["totalAmount"] = fmt.Sprintf("Total cannot be less than the deposit plus %s already paid", paid.StringFixed(2))
	}
	return fields
}

// ValidateInvoice returns field -> message for everything that blocks saving an invoice.
// An empty map means the invoice can be committed.
func ValidateInvoice(items []models.InvoiceLineItem, totals InvoiceTotals) map[string]string {
	fields := make(map[string]string)

	if len(items) == 0 {
		fields["items"] = "At least one line item is required"
	}

	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Description) == "" {
			fields[prefix+".description"] = "Description is required"
		}
		if item.Quantity.IsNegative() {
			fields[prefix+".quantity"] = "Quantity cannot be negative"
		}
		if item.UnitPrice.IsNegative() {
			fields[prefix+".unitPrice"] = "Unit price cannot be negative"
		}
		if !item.Amount.IsPositive() {
			fields[prefix+".amount"] = "Amount must be greater than 0"
		}
		if !models.IsValidItemType(item.ItemType) {
			fields[prefix+".itemType"] = "Unknown item type"
		}
	}

	if totals.DepositAmount.GreaterThan(totals.TotalAmount) {
		fields["depositAmount"] = "Deposit cannot exceed the total amount"
	}

	return fields
}

// FormatMoney renders an amount the way invoices display it, e.g. "USD 550.00"
func FormatMoney(currency string, amount decimal.Decimal) string {
	return currency + " " + amount.StringFixed(2)
}

// DisplayTotals formats every total for rendering
func DisplayTotals(currency string, t InvoiceTotals) map[string]string {
	return map[string]string{
		"subtotal":      FormatMoney(currency, t.Subtotal),
		"taxAmount":     FormatMoney(currency, t.TaxAmount),
		"totalAmount":   FormatMoney(currency, t.TotalAmount),
		"depositAmount": FormatMoney(currency, t.DepositAmount),
		"dueAmount":     FormatMoney(currency, t.DueAmount),
	}
}
