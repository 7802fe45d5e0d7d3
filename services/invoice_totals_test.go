package services

import (
	"encoding/json"
	"testing"

	"visadesk-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(desc, qty, price string) models.InvoiceLineItem {
	item := models.InvoiceLineItem{
		Description: desc,
		ItemType:    models.ItemTypeService,
		Quantity:    d(qty),
		UnitPrice:   d(price),
	}
	RecomputeLineAmount(&item)
	return item
}

func TestRecomputeLineAmount(t *testing.T) {
	tests := []struct {
		qty, price, want string
	}{
		{"1", "500", "500"},
		{"3", "19.99", "59.97"},
		{"0", "120", "0"},
		{"2.5", "40", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.qty+"x"+tt.price, func(t *testing.T) {
			item := line("x", tt.qty, tt.price)
			assert.True(t, d(tt.want).Equal(item.Amount), "got %s", item.Amount)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	items := []models.InvoiceLineItem{
		line("Visa fee", "1", "500"),
		line("Courier", "2", "25"),
	}

	totals := ComputeTotals(items, d("10"), d("100"))

	assert.Equal(t, "550.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "55.00", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "605.00", totals.TotalAmount.StringFixed(2))
	assert.Equal(t, "100.00", totals.DepositAmount.StringFixed(2))
	assert.Equal(t, "505.00", totals.DueAmount.StringFixed(2))
	assert.True(t, totals.TotalAmount.Equal(totals.Subtotal.Add(totals.TaxAmount)))
}

func TestComputeTotals_Deposit(t *testing.T) {
	items := []models.InvoiceLineItem{line("Visa fee", "1", "500")}

	tests := []struct {
		name        string
		deposit     string
		wantDeposit string
		wantDue     string
	}{
		{"no deposit", "0", "0.00", "500.00"},
		{"partial deposit", "200", "200.00", "300.00"},
		{"negative deposit counts as zero", "-50", "0.00", "500.00"},
		{"deposit above total clamps due at zero", "800", "800.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeTotals(items, decimal.Zero, d(tt.deposit))
			assert.Equal(t, tt.wantDeposit, totals.DepositAmount.StringFixed(2))
			assert.Equal(t, tt.wantDue, totals.DueAmount.StringFixed(2))
		})
	}
}

func TestComputeTotals_EmptyItems(t *testing.T) {
	totals := ComputeTotals(nil, d("15"), decimal.Zero)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.TotalAmount.IsZero())
	assert.True(t, totals.DueAmount.IsZero())
}

func TestComputeTotals_Idempotent(t *testing.T) {
	items := []models.InvoiceLineItem{line("Visa fee", "1", "500"), line("Photos", "4", "2.75")}

	first := ComputeTotals(items, d("7.5"), d("20"))
	second := ComputeTotals(items, d("7.5"), d("20"))

	assert.Equal(t, first, second)
	assert.Equal(t, "500.00", items[0].Amount.StringFixed(2))
}

func TestValidateInvoice_DepositExceedsTotal(t *testing.T) {
	items := []models.InvoiceLineItem{line("Visa fee", "1", "500")}

	totals := ComputeTotals(items, d("10"), d("600"))
	require.Equal(t, "500.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "50.00", totals.TaxAmount.StringFixed(2))
	require.Equal(t, "550.00", totals.TotalAmount.StringFixed(2))

	fields := ValidateInvoice(items, totals)
	assert.Equal(t, "Deposit cannot exceed the total amount", fields["depositAmount"])
}

func TestValidateInvoice(t *testing.T) {
	tests := []struct {
		name      string
		items     []models.InvoiceLineItem
		wantField string
	}{
		{"no items", nil, "items"},
		{"empty description", []models.InvoiceLineItem{line("  ", "1", "10")}, "items[0].description"},
		{"zero amount", []models.InvoiceLineItem{line("Fee", "0", "10")}, "items[0].amount"},
		{"negative price", []models.InvoiceLineItem{line("Fee", "1", "-5")}, "items[0].unitPrice"},
		{"unknown type", []models.InvoiceLineItem{func() models.InvoiceLineItem {
			item := line("Fee", "1", "10")
			item.ItemType = "gift"
			return item
		}()}, "items[0].itemType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ValidateInvoice(tt.items, ComputeTotals(tt.items, decimal.Zero, decimal.Zero))
			assert.Contains(t, fields, tt.wantField)
		})
	}

	t.Run("valid invoice", func(t *testing.T) {
		items := []models.InvoiceLineItem{line("Visa fee", "1", "500")}
		fields := ValidateInvoice(items, ComputeTotals(items, d("10"), d("550")))
		assert.Empty(t, fields)
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.50", "12.5"},
		{" 7 ", "7"},
		{"", "0"},
		{"abc", "0"},
		{"1,000", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in).String())
		})
	}
}

func TestFlexDecimal_UnmarshalJSON(t *testing.T) {
	var input struct {
		Number  FlexDecimal `json:"number"`
		String  FlexDecimal `json:"string"`
		Garbage FlexDecimal `json:"garbage"`
		Null    FlexDecimal `json:"null"`
	}

	err := json.Unmarshal([]byte(`{"number": 19.5, "string": "42", "garbage": "n/a", "null": null}`), &input)
	require.NoError(t, err)

	assert.Equal(t, "19.5", input.Number.String())
	assert.Equal(t, "42", input.String.String())
	assert.True(t, input.Garbage.IsZero())
	assert.True(t, input.Null.IsZero())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "USD 550.00", FormatMoney("USD", d("550")))
	assert.Equal(t, "EUR 0.10", FormatMoney("EUR", d("0.1")))

	display := DisplayTotals("USD", ComputeTotals([]models.InvoiceLineItem{line("Fee", "1", "500")}, d("10"), d("600")))
	assert.Equal(t, "USD 550.00", display["totalAmount"])
	assert.Equal(t, "USD 0.00", display["dueAmount"])
}

func TestApplyPayments(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		deposit    string
		paid       string
		wantDue    string
		wantStatus string
	}{
		{"nothing paid keeps status", models.InvoiceStatusSent, "0", "0", "550.00", models.InvoiceStatusSent},
		{"deposit only", models.InvoiceStatusDraft, "50", "0", "500.00", models.InvoiceStatusDraft},
		{"partial payment", models.InvoiceStatusSent, "50", "200", "300.00", models.InvoiceStatusPartiallyPaid},
		{"settled", models.InvoiceStatusPartiallyPaid, "50", "500", "0.00", models.InvoiceStatusPaid},
		{"overpaid clamps to zero", models.InvoiceStatusSent, "100", "500", "0.00", models.InvoiceStatusPaid},
		{"stale paid status reopens", models.InvoiceStatusPaid, "0", "300", "250.00", models.InvoiceStatusPartiallyPaid},
		{"cancelled stays cancelled", models.InvoiceStatusCancelled, "0", "300", "250.00", models.InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := models.Invoice{Status: tt.status}
			ApplyTotals(&inv, ComputeTotals([]models.InvoiceLineItem{line("Visa filing", "1", "500")}, d("10"), d(tt.deposit)))
			inv.PaidAmount = d(tt.paid)

			ApplyPayments(&inv)
			assert.Equal(t, tt.wantDue, inv.DueAmount.StringFixed(2))
			assert.Equal(t, tt.wantStatus, inv.Status)
		})
	}
}

func TestValidateAgainstPayments(t *testing.T) {
	totals := ComputeTotals([]models.InvoiceLineItem{line("Visa filing", "1", "500")}, d("10"), d("200"))

	assert.Empty(t, ValidateAgainstPayments(totals, decimal.Zero))
	assert.Empty(t, ValidateAgainstPayments(totals, d("350")))

	fields := ValidateAgainstPayments(totals, d("350.01"))
	require.Contains(t, fields, "totalAmount")
	assert.Contains(t, fields["totalAmount"], "350.01")
}
