package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"visadesk-backend/models"
	"visadesk-backend/services"
	"visadesk-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flex(s string) services.FlexDecimal {
	return services.FlexDecimal{Decimal: decimal.RequireFromString(s)}
}

func TestBuildLineItems(t *testing.T) {
	catalogID := uuid.New()
	missingID := uuid.New()
	catalog := map[uuid.UUID]models.PriceItem{
		catalogID: {
			ID:        catalogID,
			Name:      "Schengen visa filing",
			ItemType:  models.ItemTypeProcessing,
			UnitPrice: decimal.RequireFromString("120.50"),
		},
	}
	override := flex("99")
	manual := flex("40")

	items := BuildLineItems([]InvoiceItemInput{
		{PriceItemID: &catalogID, Quantity: flex("2")},
		{PriceItemID: &catalogID, Description: "Rush filing", ItemType: models.ItemTypeFee, Quantity: flex("1"), UnitPrice: &override},
		{Description: "  Translation  ", Quantity: flex("3"), UnitPrice: &manual},
		{PriceItemID: &missingID, Description: "Courier", Quantity: flex("1")},
	}, catalog)

	require.Len(t, items, 4)

	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, "Schengen visa filing", items[0].Description)
	assert.Equal(t, models.ItemTypeProcessing, items[0].ItemType)
	assert.Equal(t, "241.00", items[0].Amount.StringFixed(2))

	assert.Equal(t, "Rush filing", items[1].Description)
	assert.Equal(t, models.ItemTypeFee, items[1].ItemType)
	assert.Equal(t, "99.00", items[1].Amount.StringFixed(2))

	assert.Equal(t, "Translation", items[2].Description)
	assert.Equal(t, models.ItemTypeService, items[2].ItemType)
	assert.Equal(t, "120.00", items[2].Amount.StringFixed(2))

	assert.Equal(t, 3, items[3].Position)
	assert.Equal(t, "Courier", items[3].Description)
	assert.True(t, items[3].Amount.IsZero())
}

func TestBuildLineItems_Empty(t *testing.T) {
	items := BuildLineItems(nil, nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func invoiceRouter(agencyID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(utils.ContextAgencyID, agencyID.String())
		c.Set(utils.ContextUserID, uuid.NewString())
		c.Next()
	})
	r.POST("/api/invoices", CreateInvoice)
	r.GET("/api/invoices/:id", GetInvoice)
	r.PUT("/api/invoices/:id", UpdateInvoice)
	r.POST("/api/invoices/:id/payments", RecordPayment)
	return r
}

func sendJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeInvoice(t *testing.T, w *httptest.ResponseRecorder) models.Invoice {
	t.Helper()
	var inv models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv), w.Body.String())
	return inv
}

func validationFields(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.Equal(t, "Validation failed", body.Error)
	return body.Fields
}

func createTestInvoice(t *testing.T, r *gin.Engine, clientID uuid.UUID) models.Invoice {
	t.Helper()
	w := sendJSON(t, r, http.MethodPost, "/api/invoices", `{
		"clientId": "`+clientID.String()+`",
		"taxRate": 10,
		"items": [{"description": "Visa filing", "quantity": 1, "unitPrice": "500"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeInvoice(t, w)
}

func TestCreateInvoice_DepositAboveTotal(t *testing.T) {
	db := useTestDB(t)
	agency, client := seedAgencyClient(t, db)
	r := invoiceRouter(agency.ID)

	w := sendJSON(t, r, http.MethodPost, "/api/invoices", `{
		"clientId": "`+client.ID.String()+`",
		"taxRate": 10,
		"depositAmount": 600,
		"items": [{"description": "Visa filing", "quantity": 1, "unitPrice": 500}]
	}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, validationFields(t, w), "depositAmount")

	var count int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateInvoice_DepositAboveTotal(t *testing.T) {
	db := useTestDB(t)
	agency, client := seedAgencyClient(t, db)
	r := invoiceRouter(agency.ID)
	inv := createTestInvoice(t, r, client.ID)

	w := sendJSON(t, r, http.MethodPut, "/api/invoices/"+inv.ID.String(), `{"depositAmount": 600}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, validationFields(t, w), "depositAmount")

	var stored models.Invoice
	require.NoError(t, db.First(&stored, "id = ?", inv.ID).Error)
	assert.True(t, stored.DepositAmount.IsZero())
	assert.Equal(t, "550.00", stored.DueAmount.StringFixed(2))
}

func TestInvoicePayments_SurviveEdits(t *testing.T) {
	db := useTestDB(t)
	agency, client := seedAgencyClient(t, db)
	r := invoiceRouter(agency.ID)

	inv := createTestInvoice(t, r, client.ID)
	assert.Equal(t, "550.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "550.00", inv.DueAmount.StringFixed(2))
	path := "/api/invoices/" + inv.ID.String()

	w := sendJSON(t, r, http.MethodPost, path+"/payments", `{"amount": 300}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv = decodeInvoice(t, w)
	assert.Equal(t, "300.00", inv.PaidAmount.StringFixed(2))
	assert.Equal(t, "250.00", inv.DueAmount.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)

	w = sendJSON(t, r, http.MethodPut, path, `{"notes": "just a note"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv = decodeInvoice(t, w)
	assert.Equal(t, "just a note", inv.Notes)
	assert.Equal(t, "300.00", inv.PaidAmount.StringFixed(2))
	assert.Equal(t, "250.00", inv.DueAmount.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)

	rejected := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{"deposit above total", `{"depositAmount": 600}`, []string{"depositAmount", "totalAmount"}},
		{"deposit plus paid above total", `{"depositAmount": 300}`, []string{"totalAmount"}},
		{"lines below paid", `{"items": [{"description": "Visa filing", "quantity": 1, "unitPrice": 100}]}`, []string{"totalAmount"}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			w := sendJSON(t, r, http.MethodPut, path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			fields := validationFields(t, w)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}

	w = sendJSON(t, r, http.MethodPut, path, `{"depositAmount": 200}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv = decodeInvoice(t, w)
	assert.Equal(t, "50.00", inv.DueAmount.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)

	w = sendJSON(t, r, http.MethodPost, path+"/payments", `{"amount": 60}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, validationFields(t, w), "amount")

	w = sendJSON(t, r, http.MethodPost, path+"/payments", `{"amount": "50"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv = decodeInvoice(t, w)
	assert.True(t, inv.DueAmount.IsZero())
	assert.Equal(t, models.InvoiceStatusPaid, inv.Status)

	// more work added after settlement reopens the balance
	w = sendJSON(t, r, http.MethodPut, path, `{"items": [{"description": "Visa filing", "quantity": 2, "unitPrice": 500}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	inv = decodeInvoice(t, w)
	assert.Equal(t, "1100.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, "350.00", inv.PaidAmount.StringFixed(2))
	assert.Equal(t, "550.00", inv.DueAmount.StringFixed(2))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, inv.Status)

	w = sendJSON(t, r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Invoice models.Invoice    `json:"invoice"`
		Display map[string]string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "550.00", got.Invoice.DueAmount.StringFixed(2))
	assert.Len(t, got.Invoice.Items, 1)
	assert.Equal(t, "USD 350.00", got.Display["paidAmount"])
	assert.Equal(t, "USD 550.00", got.Display["dueAmount"])
}

func TestRecordPayment_CancelledInvoice(t *testing.T) {
	db := useTestDB(t)
	agency, client := seedAgencyClient(t, db)
	r := invoiceRouter(agency.ID)
	inv := createTestInvoice(t, r, client.ID)

	w := sendJSON(t, r, http.MethodPut, "/api/invoices/"+inv.ID.String(), `{"status": "cancelled"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = sendJSON(t, r, http.MethodPost, "/api/invoices/"+inv.ID.String()+"/payments", `{"amount": 100}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
