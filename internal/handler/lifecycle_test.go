package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/domain"
	"github.com/segyhp/civic-billing/internal/gateway"
	"github.com/segyhp/civic-billing/internal/handler"
	"github.com/segyhp/civic-billing/internal/rate"
	"github.com/segyhp/civic-billing/internal/repository/memory"
	"github.com/segyhp/civic-billing/internal/service"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewStore()
	store.AddCitizen(&domain.Citizen{ID: "CIT0001", Name: "Asha", Mobile: "9876543210"})
	store.AddCitizen(&domain.Citizen{ID: "CIT0002", Name: "Rahul", Mobile: "9876543211"})

	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	billingService := service.NewBillingService(
		store, store.Bills(), store.Payments(), store,
		gateway.NewMockGateway(store),
		rate.NewEngine(domain.RateTable{
			domain.ServiceElectricity:  domain.MeteredRate{FixedCharges: decimal.NewFromInt(50), UnitRate: decimal.NewFromInt(5)},
			domain.ServiceAirPollution: domain.FlatRate{BaseRate: decimal.NewFromInt(200)},
		}),
		zap.NewNop(),
		service.WithClock(func() time.Time { return now }),
	)

	router := mux.NewRouter()
	handler.NewBillingHandler(billingService, zap.NewNop()).RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func call(t *testing.T, server *httptest.Server, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestBillLifecycle(t *testing.T) {
	server := setupTestServer(t)

	// Create an electricity bill: 50 + 5 * 12.5 = 112.50
	status, resp := call(t, server, http.MethodPost, "/api/v1/bills", map[string]any{
		"citizen_id":     "CIT0001",
		"service_type":   "electricity",
		"units_consumed": "12.5",
		"due_date":       "2026-03-31",
		"billing_period": "2026-03",
	})
	require.Equal(t, http.StatusCreated, status)

	var bill domain.Bill
	require.NoError(t, json.Unmarshal(resp.Data, &bill))
	assert.Equal(t, "BILL0000001", bill.BillNumber)
	assert.Equal(t, "112.5", bill.Amount.String())

	// Pay it
	status, resp = call(t, server, http.MethodPost, "/api/v1/bills/"+bill.ID.String()+"/payment", map[string]any{
		"payment_method": "upi_phonepe",
	})
	require.Equal(t, http.StatusOK, status)

	var receipt domain.Receipt
	require.NoError(t, json.Unmarshal(resp.Data, &receipt))
	assert.Equal(t, "TXN000000001", receipt.TransactionID)
	assert.Equal(t, "RCP000001", receipt.ReceiptNumber)

	// Paying again conflicts
	status, resp = call(t, server, http.MethodPost, "/api/v1/bills/"+bill.ID.String()+"/payment", map[string]any{
		"payment_method": "card",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_PAID", resp.Code)

	// Receipt and history
	status, resp = call(t, server, http.MethodGet, "/api/v1/payments/"+receipt.PaymentID.String()+"/receipt", nil)
	require.Equal(t, http.StatusOK, status)
	var again domain.Receipt
	require.NoError(t, json.Unmarshal(resp.Data, &again))
	assert.Equal(t, bill.BillNumber, again.BillNumber)

	status, resp = call(t, server, http.MethodGet, "/api/v1/citizens/CIT0001/payments", nil)
	require.Equal(t, http.StatusOK, status)
	var history []domain.PaymentHistoryEntry
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "2026-03", history[0].BillingPeriod)
}

func TestSectionBillingAndOverdue(t *testing.T) {
	server := setupTestServer(t)

	status, resp := call(t, server, http.MethodPost, "/api/v1/bills/section", map[string]any{
		"service_type":   "air_pollution",
		"billing_period": "2026-Q1",
		"due_date":       "2026-03-01",
		"target":         "all_citizens",
	})
	require.Equal(t, http.StatusCreated, status)

	var result domain.BatchResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 2, result.TotalBills)
	assert.Empty(t, result.Failures)

	status, resp = call(t, server, http.MethodGet, "/api/v1/bills?status=overdue", nil)
	require.Equal(t, http.StatusOK, status)
	var overdue []domain.Bill
	require.NoError(t, json.Unmarshal(resp.Data, &overdue))
	assert.Len(t, overdue, 2)
	for _, b := range overdue {
		assert.Equal(t, domain.BillStatusOverdue, b.Status)
		assert.Equal(t, "200", b.Amount.String())
	}

	status, resp = call(t, server, http.MethodGet, "/api/v1/bills/summary", nil)
	require.Equal(t, http.StatusOK, status)
	var summary domain.BillSummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, 2, summary.TotalBills)
	assert.Equal(t, 2, summary.Overdue)
	assert.Equal(t, 0, summary.Pending)

	status, resp = call(t, server, http.MethodPost, "/api/v1/bills", map[string]any{
		"citizen_id":   "CIT0001",
		"service_type": "gas",
		"due_date":     "2026-03-31",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "RATE_NOT_CONFIGURED", resp.Code)
}
