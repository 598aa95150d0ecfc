package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/civic-billing/internal/domain"
	customError "github.com/segyhp/civic-billing/pkg/errors"
	"github.com/segyhp/civic-billing/pkg/response"
)

// BillingService is what the HTTP layer needs from the bill lifecycle.
type BillingService interface {
	CreateBill(ctx context.Context, request *domain.CreateBillRequest) (*domain.Bill, error)
	GenerateSectionBills(ctx context.Context, request *domain.SectionGenerationRequest) (*domain.BatchResult, error)
	PayBill(ctx context.Context, billID string, method domain.PaymentMethod) (*domain.Receipt, error)
	GetBill(ctx context.Context, billID string) (*domain.Bill, error)
	ListBills(ctx context.Context, filter domain.BillFilter) ([]*domain.Bill, error)
	ListPayments(ctx context.Context, citizenID string) ([]*domain.PaymentHistoryEntry, error)
	GetReceipt(ctx context.Context, paymentID string) (*domain.Receipt, error)
	Summary(ctx context.Context) (*domain.BillSummary, error)
	Rates() domain.RateTable
}

type BillingHandler struct {
	service   BillingService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewBillingHandler(service BillingService, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BillingHandler{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the billing API on r. Static paths come before
// {billId} so mux does not treat them as ids.
func (h *BillingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/bills", h.CreateBill).Methods(http.MethodPost)
	r.HandleFunc("/bills", h.ListBills).Methods(http.MethodGet)
	r.HandleFunc("/bills/section", h.GenerateSectionBills).Methods(http.MethodPost)
	r.HandleFunc("/bills/summary", h.Summary).Methods(http.MethodGet)
	r.HandleFunc("/bills/{billId}", h.GetBill).Methods(http.MethodGet)
	r.HandleFunc("/bills/{billId}/payment", h.PayBill).Methods(http.MethodPost)
	r.HandleFunc("/citizens/{citizenId}/payments", h.ListPayments).Methods(http.MethodGet)
	r.HandleFunc("/payments/{paymentId}/receipt", h.GetReceipt).Methods(http.MethodGet)
	r.HandleFunc("/rates", h.ListRates).Methods(http.MethodGet)
}

// CreateBill handles POST /bills
func (h *BillingHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBillRequest
	if !h.decode(w, r, &req) {
		return
	}

	bill, err := h.service.CreateBill(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, bill)
}

// GenerateSectionBills handles POST /bills/section
func (h *BillingHandler) GenerateSectionBills(w http.ResponseWriter, r *http.Request) {
	var req domain.SectionGenerationRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.GenerateSectionBills(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, result)
}

// ListBills handles GET /bills?citizen_id=&status=&service_type=
func (h *BillingHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.BillFilter{
		CitizenID:   query.Get("citizen_id"),
		ServiceType: domain.ServiceType(query.Get("service_type")),
		Status:      domain.BillStatus(query.Get("status")),
	}

	bills, err := h.service.ListBills(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, bills)
}

func (h *BillingHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, summary)
}

func (h *BillingHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.GetBill(r.Context(), mux.Vars(r)["billId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, bill)
}

// PayBill handles POST /bills/{billId}/payment
func (h *BillingHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	var req domain.PayBillRequest
	if !h.decode(w, r, &req) {
		return
	}

	receipt, err := h.service.PayBill(r.Context(), mux.Vars(r)["billId"], domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, receipt)
}

func (h *BillingHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), mux.Vars(r)["citizenId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *BillingHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.GetReceipt(r.Context(), mux.Vars(r)["paymentId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, receipt)
}

func (h *BillingHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Rates())
}

// decode reads a JSON body into dst and validates it. On failure it writes
// a 400 and returns false.
func (h *BillingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, customError.ErrCodeValidation, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		response.ErrorWithCode(w, http.StatusBadRequest, customError.ErrCodeValidation, "Validation failed", err)
		return false
	}

	return true
}

func (h *BillingHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := customError.CodeOf(err)

	message := http.StatusText(status)
	var be *customError.BusinessError
	if errors.As(err, &be) {
		message = be.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))
		// Infrastructure details stay in the log.
		response.ErrorWithCode(w, status, code, message, nil)
		return
	}

	response.ErrorWithCode(w, status, code, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, customError.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, customError.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, customError.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, customError.ErrInfrastructure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
