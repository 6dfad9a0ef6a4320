/*
handlers.go - HTTP API handlers for the policy administration engine

PURPOSE:
  Exposes the engine operations via REST API. Handles HTTP request/response
  and JSON serialization, and delegates everything else to engine.Engine.

ENDPOINTS:
  Holders:
    GET    /api/holders                        List holders (?status=Active)
    POST   /api/holders                        Register an application
    GET    /api/holders/{id}                   Holder details
    POST   /api/holders/{id}/issue             Issue the policy
    POST   /api/holders/{id}/status            Status transition

  Underwriting:
    GET    /api/holders/{id}/underwriting          Stored record
    POST   /api/holders/{id}/underwriting/score    Recompute system score
    POST   /api/holders/{id}/underwriting/override Admin override

  Premium and valuation:
    GET    /api/holders/{id}/premium           Premium ledger
    GET    /api/holders/{id}/payments          Payment history
    POST   /api/holders/{id}/payments          Record a payment
    GET    /api/holders/{id}/surrender-value   GSV and SSV (?as_of=)
    GET    /api/holders/{id}/maturity          Maturity value (?mode=&as_of=)
    GET    /api/holders/{id}/bonuses           Bonus credits
    POST   /api/holders/{id}/bonuses/accrue    Credit completed policy years

  Loans:
    GET    /api/holders/{id}/loan-eligibility  Cap check (?amount=)
    GET    /api/holders/{id}/loans             Loans for a holder
    POST   /api/holders/{id}/loans             Open a loan
    GET    /api/loans/{id}                     Loan details
    POST   /api/loans/{id}/accrue              Accrue interest to as_of
    GET    /api/loans/{id}/repayments          Repayment history
    POST   /api/loans/{id}/repayments          Apply a repayment

  Claims:
    GET    /api/holders/{id}/claims            Claims for a holder
    POST   /api/holders/{id}/claims            Raise a claim
    GET    /api/claims/{id}                    Claim details
    POST   /api/claims/{id}/decision           Approve or reject
    GET    /api/claims/{id}/payment            Payment record

  Reference data and admin:
    GET    /api/products                       Products
    GET    /api/agents                         Agents
    POST   /api/agents                         Register an agent
    GET    /api/agents/{id}/reports            Monthly reports
    POST   /api/admin/catalog                  Install a catalog JSON
    GET    /api/admin/accrual                  Last scheduled run
    POST   /api/admin/accrual                  Run loan interest and bonus sweeps

ERROR HANDLING:
  Errors are returned as JSON with the status chosen by statusFor:
  - 400: Validation errors, malformed input
  - 404: Record not found
  - 409: Concurrent update, duplicate idempotency key
  - 422: Refused state transition, missing rate band
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/engine.go: Operations
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/policy-engine/claims"
	"github.com/warp/policy-engine/engine"
	"github.com/warp/policy-engine/factory"
	"github.com/warp/policy-engine/generic"
	"github.com/warp/policy-engine/loan"
	"github.com/warp/policy-engine/policy"
	"github.com/warp/policy-engine/valuation"
)

// maxBodyBytes bounds request bodies, catalogs included.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

type Handler struct {
	Engine *engine.Engine
	Logger *slog.Logger

	// Scheduler is optional; it backs GET /api/admin/accrual.
	Scheduler *AccrualScheduler
}

func NewHandler(e *engine.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Engine: e, Logger: logger}
}

// =============================================================================
// HOLDER HANDLERS
// =============================================================================

// ListHolders returns all holders, optionally filtered by status.
// GET /api/holders
func (h *Handler) ListHolders(w http.ResponseWriter, r *http.Request) {
	holders, err := h.Engine.Holders(r.Context(), policy.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list holders", err)
		return
	}
	dtos := make([]HolderDTO, len(holders))
	for i, hd := range holders {
		dtos[i] = toHolderDTO(hd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterHolder stores a new Pending application.
// POST /api/holders
func (h *Handler) RegisterHolder(w http.ResponseWriter, r *http.Request) {
	var req RegisterHolderRequest
	if !decode(w, r, &req) {
		return
	}
	asOf, err := asOfDate(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}
	in, err := req.holder()
	if err != nil {
		h.writeEngineError(w, r, "Invalid application", err)
		return
	}
	out, err := h.Engine.RegisterHolder(r.Context(), in, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to register holder", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolderDTO(out))
}

// GET /api/holders/{id}
func (h *Handler) GetHolder(w http.ResponseWriter, r *http.Request) {
	hd, err := h.Engine.Holder(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load holder", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolderDTO(hd))
}

// IssuePolicy activates the holder and returns its policy number.
// POST /api/holders/{id}/issue
func (h *Handler) IssuePolicy(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	id := holderID(r)
	number, err := h.Engine.IssuePolicy(r.Context(), id, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to issue policy", err)
		return
	}
	hd, err := h.Engine.Holder(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, r, "Failed to load holder", err)
		return
	}
	writeJSON(w, http.StatusOK, IssueResponse{PolicyNumber: number, Holder: toHolderDTO(hd)})
}

// POST /api/holders/{id}/status
func (h *Handler) TransitionPolicy(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	hd, err := h.Engine.TransitionPolicy(r.Context(), holderID(r), policy.Status(req.Status), asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to change status", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolderDTO(hd))
}

// =============================================================================
// UNDERWRITING HANDLERS
// =============================================================================

// GET /api/holders/{id}/underwriting
func (h *Handler) GetUnderwriting(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Engine.Underwriting(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load underwriting", err)
		return
	}
	writeJSON(w, http.StatusOK, toUnderwritingDTO(*rec))
}

// POST /api/holders/{id}/underwriting/score
func (h *Handler) ScoreUnderwriting(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	id := holderID(r)
	if _, err := h.Engine.ScoreUnderwriting(r.Context(), id, asOf); err != nil {
		h.writeEngineError(w, r, "Failed to score underwriting", err)
		return
	}
	rec, err := h.Engine.Underwriting(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, r, "Failed to load underwriting", err)
		return
	}
	writeJSON(w, http.StatusOK, toUnderwritingDTO(*rec))
}

// POST /api/holders/{id}/underwriting/override
func (h *Handler) OverrideUnderwriting(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	rec, err := h.Engine.OverrideUnderwriting(r.Context(), holderID(r), req.Score,
		policy.RiskLevel(req.Category), req.Remarks, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to override underwriting", err)
		return
	}
	writeJSON(w, http.StatusOK, toUnderwritingDTO(rec))
}

// =============================================================================
// PREMIUM AND VALUATION HANDLERS
// =============================================================================

// GET /api/holders/{id}/premium
func (h *Handler) GetPremiumLedger(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.PremiumLedger(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load premium ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(l))
}

// GET /api/holders/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	es, err := h.Engine.PremiumPayments(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(es))
}

// RecordPayment applies one premium payment.
// POST /api/holders/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	l, err := h.Engine.RecordPremiumPayment(r.Context(), holderID(r), req.Amount, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(l))
}

// GET /api/holders/{id}/surrender-value
func (h *Handler) GetSurrenderValue(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}
	id := holderID(r)
	sv, err := h.Engine.ComputeSurrenderValues(r.Context(), id, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to compute surrender value", err)
		return
	}
	writeJSON(w, http.StatusOK, SurrenderValueDTO{HolderID: string(id), AsOf: asOf.String(), GSV: sv.GSV, SSV: sv.SSV})
}

// GET /api/holders/{id}/maturity
func (h *Handler) GetMaturityValue(w http.ResponseWriter, r *http.Request) {
	asOf, err := asOfDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}
	mode := valuation.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = valuation.ModeEstimated
	}
	id := holderID(r)
	v, err := h.Engine.ProjectMaturityValue(r.Context(), id, mode, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to project maturity value", err)
		return
	}
	writeJSON(w, http.StatusOK, MaturityDTO{HolderID: string(id), Mode: string(mode), AsOf: asOf.String(), Value: v})
}

// GET /api/holders/{id}/bonuses
func (h *Handler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Engine.Bonuses(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list bonuses", err)
		return
	}
	dtos := make([]BonusDTO, len(bs))
	for i, b := range bs {
		dtos[i] = toBonusDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AccrueBonus credits completed policy years. 204 when nothing was due.
// POST /api/holders/{id}/bonuses/accrue
func (h *Handler) AccrueBonus(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	b, err := h.Engine.AccruePolicyBonus(r.Context(), holderID(r), asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to accrue bonus", err)
		return
	}
	if b == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, toBonusDTO(*b))
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

// GET /api/holders/{id}/loan-eligibility
func (h *Handler) GetLoanEligibility(w http.ResponseWriter, r *http.Request) {
	var amount *decimal.Decimal
	if s := r.URL.Query().Get("amount"); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		amount = &d
	}
	e, err := h.Engine.EvaluateLoanRequest(r.Context(), holderID(r), amount)
	if err != nil {
		h.writeEngineError(w, r, "Failed to evaluate loan", err)
		return
	}
	writeJSON(w, http.StatusOK, toEligibilityDTO(e))
}

// GET /api/holders/{id}/loans
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Engine.Loans(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list loans", err)
		return
	}
	dtos := make([]LoanDTO, len(ls))
	for i, l := range ls {
		dtos[i] = toLoanDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/holders/{id}/loans
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	l, err := h.Engine.CreateLoan(r.Context(), holderID(r), req.Amount, req.InterestRate, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to create loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(l))
}

// GET /api/loans/{id}
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	l, err := h.Engine.Loan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load loan", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l))
}

// POST /api/loans/{id}/accrue
func (h *Handler) AccrueLoanInterest(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	l, err := h.Engine.AccrueLoanInterest(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to accrue interest", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(l))
}

// GET /api/loans/{id}/repayments
func (h *Handler) ListRepayments(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Engine.Repayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list repayments", err)
		return
	}
	dtos := make([]RepaymentDTO, len(rs))
	for i, rp := range rs {
		dtos[i] = toRepaymentDTO(rp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/loans/{id}/repayments
func (h *Handler) ApplyRepayment(w http.ResponseWriter, r *http.Request) {
	var req RepaymentRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	typ := loan.RepaymentType(req.Type)
	if typ == "" {
		typ = loan.RepayBoth
	}
	rp, err := h.Engine.ApplyLoanRepayment(r.Context(), chi.URLParam(r, "id"), req.Amount, typ, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to apply repayment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRepaymentDTO(rp))
}

// =============================================================================
// CLAIM HANDLERS
// =============================================================================

// GET /api/holders/{id}/claims
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Engine.Claims(r.Context(), holderID(r))
	if err != nil {
		h.writeEngineError(w, r, "Failed to list claims", err)
		return
	}
	dtos := make([]ClaimDTO, len(cs))
	for i, c := range cs {
		dtos[i] = toClaimDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/holders/{id}/claims
func (h *Handler) RaiseClaim(w http.ResponseWriter, r *http.Request) {
	var req RaiseClaimRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	c, err := h.Engine.RaiseClaim(r.Context(), holderID(r), req.Reason, req.Amount, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to raise claim", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClaimDTO(c))
}

// GET /api/claims/{id}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	c, err := h.Engine.Claim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load claim", err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimDTO(c))
}

// DecideClaim approves or rejects a claim.
// POST /api/claims/{id}/decision
func (h *Handler) DecideClaim(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	pay, err := h.Engine.ProcessClaim(r.Context(), id, claims.Decision(req.Decision), req.Remarks, asOf)
	if err != nil {
		h.writeEngineError(w, r, "Failed to process claim", err)
		return
	}
	c, err := h.Engine.Claim(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, r, "Failed to load claim", err)
		return
	}
	resp := DecisionResponse{Claim: toClaimDTO(c)}
	if pay != nil {
		dto := toClaimPaymentDTO(pay)
		resp.Payment = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/claims/{id}/payment
func (h *Handler) GetClaimPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Engine.ClaimPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, r, "Failed to load claim payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toClaimPaymentDTO(p))
}

// =============================================================================
// REFERENCE DATA AND ADMIN
// =============================================================================

// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	cs, err := h.Engine.Contracts(r.Context())
	if err != nil {
		h.writeEngineError(w, r, "Failed to list products", err)
		return
	}
	dtos := make([]ProductDTO, len(cs))
	for i, c := range cs {
		dtos[i] = toProductDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GET /api/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	as, err := h.Engine.Agents(r.Context())
	if err != nil {
		h.writeEngineError(w, r, "Failed to list agents", err)
		return
	}
	dtos := make([]AgentDTO, len(as))
	for i, a := range as {
		dtos[i] = toAgentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// POST /api/agents
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.Engine.RegisterAgent(r.Context(), req.Code, req.BranchCode, req.CommissionRate)
	if err != nil {
		h.writeEngineError(w, r, "Failed to register agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAgentDTO(a))
}

// GET /api/agents/{id}/reports
func (h *Handler) ListAgentReports(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Engine.Agent(r.Context(), id); err != nil {
		h.writeEngineError(w, r, "Failed to load agent", err)
		return
	}
	rs, err := h.Engine.AgentReports(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, r, "Failed to list agent reports", err)
		return
	}
	dtos := make([]AgentReportDTO, len(rs))
	for i, rp := range rs {
		dtos[i] = toAgentReportDTO(rp)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// InstallCatalog stores a catalog JSON body (products, rate tables, agents).
// POST /api/admin/catalog
func (h *Handler) InstallCatalog(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	cat, err := factory.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid catalog", err)
		return
	}
	if err := h.Engine.InstallCatalog(r.Context(), cat); err != nil {
		h.writeEngineError(w, r, "Failed to install catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"products": len(cat.Contracts),
		"agents":   len(cat.Agents),
	})
}

// RunAccrual runs the loan interest batch and the bonus sweep now.
// POST /api/admin/accrual
func (h *Handler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	asOf, ok := decodeAsOf(w, r, &req, &req.AsOf)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, RunAccrual(r.Context(), h.Engine, asOf))
}

// GET /api/admin/accrual
func (h *Handler) LastAccrual(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusNotFound, "Scheduler is not running", nil)
		return
	}
	last := h.Scheduler.LastRun()
	if last == nil {
		writeError(w, http.StatusNotFound, "No accrual run yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// =============================================================================
// HELPERS
// =============================================================================

func holderID(r *http.Request) generic.HolderID {
	return generic.HolderID(chi.URLParam(r, "id"))
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// decodeAsOf decodes the body and parses the as_of field it carries.
func decodeAsOf(w http.ResponseWriter, r *http.Request, v any, asOf *string) (generic.Date, bool) {
	if !decode(w, r, v) {
		return generic.Date{}, false
	}
	d, err := asOfDate(*asOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return generic.Date{}, false
	}
	return d, true
}

// asOfDate parses YYYY-MM-DD; empty means today.
func asOfDate(s string) (generic.Date, error) {
	if s == "" {
		return generic.Today(), nil
	}
	return generic.ParseDate(s)
}

func parseDate(field, s string) (generic.Date, error) {
	if s == "" {
		return generic.Date{}, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return generic.Date{}, generic.Invalid(field, "expected YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

// statusFor maps the engine's error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, generic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrConcurrencyConflict), errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		return http.StatusConflict
	case errors.Is(err, generic.ErrInvalidTransition), errors.Is(err, generic.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generic.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(message, "path", r.URL.Path, "error", err)
		writeError(w, status, message, nil)
		return
	}
	resp := ErrorResponse{Error: message, Details: err.Error()}
	var ve *generic.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
