package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/iwvelando/deal-analyzer/internal/analyzer"
	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/internal/navigation"
	"github.com/iwvelando/deal-analyzer/internal/registration"
	"github.com/iwvelando/deal-analyzer/internal/store"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

var (
	errMissingSession = errors.New("missing session id")
	errUnknownSession = errors.New("unknown session")
)

// Options configures NewHandler. Zero values select defaults.
type Options struct {
	MaxBodySize    int64
	Version        string
	Catalog        *listings.Catalog
	Assumptions    listings.Assumptions
	AveragingYears int
	Store          store.Store
	CodeGenerator  registration.CodeGenerator
	// SessionTTL drops sessions idle for longer. MaxSessions caps the live
	// sessions, dropping the least recently used.
	SessionTTL  time.Duration
	MaxSessions int
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	catalog     *listings.Catalog
	assumptions listings.Assumptions
	analyzer    *analyzer.Analyzer
	profiles    *registration.ProfileRepository
	generate    registration.CodeGenerator
	sessions    *expirable.LRU[string, *session]
}

type session struct {
	mu  sync.Mutex
	nav navigation.State
	reg *registration.Session
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// browsing, analysis and registration API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	if opts.Catalog == nil {
		catalog, err := listings.LoadCatalog()
		if err != nil {
			panic(fmt.Sprintf("failed to load embedded listing catalogue: %v", err))
		}
		opts.Catalog = catalog
	}
	if opts.Assumptions == (listings.Assumptions{}) {
		opts.Assumptions = listings.DefaultAssumptions()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = constants.DefaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = constants.DefaultMaxSessions
	}

	h := &handler{
		logger:      logger,
		maxBodySize: opts.MaxBodySize,
		version:     trimmedVersion,
		catalog:     opts.Catalog,
		assumptions: opts.Assumptions,
		analyzer:    analyzer.New(logger, opts.AveragingYears),
		profiles:    registration.NewProfileRepository(logger, opts.Store),
		generate:    opts.CodeGenerator,
	}
	h.sessions = expirable.NewLRU[string, *session](opts.MaxSessions, func(id string, _ *session) {
		logger.Debug("session dropped",
			zap.String("op", "server.NewHandler"),
			zap.String("session", id),
		)
	}, opts.SessionTTL)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("POST /api/session", h.handleNewSession)
	mux.HandleFunc("GET /api/session", h.withSession("server.handleSession", h.handleSession))

	// Listing browse
	mux.HandleFunc("GET /api/listings", h.withSession("server.handleListings", h.handleListings))
	mux.HandleFunc("GET /api/listings/{mls}", h.withSession("server.handleListing", h.handleListing))
	mux.HandleFunc("POST /api/nav", h.withSession("server.handleNav", h.handleNav))

	// Deal analyzer
	mux.HandleFunc("POST /api/analyze", h.withSession("server.handleAnalyze", h.handleAnalyze))
	mux.HandleFunc("GET /api/amortization", h.handleAmortization)

	// Registration flow
	mux.HandleFunc("GET /api/registration", h.withSession("server.handleRegistration", h.handleRegistration))
	mux.HandleFunc("POST /api/registration/profile", h.withSession("server.handleProfile", h.handleProfile))
	mux.HandleFunc("POST /api/registration/email/send", h.withSession("server.handleEmailSend", h.handleEmailSend))
	mux.HandleFunc("POST /api/registration/email/verify", h.withSession("server.handleEmailVerify", h.handleEmailVerify))
	mux.HandleFunc("POST /api/registration/phone/send", h.withSession("server.handlePhoneSend", h.handlePhoneSend))
	mux.HandleFunc("POST /api/registration/phone/verify", h.withSession("server.handlePhoneVerify", h.handlePhoneVerify))
	mux.HandleFunc("POST /api/registration/continue", h.withSession("server.handleContinue", h.handleContinue))
	mux.HandleFunc("POST /api/registration/details", h.withSession("server.handleDetails", h.handleDetails))
	mux.HandleFunc("POST /api/registration/complete", h.withSession("server.handleComplete", h.handleComplete))
	mux.HandleFunc("POST /api/registration/close", h.withSession("server.handleClose", h.handleClose))

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	mux.Handle("GET /", http.FileServer(http.FS(sub)))

	return mux
}

type sessionResponse struct {
	SessionID    string                `json:"sessionId"`
	Nav          navigation.State      `json:"nav"`
	Registration *registration.Session `json:"registration"`
}

type navRequest struct {
	Action string `json:"action"`
	Value  string `json:"value"`
}

type navResponse struct {
	Nav          navigation.State      `json:"nav"`
	Prompt       *navigation.Prompt    `json:"prompt,omitempty"`
	Registration *registration.Session `json:"registration"`
}

type listingsResponse struct {
	View        navigation.View      `json:"view"`
	Assumptions listings.Assumptions `json:"assumptions"`
	Cards       []listings.Card      `json:"cards"`
}

type listingResponse struct {
	Card     listings.Card   `json:"card"`
	Defaults analyzer.Inputs `json:"defaults"`
}

type analyzeRequest struct {
	MLS    string           `json:"mls"`
	Inputs *analyzer.Inputs `json:"inputs,omitempty"`
}

type analysisResponse struct {
	MLS     string           `json:"mls"`
	Inputs  analyzer.Inputs  `json:"inputs"`
	Metrics analyzer.Metrics `json:"metrics"`
}

type registrationRequiredResponse struct {
	Error      string            `json:"error"`
	Prompt     navigation.Prompt `json:"prompt"`
	PendingMLS string            `json:"pendingMls"`
}

type registrationResponse struct {
	Registration *registration.Session `json:"registration"`
	Fields       []registration.Field  `json:"fields"`
	Incomplete   bool                  `json:"contactIncomplete"`
}

type profileRequest struct {
	First string `json:"first"`
	Last  string `json:"last"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role,omitempty"`
}

type codeResponse struct {
	Code         string                `json:"code"`
	Registration *registration.Session `json:"registration"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Verified     bool                  `json:"verified"`
	Registration *registration.Session `json:"registration"`
}

type detailsRequest struct {
	Values map[string]string `json:"values"`
}

type completeResponse struct {
	Registration *registration.Session `json:"registration"`
	Analysis     *analysisResponse     `json:"analysis,omitempty"`
}

type amortizationResponse struct {
	Terms                   loans.LoanTerms `json:"terms"`
	LoanAmount              float64         `json:"loanAmount"`
	MonthlyPayment          float64         `json:"monthlyPayment"`
	AverageMonthlyPrincipal float64         `json:"averageMonthlyPrincipal"`
	AveragingYears          int             `json:"averagingYears"`
	Schedule                []loans.Payment `json:"schedule"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session)

// withSession resolves the session named by the session header and holds its
// lock for the duration of the request.
func (h *handler) withSession(op string, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.lookupSession(r.Header.Get(constants.SessionHeader))
		if err != nil {
			status := http.StatusNotFound
			if errors.Is(err, errMissingSession) {
				status = http.StatusUnauthorized
			}
			h.respondErrorWithOp(w, status, err.Error(), op)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		next(w, r, s)
	}
}

func (h *handler) lookupSession(id string) (*session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errMissingSession
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnknownSession, err)
	}

	key := parsed.String()
	s, ok := h.sessions.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownSession, parsed)
	}
	// Re-adding restarts the idle timer.
	h.sessions.Add(key, s)
	return s, nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleNewSession(w http.ResponseWriter, r *http.Request) {
	reg := registration.NewSession(h.logger, h.generate)
	if err := reg.Restore(r.Context(), h.profiles); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load profile: %v", err), "server.handleNewSession")
		return
	}

	id := uuid.NewString()
	s := &session{nav: navigation.NewState(), reg: reg}

	h.sessions.Add(id, s)

	h.logger.Info("session created",
		zap.String("op", "server.handleNewSession"),
		zap.String("session", id),
		zap.Bool("registered", reg.Registered),
	)

	w.Header().Set(constants.SessionHeader, id)
	h.writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Nav: s.nav, Registration: reg})
}

func (h *handler) handleSession(w http.ResponseWriter, r *http.Request, s *session) {
	h.writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:    r.Header.Get(constants.SessionHeader),
		Nav:          s.nav,
		Registration: s.reg,
	})
}

func (h *handler) handleListings(w http.ResponseWriter, r *http.Request, s *session) {
	h.writeJSON(w, http.StatusOK, listingsResponse{
		View:        s.nav.View,
		Assumptions: h.assumptions,
		Cards:       h.catalog.Cards(s.nav.View, h.assumptions),
	})
}

func (h *handler) handleListing(w http.ResponseWriter, r *http.Request, s *session) {
	l, err := h.catalog.Get(r.PathValue("mls"))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleListing")
		return
	}
	h.writeJSON(w, http.StatusOK, listingResponse{
		Card:     listings.CardFor(l, s.nav.View, h.assumptions),
		Defaults: analyzer.ForListing(l),
	})
}

func (h *handler) handleNav(w http.ResponseWriter, r *http.Request, s *session) {
	const op = "server.handleNav"

	var req navRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	prompt, err := s.nav.Apply(req.Action, req.Value, s.reg.Registered)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if prompt != nil {
		s.reg.OpenFor(prompt.Context)
	}

	h.writeJSON(w, http.StatusOK, navResponse{Nav: s.nav, Prompt: prompt, Registration: s.reg})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request, s *session) {
	const op = "server.handleAnalyze"

	var req analyzeRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}

	l, err := h.catalog.Get(strings.TrimSpace(req.MLS))
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	if !s.reg.Registered {
		ctx := s.nav.AnalyzeContext()
		s.reg.Defer(l.MLS, ctx)
		h.logger.Info("analysis deferred until registration",
			zap.String("op", op),
			zap.String("mls", l.MLS),
			zap.String("context", ctx.Key()),
		)
		h.writeJSON(w, http.StatusForbidden, registrationRequiredResponse{
			Error:      "registration required",
			Prompt:     navigation.Prompt{Context: ctx, Role: navigation.RoleFor(ctx)},
			PendingMLS: l.MLS,
		})
		return
	}

	inputs := analyzer.ForListing(l)
	if req.Inputs != nil {
		inputs = *req.Inputs
	}
	if err := inputs.Validate(); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, h.analyze(l.MLS, inputs))
}

func (h *handler) analyze(mls string, inputs analyzer.Inputs) analysisResponse {
	return analysisResponse{MLS: mls, Inputs: inputs, Metrics: h.analyzer.Analyze(inputs)}
}

func (h *handler) handleAmortization(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAmortization"

	q := r.URL.Query()
	price, err := queryFloat(q.Get("price"), 0)
	if err != nil || price <= 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "price must be a positive number", op)
		return
	}
	down, err := queryFloat(q.Get("down"), 20)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid down: %v", err), op)
		return
	}
	rate, err := queryFloat(q.Get("rate"), 4.2)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid rate: %v", err), op)
		return
	}
	years, err := queryInt(q.Get("years"), constants.DefaultAmortizationYears)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid years: %v", err), op)
		return
	}
	months, err := queryInt(q.Get("months"), constants.MonthsPerYear)
	if err != nil || months < 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "months must be a non-negative integer", op)
		return
	}

	terms := loans.LoanTerms{
		Price:               price,
		DownPaymentFraction: mathutil.PercentToFraction(down),
		AnnualInterestRate:  mathutil.PercentToFraction(rate),
		AmortizationYears:   years,
	}
	if err := terms.Validate(); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	if termMonths := years * constants.MonthsPerYear; months > termMonths {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("months must not exceed the %d month term", termMonths), op)
		return
	}

	h.writeJSON(w, http.StatusOK, amortizationResponse{
		Terms:                   terms,
		LoanAmount:              terms.LoanAmount(),
		MonthlyPayment:          terms.MonthlyPayment(),
		AverageMonthlyPrincipal: terms.AverageMonthlyPrincipal(h.analyzer.AveragingYears()),
		AveragingYears:          h.analyzer.AveragingYears(),
		Schedule:                loans.Schedule(terms, months),
	})
}

func (h *handler) handleRegistration(w http.ResponseWriter, r *http.Request, s *session) {
	h.writeRegistration(w, s)
}

func (h *handler) writeRegistration(w http.ResponseWriter, s *session) {
	h.writeJSON(w, http.StatusOK, registrationResponse{
		Registration: s.reg,
		Fields:       registration.FieldsFor(s.reg.Context),
		Incomplete:   !s.reg.ContactComplete(),
	})
}

func (h *handler) handleProfile(w http.ResponseWriter, r *http.Request, s *session) {
	var req profileRequest
	if !h.decodeBody(w, r, &req, "server.handleProfile") {
		return
	}

	s.reg.UpdateContact(strings.TrimSpace(req.First), strings.TrimSpace(req.Last),
		strings.TrimSpace(req.Email), strings.TrimSpace(req.Phone))
	if role := strings.TrimSpace(req.Role); role != "" {
		s.reg.Profile.Role = role
	}
	h.writeRegistration(w, s)
}

func (h *handler) handleEmailSend(w http.ResponseWriter, r *http.Request, s *session) {
	h.sendCode(w, s, s.reg.SendEmailCode, "server.handleEmailSend")
}

func (h *handler) handlePhoneSend(w http.ResponseWriter, r *http.Request, s *session) {
	h.sendCode(w, s, s.reg.SendPhoneCode, "server.handlePhoneSend")
}

func (h *handler) sendCode(w http.ResponseWriter, s *session, send func() (string, error), op string) {
	code, err := send()
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, codeResponse{Code: code, Registration: s.reg})
}

func (h *handler) handleEmailVerify(w http.ResponseWriter, r *http.Request, s *session) {
	h.verifyCode(w, r, s, s.reg.CheckEmailCode, "server.handleEmailVerify")
}

func (h *handler) handlePhoneVerify(w http.ResponseWriter, r *http.Request, s *session) {
	h.verifyCode(w, r, s, s.reg.CheckPhoneCode, "server.handlePhoneVerify")
}

func (h *handler) verifyCode(w http.ResponseWriter, r *http.Request, s *session, check func(string) bool, op string) {
	var req verifyRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	verified := check(strings.TrimSpace(req.Code))
	h.writeJSON(w, http.StatusOK, verifyResponse{Verified: verified, Registration: s.reg})
}

func (h *handler) handleContinue(w http.ResponseWriter, r *http.Request, s *session) {
	if err := s.reg.Continue(); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), "server.handleContinue")
		return
	}
	h.writeRegistration(w, s)
}

func (h *handler) handleDetails(w http.ResponseWriter, r *http.Request, s *session) {
	const op = "server.handleDetails"

	var req detailsRequest
	if !h.decodeBody(w, r, &req, op) {
		return
	}
	if err := s.reg.SetDetails(req.Values); err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}
	h.writeRegistration(w, s)
}

func (h *handler) handleComplete(w http.ResponseWriter, r *http.Request, s *session) {
	const op = "server.handleComplete"

	pending, err := s.reg.Complete(r.Context(), h.profiles)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	resp := completeResponse{Registration: s.reg}
	if pending != "" {
		l, err := h.catalog.Get(pending)
		if err != nil {
			h.logger.Warn("pending listing no longer available",
				zap.String("op", op),
				zap.String("mls", pending),
				zap.Error(err),
			)
		} else {
			analysis := h.analyze(l.MLS, analyzer.ForListing(l))
			resp.Analysis = &analysis
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleClose(w http.ResponseWriter, r *http.Request, s *session) {
	s.reg.Close()
	h.writeRegistration(w, s)
}

// decodeBody reads a JSON request body into dst. It writes the error
// response and returns false on failure.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		h.respondErrorWithOp(w, http.StatusBadRequest, "request body is required", op)
		return false
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
		return false
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
	return false
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, listings.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registration.ErrWrongStep):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, navigation.ErrInvalidSelection),
		errors.Is(err, analyzer.ErrInvalidInputs),
		errors.Is(err, loans.ErrInvalidTerm),
		errors.Is(err, loans.ErrInvalidTerms),
		errors.Is(err, registration.ErrIncomplete),
		errors.Is(err, registration.ErrInvalidEmail),
		errors.Is(err, registration.ErrInvalidPhone),
		errors.Is(err, registration.ErrUnknownField),
		errors.Is(err, registration.ErrInvalidDetail):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func queryFloat(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func queryInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
