package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger"
	"github.com/radieske/bet-ledger/internal/ledger-service/dto"
	"github.com/radieske/bet-ledger/internal/ledger-service/odds"
	"github.com/radieske/bet-ledger/internal/placement"
	"github.com/radieske/bet-ledger/internal/settlement"
	"github.com/radieske/bet-ledger/internal/shared/metrics"
	"github.com/radieske/bet-ledger/internal/stats"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// Publisher emite eventos do ledger; falha de publicação não derruba a operação.
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
	PublishBetSettled(context.Context, events.BetSettled) error
}

// Server expõe a API pública do ledger: colocação, liquidação, histórico,
// estatísticas e carteira.
type Server struct {
	log    *zap.Logger
	store  ledger.Store
	place  *placement.Service
	engine *settlement.Engine
	aggr   *stats.Aggregator
	feed   *odds.Feed // opcional; nil quando não há feed configurado
	publ   Publisher
}

func NewServer(log *zap.Logger, store ledger.Store, place *placement.Service,
	engine *settlement.Engine, aggr *stats.Aggregator, feed *odds.Feed, publ Publisher) *Server {
	return &Server{log: log, store: store, place: place, engine: engine, aggr: aggr, feed: feed, publ: publ}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.bets)                 // POST (place) | GET ?userId=...
	mux.HandleFunc("/bets/", s.betByID)             // GET /bets/{id} | POST /bets/{id}/settle
	mux.HandleFunc("/stats", s.getStats)            // GET ?userId=...&category=...
	mux.HandleFunc("/wallet", s.getWallet)          // GET ?userId=...
	mux.HandleFunc("/wallet/deposit", s.deposit)    // POST
	mux.HandleFunc("/transactions", s.transactions) // GET ?userId=...&page=&limit=
	return mux
}

func (s *Server) bets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.placeBet(w, r)
	case http.MethodGet:
		s.listBets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", nil)
		return
	}

	// Sem odd informada, tenta a sugerida do feed; ausência não é erro,
	// a validação rejeita depois se continuar zerada.
	if req.Odds == 0 && s.feed != nil && req.EventID != "" && req.Selection != "" {
		if odd, err := s.feed.SuggestedOdd(r.Context(), req.Category, req.EventID, req.Selection); err == nil {
			req.Odds = odd
		}
	}

	bet, err := s.place.PlaceBet(r.Context(), placement.PlaceRequest{
		Owner:      req.UserID,
		Title:      req.Title,
		Category:   req.Category,
		StakeCents: req.StakeCents,
		Odds:       req.Odds,
		Metadata:   req.Metadata,
	})
	if err != nil {
		var verr *placement.ValidationError
		switch {
		case errors.As(err, &verr):
			metrics.PlacementsRejected.WithLabelValues("invalid_input").Inc()
			writeError(w, http.StatusBadRequest, "invalid input", verr.Fields)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			metrics.PlacementsRejected.WithLabelValues("insufficient_funds").Inc()
			writeError(w, http.StatusUnprocessableEntity, "insufficient funds", nil)
		case errors.Is(err, ledger.ErrDuplicateBet):
			writeError(w, http.StatusConflict, "duplicate bet id", nil)
		default:
			s.log.Error("place bet", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}

	metrics.BetsPlaced.Inc()

	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:      bet.ID,
		UserID:     bet.Owner,
		Category:   bet.Category,
		Title:      bet.Title,
		StakeCents: bet.StakeCents,
		Odds:       bet.Odds,
	}); err != nil {
		s.log.Warn("publish bet_placed", zap.String("betId", bet.ID), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toBetResponse(bet))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required", nil)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	f := ledger.Filter{
		Category: r.URL.Query().Get("category"),
		Status:   ledger.Status(r.URL.Query().Get("status")),
		Page:     page,
		Limit:    limit,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter", nil)
		return
	}

	bets, total, err := s.store.ListBets(r.Context(), userID, f)
	if err != nil {
		s.log.Error("list bets", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	out := dto.BetListResponse{Data: make([]dto.BetResponse, 0, len(bets)), Total: total, Page: page, Limit: limit}
	for i := range bets {
		out.Data = append(out.Data, toBetResponse(&bets[i]))
	}
	writeJSON(w, out)
}

// betByID trata /bets/{id} e /bets/{id}/settle
func (s *Server) betByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/bets/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "betId required", nil)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/settle"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.settleBet(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bet, err := s.store.GetBet(r.Context(), rest)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bet not found", nil)
			return
		}
		s.log.Error("get bet", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	writeJSON(w, toBetResponse(bet))
}

// settleBet é o gatilho manual de liquidação (admin); o gatilho assíncrono
// vive no settlement-worker.
func (s *Server) settleBet(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", nil)
		return
	}

	outcome, err := settlement.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, http.StatusBadRequest, "outcome must be won, lost or void",
			map[string]string{"outcome": "unknown outcome"})
		return
	}

	bet, err := s.engine.Settle(r.Context(), betID, outcome)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			writeError(w, http.StatusNotFound, "bet not found", nil)
		case errors.Is(err, ledger.ErrAlreadySettled):
			writeError(w, http.StatusConflict, "bet already settled", nil)
		default:
			s.log.Error("settle bet", zap.String("betId", betID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}

	metrics.BetsSettled.WithLabelValues(string(outcome)).Inc()

	if err := s.publ.PublishBetSettled(r.Context(), events.BetSettled{
		BetID:       bet.ID,
		UserID:      bet.Owner,
		Outcome:     string(outcome),
		CreditCents: creditFor(bet),
	}); err != nil {
		s.log.Warn("publish bet_settled", zap.String("betId", bet.ID), zap.Error(err))
	}

	writeJSON(w, toBetResponse(bet))
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required", nil)
		return
	}

	st, err := s.aggr.Compute(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		s.log.Error("compute stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	writeJSON(w, st)
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required", nil)
		return
	}

	bal, err := s.store.Balance(r.Context(), userID)
	if err != nil {
		s.log.Error("wallet balance", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: userID, BalanceCents: bal})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	newBal, err := s.store.Deposit(r.Context(), req.UserID, req.AmountCents, req.Description)
	if err != nil {
		s.log.Error("deposit", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	writeJSON(w, dto.WalletResponse{UserID: req.UserID, BalanceCents: newBal})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required", nil)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, total, err := s.store.ListEntries(r.Context(), userID, page, limit)
	if err != nil {
		s.log.Error("list entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	out := dto.EntryListResponse{Data: make([]dto.EntryResponse, 0, len(entries)), Total: total, Page: page, Limit: limit}
	for _, e := range entries {
		out.Data = append(out.Data, dto.EntryResponse{
			ID:          e.ID,
			Type:        string(e.Type),
			AmountCents: e.AmountCents,
			Description: e.Description,
			BetID:       e.BetID,
			CreatedAt:   e.CreatedAt,
		})
	}
	writeJSON(w, out)
}

// creditFor reconstrói o crédito aplicado a partir do estado terminal.
func creditFor(b *ledger.Bet) int64 {
	switch b.Status {
	case ledger.StatusWon:
		return b.PotentialPayoutCents()
	case ledger.StatusVoid:
		return b.StakeCents
	}
	return 0
}

func toBetResponse(b *ledger.Bet) dto.BetResponse {
	return dto.BetResponse{
		ID:                   b.ID,
		UserID:               b.Owner,
		Title:                b.Title,
		Category:             b.Category,
		StakeCents:           b.StakeCents,
		Odds:                 b.Odds,
		Status:               string(b.Status),
		PotentialPayoutCents: b.PotentialPayoutCents(),
		Metadata:             b.Metadata,
		CreatedAt:            b.CreatedAt,
		SettledAt:            b.SettledAt,
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg, Fields: fields})
}
