package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// MarketService defines the methods the market handler requires from the
// service layer.
type MarketService interface {
	Market(ctx context.Context, id domain.ObjectID) (*domain.BettingMarket, error)
	BookOf(ctx context.Context, marketID domain.ObjectID) (domain.BookSnapshot, error)
	OpenBetsOf(ctx context.Context, marketID domain.ObjectID) []*domain.Bet
	PositionsOf(ctx context.Context, marketID domain.ObjectID) []*domain.Position
}

// MarketHandler serves market-level endpoints: metadata, the aggregated
// order book, open bets, and matched positions.
type MarketHandler struct {
	markets MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and
// logger.
func NewMarketHandler(markets MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

// GetMarket returns one market.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeMarket)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}

	market, err := h.markets.Market(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.String("market", id.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// GetBook returns the aggregated active book of a market.
// GET /api/markets/{id}/book
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeMarket)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}

	book, err := h.markets.BookOf(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get book failed",
			slog.String("market", id.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load book")
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// betView is the wire form of an open bet.
type betView struct {
	ID               domain.ObjectID    `json:"id"`
	BettorID         domain.ObjectID    `json:"bettor_id"`
	Amount           domain.AssetAmount `json:"amount"`
	BackerMultiplier int64              `json:"backer_multiplier"`
	Side             domain.BetSide     `json:"side"`
	Delayed          bool               `json:"delayed"`
}

// ListBets returns the open bets of a market, delayed included.
// GET /api/markets/{id}/bets
func (h *MarketHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeMarket)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}
	if _, err := h.markets.Market(r.Context(), id); errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	bets := h.markets.OpenBetsOf(r.Context(), id)
	views := make([]betView, 0, len(bets))
	for _, b := range bets {
		views = append(views, betView{
			ID:               b.ID,
			BettorID:         b.BettorID,
			Amount:           b.Amount,
			BackerMultiplier: b.BackerMultiplier,
			Side:             b.Side,
			Delayed:          b.Delayed(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"bets": views, "total": len(views)})
}

// ListPositions returns the matched positions of a market.
// GET /api/markets/{id}/positions
func (h *MarketHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeMarket)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed market id")
		return
	}
	if _, err := h.markets.Market(r.Context(), id); errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}

	positions := h.markets.PositionsOf(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions, "total": len(positions)})
}
