package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// GroupService defines the methods the group handler requires from the
// service layer.
type GroupService interface {
	Groups(ctx context.Context) []*domain.BettingMarketGroup
	Group(ctx context.Context, id domain.ObjectID) (*domain.BettingMarketGroup, error)
	MarketsOf(ctx context.Context, groupID domain.ObjectID) []*domain.BettingMarket
}

// GroupHandler serves betting-market-group endpoints.
type GroupHandler struct {
	groups GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a GroupHandler with the given service and logger.
func NewGroupHandler(groups GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

// groupView is the wire form of a group.
type groupView struct {
	ID          domain.ObjectID `json:"id"`
	EventID     domain.ObjectID `json:"event_id"`
	RulesID     domain.ObjectID `json:"rules_id"`
	AssetID     domain.ObjectID `json:"asset_id"`
	Description string          `json:"description"`
	Frozen      bool            `json:"frozen"`
	DelayBets   bool            `json:"delay_bets"`
}

func toGroupView(g *domain.BettingMarketGroup) groupView {
	return groupView{
		ID:          g.ID,
		EventID:     g.EventID,
		RulesID:     g.RulesID,
		AssetID:     g.AssetID,
		Description: g.Description,
		Frozen:      g.Frozen,
		DelayBets:   g.DelayBets,
	}
}

// ListGroups returns every live group.
// GET /api/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups := h.groups.Groups(r.Context())

	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, toGroupView(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": views, "total": len(views)})
}

// GetGroup returns one group.
// GET /api/groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeGroup)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed group id")
		return
	}

	group, err := h.groups.Group(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get group failed",
			slog.String("group", id.String()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}

	writeJSON(w, http.StatusOK, toGroupView(group))
}

// ListMarkets returns the group's live markets.
// GET /api/groups/{id}/markets
func (h *GroupHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, domain.TypeGroup)
	if !ok {
		writeError(w, http.StatusBadRequest, "malformed group id")
		return
	}

	if _, err := h.groups.Group(r.Context(), id); errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	markets := h.groups.MarketsOf(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"markets": markets, "total": len(markets)})
}
