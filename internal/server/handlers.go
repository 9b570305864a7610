package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectsquall/battle-server-go/internal/game"
	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/repository"
)

type startRequest struct {
	MatchID      string   `json:"match_id"`
	Mode         string   `json:"mode" binding:"required"`
	PlayerName   string   `json:"player_name" binding:"required"`
	PlayerDeck   []string `json:"player_deck" binding:"required"`
	OpponentName string   `json:"opponent_name" binding:"required"`
	OpponentDeck []string `json:"opponent_deck" binding:"required"`
	Seed         int64    `json:"seed"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deck1, err := s.catalog.BuildDeck(req.PlayerDeck)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deck2, err := s.catalog.BuildDeck(req.OpponentDeck)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matchID := req.MatchID
	if matchID == "" {
		matchID = uuid.NewString()
	}

	if _, err := s.engine.StartMatch(matchID, board.Mode(req.Mode),
		game.PlayerSetup{Name: req.PlayerName, Deck: deck1},
		game.PlayerSetup{Name: req.OpponentName, Deck: deck2},
		req.Seed,
	); err != nil {
		s.writeError(c, err)
		return
	}

	snap, err := s.engine.Snapshot(matchID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.persistNew(c.Request.Context(), snap)
	c.JSON(http.StatusOK, gin.H{"match_id": matchID, "game_state": json.RawMessage(snap.Data)})
}

type actionRequest struct {
	MatchID     string         `json:"match_id" binding:"required"`
	PlayerIndex int            `json:"player_index" binding:"required"`
	Action      string         `json:"action" binding:"required"`
	Payload     map[string]any `json:"payload"`
}

func (s *Server) handleAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	act := game.Action{Kind: game.ActionKind(req.Action), Payload: req.Payload}
	res, err := s.engine.ApplyAction(req.MatchID, req.PlayerIndex, act)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// In PVE the policy answers trigger offers made to the AI side, so the
	// human caller never blocks on a machine decision.
	if res.PendingTrigger != nil && res.State.Mode == board.ModePVE && res.PendingTrigger.PlayerIndex == AIPlayerIndex {
		decision := s.policy.DecideTrigger(res.State, *res.PendingTrigger)
		tr, err := s.engine.ResolveTrigger(req.MatchID, AIPlayerIndex, res.PendingTrigger.TrapInstance, decision, game.SuspendedPayload{
			Token:  res.PendingTrigger.Token,
			Action: act,
		})
		if err != nil {
			s.writeError(c, err)
			return
		}
		snap, err := s.engine.Snapshot(req.MatchID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		s.persist(c.Request.Context(), snap)
		c.JSON(http.StatusOK, gin.H{
			"match_id":         req.MatchID,
			"game_state":       json.RawMessage(snap.Data),
			"cancelled_action": tr.CancelledAction,
			"attack_completed": tr.AttackCompleted,
		})
		return
	}

	snap, err := s.engine.Snapshot(req.MatchID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.persist(c.Request.Context(), snap)
	body := gin.H{"match_id": req.MatchID, "game_state": json.RawMessage(snap.Data)}
	if res.PendingTrigger != nil {
		body["pending_trigger"] = res.PendingTrigger
		body["suspended_action"] = game.SuspendedPayload{
			Token:  res.PendingTrigger.Token,
			Action: act,
		}
	}
	c.JSON(http.StatusOK, body)
}

type resolveTriggerRequest struct {
	MatchID        string                `json:"match_id" binding:"required"`
	PlayerIndex    int                   `json:"player_index" binding:"required"`
	TrapInstanceID string                `json:"trap_instance_id" binding:"required"`
	Decision       string                `json:"decision" binding:"required"`
	Suspended      game.SuspendedPayload `json:"suspended_action" binding:"required"`
}

func (s *Server) handleResolveTrigger(c *gin.Context) {
	var req resolveTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tr, err := s.engine.ResolveTrigger(req.MatchID, req.PlayerIndex, req.TrapInstanceID,
		game.TriggerDecision(req.Decision), req.Suspended)
	if err != nil {
		s.writeError(c, err)
		return
	}

	snap, err := s.engine.Snapshot(req.MatchID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.persist(c.Request.Context(), snap)
	c.JSON(http.StatusOK, gin.H{
		"match_id":         req.MatchID,
		"game_state":       json.RawMessage(snap.Data),
		"cancelled_action": tr.CancelledAction,
		"attack_completed": tr.AttackCompleted,
	})
}

type aiTurnRequest struct {
	MatchID     string `json:"match_id" binding:"required"`
	PlayerIndex int    `json:"player_index"`
}

func (s *Server) handleAITurn(c *gin.Context) {
	var req aiTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	playerIndex := req.PlayerIndex
	if playerIndex == 0 {
		playerIndex = AIPlayerIndex
	}

	_, taken, err := s.engine.RunAITurn(req.MatchID, playerIndex, s.policy)
	if err != nil {
		s.writeError(c, err)
		return
	}

	snap, err := s.engine.Snapshot(req.MatchID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.persist(c.Request.Context(), snap)
	kinds := make([]string, 0, len(taken))
	for _, a := range taken {
		kinds = append(kinds, string(a.Kind))
	}
	c.JSON(http.StatusOK, gin.H{
		"match_id":      req.MatchID,
		"game_state":    json.RawMessage(snap.Data),
		"actions_taken": kinds,
	})
}

func (s *Server) handleGetState(c *gin.Context) {
	matchID := c.Param("match_id")

	snap, err := s.engine.Snapshot(matchID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"match_id": matchID, "game_state": json.RawMessage(snap.Data)})
		return
	}

	// Not live in memory; try the stored snapshot and revive it.
	if s.store != nil {
		rec, loadErr := s.store.Load(c.Request.Context(), matchID)
		if loadErr == nil {
			restored, umErr := game.UnmarshalState(rec.SerializedState)
			if umErr == nil {
				if loadErr := s.engine.LoadMatch(restored); loadErr == nil {
					c.JSON(http.StatusOK, gin.H{"match_id": matchID, "game_state": json.RawMessage(rec.SerializedState)})
					return
				}
			}
		} else if loadErr != repository.ErrMatchNotFound {
			s.logger.Error("load match snapshot", zap.String("match_id", matchID), zap.Error(loadErr))
		}
	}
	s.writeError(c, err)
}

// persistNew stores the initial snapshot for a freshly started match.
func (s *Server) persistNew(ctx context.Context, snap game.Snapshot) {
	if s.store != nil {
		rec := repository.MatchRecord{
			ID:              snap.MatchID,
			Mode:            string(snap.Mode),
			Status:          string(snap.Status),
			SerializedState: snap.Data,
		}
		if err := s.store.Create(ctx, rec); err != nil {
			s.logger.Error("persist new match", zap.String("match_id", snap.MatchID), zap.Error(err))
		}
	}
	s.cachePut(ctx, snap.MatchID, snap.Data)
}

// persist saves the snapshot after a mutation and notifies websocket
// subscribers. Persistence failures are logged, never surfaced: the live
// match is authoritative.
func (s *Server) persist(ctx context.Context, snap game.Snapshot) {
	if s.store != nil {
		rec := repository.MatchRecord{
			ID:              snap.MatchID,
			Mode:            string(snap.Mode),
			Status:          string(snap.Status),
			Winner:          snap.Winner,
			SerializedState: snap.Data,
		}
		if err := s.store.SaveState(ctx, rec); err != nil {
			s.logger.Error("persist match", zap.String("match_id", snap.MatchID), zap.Error(err))
		}
	}
	s.cachePut(ctx, snap.MatchID, snap.Data)
	s.hub.Broadcast(snap.MatchID, snap.Data)
}

func (s *Server) cachePut(ctx context.Context, matchID string, data []byte) {
	if err := s.cache.Put(ctx, matchID, data); err != nil {
		s.logger.Warn("cache snapshot", zap.String("match_id", matchID), zap.Error(err))
	}
}
