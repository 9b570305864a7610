package game

import (
	"github.com/projectsquall/battle-server-go/internal/game/board"
)

// endTurn hands the board to the opponent and runs their start-of-turn
// sequence: advance status timers, flip monsters set on earlier turns,
// refresh attack permissions, reset the per-turn budget, grant a hero charge,
// draw two.
func (e *Engine) endTurn(h *matchHandle, playerIndex int) error {
	state := h.state
	next := board.OpponentIndex(playerIndex)

	state.Append(board.LogEntry{
		Type:   board.LogEndTurn,
		Turn:   state.Turn,
		Player: playerIndex,
	})

	state.Turn++
	state.CurrentPlayer = next
	state.Phase = board.PhaseMain

	p := state.Player(next)
	entry := board.LogEntry{
		Type:   board.LogTurnStarted,
		Turn:   state.Turn,
		Player: next,
	}

	// Statuses tick before the attack refresh so a freeze expiring right now
	// frees the monster this turn, not the one after.
	entry.Effects = append(entry.Effects, state.TickStatuses(next)...)

	for _, card := range p.MonsterZones {
		if card == nil {
			continue
		}
		if card.FaceDown && card.SummonedTurn < state.Turn-1 {
			// Set at least one full turn ago; reveal it.
			card.FaceDown = false
			entry.Effects = append(entry.Effects, board.EffectRecord{
				Type:     board.LogMonsterFlipped,
				Player:   next,
				Card:     card.InstanceID,
				CardName: card.Name,
				ATKAfter: card.ATK,
				HPAfter:  card.HP,
			})
		}
		if !card.FaceDown && !card.HasStatus(board.StatusFrozen) {
			card.CanAttack = true
		}
	}

	p.Counters = board.TurnCounters{}
	p.AttackedThisTurn = nil

	if p.Hero != nil {
		p.Hero.HeroCharges++
	}

	state.Append(entry)

	drawn, reshuffled := p.Draw(2, h.rng)
	ids := make([]string, 0, len(drawn))
	for _, c := range drawn {
		ids = append(ids, c.InstanceID)
	}
	state.Append(board.LogEntry{
		Type:   board.LogDrawCards,
		Turn:   state.Turn,
		Player: next,
		Amount: len(drawn),
		Effects: []board.EffectRecord{{
			Type:   board.LogDrawCards,
			Player: next,
			Amount: len(drawn),
			Drawn:  ids,
			Reason: reshuffleReason(reshuffled),
		}},
	})
	return nil
}

func reshuffleReason(reshuffled bool) string {
	if reshuffled {
		return "GRAVEYARD_RESHUFFLED"
	}
	return ""
}
