package game

import (
	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/game/effects"
	"github.com/projectsquall/battle-server-go/internal/game/rules"
)

func (e *Engine) attackMonster(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	var p AttackMonsterPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return nil, err
	}
	state := h.state
	me := state.Player(playerIndex)
	opponentIdx := board.OpponentIndex(playerIndex)

	attackerZone := me.MonsterZoneIndex(p.AttackerInstanceID)
	if attackerZone < 0 {
		return nil, ruleErr(ErrInstanceNotFound, "attacker not on your field", map[string]string{
			"attacker_instance_id": p.AttackerInstanceID,
		})
	}
	attacker := me.MonsterZones[attackerZone]
	if r := rules.CheckAttacker(state, playerIndex, attacker); !r.Legal {
		return nil, legalityError(r)
	}

	defender, defenderOwner, defenderZone, found := state.FindMonster(p.TargetInstanceID)
	if !found || defenderOwner != opponentIdx {
		return nil, ruleErr(ErrInvalidTarget, "target is not an enemy monster", map[string]string{
			"target_instance_id": p.TargetInstanceID,
		})
	}

	if allowTriggers {
		events := []effects.TriggerEvent{{
			Kind:            effects.EventAttackDeclared,
			AttackerID:      attacker.InstanceID,
			AttackerATK:     attacker.ATK,
			AttackingPlayer: playerIndex,
			DefendingPlayer: opponentIdx,
			Amount:          attacker.ATK,
		}}
		if attacker.ATK >= defender.HP {
			// The defender would not survive the hit; its side gets a chance
			// to intervene before the damage commits.
			events = append(events, effects.TriggerEvent{
				Kind:              effects.EventAllyWouldDie,
				AttackerID:        attacker.InstanceID,
				AttackerATK:       attacker.ATK,
				AttackingPlayer:   playerIndex,
				DefendingPlayer:   opponentIdx,
				Amount:            attacker.ATK,
				MonsterInstanceID: defender.InstanceID,
			})
		}
		if offer := e.offerTrap(h, playerIndex, act, events); offer != nil {
			return offer, nil
		}
	}

	// Committed.
	entry := board.LogEntry{
		Type:         board.LogAttackMonster,
		Turn:         state.Turn,
		Player:       playerIndex,
		Card:         attacker.InstanceID,
		CardName:     attacker.Name,
		Target:       defender.InstanceID,
		TargetPlayer: opponentIdx,
	}

	if defender.FaceDown {
		defender.FaceDown = false
		entry.Effects = append(entry.Effects, board.EffectRecord{
			Type:     board.LogMonsterFlipped,
			Player:   opponentIdx,
			Card:     defender.InstanceID,
			CardName: defender.Name,
			ATKAfter: defender.ATK,
			HPAfter:  defender.HP,
		})
	}

	// Both deltas come from pre-combat stats so application order cannot
	// change the result.
	attackerATK := attacker.ATK
	defenderATK := defender.ATK
	entry.Effects = append(entry.Effects,
		combatDamage(defender, opponentIdx, attackerATK),
		combatDamage(attacker, playerIndex, defenderATK),
	)

	me.MarkAttacked(attacker.InstanceID)

	if defender.HP <= 0 {
		if rec, saved := absorbDestruction(defender, defenderOwner); saved {
			entry.Effects = append(entry.Effects, rec)
		} else if card, err := state.DestroyMonster(defenderOwner, defenderZone); err == nil {
			entry.Effects = append(entry.Effects, destroyedRecord(card, defenderOwner))
		}
	}
	if attacker.HP <= 0 {
		if rec, saved := absorbDestruction(attacker, playerIndex); saved {
			entry.Effects = append(entry.Effects, rec)
		} else if card, err := state.DestroyMonster(playerIndex, attackerZone); err == nil {
			entry.Effects = append(entry.Effects, destroyedRecord(card, playerIndex))
		}
	}

	state.Append(entry)
	return nil, nil
}

func (e *Engine) attackPlayer(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	var p AttackPlayerPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return nil, err
	}
	state := h.state
	me := state.Player(playerIndex)
	opponentIdx := board.OpponentIndex(playerIndex)

	attackerZone := me.MonsterZoneIndex(p.AttackerInstanceID)
	if attackerZone < 0 {
		return nil, ruleErr(ErrInstanceNotFound, "attacker not on your field", map[string]string{
			"attacker_instance_id": p.AttackerInstanceID,
		})
	}
	attacker := me.MonsterZones[attackerZone]
	if r := rules.CheckAttacker(state, playerIndex, attacker); !r.Legal {
		return nil, legalityError(r)
	}
	if r := rules.CheckDirectAttack(state, opponentIdx); !r.Legal {
		return nil, legalityError(r)
	}

	if allowTriggers {
		if offer := e.offerTrap(h, playerIndex, act, []effects.TriggerEvent{{
			Kind:            effects.EventAttackDeclared,
			AttackerID:      attacker.InstanceID,
			AttackerATK:     attacker.ATK,
			AttackingPlayer: playerIndex,
			DefendingPlayer: opponentIdx,
			Amount:          attacker.ATK,
		}}); offer != nil {
			return offer, nil
		}
	}

	// Committed.
	before, after := state.Player(opponentIdx).ApplyDamage(attacker.ATK)
	me.MarkAttacked(attacker.InstanceID)

	state.Append(board.LogEntry{
		Type:         board.LogAttackPlayer,
		Turn:         state.Turn,
		Player:       playerIndex,
		Card:         attacker.InstanceID,
		CardName:     attacker.Name,
		TargetPlayer: opponentIdx,
		Amount:       attacker.ATK,
		HPBefore:     before,
		HPAfter:      after,
	})
	e.checkWin(h)
	return nil, nil
}

func combatDamage(card *board.CardInstance, owner, amount int) board.EffectRecord {
	before := card.HP
	after := before - amount
	if after < 0 {
		after = 0
	}
	card.HP = after
	return board.EffectRecord{
		Type:     effects.RecordDamageMonster,
		Player:   owner,
		Card:     card.InstanceID,
		Amount:   amount,
		HPBefore: before,
		HPAfter:  after,
	}
}

// absorbDestruction consumes a destruction barrier on a monster at zero HP,
// leaving it on the field at the barrier's floor instead of burying it.
func absorbDestruction(card *board.CardInstance, owner int) (board.EffectRecord, bool) {
	s, ok := card.StatusByCode(board.StatusBarrier)
	if !ok {
		return board.EffectRecord{}, false
	}
	card.RemoveStatus(board.StatusBarrier)
	floor := s.Magnitude
	if floor <= 0 {
		floor = 1
	}
	before := card.HP
	card.HP = floor
	return board.EffectRecord{
		Type:       effects.RecordPreventDestruction,
		Player:     owner,
		Card:       card.InstanceID,
		CardName:   card.Name,
		StatusCode: board.StatusBarrier,
		HPBefore:   before,
		HPAfter:    floor,
	}, true
}

func destroyedRecord(card *board.CardInstance, owner int) board.EffectRecord {
	return board.EffectRecord{
		Type:      board.LogMonsterDestroyed,
		Player:    owner,
		Card:      card.InstanceID,
		CardName:  card.Name,
		Destroyed: true,
	}
}
