package game

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/game/effects"
	"github.com/projectsquall/battle-server-go/internal/game/rules"
)

// legalityError converts a failed legality check into the engine's typed
// error taxonomy.
func legalityError(r rules.LegalityResult) error {
	var kind error
	switch r.Code {
	case rules.CodeMatchCompleted:
		kind = ErrMatchCompleted
	case rules.CodeInvalidTribute:
		kind = ErrInvalidTribute
	case rules.CodeZoneOccupied:
		kind = ErrZoneOccupied
	case rules.CodeInvalidTarget:
		kind = ErrInvalidTarget
	case rules.CodeInstanceNotFound:
		kind = ErrInstanceNotFound
	default:
		kind = ErrActionNotAllowed
	}
	return ruleErr(kind, r.Reason, r.Details)
}

// dispatch validates and applies one action against the handle's board.
// Validation never mutates; once the first mutation happens the action is
// committed. When allowTriggers is set and the action qualifies, a matching
// face-down enemy trap suspends the action instead of applying it, and the
// returned offer describes the pending decision.
func (e *Engine) dispatch(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	if r := rules.CheckActor(h.state, playerIndex); !r.Legal {
		return nil, legalityError(r)
	}

	switch act.Kind {
	case ActionPlayMonster:
		return e.playMonster(h, playerIndex, act, allowTriggers)
	case ActionPlaySpell:
		return e.playSpell(h, playerIndex, act, allowTriggers)
	case ActionPlayTrap:
		return nil, e.playTrap(h, playerIndex, act)
	case ActionActivateTrap:
		return nil, e.activateTrap(h, playerIndex, act)
	case ActionActivateHero:
		return e.activateHero(h, playerIndex, act, allowTriggers)
	case ActionAttackMonster:
		return e.attackMonster(h, playerIndex, act, allowTriggers)
	case ActionAttackPlayer:
		return e.attackPlayer(h, playerIndex, act, allowTriggers)
	case ActionEndTurn:
		return nil, e.endTurn(h, playerIndex)
	default:
		return nil, ruleErr(ErrActionNotAllowed, "unknown action kind", map[string]string{
			"action": string(act.Kind),
		})
	}
}

// offerTrap looks for a reactive trap on the defending side and, if found,
// parks the action for the trap controller's decision.
func (e *Engine) offerTrap(h *matchHandle, actingPlayer int, act Action, events []effects.TriggerEvent) *rules.TriggerOffer {
	for _, ev := range events {
		defending := board.OpponentIndex(actingPlayer)
		trap, zone, found := rules.FindReactiveTrap(h.state, defending, ev)
		if !found {
			continue
		}
		offer := &rules.TriggerOffer{
			Token:        newTriggerToken(),
			PlayerIndex:  defending,
			TrapInstance: trap.InstanceID,
			TrapName:     trap.Name,
			TrapZone:     zone,
			Trigger:      trap.TriggerKeyword(),
			Event:        ev,
		}
		h.suspended = &suspendedAction{
			Token:        offer.Token,
			ActingPlayer: actingPlayer,
			Action:       act,
			Offer:        *offer,
		}
		e.logger.Debug("action suspended for trigger decision",
			zap.String("match_id", h.state.MatchID),
			zap.String("trap_instance_id", trap.InstanceID),
			zap.String("trigger", offer.Trigger),
		)
		return offer
	}
	return nil
}

func (e *Engine) playMonster(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	var p PlayMonsterPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return nil, err
	}
	state := h.state
	me := state.Player(playerIndex)

	handIdx := me.HandIndex(p.CardInstanceID)
	if handIdx < 0 {
		return nil, ruleErr(ErrInstanceNotFound, "card not in hand", map[string]string{
			"card_instance_id": p.CardInstanceID,
		})
	}
	card := me.Hand[handIdx]
	if r := rules.CheckSummon(state, playerIndex, card, p.ZoneIndex, p.Tributes); !r.Legal {
		return nil, legalityError(r)
	}

	if allowTriggers {
		if offer := e.offerTrap(h, playerIndex, act, []effects.TriggerEvent{{
			Kind:              effects.EventMonsterSummoned,
			MonsterInstanceID: card.InstanceID,
		}}); offer != nil {
			return offer, nil
		}
	}

	// Committed from here on.
	for _, id := range p.Tributes {
		zone := me.MonsterZoneIndex(id)
		tribute, _ := me.RemoveMonster(zone)
		me.SendToGraveyard(tribute)
	}
	me.RemoveFromHand(card.InstanceID)

	entry := board.LogEntry{
		Type:     board.LogPlayMonster,
		Turn:     state.Turn,
		Player:   playerIndex,
		Card:     card.InstanceID,
		CardName: card.Name,
		Tributes: p.Tributes,
	}

	card.SummonedTurn = state.Turn
	switch {
	case card.IsHero():
		card.FaceDown = false
		card.CanAttack = false
		me.Hero = card
		entry.Zone = -1
		entry.Effects = append(entry.Effects, applyHeroAura(me, card)...)
	case card.Stars >= 4:
		card.FaceDown = false
		card.CanAttack = true
		if err := me.PlaceMonster(p.ZoneIndex, card); err != nil {
			return nil, err
		}
		entry.Zone = p.ZoneIndex
	default:
		card.FaceDown = true
		card.CanAttack = false
		if err := me.PlaceMonster(p.ZoneIndex, card); err != nil {
			return nil, err
		}
		entry.Zone = p.ZoneIndex
	}
	if !card.IsHero() {
		entry.Effects = append(entry.Effects, auraOnSummon(me, card)...)
	}

	me.Counters.SummonsUsed++
	state.Append(entry)
	return nil, nil
}

// spellTargets builds the resolver target from a caller-supplied payload,
// verifying a named monster is actually on the field.
func spellTargets(state *board.MatchState, targetPlayer int, targetMonsterID string) (effects.Target, error) {
	t := effects.Target{Player: targetPlayer}
	if targetMonsterID != "" {
		if _, _, _, found := state.FindMonster(targetMonsterID); !found {
			return t, ruleErr(ErrInvalidTarget, "target monster not on the field", map[string]string{
				"target_monster_instance_id": targetMonsterID,
			})
		}
		t.MonsterID = targetMonsterID
	}
	return t, nil
}

// checkTargetDomain enforces the declared target domain of a card's effects
// against the resolved target.
func checkTargetDomain(state *board.MatchState, casterIndex int, card *board.CardInstance, target effects.Target) error {
	for _, eff := range card.EffectParams.Effects {
		domain := strings.ToUpper(eff.Target)
		switch domain {
		case "ENEMY_MONSTER":
			if target.MonsterID == "" {
				return ruleErr(ErrInvalidTarget, "effect requires an enemy monster target", nil)
			}
			if _, owner, _, _ := state.FindMonster(target.MonsterID); owner == casterIndex {
				return ruleErr(ErrInvalidTarget, "effect cannot target your own monster", map[string]string{
					"target_monster_instance_id": target.MonsterID,
				})
			}
		case "OWN_MONSTER", "FRIENDLY_MONSTER":
			if target.MonsterID == "" {
				return ruleErr(ErrInvalidTarget, "effect requires a friendly monster target", nil)
			}
			if _, owner, _, _ := state.FindMonster(target.MonsterID); owner != casterIndex {
				return ruleErr(ErrInvalidTarget, "effect must target your own monster", map[string]string{
					"target_monster_instance_id": target.MonsterID,
				})
			}
		case "ENEMY_PLAYER", "PLAYER":
			if target.Player == 0 && target.MonsterID == "" {
				return ruleErr(ErrInvalidTarget, "effect requires a player target", nil)
			}
		}
	}
	return nil
}

// spellEvents lists the trigger events a spell cast raises, most specific
// last: a counter trap reacts to the cast itself, a status shield only to a
// chain that would apply a status to the defender's side, a destruction
// shield only to a chain that would kill the targeted monster.
func spellEvents(state *board.MatchState, card *board.CardInstance, castingPlayer int, target effects.Target) []effects.TriggerEvent {
	events := []effects.TriggerEvent{{
		Kind:            effects.EventSpellCast,
		SpellInstanceID: card.InstanceID,
		AttackingPlayer: castingPlayer,
	}}

	targetOwner := target.Player
	var targetCard *board.CardInstance
	if target.MonsterID != "" {
		targetCard, targetOwner, _, _ = state.FindMonster(target.MonsterID)
	}
	if targetOwner == 0 || targetOwner == castingPlayer {
		return events
	}

	if eff, ok := statusEffect(card.EffectParams.Effects); ok {
		events = append(events, statusIncomingEvent(card.InstanceID, castingPlayer, targetOwner, target.MonsterID, eff))
	}
	if targetCard != nil {
		if damage := chainDamage(card.EffectParams.Effects); damage >= targetCard.HP {
			events = append(events, effects.TriggerEvent{
				Kind:              effects.EventAllyWouldDie,
				SpellInstanceID:   card.InstanceID,
				AttackingPlayer:   castingPlayer,
				DefendingPlayer:   targetOwner,
				Amount:            damage,
				MonsterInstanceID: targetCard.InstanceID,
			})
		}
	}
	return events
}

// statusEffect returns the first status-applying effect in a chain.
func statusEffect(chain []board.Effect) (board.Effect, bool) {
	for _, eff := range chain {
		kw := strings.ToUpper(eff.Keyword)
		if strings.Contains(kw, "FREEZE") || strings.Contains(kw, "APPLY_STATUS") {
			return eff, true
		}
	}
	return board.Effect{}, false
}

// statusIncomingEvent captures the status a chain is about to apply, with the
// same defaults the freeze handler would use, so a reactive trap can
// reproduce it elsewhere.
func statusIncomingEvent(sourceID string, castingPlayer, targetOwner int, targetMonster string, eff board.Effect) effects.TriggerEvent {
	code := eff.StatusCode
	duration := eff.DurationTurns
	onExpire := eff.OnExpire
	if strings.Contains(strings.ToUpper(eff.Keyword), "FREEZE") {
		code = board.StatusFrozen
		if duration == 0 {
			duration = 2
		}
		if onExpire == "" {
			onExpire = board.StatusImmune
		}
	}
	return effects.TriggerEvent{
		Kind:              effects.EventStatusIncoming,
		SpellInstanceID:   sourceID,
		AttackingPlayer:   castingPlayer,
		DefendingPlayer:   targetOwner,
		MonsterInstanceID: targetMonster,
		StatusCode:        code,
		StatusDuration:    duration,
		StatusOnExpire:    onExpire,
	}
}

// chainDamage totals the direct monster damage a chain would deal.
func chainDamage(chain []board.Effect) int {
	total := 0
	for _, eff := range chain {
		if strings.Contains(strings.ToUpper(eff.Keyword), "DAMAGE_MONSTER") {
			total += eff.Amount
		}
	}
	return total
}

func (e *Engine) playSpell(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	var p PlaySpellPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return nil, err
	}
	state := h.state
	me := state.Player(playerIndex)

	handIdx := me.HandIndex(p.CardInstanceID)
	if handIdx < 0 {
		return nil, ruleErr(ErrInstanceNotFound, "spell not in hand", map[string]string{
			"card_instance_id": p.CardInstanceID,
		})
	}
	card := me.Hand[handIdx]
	if card.Type != board.CardTypeSpell {
		return nil, ruleErr(ErrActionNotAllowed, "card is not a spell", map[string]string{
			"card_type": string(card.Type),
		})
	}
	if r := rules.CheckSpellTrapBudget(state, playerIndex); !r.Legal {
		return nil, legalityError(r)
	}
	target, err := spellTargets(state, p.TargetPlayer, p.TargetMonsterID)
	if err != nil {
		return nil, err
	}
	if err := checkTargetDomain(state, playerIndex, card, target); err != nil {
		return nil, err
	}

	if allowTriggers {
		if offer := e.offerTrap(h, playerIndex, act, spellEvents(state, card, playerIndex, target)); offer != nil {
			return offer, nil
		}
	}

	// Committed.
	me.RemoveFromHand(card.InstanceID)
	me.Counters.SpellTrapUsed++

	ctx := &effects.Context{
		State:        state,
		SourcePlayer: playerIndex,
		Source:       card,
		Target:       target,
		RNG:          h.rng,
	}
	outcome := e.resolver.ResolveCard(ctx)
	e.buryDestroyed(state, outcome.Destroyed, &outcome.Records)
	me.SendToGraveyard(card)

	state.Append(board.LogEntry{
		Type:     board.LogPlaySpell,
		Turn:     state.Turn,
		Player:   playerIndex,
		Card:     card.InstanceID,
		CardName: card.Name,
		Effects:  outcome.Records,
	})
	e.checkWin(h)
	return nil, nil
}

func (e *Engine) playTrap(h *matchHandle, playerIndex int, act Action) error {
	var p PlayTrapPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return err
	}
	state := h.state
	me := state.Player(playerIndex)

	handIdx := me.HandIndex(p.CardInstanceID)
	if handIdx < 0 {
		return ruleErr(ErrInstanceNotFound, "trap not in hand", map[string]string{
			"card_instance_id": p.CardInstanceID,
		})
	}
	card := me.Hand[handIdx]
	if card.Type != board.CardTypeTrap {
		return ruleErr(ErrActionNotAllowed, "card is not a trap", map[string]string{
			"card_type": string(card.Type),
		})
	}
	if r := rules.CheckSetTrap(state, playerIndex); !r.Legal {
		return legalityError(r)
	}
	zone := me.EmptySpellTrapZone()
	if p.ZoneIndex != nil {
		zone = *p.ZoneIndex
		if zone < 0 || zone >= board.SpellTrapZoneCount || me.SpellTrapZones[zone] != nil {
			return ruleErr(ErrZoneOccupied, "spell or trap zone unavailable", map[string]string{
				"zone": strconv.Itoa(zone),
			})
		}
	}

	me.RemoveFromHand(card.InstanceID)
	card.FaceDown = true
	if err := me.PlaceSpellTrap(zone, card); err != nil {
		return err
	}
	me.Counters.SpellTrapUsed++

	state.Append(board.LogEntry{
		Type:     board.LogPlayTrap,
		Turn:     state.Turn,
		Player:   playerIndex,
		Card:     card.InstanceID,
		CardName: card.Name,
		Zone:     zone,
	})
	return nil
}

func (e *Engine) activateTrap(h *matchHandle, playerIndex int, act Action) error {
	var p ActivateTrapPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return err
	}
	state := h.state
	me := state.Player(playerIndex)

	zone := me.SpellTrapZoneIndex(p.TrapInstanceID)
	if zone < 0 {
		return ruleErr(ErrInstanceNotFound, "trap not on your field", map[string]string{
			"trap_instance_id": p.TrapInstanceID,
		})
	}
	card := me.SpellTrapZones[zone]
	if card.Type != board.CardTypeTrap {
		return ruleErr(ErrActionNotAllowed, "card is not a trap", map[string]string{
			"card_type": string(card.Type),
		})
	}
	target, err := spellTargets(state, p.TargetPlayer, p.TargetMonsterID)
	if err != nil {
		return err
	}

	card.FaceDown = false
	ctx := &effects.Context{
		State:        state,
		SourcePlayer: playerIndex,
		Source:       card,
		Target:       target,
		RNG:          h.rng,
	}
	outcome := e.resolver.ResolveCard(ctx)
	e.buryDestroyed(state, outcome.Destroyed, &outcome.Records)

	me.RemoveSpellTrap(zone)
	me.SendToGraveyard(card)

	state.Append(board.LogEntry{
		Type:     board.LogActivateTrap,
		Turn:     state.Turn,
		Player:   playerIndex,
		Card:     card.InstanceID,
		CardName: card.Name,
		Zone:     zone,
		Effects:  outcome.Records,
	})
	e.checkWin(h)
	return nil
}

func (e *Engine) activateHero(h *matchHandle, playerIndex int, act Action, allowTriggers bool) (*rules.TriggerOffer, error) {
	var p ActivateHeroPayload
	if err := decodePayload(act.Payload, &p); err != nil {
		return nil, err
	}
	state := h.state
	if r := rules.CheckHeroAbility(state, playerIndex); !r.Legal {
		return nil, legalityError(r)
	}
	me := state.Player(playerIndex)
	hero := me.Hero
	opponent := board.OpponentIndex(playerIndex)

	target, err := spellTargets(state, p.TargetPlayer, p.TargetMonsterID)
	if err != nil {
		return nil, err
	}
	// Auto-target: first enemy monster, else the enemy player directly.
	if target.MonsterID == "" && target.Player == 0 {
		if first := firstMonster(state.Player(opponent)); first != nil {
			target.MonsterID = first.InstanceID
		} else {
			target.Player = opponent
		}
	}

	plan := effects.HeroAbility(hero, e.opts.HeroDefaultDamage)

	if allowTriggers && target.MonsterID != "" {
		if eff, ok := statusEffect(plan.Effects); ok {
			if _, owner, _, _ := state.FindMonster(target.MonsterID); owner == opponent {
				ev := statusIncomingEvent(hero.InstanceID, playerIndex, opponent, target.MonsterID, eff)
				if offer := e.offerTrap(h, playerIndex, act, []effects.TriggerEvent{ev}); offer != nil {
					return offer, nil
				}
			}
		}
	}

	// Committed.
	me.Counters.HeroAbilityUsed++
	ctx := &effects.Context{
		State:        state,
		SourcePlayer: playerIndex,
		Source:       hero,
		Target:       target,
		RNG:          h.rng,
	}
	outcome := e.resolver.Resolve(plan.Effects, ctx)
	e.buryDestroyed(state, outcome.Destroyed, &outcome.Records)

	records := append([]board.EffectRecord{{
		Type:     effects.RecordAbilitySource,
		Tier:     plan.Tier,
		Fallback: plan.Fallback,
	}}, outcome.Records...)

	state.Append(board.LogEntry{
		Type:     board.LogActivateHero,
		Turn:     state.Turn,
		Player:   playerIndex,
		Card:     hero.InstanceID,
		CardName: hero.Name,
		Effects:  records,
	})
	e.checkWin(h)
	return nil, nil
}

func firstMonster(p *board.PlayerState) *board.CardInstance {
	for _, card := range p.MonsterZones {
		if card != nil {
			return card
		}
	}
	return nil
}

// buryDestroyed moves every destroyed monster to its owner's graveyard and
// appends the destruction records. A monster holding a destruction barrier is
// spared at the barrier's floor instead.
func (e *Engine) buryDestroyed(state *board.MatchState, destroyed []effects.DestroyedRef, records *[]board.EffectRecord) {
	for _, ref := range destroyed {
		p := state.Player(ref.Player)
		if ref.Zone >= 0 && ref.Zone < len(p.MonsterZones) {
			if card := p.MonsterZones[ref.Zone]; card != nil && card.InstanceID == ref.Card {
				if rec, saved := absorbDestruction(card, ref.Player); saved {
					*records = append(*records, rec)
					continue
				}
			}
		}
		card, err := state.DestroyMonster(ref.Player, ref.Zone)
		if err != nil {
			continue
		}
		*records = append(*records, destroyedRecord(card, ref.Player))
	}
}
