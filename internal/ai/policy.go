// Package ai implements the rule-based opponent for PVE matches. The policy
// is a pure decision function over the board: it issues the same actions a
// human client would, through the same serialized engine entry point.
package ai

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/projectsquall/battle-server-go/internal/game"
	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/game/rules"
)

// Policy picks actions in a fixed priority order: summon the hero, summon
// the biggest affordable monster, cast a spell, set a trap, use the hero
// ability, attack, end turn.
type Policy struct {
	logger *zap.Logger
}

func NewPolicy(logger *zap.Logger) *Policy {
	return &Policy{logger: logger}
}

// DecideTrigger always fires an offered trap. The card was set to be used;
// holding it gains the rule-based player nothing.
func (ai *Policy) DecideTrigger(_ *board.MatchState, _ rules.TriggerOffer) game.TriggerDecision {
	return game.DecisionActivate
}

// NextAction returns the policy's next move, or ok=false to end the turn.
func (ai *Policy) NextAction(state *board.MatchState, playerIndex int) (game.Action, bool) {
	me := state.Player(playerIndex)
	if me == nil || state.CurrentPlayer != playerIndex {
		return game.Action{}, false
	}

	if act, ok := ai.trySummonHero(me); ok {
		return act, true
	}
	if act, ok := ai.trySummonMonster(me); ok {
		return act, true
	}
	if act, ok := ai.tryPlaySpell(state, me, playerIndex); ok {
		return act, true
	}
	if act, ok := ai.trySetTrap(me); ok {
		return act, true
	}
	if act, ok := ai.tryHeroAbility(me); ok {
		return act, true
	}
	if act, ok := ai.tryAttack(state, me, playerIndex); ok {
		return act, true
	}
	return game.Action{}, false
}

func (ai *Policy) trySummonHero(me *board.PlayerState) (game.Action, bool) {
	if me.Hero != nil || me.Counters.SummonsUsed >= 1 {
		return game.Action{}, false
	}
	var hero *board.CardInstance
	for _, c := range me.Hand {
		if c.IsHero() {
			hero = c
			break
		}
	}
	if hero == nil {
		return game.Action{}, false
	}
	var tributes []string
	for _, m := range me.MonsterZones {
		if m != nil {
			tributes = append(tributes, m.InstanceID)
			if len(tributes) == 2 {
				break
			}
		}
	}
	if len(tributes) < 2 {
		return game.Action{}, false
	}
	ai.logger.Debug("ai summoning hero", zap.String("card", hero.Name))
	return playMonsterAction(hero.InstanceID, 0, tributes), true
}

func (ai *Policy) trySummonMonster(me *board.PlayerState) (game.Action, bool) {
	if me.Counters.SummonsUsed >= 1 {
		return game.Action{}, false
	}
	var candidates []*board.CardInstance
	for _, c := range me.Hand {
		if c.IsMonster() && !c.IsHero() {
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Stars > candidates[j].Stars
	})

	for _, monster := range candidates {
		zone := me.EmptyMonsterZone()
		if zone < 0 {
			return game.Action{}, false
		}
		if monster.Stars >= 4 {
			tribute := ""
			for _, m := range me.MonsterZones {
				if m != nil {
					tribute = m.InstanceID
					break
				}
			}
			if tribute == "" {
				continue
			}
			return playMonsterAction(monster.InstanceID, zone, []string{tribute}), true
		}
		return playMonsterAction(monster.InstanceID, zone, nil), true
	}
	return game.Action{}, false
}

func (ai *Policy) tryPlaySpell(state *board.MatchState, me *board.PlayerState, playerIndex int) (game.Action, bool) {
	if me.Counters.SpellTrapUsed >= 1 {
		return game.Action{}, false
	}
	enemyIdx := board.OpponentIndex(playerIndex)
	enemy := state.Player(enemyIdx)

	for _, spell := range me.Hand {
		if spell.Type != board.CardTypeSpell {
			continue
		}
		domain := spellDomain(spell)
		payload := map[string]any{"card_instance_id": spell.InstanceID}

		switch domain {
		case domainFriendlyMonster:
			target := pickFriendlyTarget(spell, me)
			if target == nil {
				continue
			}
			payload["target_monster_instance_id"] = target.InstanceID
			payload["target_player_index"] = playerIndex
		case domainEnemyMonster:
			target := weakestMonster(enemy)
			if target == nil {
				continue
			}
			payload["target_monster_instance_id"] = target.InstanceID
			payload["target_player_index"] = enemyIdx
		case domainPlayer:
			payload["target_player_index"] = enemyIdx
		}

		ai.logger.Debug("ai casting spell", zap.String("card", spell.Name))
		return game.Action{Kind: game.ActionPlaySpell, Payload: payload}, true
	}
	return game.Action{}, false
}

func (ai *Policy) trySetTrap(me *board.PlayerState) (game.Action, bool) {
	if me.Counters.SpellTrapUsed >= 1 || me.EmptySpellTrapZone() < 0 {
		return game.Action{}, false
	}
	for _, trap := range me.Hand {
		if trap.Type != board.CardTypeTrap {
			continue
		}
		return game.Action{
			Kind:    game.ActionPlayTrap,
			Payload: map[string]any{"card_instance_id": trap.InstanceID},
		}, true
	}
	return game.Action{}, false
}

func (ai *Policy) tryHeroAbility(me *board.PlayerState) (game.Action, bool) {
	if me.Hero == nil || me.Counters.HeroAbilityUsed >= 1 {
		return game.Action{}, false
	}
	// The engine auto-targets when the payload names nothing.
	return game.Action{Kind: game.ActionActivateHero, Payload: map[string]any{}}, true
}

func (ai *Policy) tryAttack(state *board.MatchState, me *board.PlayerState, playerIndex int) (game.Action, bool) {
	var attackers []*board.CardInstance
	for _, m := range me.MonsterZones {
		if m != nil && !m.FaceDown && m.CanAttack && !m.HasStatus(board.StatusFrozen) && !me.HasAttacked(m.InstanceID) {
			attackers = append(attackers, m)
		}
	}
	if len(attackers) == 0 {
		return game.Action{}, false
	}
	sort.SliceStable(attackers, func(i, j int) bool {
		return attackers[i].ATK > attackers[j].ATK
	})
	attacker := attackers[0]

	enemy := state.Opponent(playerIndex)
	if target := weakestMonster(enemy); target != nil {
		ai.logger.Debug("ai attacking monster",
			zap.String("attacker", attacker.Name),
			zap.String("target", target.Name),
		)
		return game.Action{
			Kind: game.ActionAttackMonster,
			Payload: map[string]any{
				"attacker_instance_id": attacker.InstanceID,
				"target_instance_id":   target.InstanceID,
			},
		}, true
	}
	return game.Action{
		Kind: game.ActionAttackPlayer,
		Payload: map[string]any{
			"attacker_instance_id": attacker.InstanceID,
		},
	}, true
}

func playMonsterAction(instanceID string, zone int, tributes []string) game.Action {
	payload := map[string]any{
		"card_instance_id": instanceID,
		"zone_index":       zone,
	}
	if len(tributes) > 0 {
		payload["tribute_instance_ids"] = tributes
	}
	return game.Action{Kind: game.ActionPlayMonster, Payload: payload}
}

type targetDomain int

const (
	domainNone targetDomain = iota
	domainFriendlyMonster
	domainEnemyMonster
	domainPlayer
)

// spellDomain classifies a spell by its effect keywords so the policy can
// pick a side to target.
func spellDomain(spell *board.CardInstance) targetDomain {
	for _, eff := range spell.EffectParams.Effects {
		kw := strings.ToUpper(eff.Keyword)
		switch {
		case strings.Contains(kw, "BUFF_MONSTER"), strings.Contains(kw, "HEAL_MONSTER"),
			strings.Contains(kw, "CLEANSE"), strings.Contains(kw, "HASTE"):
			return domainFriendlyMonster
		case strings.Contains(kw, "MONSTER"):
			return domainEnemyMonster
		case strings.Contains(kw, "PLAYER"):
			return domainPlayer
		}
	}
	return domainNone
}

// pickFriendlyTarget prefers a damaged monster for heals, otherwise any own
// monster.
func pickFriendlyTarget(spell *board.CardInstance, me *board.PlayerState) *board.CardInstance {
	heals := false
	for _, eff := range spell.EffectParams.Effects {
		if strings.Contains(strings.ToUpper(eff.Keyword), "HEAL") {
			heals = true
			break
		}
	}
	var fallback *board.CardInstance
	for _, m := range me.MonsterZones {
		if m == nil {
			continue
		}
		if fallback == nil {
			fallback = m
		}
		if heals && m.HP < m.MaxHP {
			return m
		}
	}
	return fallback
}

func weakestMonster(p *board.PlayerState) *board.CardInstance {
	var weakest *board.CardInstance
	for _, m := range p.MonsterZones {
		if m == nil {
			continue
		}
		if weakest == nil || m.HP < weakest.HP {
			weakest = m
		}
	}
	return weakest
}
