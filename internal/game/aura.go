package game

import (
	"github.com/projectsquall/battle-server-go/internal/game/board"
)

func heroAura(hero *board.CardInstance) *board.PassiveAura {
	if hero == nil {
		return nil
	}
	if hero.HeroData != nil && hero.HeroData.PassiveAura != nil {
		return hero.HeroData.PassiveAura
	}
	return hero.EffectParams.PassiveAura
}

func auraRecord(card *board.CardInstance, playerIndex int, aura *board.PassiveAura) board.EffectRecord {
	rec := board.EffectRecord{
		Type:        board.LogAuraApplied,
		Player:      playerIndex,
		Card:        card.InstanceID,
		ATKBefore:   card.ATK,
		HPBefore:    card.HP,
		MaxHPBefore: card.MaxHP,
	}
	card.ATK += aura.ATKBonus
	card.MaxHP += aura.HPBonus
	card.HP += aura.HPBonus
	rec.ATKAfter = card.ATK
	rec.HPAfter = card.HP
	rec.MaxHPAfter = card.MaxHP
	return rec
}

// applyHeroAura applies the entering hero's passive aura to every friendly
// monster already on the field.
func applyHeroAura(p *board.PlayerState, hero *board.CardInstance) []board.EffectRecord {
	aura := heroAura(hero)
	if aura == nil || (aura.ATKBonus == 0 && aura.HPBonus == 0) {
		return nil
	}
	var records []board.EffectRecord
	for _, card := range p.MonsterZones {
		if card == nil {
			continue
		}
		records = append(records, auraRecord(card, p.Index, aura))
	}
	return records
}

// auraOnSummon applies the controlling hero's aura to a newly summoned
// monster.
func auraOnSummon(p *board.PlayerState, card *board.CardInstance) []board.EffectRecord {
	aura := heroAura(p.Hero)
	if aura == nil || (aura.ATKBonus == 0 && aura.HPBonus == 0) {
		return nil
	}
	return []board.EffectRecord{auraRecord(card, p.Index, aura)}
}
