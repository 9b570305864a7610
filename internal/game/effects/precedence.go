package effects

import "github.com/projectsquall/battle-server-go/internal/game/board"

// Ability source tiers, in lookup order.
const (
	TierHeroData      = "HERO_DATA_ACTIVE"
	TierActiveAbility = "EFFECT_PARAMS_ACTIVE"
	TierEffects       = "EFFECT_PARAMS_EFFECTS"
	TierFallback      = "DEFAULT_DAMAGE"
)

// AbilityPlan is the outcome of hero ability lookup: the effect chain to run
// plus where it came from, so the log can show which source won.
type AbilityPlan struct {
	Effects  []board.Effect
	Tier     string
	Fallback bool
}

// HeroAbility picks the hero's active ability by checking its data sources in
// a fixed order and taking the first non-empty one. When every source is
// empty the hero falls back to a flat damage effect with the configured
// amount.
func HeroAbility(hero *board.CardInstance, fallbackDamage int) AbilityPlan {
	if hero.HeroData != nil && len(hero.HeroData.ActiveAbility) > 0 {
		return AbilityPlan{Effects: hero.HeroData.ActiveAbility, Tier: TierHeroData}
	}
	if len(hero.EffectParams.ActiveAbility) > 0 {
		return AbilityPlan{Effects: hero.EffectParams.ActiveAbility, Tier: TierActiveAbility}
	}
	if len(hero.EffectParams.Effects) > 0 {
		return AbilityPlan{Effects: hero.EffectParams.Effects, Tier: TierEffects}
	}
	return AbilityPlan{
		Effects:  []board.Effect{{Keyword: "HERO_ACTIVE_DAMAGE", Amount: fallbackDamage}},
		Tier:     TierFallback,
		Fallback: true,
	}
}
