package board

import (
	"github.com/google/uuid"
)

// CardType indicates the category of a card definition.
type CardType string

const (
	CardTypeMonster CardType = "monster"
	CardTypeSpell   CardType = "spell"
	CardTypeTrap    CardType = "trap"
	CardTypeHero    CardType = "hero"
)

// Trigger keywords recognized on reactive cards. The trigger string lives in
// card data; these constants name the ones the engine reacts to.
const (
	TriggerIncomingSpell    = "ON_INCOMING_SPELL"
	TriggerIncomingStatus   = "ON_INCOMING_STATUS"
	TriggerMonsterSummoned  = "ON_MONSTER_SUMMONED"
	TriggerAttackDeclared   = "ON_ATTACK_DECLARED"
	TriggerAllyWouldDie     = "ON_ALLY_MONSTER_WOULD_BE_DESTROYED"
)

// Status codes with engine-level behavior. Other codes pass through as data.
const (
	StatusFrozen       = "FROZEN"
	StatusImmune       = "STATUS_IMMUNE"
	StatusBarrier      = "BARRIER"
)

// Effect is a single keyword-tagged effect entry from a card's effect data.
// Each field is optional; handlers read what they understand. Numeric fields
// stay typed integers all the way through serialization.
type Effect struct {
	Keyword          string `json:"keyword" yaml:"keyword"`
	Target           string `json:"target,omitempty" yaml:"target,omitempty"`
	Amount           int    `json:"amount,omitempty" yaml:"amount,omitempty"`
	OverflowToPlayer bool   `json:"overflow_to_player,omitempty" yaml:"overflow_to_player,omitempty"`
	ATKIncrease      int    `json:"atk_increase,omitempty" yaml:"atk_increase,omitempty"`
	HPIncrease       int    `json:"hp_increase,omitempty" yaml:"hp_increase,omitempty"`
	Count            int    `json:"count,omitempty" yaml:"count,omitempty"`
	StatusCode       string `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	DurationTurns    int    `json:"duration_turns,omitempty" yaml:"duration_turns,omitempty"`
	OnExpire         string `json:"on_expire,omitempty" yaml:"on_expire,omitempty"`
	Percentage       int    `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	ReflectSpell     bool   `json:"reflect_spell,omitempty" yaml:"reflect_spell,omitempty"`
	ReflectDamage    bool   `json:"reflect_damage,omitempty" yaml:"reflect_damage,omitempty"`
	ChargeCost       int    `json:"charge_cost,omitempty" yaml:"charge_cost,omitempty"`
	MinHP            int    `json:"min_hp,omitempty" yaml:"min_hp,omitempty"`
}

// PassiveAura is a hero's always-on stat modifier for friendly monsters.
type PassiveAura struct {
	ATKBonus int `json:"atk_bonus,omitempty" yaml:"atk_bonus,omitempty"`
	HPBonus  int `json:"hp_bonus,omitempty" yaml:"hp_bonus,omitempty"`
}

// EffectParams is the structured effect payload carried by a card. The
// effect_tags on the definition are a denormalized index into Effects; the
// resolver executes from here, never from tags alone.
type EffectParams struct {
	Trigger          string       `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Effects          []Effect     `json:"effects,omitempty" yaml:"effects,omitempty"`
	PassiveAura      *PassiveAura `json:"passive_aura,omitempty" yaml:"passive_aura,omitempty"`
	ActiveAbility    []Effect     `json:"active_ability,omitempty" yaml:"active_ability,omitempty"`
	MaxCopiesPerDeck int          `json:"max_copies_per_deck,omitempty" yaml:"max_copies_per_deck,omitempty"`
}

// HeroData is the hero-only ability block on a definition.
type HeroData struct {
	ActiveAbility []Effect     `json:"active_ability,omitempty" yaml:"active_ability,omitempty"`
	PassiveAura   *PassiveAura `json:"passive_aura,omitempty" yaml:"passive_aura,omitempty"`
	StartCharges  int          `json:"start_charges,omitempty" yaml:"start_charges,omitempty"`
}

// CardDefinition is an immutable card loaded from the catalog.
type CardDefinition struct {
	Code         string       `json:"card_code" yaml:"card_code"`
	Name         string       `json:"name" yaml:"name"`
	Type         CardType     `json:"card_type" yaml:"card_type"`
	Stars        int          `json:"stars" yaml:"stars"`
	ATK          int          `json:"atk" yaml:"atk"`
	HP           int          `json:"hp" yaml:"hp"`
	Element      int          `json:"element_id,omitempty" yaml:"element_id,omitempty"`
	EffectTags   []string     `json:"effect_tags,omitempty" yaml:"effect_tags,omitempty"`
	EffectParams EffectParams `json:"effect_params,omitempty" yaml:"effect_params,omitempty"`
	HeroData     *HeroData    `json:"hero_data,omitempty" yaml:"hero_data,omitempty"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	FlavorText   string       `json:"flavor_text,omitempty" yaml:"flavor_text,omitempty"`
	RulesText    string       `json:"rules_text,omitempty" yaml:"rules_text,omitempty"`
}

// IsHero reports whether the definition is a hero card. Only 6-star cards
// are heroes.
func (d *CardDefinition) IsHero() bool {
	return d.Type == CardTypeHero || d.Stars == 6
}

// TributeCost returns the number of tributes required to summon this card:
// 0 for 1-3 stars, 1 for 4-5 stars, 2 for heroes.
func (d *CardDefinition) TributeCost() int {
	if d.IsHero() {
		return 2
	}
	if d.Stars >= 4 {
		return 1
	}
	return 0
}

// Status is a named condition on a card instance with an optional magnitude
// and an optional remaining-turn counter (0 means permanent).
type Status struct {
	Code      string `json:"code"`
	Magnitude int    `json:"magnitude,omitempty"`
	Remaining int    `json:"remaining,omitempty"`
	OnExpire  string `json:"on_expire,omitempty"`
}

// CardInstance is one physical copy of a card inside a match.
type CardInstance struct {
	InstanceID   string       `json:"instance_id"`
	Code         string       `json:"card_code"`
	Name         string       `json:"name"`
	Type         CardType     `json:"card_type"`
	Stars        int          `json:"stars"`
	Owner        int          `json:"owner"`
	ATK          int          `json:"atk"`
	HP           int          `json:"hp"`
	MaxHP        int          `json:"max_hp"`
	Element      int          `json:"element_id,omitempty"`
	FaceDown     bool         `json:"face_down"`
	CanAttack    bool         `json:"can_attack"`
	SummonedTurn int          `json:"summoned_turn,omitempty"`
	HeroCharges  int          `json:"hero_charges,omitempty"`
	Statuses     []Status     `json:"statuses,omitempty"`
	EffectTags   []string     `json:"effect_tags,omitempty"`
	EffectParams EffectParams `json:"effect_params,omitempty"`
	HeroData     *HeroData    `json:"hero_data,omitempty"`
}

// NewInstance creates a runtime card instance from a definition. Base stats
// are copied, hero data and effect params are carried over unmodified, and
// the instance starts face-down and unable to attack. The dispatcher flips
// these flags for tribute summons and heroes.
func NewInstance(def *CardDefinition, owner int) *CardInstance {
	inst := &CardInstance{
		InstanceID:   uuid.NewString(),
		Code:         def.Code,
		Name:         def.Name,
		Type:         def.Type,
		Stars:        def.Stars,
		Owner:        owner,
		ATK:          def.ATK,
		HP:           def.HP,
		MaxHP:        def.HP,
		Element:      def.Element,
		FaceDown:     true,
		CanAttack:    false,
		EffectTags:   append([]string(nil), def.EffectTags...),
		EffectParams: def.EffectParams,
		HeroData:     def.HeroData,
	}
	if def.IsHero() && def.HeroData != nil {
		inst.HeroCharges = def.HeroData.StartCharges
	}
	return inst
}

// IsMonster reports whether this instance occupies monster zones.
func (c *CardInstance) IsMonster() bool { return c.Type == CardTypeMonster }

// IsHero reports whether this instance belongs in the hero zone.
func (c *CardInstance) IsHero() bool { return c.Type == CardTypeHero || c.Stars == 6 }

// StatusByCode returns the status with the given code, if present.
func (c *CardInstance) StatusByCode(code string) (Status, bool) {
	for _, s := range c.Statuses {
		if s.Code == code {
			return s, true
		}
	}
	return Status{}, false
}

// HasStatus reports whether a status with the given code is present.
func (c *CardInstance) HasStatus(code string) bool {
	for _, s := range c.Statuses {
		if s.Code == code {
			return true
		}
	}
	return false
}

// AddStatus appends a status unless one with the same code already exists.
// Application is blocked while the instance carries STATUS_IMMUNE, except
// for STATUS_IMMUNE itself.
func (c *CardInstance) AddStatus(s Status) bool {
	if c.HasStatus(StatusImmune) && s.Code != StatusImmune {
		return false
	}
	if c.HasStatus(s.Code) {
		return false
	}
	c.Statuses = append(c.Statuses, s)
	return true
}

// RemoveStatus deletes every status with the given code.
func (c *CardInstance) RemoveStatus(code string) {
	kept := c.Statuses[:0]
	for _, s := range c.Statuses {
		if s.Code != code {
			kept = append(kept, s)
		}
	}
	c.Statuses = kept
	if len(c.Statuses) == 0 {
		c.Statuses = nil
	}
}

// TriggerKeyword returns the reactive trigger string declared in the card's
// effect data, or "" for non-reactive cards.
func (c *CardInstance) TriggerKeyword() string {
	return c.EffectParams.Trigger
}
