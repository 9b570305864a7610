package game

import (
	"github.com/mitchellh/mapstructure"
)

// ActionKind identifies one of the dispatcher's action transitions.
type ActionKind string

const (
	ActionPlayMonster     ActionKind = "PLAY_MONSTER"
	ActionPlaySpell       ActionKind = "PLAY_SPELL"
	ActionPlayTrap        ActionKind = "PLAY_TRAP"
	ActionActivateTrap    ActionKind = "ACTIVATE_TRAP"
	ActionActivateHero    ActionKind = "ACTIVATE_HERO_ABILITY"
	ActionAttackMonster   ActionKind = "ATTACK_MONSTER"
	ActionAttackPlayer    ActionKind = "ATTACK_PLAYER"
	ActionEndTurn         ActionKind = "END_TURN"
)

// Action is one requested transition: the kind plus its raw payload as the
// caller submitted it. The payload map is decoded into the kind's typed
// struct during validation and is carried verbatim through trigger
// suspension.
type Action struct {
	Kind    ActionKind     `json:"action" mapstructure:"action"`
	Payload map[string]any `json:"payload" mapstructure:"payload"`
}

// PlayMonsterPayload summons a monster or hero from hand.
type PlayMonsterPayload struct {
	CardInstanceID string   `json:"card_instance_id" mapstructure:"card_instance_id"`
	ZoneIndex      int      `json:"zone_index" mapstructure:"zone_index"`
	Tributes       []string `json:"tribute_instance_ids" mapstructure:"tribute_instance_ids"`
}

// PlaySpellPayload casts a spell from hand against an optional target.
type PlaySpellPayload struct {
	CardInstanceID   string `json:"card_instance_id" mapstructure:"card_instance_id"`
	TargetPlayer     int    `json:"target_player_index" mapstructure:"target_player_index"`
	TargetMonsterID  string `json:"target_monster_instance_id" mapstructure:"target_monster_instance_id"`
}

// PlayTrapPayload sets a trap face-down from hand.
type PlayTrapPayload struct {
	CardInstanceID string `json:"card_instance_id" mapstructure:"card_instance_id"`
	ZoneIndex      *int   `json:"zone_index,omitempty" mapstructure:"zone_index"`
}

// ActivateTrapPayload fires a trap already set on the field.
type ActivateTrapPayload struct {
	TrapInstanceID  string `json:"trap_instance_id" mapstructure:"trap_instance_id"`
	TargetPlayer    int    `json:"target_player_index" mapstructure:"target_player_index"`
	TargetMonsterID string `json:"target_monster_instance_id" mapstructure:"target_monster_instance_id"`
}

// ActivateHeroPayload triggers the hero's active ability. Targets are
// optional; the dispatcher auto-targets when both are empty.
type ActivateHeroPayload struct {
	TargetPlayer    int    `json:"target_player_index" mapstructure:"target_player_index"`
	TargetMonsterID string `json:"target_monster_instance_id" mapstructure:"target_monster_instance_id"`
}

// AttackMonsterPayload declares combat between two monsters.
type AttackMonsterPayload struct {
	AttackerInstanceID string `json:"attacker_instance_id" mapstructure:"attacker_instance_id"`
	TargetInstanceID   string `json:"target_instance_id" mapstructure:"target_instance_id"`
}

// AttackPlayerPayload declares a direct attack on the defending player.
type AttackPlayerPayload struct {
	AttackerInstanceID string `json:"attacker_instance_id" mapstructure:"attacker_instance_id"`
}

// decodePayload maps a raw payload into a typed struct. Unknown keys are
// ignored so clients can carry extra UI fields without breaking validation.
func decodePayload(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return ruleErr(ErrActionNotAllowed, "malformed action payload", map[string]string{
			"error": err.Error(),
		})
	}
	return nil
}
