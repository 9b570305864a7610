package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

func TestPlayMonsterLowStarFaceDown(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	card := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M1", Name: "whelp", Type: board.CardTypeMonster, Stars: 2, ATK: 60, HP: 50,
	})

	_, err := e.ApplyAction("test-match", 1, playMonster(card.InstanceID, 0))
	require.NoError(t, err)

	placed := state.Player(1).MonsterZones[0]
	require.NotNil(t, placed)
	assert.True(t, placed.FaceDown)
	assert.False(t, placed.CanAttack)
	assert.Equal(t, 1, placed.SummonedTurn)
	assert.Equal(t, 1, state.Player(1).Counters.SummonsUsed)
}

func TestPlayMonsterSummonBudgetPerTurn(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	first := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M1", Type: board.CardTypeMonster, Stars: 1, ATK: 10, HP: 10,
	})
	second := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M2", Type: board.CardTypeMonster, Stars: 1, ATK: 10, HP: 10,
	})

	_, err := e.ApplyAction("test-match", 1, playMonster(first.InstanceID, 0))
	require.NoError(t, err)

	_, err = e.ApplyAction("test-match", 1, playMonster(second.InstanceID, 1))
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	// The budget resets once the turn comes back around.
	passTurn(t, e, "test-match", 1)
	passTurn(t, e, "test-match", 2)
	_, err = e.ApplyAction("test-match", 1, playMonster(second.InstanceID, 1))
	require.NoError(t, err)
}

func TestPlayMonsterTributeSummon(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	tribute := putMonster(t, state, 1, 0, 2, 50, 50)
	big := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M5", Name: "colossus", Type: board.CardTypeMonster, Stars: 4, ATK: 180, HP: 200,
	})

	_, err := e.ApplyAction("test-match", 1, playMonster(big.InstanceID, 0, tribute.InstanceID))
	require.NoError(t, err)

	placed := state.Player(1).MonsterZones[0]
	require.NotNil(t, placed)
	assert.Equal(t, big.InstanceID, placed.InstanceID)
	assert.False(t, placed.FaceDown, "tribute summons arrive face up")
	assert.True(t, placed.CanAttack)

	// Tribute moved to the graveyard.
	require.Len(t, state.Player(1).Graveyard, 1)
	assert.Equal(t, tribute.InstanceID, state.Player(1).Graveyard[0].InstanceID)
}

func TestPlayMonsterWrongTributeCount(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	big := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M5", Type: board.CardTypeMonster, Stars: 5, ATK: 250, HP: 280,
	})

	_, err := e.ApplyAction("test-match", 1, playMonster(big.InstanceID, 0))
	assert.ErrorIs(t, err, ErrInvalidTribute)
}

func TestPlayMonsterZoneOccupied(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	putMonster(t, state, 1, 0, 2, 50, 50)
	card := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M1", Type: board.CardTypeMonster, Stars: 1, ATK: 10, HP: 10,
	})

	_, err := e.ApplyAction("test-match", 1, playMonster(card.InstanceID, 0))
	assert.ErrorIs(t, err, ErrZoneOccupied)
}

func TestPlayMonsterNotYourTurn(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	card := giveCard(t, state, 2, &board.CardDefinition{
		Code: "M1", Type: board.CardTypeMonster, Stars: 1, ATK: 10, HP: 10,
	})

	_, err := e.ApplyAction("test-match", 2, playMonster(card.InstanceID, 0))
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestPlayHeroEntersHeroZoneWithAura(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	a := putMonster(t, state, 1, 0, 2, 50, 50)
	b := putMonster(t, state, 1, 1, 2, 70, 90)
	heroCard := giveCard(t, state, 1, heroDef(&board.HeroData{
		PassiveAura:  &board.PassiveAura{ATKBonus: 30},
		StartCharges: 1,
	}))

	_, err := e.ApplyAction("test-match", 1, playMonster(heroCard.InstanceID, 0, a.InstanceID, b.InstanceID))
	require.NoError(t, err)

	p := state.Player(1)
	require.NotNil(t, p.Hero)
	assert.Equal(t, heroCard.InstanceID, p.Hero.InstanceID)
	assert.False(t, p.Hero.FaceDown)
	assert.False(t, p.Hero.CanAttack, "heroes never attack")
	assert.Len(t, p.Graveyard, 2)
	assert.Equal(t, 0, p.MonsterCount(), "both tributes left the field")
}

func TestHeroAuraBuffsExistingAndLaterMonsters(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	existing := putMonster(t, state, 1, 0, 2, 50, 50)
	second := putMonster(t, state, 1, 1, 2, 40, 40)
	heroCard := giveCard(t, state, 1, heroDef(&board.HeroData{
		PassiveAura: &board.PassiveAura{ATKBonus: 30, HPBonus: 20},
	}))

	_, err := e.ApplyAction("test-match", 1, playMonster(heroCard.InstanceID, 0, existing.InstanceID, second.InstanceID))
	require.NoError(t, err)

	// Field is empty now; summon a new monster under the aura next turn.
	passTurn(t, e, "test-match", 1)
	passTurn(t, e, "test-match", 2)
	later := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M1", Type: board.CardTypeMonster, Stars: 1, ATK: 60, HP: 50,
	})
	_, err = e.ApplyAction("test-match", 1, playMonster(later.InstanceID, 0))
	require.NoError(t, err)

	placed := state.Player(1).MonsterZones[0]
	assert.Equal(t, 90, placed.ATK)
	assert.Equal(t, 70, placed.HP)
	assert.Equal(t, 70, placed.MaxHP)
}

func TestPlaySpellResolvesAndGraveyards(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	target := putMonster(t, state, 2, 0, 2, 50, 80)
	spell := giveCard(t, state, 1, spellDef(board.Effect{
		Keyword: "SPELL_DAMAGE_MONSTER",
		Target:  "ENEMY_MONSTER",
		Amount:  50,
	}))

	res, err := e.ApplyAction("test-match", 1, Action{
		Kind: ActionPlaySpell,
		Payload: map[string]any{
			"card_instance_id":           spell.InstanceID,
			"target_player_index":        2,
			"target_monster_instance_id": target.InstanceID,
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.PendingTrigger)

	assert.Equal(t, 30, target.HP)
	assert.Equal(t, 1, state.Player(1).Counters.SpellTrapUsed)
	require.Len(t, state.Player(1).Graveyard, 1)
	assert.Equal(t, spell.InstanceID, state.Player(1).Graveyard[0].InstanceID)
}

func TestPlaySpellSharedBudgetWithTraps(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	trap := giveCard(t, state, 1, &board.CardDefinition{
		Code: "T1", Type: board.CardTypeTrap,
		EffectParams: board.EffectParams{
			Trigger: board.TriggerIncomingSpell,
			Effects: []board.Effect{{Keyword: "TRAP_COUNTER_SPELL"}},
		},
	})
	spell := giveCard(t, state, 1, spellDef(board.Effect{
		Keyword: "SPELL_DAMAGE_PLAYER", Amount: 100,
	}))

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind:    ActionPlayTrap,
		Payload: map[string]any{"card_instance_id": trap.InstanceID},
	})
	require.NoError(t, err)

	_, err = e.ApplyAction("test-match", 1, Action{
		Kind:    ActionPlaySpell,
		Payload: map[string]any{"card_instance_id": spell.InstanceID},
	})
	assert.ErrorIs(t, err, ErrActionNotAllowed, "spell and trap share one budget")
}

func TestPlaySpellEnemyTargetDomain(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	own := putMonster(t, state, 1, 0, 2, 50, 80)
	spell := giveCard(t, state, 1, spellDef(board.Effect{
		Keyword: "SPELL_DAMAGE_MONSTER",
		Target:  "ENEMY_MONSTER",
		Amount:  50,
	}))

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind: ActionPlaySpell,
		Payload: map[string]any{
			"card_instance_id":           spell.InstanceID,
			"target_monster_instance_id": own.InstanceID,
		},
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, 0, state.Player(1).Counters.SpellTrapUsed, "rejected action costs nothing")
}

func TestPlayTrapDefaultsToLowestZone(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	putTrap(t, state, 1, 0, board.TriggerAttackDeclared, board.Effect{Keyword: "TRAP_NEGATE_ATTACK"})
	trap := giveCard(t, state, 1, &board.CardDefinition{
		Code: "T1", Type: board.CardTypeTrap,
		EffectParams: board.EffectParams{
			Trigger: board.TriggerIncomingSpell,
			Effects: []board.Effect{{Keyword: "TRAP_COUNTER_SPELL"}},
		},
	})

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind:    ActionPlayTrap,
		Payload: map[string]any{"card_instance_id": trap.InstanceID},
	})
	require.NoError(t, err)

	placed := state.Player(1).SpellTrapZones[1]
	require.NotNil(t, placed)
	assert.Equal(t, trap.InstanceID, placed.InstanceID)
	assert.True(t, placed.FaceDown)
}

func TestActivateSetTrapManually(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	trap := putTrap(t, state, 1, 0, "", board.Effect{
		Keyword: "SPELL_DAMAGE_PLAYER", Amount: 150,
	})
	state.Player(1).Counters.SpellTrapUsed = 1 // already spent this turn

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind:    ActionActivateTrap,
		Payload: map[string]any{"trap_instance_id": trap.InstanceID},
	})
	require.NoError(t, err, "manual activation ignores the set budget")

	assert.Equal(t, 1500-150, state.Player(2).HP)
	assert.Nil(t, state.Player(1).SpellTrapZones[0])
	require.Len(t, state.Player(1).Graveyard, 1)
}

func TestActivateHeroAutoTargetsFirstEnemyMonster(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	enemy := putMonster(t, state, 2, 1, 2, 50, 80)
	hero := board.NewInstance(heroDef(&board.HeroData{
		ActiveAbility: []board.Effect{{Keyword: "HERO_ACTIVE_DAMAGE", Amount: 100}},
	}), 1)
	hero.FaceDown = false
	state.Player(1).Hero = hero

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind:    ActionActivateHero,
		Payload: map[string]any{},
	})
	require.NoError(t, err)

	// 100 damage against 80 HP: destroyed, 20 overflow to the controller.
	assert.Nil(t, state.Player(2).MonsterZones[1])
	assert.Equal(t, 1500-20, state.Player(2).HP)
	assert.Equal(t, 1, state.Player(1).Counters.HeroAbilityUsed)
	_ = enemy
}

func TestActivateHeroFallbackDamage(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	hero := board.NewInstance(heroDef(nil), 1)
	hero.FaceDown = false
	state.Player(1).Hero = hero

	_, err := e.ApplyAction("test-match", 1, Action{
		Kind:    ActionActivateHero,
		Payload: map[string]any{},
	})
	require.NoError(t, err)
	assert.Equal(t, 1500-100, state.Player(2).HP)

	// The log names the fallback tier.
	last := state.Log[len(state.Log)-1]
	require.NotEmpty(t, last.Effects)
	assert.Equal(t, "HERO_ABILITY_SOURCE", last.Effects[0].Type)
	assert.True(t, last.Effects[0].Fallback)
}

func TestActivateHeroOncePerTurn(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	hero := board.NewInstance(heroDef(&board.HeroData{
		ActiveAbility: []board.Effect{{Keyword: "HERO_ACTIVE_DAMAGE", Amount: 10}},
	}), 1)
	hero.FaceDown = false
	state.Player(1).Hero = hero

	_, err := e.ApplyAction("test-match", 1, Action{Kind: ActionActivateHero, Payload: map[string]any{}})
	require.NoError(t, err)
	_, err = e.ApplyAction("test-match", 1, Action{Kind: ActionActivateHero, Payload: map[string]any{}})
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}

func TestUnknownActionKind(t *testing.T) {
	e := newTestEngine(t)
	startTestMatch(t, e)

	_, err := e.ApplyAction("test-match", 1, Action{Kind: "DISCARD_HAND"})
	assert.ErrorIs(t, err, ErrActionNotAllowed)
}
