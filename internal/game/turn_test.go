package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

func TestEndTurnSwitchesPlayerAndDrawsTwo(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	handBefore := len(state.Player(2).Hand)

	passTurn(t, e, "test-match", 1)

	assert.Equal(t, 2, state.Turn)
	assert.Equal(t, 2, state.CurrentPlayer)
	assert.Len(t, state.Player(2).Hand, handBefore+2)
}

func TestEndTurnResetsCountersAndAttacks(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	p2 := state.Player(2)
	p2.Counters = board.TurnCounters{SummonsUsed: 1, SpellTrapUsed: 1, HeroAbilityUsed: 1}
	p2.AttackedThisTurn = []string{"x"}

	passTurn(t, e, "test-match", 1)

	assert.Equal(t, board.TurnCounters{}, p2.Counters)
	assert.Nil(t, p2.AttackedThisTurn)
}

func TestEndTurnFlipsMonstersSetEarlier(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	card := giveCard(t, state, 1, &board.CardDefinition{
		Code: "M1", Type: board.CardTypeMonster, Stars: 2, ATK: 60, HP: 50,
	})
	_, err := e.ApplyAction("test-match", 1, playMonster(card.InstanceID, 0))
	require.NoError(t, err)
	placed := state.Player(1).MonsterZones[0]
	require.True(t, placed.FaceDown)

	// Still face down at the start of the opponent's turn.
	passTurn(t, e, "test-match", 1)
	assert.True(t, placed.FaceDown)

	// Flips when its controller's turn comes back.
	passTurn(t, e, "test-match", 2)
	assert.False(t, placed.FaceDown)
	assert.True(t, placed.CanAttack)
}

func TestEndTurnRefreshesAttackPermission(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	attacker := putMonster(t, state, 1, 0, 3, 10, 500)
	defender := putMonster(t, state, 2, 0, 3, 10, 500)

	_, err := e.ApplyAction("test-match", 1, attackMonsterAction(attacker.InstanceID, defender.InstanceID))
	require.NoError(t, err)
	require.True(t, state.Player(1).HasAttacked(attacker.InstanceID))

	passTurn(t, e, "test-match", 1)
	passTurn(t, e, "test-match", 2)

	assert.False(t, state.Player(1).HasAttacked(attacker.InstanceID))
	_, err = e.ApplyAction("test-match", 1, attackMonsterAction(attacker.InstanceID, defender.InstanceID))
	require.NoError(t, err)
}

func TestEndTurnFrozenStaysUnableToAttack(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	frozen := putMonster(t, state, 2, 0, 3, 50, 80)
	frozen.AddStatus(board.Status{Code: board.StatusFrozen, Remaining: 2})
	frozen.CanAttack = false

	passTurn(t, e, "test-match", 1)
	assert.False(t, frozen.CanAttack, "frozen monster skips the refresh")
	assert.True(t, frozen.HasStatus(board.StatusFrozen))

	// One more round expires the freeze and rotates in immunity.
	passTurn(t, e, "test-match", 2)
	passTurn(t, e, "test-match", 1)
	assert.False(t, frozen.HasStatus(board.StatusFrozen))
	assert.True(t, frozen.HasStatus(board.StatusImmune))
}

func TestEndTurnFreezeExpiryFreesAttackSameTurn(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	frozen := putMonster(t, state, 2, 0, 3, 50, 80)
	frozen.AddStatus(board.Status{Code: board.StatusFrozen, Remaining: 2, OnExpire: board.StatusImmune})
	frozen.CanAttack = false

	passTurn(t, e, "test-match", 1)
	assert.False(t, frozen.CanAttack)
	passTurn(t, e, "test-match", 2)

	// The freeze expires at the start of this turn; the refresh must see the
	// status already gone and let the monster act immediately.
	passTurn(t, e, "test-match", 1)
	assert.True(t, frozen.CanAttack)
	_, err := e.ApplyAction("test-match", 2, attackPlayerAction(frozen.InstanceID))
	require.NoError(t, err)
}

func TestEndTurnGrantsHeroCharge(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	hero := board.NewInstance(heroDef(&board.HeroData{StartCharges: 1}), 2)
	hero.FaceDown = false
	state.Player(2).Hero = hero

	passTurn(t, e, "test-match", 1)
	assert.Equal(t, 2, hero.HeroCharges)
}

func TestEndTurnDrawReshufflesGraveyard(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	p2 := state.Player(2)
	p2.Graveyard = append(p2.Graveyard, p2.Deck...)
	p2.Deck = nil

	passTurn(t, e, "test-match", 1)

	assert.Empty(t, p2.Graveyard)
	last := state.Log[len(state.Log)-1]
	assert.Equal(t, board.LogDrawCards, last.Type)
	require.NotEmpty(t, last.Effects)
	assert.Equal(t, "GRAVEYARD_RESHUFFLED", last.Effects[0].Reason)
}

func TestEndTurnBothPilesEmptySkipsDraw(t *testing.T) {
	e := newTestEngine(t)
	state := startTestMatch(t, e)
	p2 := state.Player(2)
	p2.Deck = nil
	handBefore := len(p2.Hand)

	passTurn(t, e, "test-match", 1)

	assert.Len(t, p2.Hand, handBefore)
	last := state.Log[len(state.Log)-1]
	assert.Equal(t, board.LogDrawCards, last.Type)
	assert.Equal(t, 0, last.Amount)
}
