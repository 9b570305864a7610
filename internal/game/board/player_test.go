package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNewPlayerStateZones(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	assert.Equal(t, StartingHP, p.HP)
	assert.Len(t, p.MonsterZones, MonsterZoneCount)
	assert.Len(t, p.SpellTrapZones, SpellTrapZoneCount)
	assert.True(t, p.Alive())
}

func TestPlaceAndRemoveMonster(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	card := NewInstance(monsterDef("M1", 2, 50, 50), 1)

	require.NoError(t, p.PlaceMonster(1, card))
	assert.Equal(t, 1, p.MonsterZoneIndex(card.InstanceID))
	assert.Equal(t, 1, p.MonsterCount())

	err := p.PlaceMonster(1, NewInstance(monsterDef("M2", 2, 50, 50), 1))
	assert.ErrorIs(t, err, ErrZoneOccupied)

	err = p.PlaceMonster(MonsterZoneCount, card)
	assert.ErrorIs(t, err, ErrInvalidZone)

	removed, err := p.RemoveMonster(1)
	require.NoError(t, err)
	assert.Equal(t, card.InstanceID, removed.InstanceID)

	_, err = p.RemoveMonster(1)
	assert.ErrorIs(t, err, ErrZoneEmpty)
}

func TestEmptyZoneLowestIndex(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	require.NoError(t, p.PlaceMonster(0, NewInstance(monsterDef("M1", 1, 1, 1), 1)))
	require.NoError(t, p.PlaceMonster(2, NewInstance(monsterDef("M2", 1, 1, 1), 1)))
	assert.Equal(t, 1, p.EmptyMonsterZone())

	assert.Equal(t, 0, p.EmptySpellTrapZone())
}

func TestRemoveFromHand(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	a := NewInstance(monsterDef("A", 1, 1, 1), 1)
	b := NewInstance(monsterDef("B", 1, 1, 1), 1)
	p.Hand = []*CardInstance{a, b}

	card, err := p.RemoveFromHand(a.InstanceID)
	require.NoError(t, err)
	assert.Equal(t, a.InstanceID, card.InstanceID)
	assert.Equal(t, -1, p.HandIndex(a.InstanceID))
	assert.Len(t, p.Hand, 1)

	_, err = p.RemoveFromHand("missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestApplyDamageFloorsAtZero(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	before, after := p.ApplyDamage(200)
	assert.Equal(t, StartingHP, before)
	assert.Equal(t, StartingHP-200, after)

	p.HP = 100
	_, after = p.ApplyDamage(500)
	assert.Equal(t, 0, after)
	assert.False(t, p.Alive())
}

func TestHealHasNoCeiling(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	before, after := p.Heal(300)
	assert.Equal(t, StartingHP, before)
	assert.Equal(t, StartingHP+300, after)
}

func TestDrawFromDeck(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	for i := 0; i < 3; i++ {
		p.Deck = append(p.Deck, NewInstance(monsterDef("M", 1, 1, 1), 1))
	}

	drawn, reshuffled := p.Draw(2, testRNG())
	assert.Len(t, drawn, 2)
	assert.False(t, reshuffled)
	assert.Len(t, p.Hand, 2)
	assert.Len(t, p.Deck, 1)
}

func TestDrawReshufflesGraveyard(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	p.Deck = []*CardInstance{NewInstance(monsterDef("M", 1, 1, 1), 1)}
	for i := 0; i < 4; i++ {
		p.Graveyard = append(p.Graveyard, NewInstance(monsterDef("G", 1, 1, 1), 1))
	}

	drawn, reshuffled := p.Draw(2, testRNG())
	require.Len(t, drawn, 2)
	assert.True(t, reshuffled)
	assert.Empty(t, p.Graveyard)
	assert.Len(t, p.Deck, 3)
}

func TestDrawSkipsSilentlyWhenExhausted(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	p.Deck = []*CardInstance{NewInstance(monsterDef("M", 1, 1, 1), 1)}

	drawn, reshuffled := p.Draw(2, testRNG())
	assert.Len(t, drawn, 1)
	assert.False(t, reshuffled)
	assert.Empty(t, p.Deck)

	drawn, _ = p.Draw(2, testRNG())
	assert.Empty(t, drawn)
}

func TestAttackTracking(t *testing.T) {
	p := NewPlayerState(1, "Alice")
	assert.False(t, p.HasAttacked("x"))
	p.MarkAttacked("x")
	p.MarkAttacked("x")
	assert.True(t, p.HasAttacked("x"))
	assert.Len(t, p.AttackedThisTurn, 1)
}
