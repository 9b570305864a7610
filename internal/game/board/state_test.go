package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatch() *MatchState {
	return &MatchState{
		MatchID:       "m-1",
		Mode:          ModePVP,
		Turn:          1,
		CurrentPlayer: 1,
		Phase:         PhaseMain,
		Status:        StatusActive,
		Players: map[int]*PlayerState{
			1: NewPlayerState(1, "Alice"),
			2: NewPlayerState(2, "Bob"),
		},
	}
}

func TestOpponentIndex(t *testing.T) {
	assert.Equal(t, 2, OpponentIndex(1))
	assert.Equal(t, 1, OpponentIndex(2))
}

func TestFindMonster(t *testing.T) {
	m := testMatch()
	card := NewInstance(monsterDef("M1", 2, 50, 50), 2)
	require.NoError(t, m.Player(2).PlaceMonster(3, card))

	found, owner, zone, ok := m.FindMonster(card.InstanceID)
	require.True(t, ok)
	assert.Equal(t, card.InstanceID, found.InstanceID)
	assert.Equal(t, 2, owner)
	assert.Equal(t, 3, zone)

	_, _, _, ok = m.FindMonster("missing")
	assert.False(t, ok)
}

func TestFindMonsterExcludesHero(t *testing.T) {
	m := testMatch()
	hero := NewInstance(monsterDef("H", 6, 0, 400), 1)
	m.Player(1).Hero = hero

	_, _, _, ok := m.FindMonster(hero.InstanceID)
	assert.False(t, ok, "hero zone is not a monster zone")
}

func TestDestroyMonster(t *testing.T) {
	m := testMatch()
	card := NewInstance(monsterDef("M1", 2, 50, 50), 1)
	require.NoError(t, m.Player(1).PlaceMonster(0, card))

	destroyed, err := m.DestroyMonster(1, 0)
	require.NoError(t, err)
	assert.Equal(t, card.InstanceID, destroyed.InstanceID)
	assert.Nil(t, m.Player(1).MonsterZones[0])
	require.Len(t, m.Player(1).Graveyard, 1)
	assert.Equal(t, card.InstanceID, m.Player(1).Graveyard[0].InstanceID)
}

func TestTickStatusesDecrementsAndExpires(t *testing.T) {
	m := testMatch()
	card := NewInstance(monsterDef("M1", 2, 50, 50), 1)
	require.NoError(t, m.Player(1).PlaceMonster(0, card))
	card.AddStatus(Status{Code: StatusFrozen, Remaining: 2, OnExpire: StatusImmune})

	records := m.TickStatuses(1)
	assert.Empty(t, records)
	assert.True(t, card.HasStatus(StatusFrozen))

	records = m.TickStatuses(1)
	require.Len(t, records, 1)
	assert.Equal(t, LogStatusExpired, records[0].Type)
	assert.Equal(t, StatusFrozen, records[0].StatusCode)
	assert.False(t, card.HasStatus(StatusFrozen))
	assert.True(t, card.HasStatus(StatusImmune), "expiry applies the follow-up status")
}

func TestTickStatusesPermanentUntouched(t *testing.T) {
	m := testMatch()
	card := NewInstance(monsterDef("M1", 2, 50, 50), 1)
	require.NoError(t, m.Player(1).PlaceMonster(0, card))
	card.AddStatus(Status{Code: "POISON", Magnitude: 10})

	for i := 0; i < 3; i++ {
		assert.Empty(t, m.TickStatuses(1))
	}
	assert.True(t, card.HasStatus("POISON"))
}

func TestTickStatusesIncludesHero(t *testing.T) {
	m := testMatch()
	hero := NewInstance(monsterDef("H", 6, 0, 400), 1)
	m.Player(1).Hero = hero
	hero.AddStatus(Status{Code: StatusFrozen, Remaining: 1})

	records := m.TickStatuses(1)
	require.Len(t, records, 1)
	assert.Equal(t, hero.InstanceID, records[0].Card)
}
