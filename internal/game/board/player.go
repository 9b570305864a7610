package board

import (
	"fmt"
	"math/rand"
)

// Zone array sizes. A zone holds at most one card instance.
const (
	MonsterZoneCount   = 4
	SpellTrapZoneCount = 4
)

// StartingHP is each player's initial hit points.
const StartingHP = 1500

// TurnCounters tracks the per-turn action budget for one player. All fields
// reset exactly once, at the start of that player's turn.
type TurnCounters struct {
	SummonsUsed     int `json:"summons_used"`
	SpellTrapUsed   int `json:"spell_trap_used"`
	HeroAbilityUsed int `json:"hero_ability_used"`
}

// PlayerState is the full runtime state for one player in a match.
type PlayerState struct {
	Index          int             `json:"player_index"`
	Name           string          `json:"name"`
	HP             int             `json:"hp"`
	Deck           []*CardInstance `json:"deck"`
	Hand           []*CardInstance `json:"hand"`
	MonsterZones   []*CardInstance `json:"monster_zones"`
	SpellTrapZones []*CardInstance `json:"spell_trap_zones"`
	Hero           *CardInstance   `json:"hero"`
	Graveyard      []*CardInstance `json:"graveyard"`
	Exile          []*CardInstance `json:"exile"`
	Counters       TurnCounters    `json:"counters"`
	AttackedThisTurn []string      `json:"attacked_this_turn,omitempty"`
}

// NewPlayerState creates an empty player state with fixed-size zone arrays.
func NewPlayerState(index int, name string) *PlayerState {
	return &PlayerState{
		Index:          index,
		Name:           name,
		HP:             StartingHP,
		MonsterZones:   make([]*CardInstance, MonsterZoneCount),
		SpellTrapZones: make([]*CardInstance, SpellTrapZoneCount),
	}
}

// Alive reports whether the player still has hit points.
func (p *PlayerState) Alive() bool { return p.HP > 0 }

// HandIndex returns the hand position of the given instance, or -1.
func (p *PlayerState) HandIndex(instanceID string) int {
	for i, c := range p.Hand {
		if c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// RemoveFromHand pops the instance out of the hand.
func (p *PlayerState) RemoveFromHand(instanceID string) (*CardInstance, error) {
	idx := p.HandIndex(instanceID)
	if idx < 0 {
		return nil, fmt.Errorf("hand: %w: %s", ErrInstanceNotFound, instanceID)
	}
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return card, nil
}

// MonsterZoneIndex returns the monster zone holding the instance, or -1.
func (p *PlayerState) MonsterZoneIndex(instanceID string) int {
	for i, c := range p.MonsterZones {
		if c != nil && c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// SpellTrapZoneIndex returns the spell/trap zone holding the instance, or -1.
func (p *PlayerState) SpellTrapZoneIndex(instanceID string) int {
	for i, c := range p.SpellTrapZones {
		if c != nil && c.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// EmptyMonsterZone returns the lowest empty monster zone index, or -1.
func (p *PlayerState) EmptyMonsterZone() int {
	for i, c := range p.MonsterZones {
		if c == nil {
			return i
		}
	}
	return -1
}

// EmptySpellTrapZone returns the lowest empty spell/trap zone index, or -1.
func (p *PlayerState) EmptySpellTrapZone() int {
	for i, c := range p.SpellTrapZones {
		if c == nil {
			return i
		}
	}
	return -1
}

// MonsterCount returns the number of occupied monster zones.
func (p *PlayerState) MonsterCount() int {
	n := 0
	for _, c := range p.MonsterZones {
		if c != nil {
			n++
		}
	}
	return n
}

// PlaceMonster puts the instance into the given monster zone.
func (p *PlayerState) PlaceMonster(zone int, card *CardInstance) error {
	if zone < 0 || zone >= len(p.MonsterZones) {
		return fmt.Errorf("monster zone %d: %w", zone, ErrInvalidZone)
	}
	if p.MonsterZones[zone] != nil {
		return fmt.Errorf("monster zone %d: %w", zone, ErrZoneOccupied)
	}
	p.MonsterZones[zone] = card
	return nil
}

// PlaceSpellTrap puts the instance into the given spell/trap zone.
func (p *PlayerState) PlaceSpellTrap(zone int, card *CardInstance) error {
	if zone < 0 || zone >= len(p.SpellTrapZones) {
		return fmt.Errorf("spell/trap zone %d: %w", zone, ErrInvalidZone)
	}
	if p.SpellTrapZones[zone] != nil {
		return fmt.Errorf("spell/trap zone %d: %w", zone, ErrZoneOccupied)
	}
	p.SpellTrapZones[zone] = card
	return nil
}

// RemoveMonster clears and returns the instance in the given monster zone.
func (p *PlayerState) RemoveMonster(zone int) (*CardInstance, error) {
	if zone < 0 || zone >= len(p.MonsterZones) {
		return nil, fmt.Errorf("monster zone %d: %w", zone, ErrInvalidZone)
	}
	card := p.MonsterZones[zone]
	if card == nil {
		return nil, fmt.Errorf("monster zone %d: %w", zone, ErrZoneEmpty)
	}
	p.MonsterZones[zone] = nil
	return card, nil
}

// RemoveSpellTrap clears and returns the instance in the given spell/trap zone.
func (p *PlayerState) RemoveSpellTrap(zone int) (*CardInstance, error) {
	if zone < 0 || zone >= len(p.SpellTrapZones) {
		return nil, fmt.Errorf("spell/trap zone %d: %w", zone, ErrInvalidZone)
	}
	card := p.SpellTrapZones[zone]
	if card == nil {
		return nil, fmt.Errorf("spell/trap zone %d: %w", zone, ErrZoneEmpty)
	}
	p.SpellTrapZones[zone] = nil
	return card, nil
}

// SendToGraveyard appends the instance to the graveyard.
func (p *PlayerState) SendToGraveyard(card *CardInstance) {
	p.Graveyard = append(p.Graveyard, card)
}

// ApplyDamage reduces HP by amount, floored at zero, and returns the
// before/after pair.
func (p *PlayerState) ApplyDamage(amount int) (before, after int) {
	before = p.HP
	if amount < 0 {
		amount = 0
	}
	after = before - amount
	if after < 0 {
		after = 0
	}
	p.HP = after
	return before, after
}

// Heal raises HP by amount. Player HP has no configured ceiling.
func (p *PlayerState) Heal(amount int) (before, after int) {
	before = p.HP
	if amount < 0 {
		amount = 0
	}
	after = before + amount
	p.HP = after
	return before, after
}

// Draw removes up to n cards from the top of the deck into the hand. When the
// deck runs out mid-draw, the graveyard is shuffled back into the deck and
// drawing continues. When both are empty the remaining draws are skipped
// silently. Returns the cards drawn and whether a reshuffle happened.
func (p *PlayerState) Draw(n int, rng *rand.Rand) (drawn []*CardInstance, reshuffled bool) {
	for i := 0; i < n; i++ {
		if len(p.Deck) == 0 {
			if len(p.Graveyard) == 0 {
				break
			}
			p.Deck = p.Graveyard
			p.Graveyard = nil
			rng.Shuffle(len(p.Deck), func(a, b int) {
				p.Deck[a], p.Deck[b] = p.Deck[b], p.Deck[a]
			})
			reshuffled = true
		}
		card := p.Deck[0]
		p.Deck = p.Deck[1:]
		p.Hand = append(p.Hand, card)
		drawn = append(drawn, card)
	}
	return drawn, reshuffled
}

// HasAttacked reports whether the instance already declared an attack this turn.
func (p *PlayerState) HasAttacked(instanceID string) bool {
	for _, id := range p.AttackedThisTurn {
		if id == instanceID {
			return true
		}
	}
	return false
}

// MarkAttacked records an attack declaration for this turn.
func (p *PlayerState) MarkAttacked(instanceID string) {
	if !p.HasAttacked(instanceID) {
		p.AttackedThisTurn = append(p.AttackedThisTurn, instanceID)
	}
}
