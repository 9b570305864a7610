package rules

import (
	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/game/effects"
)

// TriggerOffer describes a reactive trap the engine found while validating an
// action. The match suspends until the trap's controller answers; the token
// must be echoed back on resume.
type TriggerOffer struct {
	Token        string                `json:"trigger_token"`
	PlayerIndex  int                   `json:"player_index"`
	TrapInstance string                `json:"trap_instance_id"`
	TrapName     string                `json:"trap_name"`
	TrapZone     int                   `json:"trap_zone"`
	Trigger      string                `json:"trigger"`
	Event        effects.TriggerEvent  `json:"event"`
}

// eventTriggers maps a trigger event kind to the trap trigger keyword that
// reacts to it.
var eventTriggers = map[string]string{
	effects.EventSpellCast:       board.TriggerIncomingSpell,
	effects.EventStatusIncoming:  board.TriggerIncomingStatus,
	effects.EventMonsterSummoned: board.TriggerMonsterSummoned,
	effects.EventAttackDeclared:  board.TriggerAttackDeclared,
	effects.EventAllyWouldDie:    board.TriggerAllyWouldDie,
}

// FindReactiveTrap scans the reacting player's spell/trap zones for a
// face-down trap whose declared trigger matches the event. Zones are scanned
// in index order so the lowest-index trap wins when several match.
func FindReactiveTrap(state *board.MatchState, reactingPlayer int, event effects.TriggerEvent) (*board.CardInstance, int, bool) {
	trigger, ok := eventTriggers[event.Kind]
	if !ok {
		return nil, 0, false
	}
	p := state.Player(reactingPlayer)
	for zone, card := range p.SpellTrapZones {
		if card == nil || !card.FaceDown || card.Type != board.CardTypeTrap {
			continue
		}
		if card.TriggerKeyword() == trigger {
			return card, zone, true
		}
	}
	return nil, 0, false
}
