package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(zaptest.NewLogger(t), Options{})
}

func fillerDeck(n int) []*board.CardDefinition {
	deck := make([]*board.CardDefinition, 0, n)
	for i := 0; i < n; i++ {
		deck = append(deck, &board.CardDefinition{
			Code:  "FILLER",
			Name:  "filler",
			Type:  board.CardTypeMonster,
			Stars: 1,
			ATK:   10,
			HP:    10,
		})
	}
	return deck
}

// startTestMatch starts a PVP match with filler decks and a fixed seed. Tests
// shape the board directly through the returned live state.
func startTestMatch(t *testing.T, e *Engine) *board.MatchState {
	t.Helper()
	state, err := e.StartMatch("test-match", board.ModePVP,
		PlayerSetup{Name: "Alice", Deck: fillerDeck(12)},
		PlayerSetup{Name: "Bob", Deck: fillerDeck(12)},
		1,
	)
	require.NoError(t, err)
	return state
}

// giveCard puts a fresh instance of the definition into the player's hand.
func giveCard(t *testing.T, state *board.MatchState, player int, def *board.CardDefinition) *board.CardInstance {
	t.Helper()
	card := board.NewInstance(def, player)
	state.Player(player).Hand = append(state.Player(player).Hand, card)
	return card
}

// putMonster places a battle-ready monster directly onto the field.
func putMonster(t *testing.T, state *board.MatchState, player, zone, stars, atk, hp int) *board.CardInstance {
	t.Helper()
	card := board.NewInstance(&board.CardDefinition{
		Code:  "FIELD",
		Name:  "field monster",
		Type:  board.CardTypeMonster,
		Stars: stars,
		ATK:   atk,
		HP:    hp,
	}, player)
	card.FaceDown = false
	card.CanAttack = true
	require.NoError(t, state.Player(player).PlaceMonster(zone, card))
	return card
}

// putTrap sets a face-down reactive trap directly into a spell/trap zone.
func putTrap(t *testing.T, state *board.MatchState, player, zone int, trigger string, effs ...board.Effect) *board.CardInstance {
	t.Helper()
	card := board.NewInstance(&board.CardDefinition{
		Code: "TRAP",
		Name: "trap",
		Type: board.CardTypeTrap,
		EffectParams: board.EffectParams{
			Trigger: trigger,
			Effects: effs,
		},
	}, player)
	card.FaceDown = true
	require.NoError(t, state.Player(player).PlaceSpellTrap(zone, card))
	return card
}

func spellDef(effs ...board.Effect) *board.CardDefinition {
	return &board.CardDefinition{
		Code: "SPELL",
		Name: "spell",
		Type: board.CardTypeSpell,
		EffectParams: board.EffectParams{
			Effects: effs,
		},
	}
}

func heroDef(data *board.HeroData) *board.CardDefinition {
	return &board.CardDefinition{
		Code:     "HERO",
		Name:     "hero",
		Type:     board.CardTypeHero,
		Stars:    6,
		HP:       400,
		HeroData: data,
	}
}

func playMonster(id string, zone int, tributes ...string) Action {
	payload := map[string]any{
		"card_instance_id": id,
		"zone_index":       zone,
	}
	if len(tributes) > 0 {
		payload["tribute_instance_ids"] = tributes
	}
	return Action{Kind: ActionPlayMonster, Payload: payload}
}

func endTurnAction() Action {
	return Action{Kind: ActionEndTurn}
}

// passTurn ends the current player's turn and asserts it succeeded.
func passTurn(t *testing.T, e *Engine, matchID string, player int) {
	t.Helper()
	_, err := e.ApplyAction(matchID, player, endTurnAction())
	require.NoError(t, err)
}
