package rules

import (
	"fmt"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

// LegalityResult reports whether an action may proceed, with structured
// context so callers can correct and resubmit.
type LegalityResult struct {
	Legal   bool
	Code    string
	Reason  string
	Details map[string]string
}

// Violation codes. The engine maps these onto its typed error kinds.
const (
	CodeActionNotAllowed = "ACTION_NOT_ALLOWED"
	CodeMatchCompleted   = "MATCH_COMPLETED"
	CodeInvalidTribute   = "INVALID_TRIBUTE"
	CodeZoneOccupied     = "ZONE_OCCUPIED"
	CodeInvalidTarget    = "INVALID_TARGET"
	CodeInstanceNotFound = "INSTANCE_NOT_FOUND"
)

func legal() LegalityResult {
	return LegalityResult{Legal: true}
}

func illegal(code, reason string, details map[string]string) LegalityResult {
	return LegalityResult{Legal: false, Code: code, Reason: reason, Details: details}
}

// CheckActor verifies the match is still running and the acting player owns
// the current turn.
func CheckActor(state *board.MatchState, playerIndex int) LegalityResult {
	if state.Status == board.StatusCompleted {
		return illegal(CodeMatchCompleted, "match already completed", map[string]string{
			"match_id": state.MatchID,
		})
	}
	if playerIndex != 1 && playerIndex != 2 {
		return illegal(CodeActionNotAllowed, "invalid player index", map[string]string{
			"player_index": fmt.Sprintf("%d", playerIndex),
		})
	}
	if state.CurrentPlayer != playerIndex {
		return illegal(CodeActionNotAllowed, "not your turn", map[string]string{
			"current_player": fmt.Sprintf("%d", state.CurrentPlayer),
			"acting_player":  fmt.Sprintf("%d", playerIndex),
		})
	}
	return legal()
}

// CheckSummon validates a PLAY_MONSTER action: hand membership, card type,
// zone availability, the per-turn summon budget, and the exact tribute count
// for the card's star tier.
func CheckSummon(state *board.MatchState, playerIndex int, card *board.CardInstance, zone int, tributes []string) LegalityResult {
	p := state.Player(playerIndex)
	if p.Counters.SummonsUsed >= 1 {
		return illegal(CodeActionNotAllowed, "summon limit reached this turn", map[string]string{
			"summons_used": fmt.Sprintf("%d", p.Counters.SummonsUsed),
		})
	}
	if !card.IsMonster() && !card.IsHero() {
		return illegal(CodeActionNotAllowed, "card is not a monster or hero", map[string]string{
			"card_type": string(card.Type),
		})
	}

	if card.IsHero() {
		if p.Hero != nil {
			return illegal(CodeZoneOccupied, "hero zone occupied", map[string]string{
				"hero_instance_id": p.Hero.InstanceID,
			})
		}
	} else {
		if zone < 0 || zone >= board.MonsterZoneCount {
			return illegal(CodeZoneOccupied, "invalid monster zone index", map[string]string{
				"zone": fmt.Sprintf("%d", zone),
			})
		}
		if p.MonsterZones[zone] != nil {
			occupied := true
			for _, id := range tributes {
				if p.MonsterZones[zone].InstanceID == id {
					occupied = false // zone frees up once the tribute leaves
					break
				}
			}
			if occupied {
				return illegal(CodeZoneOccupied, "monster zone occupied", map[string]string{
					"zone":        fmt.Sprintf("%d", zone),
					"instance_id": p.MonsterZones[zone].InstanceID,
				})
			}
		}
	}

	needed := tributeCost(card)
	if len(tributes) != needed {
		return illegal(CodeInvalidTribute, "wrong tribute count", map[string]string{
			"expected": fmt.Sprintf("%d", needed),
			"actual":   fmt.Sprintf("%d", len(tributes)),
			"stars":    fmt.Sprintf("%d", card.Stars),
		})
	}
	seen := make(map[string]bool, len(tributes))
	for _, id := range tributes {
		if seen[id] {
			return illegal(CodeInvalidTribute, "duplicate tribute", map[string]string{"instance_id": id})
		}
		seen[id] = true
		if p.MonsterZoneIndex(id) < 0 {
			return illegal(CodeInvalidTribute, "tribute not on your field", map[string]string{"instance_id": id})
		}
	}
	return legal()
}

func tributeCost(card *board.CardInstance) int {
	if card.IsHero() {
		return 2
	}
	if card.Stars >= 4 {
		return 1
	}
	return 0
}

// CheckSpellTrapBudget enforces the shared once-per-turn spell-or-trap limit.
func CheckSpellTrapBudget(state *board.MatchState, playerIndex int) LegalityResult {
	p := state.Player(playerIndex)
	if p.Counters.SpellTrapUsed >= 1 {
		return illegal(CodeActionNotAllowed, "spell or trap already played this turn", map[string]string{
			"spell_trap_used": fmt.Sprintf("%d", p.Counters.SpellTrapUsed),
		})
	}
	return legal()
}

// CheckSetTrap validates that a trap can be placed: budget plus a free
// spell/trap zone.
func CheckSetTrap(state *board.MatchState, playerIndex int) LegalityResult {
	if r := CheckSpellTrapBudget(state, playerIndex); !r.Legal {
		return r
	}
	if state.Player(playerIndex).EmptySpellTrapZone() < 0 {
		return illegal(CodeZoneOccupied, "no free spell or trap zone", nil)
	}
	return legal()
}

// CheckHeroAbility validates ACTIVATE_HERO_ABILITY: a hero on the field and
// the once-per-turn hero budget unspent.
func CheckHeroAbility(state *board.MatchState, playerIndex int) LegalityResult {
	p := state.Player(playerIndex)
	if p.Hero == nil {
		return illegal(CodeActionNotAllowed, "no hero on the field", nil)
	}
	if p.Counters.HeroAbilityUsed >= 1 {
		return illegal(CodeActionNotAllowed, "hero ability already used this turn", nil)
	}
	return legal()
}

// CheckAttacker validates the attacking monster for either attack action.
func CheckAttacker(state *board.MatchState, playerIndex int, attacker *board.CardInstance) LegalityResult {
	if attacker.IsHero() {
		return illegal(CodeActionNotAllowed, "heroes cannot attack", map[string]string{
			"instance_id": attacker.InstanceID,
		})
	}
	if attacker.FaceDown {
		return illegal(CodeActionNotAllowed, "face-down monsters cannot attack", map[string]string{
			"instance_id": attacker.InstanceID,
		})
	}
	if !attacker.CanAttack {
		return illegal(CodeActionNotAllowed, "monster cannot attack yet", map[string]string{
			"instance_id": attacker.InstanceID,
		})
	}
	if attacker.HasStatus(board.StatusFrozen) {
		return illegal(CodeActionNotAllowed, "monster is frozen", map[string]string{
			"instance_id": attacker.InstanceID,
		})
	}
	if state.Player(playerIndex).HasAttacked(attacker.InstanceID) {
		return illegal(CodeActionNotAllowed, "monster already attacked this turn", map[string]string{
			"instance_id": attacker.InstanceID,
		})
	}
	return legal()
}

// CheckDirectAttack verifies the defender has no monsters on the field.
func CheckDirectAttack(state *board.MatchState, defendingPlayer int) LegalityResult {
	if n := state.Player(defendingPlayer).MonsterCount(); n > 0 {
		return illegal(CodeInvalidTarget, "cannot attack player while monsters defend", map[string]string{
			"defending_monsters": fmt.Sprintf("%d", n),
		})
	}
	return legal()
}
