package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

// MarshalState serializes a match snapshot to JSON. Every field round-trips
// losslessly: numeric fields stay numeric, nested effect data keeps its
// structure.
func MarshalState(state *board.MatchState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal match state: %w", err)
	}
	return data, nil
}

// UnmarshalState restores a match snapshot from JSON.
func UnmarshalState(data []byte) (*board.MatchState, error) {
	var state board.MatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal match state: %w", err)
	}
	return &state, nil
}

// Snapshot is one match's serialized state plus the row metadata the storage
// layer keys on, captured atomically while the match lock was held.
type Snapshot struct {
	MatchID string
	Mode    board.Mode
	Status  board.MatchStatus
	Winner  int
	Data    []byte
}

// Snapshot marshals the current state of a match under its lock, so callers
// can persist or transmit the bytes without racing concurrent actions.
func (e *Engine) Snapshot(matchID string) (Snapshot, error) {
	h, err := e.handle(matchID)
	if err != nil {
		return Snapshot{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := MarshalState(h.state)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		MatchID: h.state.MatchID,
		Mode:    h.state.Mode,
		Status:  h.state.Status,
		Winner:  h.state.Winner,
		Data:    data,
	}, nil
}

// ComputeChecksum produces a deterministic digest of the gameplay-relevant
// state, for guarding against divergent snapshots across store round-trips.
func ComputeChecksum(state *board.MatchState) (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%s|%d|%d|%s|%s|%d|%t\n",
		state.MatchID, state.Mode, state.Turn, state.CurrentPlayer,
		state.Phase, state.Status, state.Winner, state.Draw)

	for _, idx := range []int{1, 2} {
		p := state.Player(idx)
		if p == nil {
			continue
		}
		fmt.Fprintf(&buf, "PLAYER:%d|%s|%d|%d|%d|%d\n",
			p.Index, p.Name, p.HP, len(p.Deck), len(p.Hand), len(p.Graveyard))
		fmt.Fprintf(&buf, "COUNTERS:%d|%d|%d\n",
			p.Counters.SummonsUsed, p.Counters.SpellTrapUsed, p.Counters.HeroAbilityUsed)

		writeCards(&buf, "DECK", p.Deck)
		writeCards(&buf, "HAND", p.Hand)
		writeCards(&buf, "MZONE", p.MonsterZones)
		writeCards(&buf, "STZONE", p.SpellTrapZones)
		writeCards(&buf, "GRAVE", p.Graveyard)
		writeCards(&buf, "EXILE", p.Exile)
		if p.Hero != nil {
			writeCards(&buf, "HERO", []*board.CardInstance{p.Hero})
		}
	}
	fmt.Fprintf(&buf, "LOG:%d\n", len(state.Log))

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func writeCards(buf *bytes.Buffer, tag string, cards []*board.CardInstance) {
	for i, c := range cards {
		if c == nil {
			fmt.Fprintf(buf, "%s:%d:-\n", tag, i)
			continue
		}
		fmt.Fprintf(buf, "%s:%d:%s|%s|%d|%d|%d|%t|%t|%d|%d\n",
			tag, i, c.InstanceID, c.Code, c.ATK, c.HP, c.MaxHP,
			c.FaceDown, c.CanAttack, c.SummonedTurn, c.HeroCharges)
		for _, s := range c.Statuses {
			fmt.Fprintf(buf, "  STATUS:%s|%d|%d|%s\n", s.Code, s.Magnitude, s.Remaining, s.OnExpire)
		}
	}
}

// ValidateRoundtrip serializes and restores a snapshot, then compares
// checksums to prove nothing was lost in transit.
func ValidateRoundtrip(state *board.MatchState) error {
	before, err := ComputeChecksum(state)
	if err != nil {
		return err
	}
	data, err := MarshalState(state)
	if err != nil {
		return err
	}
	restored, err := UnmarshalState(data)
	if err != nil {
		return err
	}
	after, err := ComputeChecksum(restored)
	if err != nil {
		return err
	}
	if before != after {
		return fmt.Errorf("snapshot checksum mismatch: %s != %s", before, after)
	}
	return nil
}

// LoadMatch registers a restored snapshot as a live match. Draw order after a
// restore is reseeded from the stored seed combined with the turn counter, so
// it stays deterministic per snapshot without replaying the full history.
func (e *Engine) LoadMatch(state *board.MatchState) error {
	if state.MatchID == "" {
		return ruleErr(ErrMatchNotFound, "snapshot has no match id", nil)
	}
	h := &matchHandle{
		state: state,
		rng:   rand.New(rand.NewSource(state.Seed + int64(state.Turn))),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.matches[state.MatchID]; exists {
		return ruleErr(ErrActionNotAllowed, "match already loaded", map[string]string{
			"match_id": state.MatchID,
		})
	}
	e.matches[state.MatchID] = h
	return nil
}
