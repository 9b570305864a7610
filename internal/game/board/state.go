package board

// Mode distinguishes matches against the rule-based AI from player matches.
type Mode string

const (
	ModePVE Mode = "PVE"
	ModePVP Mode = "PVP"
)

// MatchStatus tracks match lifecycle. Completed is the only terminal state.
type MatchStatus string

const (
	StatusActive    MatchStatus = "active"
	StatusCompleted MatchStatus = "completed"
)

// Phase of the current turn. Only the main phase is modeled today; the type
// reserves room for start/end phases.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseMain  Phase = "main"
	PhaseEnd   Phase = "end"
)

// Log entry tags. One tag per action or derived consequence; entries carry
// enough before/after state for the UI and replay layer to reconstruct what
// happened without re-deriving it from diffed state.
const (
	LogGameInit          = "GAME_INIT"
	LogTurnStarted       = "TURN_STARTED"
	LogEndTurn           = "END_TURN"
	LogDrawCards         = "DRAW_CARDS"
	LogPlayMonster       = "PLAY_MONSTER"
	LogPlaySpell         = "PLAY_SPELL"
	LogPlayTrap          = "PLAY_TRAP"
	LogActivateTrap      = "ACTIVATE_TRAP"
	LogActivateHero      = "ACTIVATE_HERO_ABILITY"
	LogAttackMonster     = "ATTACK_MONSTER"
	LogAttackPlayer      = "ATTACK_PLAYER"
	LogMonsterDestroyed  = "MONSTER_DESTROYED"
	LogMonsterFlipped    = "MONSTER_FLIPPED"
	LogSpellCountered    = "SPELL_COUNTERED"
	LogTrapDeclined      = "TRAP_DECLINED"
	LogAttackNegated     = "ATTACK_NEGATED"
	LogStatusExpired     = "STATUS_EXPIRED"
	LogAuraApplied       = "AURA_APPLIED"
	LogMatchEnd          = "MATCH_END"
)

// EffectRecord is the structured result of one resolved effect step. Records
// are appended verbatim to the event log.
type EffectRecord struct {
	Type        string   `json:"type"`
	Keyword     string   `json:"keyword,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Player      int      `json:"player_index,omitempty"`
	Card        string   `json:"card_instance_id,omitempty"`
	CardName    string   `json:"card_name,omitempty"`
	Amount      int      `json:"amount,omitempty"`
	HPBefore    int      `json:"hp_before,omitempty"`
	HPAfter     int      `json:"hp_after,omitempty"`
	ATKBefore   int      `json:"atk_before,omitempty"`
	ATKAfter    int      `json:"atk_after,omitempty"`
	MaxHPBefore int      `json:"max_hp_before,omitempty"`
	MaxHPAfter  int      `json:"max_hp_after,omitempty"`
	StatusCode  string   `json:"status_code,omitempty"`
	Drawn       []string `json:"card_instance_ids,omitempty"`
	Tier        string   `json:"tier,omitempty"`
	Fallback    bool     `json:"fallback,omitempty"`
	Destroyed   bool     `json:"destroyed,omitempty"`
}

// LogEntry is one tagged record in the append-only match event log.
type LogEntry struct {
	Type         string         `json:"type"`
	Turn         int            `json:"turn,omitempty"`
	Player       int            `json:"player,omitempty"`
	Card         string         `json:"card_instance_id,omitempty"`
	CardName     string         `json:"card_name,omitempty"`
	Target       string         `json:"target_instance_id,omitempty"`
	TargetPlayer int            `json:"target_player,omitempty"`
	Zone         int            `json:"zone_index,omitempty"`
	Tributes     []string       `json:"tribute_instance_ids,omitempty"`
	Amount       int            `json:"amount,omitempty"`
	HPBefore     int            `json:"hp_before,omitempty"`
	HPAfter      int            `json:"hp_after,omitempty"`
	Winner       int            `json:"winner,omitempty"`
	Draw         bool           `json:"draw,omitempty"`
	Effects      []EffectRecord `json:"effects,omitempty"`
	Detail       string         `json:"detail,omitempty"`
}

// MatchState is the complete serializable state of one match.
type MatchState struct {
	MatchID       string                `json:"match_id"`
	Mode          Mode                  `json:"mode"`
	Turn          int                   `json:"turn"`
	CurrentPlayer int                   `json:"current_player"`
	Phase         Phase                 `json:"phase"`
	Status        MatchStatus           `json:"status"`
	Winner        int                   `json:"winner,omitempty"`
	Draw          bool                  `json:"draw,omitempty"`
	Seed          int64                 `json:"seed"`
	Players       map[int]*PlayerState  `json:"players"`
	Log           []LogEntry            `json:"log"`
}

// Player returns the state for player 1 or 2.
func (m *MatchState) Player(index int) *PlayerState {
	return m.Players[index]
}

// OpponentIndex maps 1 to 2 and 2 to 1.
func OpponentIndex(index int) int {
	if index == 1 {
		return 2
	}
	return 1
}

// Opponent returns the state of the other player.
func (m *MatchState) Opponent(index int) *PlayerState {
	return m.Players[OpponentIndex(index)]
}

// Append adds an entry to the event log.
func (m *MatchState) Append(entry LogEntry) {
	m.Log = append(m.Log, entry)
}

// FindMonster locates a monster instance anywhere on the field and returns
// it with its controller index and zone index.
func (m *MatchState) FindMonster(instanceID string) (*CardInstance, int, int, bool) {
	for _, idx := range []int{1, 2} {
		p := m.Players[idx]
		if p == nil {
			continue
		}
		for zone, c := range p.MonsterZones {
			if c != nil && c.InstanceID == instanceID {
				return c, idx, zone, true
			}
		}
	}
	return nil, 0, 0, false
}

// DestroyMonster moves the monster in the given zone to its controller's
// graveyard and returns the removed instance.
func (m *MatchState) DestroyMonster(playerIndex, zone int) (*CardInstance, error) {
	p := m.Player(playerIndex)
	card, err := p.RemoveMonster(zone)
	if err != nil {
		return nil, err
	}
	p.SendToGraveyard(card)
	return card, nil
}

// TickStatuses advances turn-scoped statuses for the given player's field at
// the start of their turn: remaining counters decrement, expired statuses are
// removed, and on-expire follow-up statuses are applied. Returns records for
// the log.
func (m *MatchState) TickStatuses(playerIndex int) []EffectRecord {
	var records []EffectRecord
	p := m.Player(playerIndex)
	cards := append([]*CardInstance{}, p.MonsterZones...)
	if p.Hero != nil {
		cards = append(cards, p.Hero)
	}
	for _, card := range cards {
		if card == nil || len(card.Statuses) == 0 {
			continue
		}
		kept := card.Statuses[:0]
		var expired []Status
		for _, s := range card.Statuses {
			if s.Remaining == 0 {
				kept = append(kept, s)
				continue
			}
			s.Remaining--
			if s.Remaining > 0 {
				kept = append(kept, s)
				continue
			}
			expired = append(expired, s)
		}
		card.Statuses = kept
		if len(card.Statuses) == 0 {
			card.Statuses = nil
		}
		for _, s := range expired {
			records = append(records, EffectRecord{
				Type:       LogStatusExpired,
				Player:     playerIndex,
				Card:       card.InstanceID,
				StatusCode: s.Code,
			})
			if s.OnExpire != "" {
				card.AddStatus(Status{Code: s.OnExpire, Remaining: 2})
			}
		}
	}
	return records
}
