package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/projectsquall/battle-server-go/internal/game/board"
	"github.com/projectsquall/battle-server-go/internal/game/effects"
	"github.com/projectsquall/battle-server-go/internal/game/rules"
)

// StartingHandSize is drawn by each player when a match begins.
const StartingHandSize = 5

// Options tune engine behavior. Zero values fall back to defaults.
type Options struct {
	// HeroDefaultDamage is the flat damage a hero ability deals when the
	// card data declares no ability at all.
	HeroDefaultDamage int
	// ValidateDecks enables hero/size/copy constraints at match start.
	ValidateDecks bool
	DeckMinSize   int
	DeckMaxSize   int
	// MaxAIActions bounds one AI turn invocation.
	MaxAIActions int
}

func (o Options) withDefaults() Options {
	if o.HeroDefaultDamage == 0 {
		o.HeroDefaultDamage = 100
	}
	if o.DeckMinSize == 0 {
		o.DeckMinSize = 20
	}
	if o.DeckMaxSize == 0 {
		o.DeckMaxSize = 40
	}
	if o.MaxAIActions == 0 {
		o.MaxAIActions = 10
	}
	return o
}

// matchHandle owns one match's mutable state. All reads and writes go
// through its mutex so actions for the same match are strictly serialized
// while different matches proceed in parallel.
type matchHandle struct {
	mu        sync.Mutex
	state     *board.MatchState
	rng       *rand.Rand
	suspended *suspendedAction
}

// suspendedAction is an action parked behind a trigger window. The token is
// the capability the caller must echo to resume it.
type suspendedAction struct {
	Token        string
	ActingPlayer int
	Action       Action
	Offer        rules.TriggerOffer
}

// Resolution is the outcome of one ApplyAction call: either the action
// applied and the state moved, or it is suspended awaiting a trigger
// decision.
type Resolution struct {
	State          *board.MatchState
	PendingTrigger *rules.TriggerOffer
}

// TriggerResolution is the outcome of resuming a suspended action.
type TriggerResolution struct {
	State           *board.MatchState
	CancelledAction bool
	AttackCompleted bool
}

// SuspendedPayload is the opaque value handed to the caller with a trigger
// offer; it must come back unchanged on resume.
type SuspendedPayload struct {
	Token  string `json:"trigger_token" mapstructure:"trigger_token"`
	Action Action `json:"action" mapstructure:"action"`
}

// ActionPolicy decides actions for an automated player. Implementations call
// back into the same serialized action flow as human clients.
type ActionPolicy interface {
	// NextAction returns the next action to take, or ok=false to stop.
	NextAction(state *board.MatchState, playerIndex int) (Action, bool)
	// DecideTrigger answers a trap offer made to the policy's player.
	DecideTrigger(state *board.MatchState, offer rules.TriggerOffer) TriggerDecision
}

// TriggerDecision is a trap controller's answer to a trigger offer.
type TriggerDecision string

const (
	DecisionActivate TriggerDecision = "activate"
	DecisionDecline  TriggerDecision = "decline"
)

// Engine owns all live matches and is the single mutation entry point.
type Engine struct {
	mu       sync.RWMutex
	matches  map[string]*matchHandle
	resolver *effects.Resolver
	logger   *zap.Logger
	opts     Options
}

// NewEngine creates an engine with the built-in effect keyword table.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		matches:  make(map[string]*matchHandle),
		resolver: effects.NewResolver(logger),
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

func newTriggerToken() string {
	return uuid.NewString()
}

// PlayerSetup names one side of a new match and supplies its deck.
type PlayerSetup struct {
	Name string
	Deck []*board.CardDefinition
}

// StartMatch builds a fresh match: decks shuffled, five cards drawn each,
// a GAME_INIT entry logged. Seed zero picks a time-based seed. Deck
// constraint violations surface as ErrDeckConfiguration before any state is
// registered.
func (e *Engine) StartMatch(matchID string, mode board.Mode, p1, p2 PlayerSetup, seed int64) (*board.MatchState, error) {
	if mode != board.ModePVE && mode != board.ModePVP {
		return nil, ruleErr(ErrActionNotAllowed, "unknown match mode", map[string]string{
			"mode": string(mode),
		})
	}
	if e.opts.ValidateDecks {
		for i, setup := range []PlayerSetup{p1, p2} {
			if err := e.validateDeck(setup.Deck); err != nil {
				return nil, fmt.Errorf("player %d deck: %w", i+1, err)
			}
		}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	state := &board.MatchState{
		MatchID:       matchID,
		Mode:          mode,
		Turn:          1,
		CurrentPlayer: 1,
		Phase:         board.PhaseMain,
		Status:        board.StatusActive,
		Seed:          seed,
		Players: map[int]*board.PlayerState{
			1: buildPlayer(1, p1, rng),
			2: buildPlayer(2, p2, rng),
		},
	}
	state.Append(board.LogEntry{
		Type:   board.LogGameInit,
		Turn:   1,
		Detail: p1.Name + " vs " + p2.Name,
	})

	h := &matchHandle{state: state, rng: rng}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.matches[matchID]; exists {
		return nil, ruleErr(ErrActionNotAllowed, "match id already in use", map[string]string{
			"match_id": matchID,
		})
	}
	e.matches[matchID] = h

	e.logger.Info("match started",
		zap.String("match_id", matchID),
		zap.String("mode", string(mode)),
		zap.Int64("seed", seed),
	)
	return state, nil
}

func buildPlayer(index int, setup PlayerSetup, rng *rand.Rand) *board.PlayerState {
	p := board.NewPlayerState(index, setup.Name)
	for _, def := range setup.Deck {
		p.Deck = append(p.Deck, board.NewInstance(def, index))
	}
	rng.Shuffle(len(p.Deck), func(i, j int) {
		p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i]
	})
	p.Draw(StartingHandSize, rng)
	return p
}

func (e *Engine) validateDeck(deck []*board.CardDefinition) error {
	if len(deck) < e.opts.DeckMinSize || len(deck) > e.opts.DeckMaxSize {
		return ruleErr(ErrDeckConfiguration, "deck size out of bounds", map[string]string{
			"size": strconv.Itoa(len(deck)),
			"min":  strconv.Itoa(e.opts.DeckMinSize),
			"max":  strconv.Itoa(e.opts.DeckMaxSize),
		})
	}
	heroes := 0
	copies := make(map[string]int)
	for _, def := range deck {
		if def.IsHero() {
			heroes++
		}
		copies[def.Code]++
		if limit := def.EffectParams.MaxCopiesPerDeck; limit > 0 && copies[def.Code] > limit {
			return ruleErr(ErrDeckConfiguration, "too many copies of card", map[string]string{
				"card_code": def.Code,
				"limit":     strconv.Itoa(limit),
			})
		}
	}
	if heroes != 1 {
		return ruleErr(ErrDeckConfiguration, "deck must contain exactly one hero", map[string]string{
			"heroes": strconv.Itoa(heroes),
		})
	}
	return nil
}

func (e *Engine) handle(matchID string) (*matchHandle, error) {
	e.mu.RLock()
	h, ok := e.matches[matchID]
	e.mu.RUnlock()
	if !ok {
		return nil, ruleErr(ErrMatchNotFound, "", map[string]string{"match_id": matchID})
	}
	return h, nil
}

// State returns the current state of a match.
func (e *Engine) State(matchID string) (*board.MatchState, error) {
	h, err := e.handle(matchID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, nil
}

// ApplyAction is the single external mutation entry point. Errors leave the
// state untouched; a non-nil PendingTrigger means the action is parked until
// ResolveTrigger is called with the offer's token.
func (e *Engine) ApplyAction(matchID string, playerIndex int, act Action) (Resolution, error) {
	h, err := e.handle(matchID)
	if err != nil {
		return Resolution{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.suspended != nil {
		return Resolution{}, ruleErr(ErrPendingTrigger, "resolve the pending trigger first", map[string]string{
			"trigger_token": h.suspended.Token,
		})
	}
	offer, err := e.dispatch(h, playerIndex, act, true)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{State: h.state, PendingTrigger: offer}, nil
}

// ResolveTrigger resumes a suspended action. The payload must echo the offer
// the engine handed out; anything else is rejected without touching state.
func (e *Engine) ResolveTrigger(matchID string, decidingPlayer int, trapInstanceID string, decision TriggerDecision, payload SuspendedPayload) (TriggerResolution, error) {
	h, err := e.handle(matchID)
	if err != nil {
		return TriggerResolution{}, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.suspended
	if s == nil {
		return TriggerResolution{}, ruleErr(ErrActionNotAllowed, "no trigger pending", nil)
	}
	if payload.Token != s.Token {
		return TriggerResolution{}, ruleErr(ErrActionNotAllowed, "suspended payload does not match", map[string]string{
			"trigger_token": payload.Token,
		})
	}
	if decidingPlayer != s.Offer.PlayerIndex {
		return TriggerResolution{}, ruleErr(ErrActionNotAllowed, "trigger decision belongs to the other player", map[string]string{
			"deciding_player": strconv.Itoa(decidingPlayer),
		})
	}
	if trapInstanceID != s.Offer.TrapInstance {
		return TriggerResolution{}, ruleErr(ErrInstanceNotFound, "not the offered trap", map[string]string{
			"trap_instance_id": trapInstanceID,
		})
	}

	switch decision {
	case DecisionDecline:
		h.suspended = nil
		h.state.Append(board.LogEntry{
			Type:   board.LogTrapDeclined,
			Turn:   h.state.Turn,
			Player: decidingPlayer,
			Card:   s.Offer.TrapInstance,
		})
		if _, err := e.dispatch(h, s.ActingPlayer, s.Action, false); err != nil {
			return TriggerResolution{}, err
		}
		return TriggerResolution{State: h.state}, nil
	case DecisionActivate:
		return e.activateSuspendedTrap(h, s)
	default:
		return TriggerResolution{}, ruleErr(ErrActionNotAllowed, "unknown trigger decision", map[string]string{
			"decision": string(decision),
		})
	}
}

// activateSuspendedTrap fires the offered trap against the suspended action,
// then drops, completes, or resumes that action based on the trap's outcome.
func (e *Engine) activateSuspendedTrap(h *matchHandle, s *suspendedAction) (TriggerResolution, error) {
	state := h.state
	defender := state.Player(s.Offer.PlayerIndex)

	zone := defender.SpellTrapZoneIndex(s.Offer.TrapInstance)
	if zone < 0 {
		return TriggerResolution{}, ruleErr(ErrInstanceNotFound, "offered trap left the field", map[string]string{
			"trap_instance_id": s.Offer.TrapInstance,
		})
	}
	trap := defender.SpellTrapZones[zone]
	h.suspended = nil

	trap.FaceDown = false
	event := s.Offer.Event
	ctx := &effects.Context{
		State:        state,
		SourcePlayer: s.Offer.PlayerIndex,
		Source:       trap,
		Trigger:      &event,
		RNG:          h.rng,
	}
	outcome := e.resolver.ResolveCard(ctx)
	e.buryDestroyed(state, outcome.Destroyed, &outcome.Records)

	defender.RemoveSpellTrap(zone)
	defender.SendToGraveyard(trap)

	state.Append(board.LogEntry{
		Type:     board.LogActivateTrap,
		Turn:     state.Turn,
		Player:   s.Offer.PlayerIndex,
		Card:     trap.InstanceID,
		CardName: trap.Name,
		Zone:     zone,
		Effects:  outcome.Records,
	})
	e.checkWin(h)

	res := TriggerResolution{
		State:           state,
		CancelledAction: outcome.Cancelled,
		AttackCompleted: outcome.AttackCompleted,
	}
	switch {
	case outcome.Cancelled:
		e.dropCancelledAction(h, s, reflectsSpell(outcome))
	case outcome.AttackCompleted:
		e.completeHandledAttack(h, s)
	default:
		if state.Status == board.StatusActive {
			if _, err := e.dispatch(h, s.ActingPlayer, s.Action, false); err != nil {
				return TriggerResolution{}, err
			}
			res.State = h.state
		}
	}
	return res, nil
}

func reflectsSpell(outcome effects.Outcome) bool {
	for _, rec := range outcome.Records {
		if rec.Type == effects.RecordCounterReflect {
			return true
		}
	}
	return false
}

// dropCancelledAction discards the suspended action after a countering trap.
// A countered spell or summon still spends its card and budget, a countered
// hero ability its once-per-turn activation. The reflect variant additionally
// resolves the spell's effects against the caster's own side.
func (e *Engine) dropCancelledAction(h *matchHandle, s *suspendedAction, reflect bool) {
	state := h.state
	actor := state.Player(s.ActingPlayer)

	switch s.Action.Kind {
	case ActionPlaySpell:
		var p PlaySpellPayload
		if decodePayload(s.Action.Payload, &p) != nil {
			return
		}
		if actor.HandIndex(p.CardInstanceID) < 0 {
			return
		}
		card, _ := actor.RemoveFromHand(p.CardInstanceID)
		actor.Counters.SpellTrapUsed++

		entry := board.LogEntry{
			Type:     board.LogSpellCountered,
			Turn:     state.Turn,
			Player:   s.ActingPlayer,
			Card:     card.InstanceID,
			CardName: card.Name,
		}
		if reflect {
			target := effects.Target{Player: s.ActingPlayer}
			if first := firstMonster(actor); first != nil {
				target.MonsterID = first.InstanceID
			}
			ctx := &effects.Context{
				State:        state,
				SourcePlayer: s.ActingPlayer,
				Source:       card,
				Target:       target,
				RNG:          h.rng,
			}
			out := e.resolver.ResolveCard(ctx)
			e.buryDestroyed(state, out.Destroyed, &out.Records)
			entry.Effects = out.Records
		}
		actor.SendToGraveyard(card)
		state.Append(entry)
		e.checkWin(h)

	case ActionPlayMonster:
		var p PlayMonsterPayload
		if decodePayload(s.Action.Payload, &p) != nil {
			return
		}
		if actor.HandIndex(p.CardInstanceID) < 0 {
			return
		}
		card, _ := actor.RemoveFromHand(p.CardInstanceID)
		actor.Counters.SummonsUsed++
		actor.SendToGraveyard(card)
		state.Append(board.LogEntry{
			Type:     board.LogMonsterDestroyed,
			Turn:     state.Turn,
			Player:   s.ActingPlayer,
			Card:     card.InstanceID,
			CardName: card.Name,
			Detail:   "summon negated",
		})

	case ActionActivateHero:
		actor.Counters.HeroAbilityUsed++
		entry := board.LogEntry{
			Type:   board.LogActivateHero,
			Turn:   state.Turn,
			Player: s.ActingPlayer,
			Detail: "ability countered",
		}
		if actor.Hero != nil {
			entry.Card = actor.Hero.InstanceID
			entry.CardName = actor.Hero.Name
		}
		state.Append(entry)

	case ActionAttackMonster, ActionAttackPlayer:
		// The declaration is spent even though the attack never lands.
		state.Append(board.LogEntry{
			Type:   board.LogAttackNegated,
			Turn:   state.Turn,
			Player: s.ActingPlayer,
			Card:   s.Offer.Event.AttackerID,
		})
		actor.MarkAttacked(s.Offer.Event.AttackerID)
	}
}

// completeHandledAttack marks a reflected attack as fully resolved: the trap
// already applied all damage, so the attacker only spends its declaration.
func (e *Engine) completeHandledAttack(h *matchHandle, s *suspendedAction) {
	h.state.Player(s.ActingPlayer).MarkAttacked(s.Offer.Event.AttackerID)
}

// checkWin flips the match to completed once either HP floor is hit. Both
// sides at zero from the same causal action is a draw.
func (e *Engine) checkWin(h *matchHandle) {
	state := h.state
	if state.Status == board.StatusCompleted {
		return
	}
	p1Dead := !state.Player(1).Alive()
	p2Dead := !state.Player(2).Alive()
	if !p1Dead && !p2Dead {
		return
	}

	state.Status = board.StatusCompleted
	entry := board.LogEntry{
		Type: board.LogMatchEnd,
		Turn: state.Turn,
	}
	switch {
	case p1Dead && p2Dead:
		state.Draw = true
		entry.Draw = true
	case p1Dead:
		state.Winner = 2
		entry.Winner = 2
	default:
		state.Winner = 1
		entry.Winner = 1
	}
	state.Append(entry)

	e.logger.Info("match completed",
		zap.String("match_id", state.MatchID),
		zap.Int("winner", state.Winner),
		zap.Bool("draw", state.Draw),
	)
}

// RunAITurn lets a policy drive one full turn through the same action flow,
// bounded by the engine's action cap. A trigger offer raised by one of the
// policy's actions parks the turn until the opposing side answers it.
func (e *Engine) RunAITurn(matchID string, playerIndex int, policy ActionPolicy) (*board.MatchState, []Action, error) {
	var taken []Action

	for i := 0; i < e.opts.MaxAIActions; i++ {
		state, err := e.State(matchID)
		if err != nil {
			return nil, taken, err
		}
		if state.Status == board.StatusCompleted || state.CurrentPlayer != playerIndex {
			break
		}

		act, ok := policy.NextAction(state, playerIndex)
		if !ok {
			act = Action{Kind: ActionEndTurn}
		}

		res, err := e.ApplyAction(matchID, playerIndex, act)
		if err != nil {
			// A policy slip is not fatal to the match; close out the turn.
			e.logger.Warn("ai action rejected",
				zap.String("match_id", matchID),
				zap.String("action", string(act.Kind)),
				zap.Error(err),
			)
			if act.Kind == ActionEndTurn {
				return nil, taken, err
			}
			act = Action{Kind: ActionEndTurn}
			if _, err := e.ApplyAction(matchID, playerIndex, act); err != nil {
				return nil, taken, err
			}
			taken = append(taken, act)
			break
		}
		taken = append(taken, act)

		if res.PendingTrigger != nil {
			// The offer always belongs to the opponent of the acting side,
			// so the AI turn parks here until the opponent answers.
			break
		}

		if act.Kind == ActionEndTurn {
			break
		}
	}

	state, err := e.State(matchID)
	return state, taken, err
}
