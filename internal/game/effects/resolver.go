package effects

import (
	"math/rand"
	"strings"

	"github.com/projectsquall/battle-server-go/internal/game/board"
	"go.uber.org/zap"
)

// Effect record tags produced by the resolver.
const (
	RecordDamageMonster      = "EFFECT_DAMAGE_MONSTER"
	RecordDamagePlayer       = "EFFECT_DAMAGE_PLAYER"
	RecordHealMonster        = "EFFECT_HEAL_MONSTER"
	RecordHealPlayer         = "EFFECT_HEAL_PLAYER"
	RecordBuffMonster        = "EFFECT_BUFF_MONSTER"
	RecordDrawCards          = "EFFECT_DRAW_CARDS"
	RecordFreezeMonster      = "EFFECT_FREEZE_MONSTER"
	RecordStatusApplied      = "EFFECT_STATUS_APPLIED"
	RecordStatusBlocked      = "EFFECT_STATUS_BLOCKED"
	RecordCleanseMonster     = "EFFECT_CLEANSE_MONSTER"
	RecordHaste              = "EFFECT_HASTE"
	RecordCounterSpell       = "EFFECT_COUNTER_SPELL"
	RecordCounterReflect     = "EFFECT_COUNTER_AND_REFLECT_SPELL"
	RecordNegateAttack       = "EFFECT_NEGATE_ATTACK"
	RecordReflectDamage      = "EFFECT_REFLECT_DAMAGE"
	RecordPreventDestruction = "EFFECT_PREVENT_DESTRUCTION"
	RecordStatusReflected    = "EFFECT_STATUS_REFLECTED"
	RecordStatusDuplicated   = "EFFECT_STATUS_DUPLICATED"
	RecordDestroyMonster     = "EFFECT_DESTROY_MONSTER"
	RecordSpendCharges       = "EFFECT_HERO_SPEND_CHARGES"
	RecordNoTarget           = "EFFECT_NO_TARGET"
	RecordInvalidTarget      = "EFFECT_INVALID_TARGET"
	RecordUnresolvedKeyword  = "UNRESOLVED_KEYWORD"
	RecordAbilitySource      = "HERO_ABILITY_SOURCE"
)

// Target is the already-chosen target for an effect chain. The action layer
// resolves and validates targets; the resolver only executes against them.
type Target struct {
	Player    int
	MonsterID string
}

// Trigger event kinds emitted by the action layer.
const (
	EventSpellCast       = "SPELL_CAST"
	EventStatusIncoming  = "STATUS_INCOMING"
	EventMonsterSummoned = "MONSTER_SUMMONED"
	EventAttackDeclared  = "ATTACK_DECLARED"
	EventAllyWouldDie    = "ALLY_WOULD_DIE"
)

// TriggerEvent carries the payload of the action that caused a reactive card
// to fire. Handlers inspect it when they need more than the target.
type TriggerEvent struct {
	Kind              string
	AttackerID        string
	AttackerATK       int
	AttackingPlayer   int
	DefendingPlayer   int
	Amount            int
	SpellInstanceID   string
	MonsterInstanceID string
	// Incoming-status parameters, set on STATUS_INCOMING events so reactive
	// handlers can re-apply the same status elsewhere.
	StatusCode     string
	StatusDuration int
	StatusOnExpire string
}

// Context is passed into every keyword handler.
type Context struct {
	State        *board.MatchState
	SourcePlayer int
	Source       *board.CardInstance
	Target       Target
	Trigger      *TriggerEvent
	RNG          *rand.Rand
}

// DestroyedRef identifies a monster whose HP reached zero during resolution.
// The action layer moves it to the graveyard; the resolver never moves cards
// between zones itself.
type DestroyedRef struct {
	Player int
	Zone   int
	Card   string
}

// Outcome aggregates the results of resolving an effect chain.
type Outcome struct {
	Records         []board.EffectRecord
	Destroyed       []DestroyedRef
	Cancelled       bool
	AttackCompleted bool
}

func (o *Outcome) merge(delta Outcome) {
	o.Records = append(o.Records, delta.Records...)
	o.Destroyed = append(o.Destroyed, delta.Destroyed...)
	if delta.Cancelled {
		o.Cancelled = true
	}
	if delta.AttackCompleted {
		o.AttackCompleted = true
	}
}

// Handler executes one keyword effect against the context.
type Handler func(ctx *Context, eff board.Effect) Outcome

// Resolver maps effect keywords to handlers. Unknown keywords resolve to a
// tagged no-op so new behavior can ship as card data without an engine
// change.
type Resolver struct {
	logger   *zap.Logger
	handlers map[string]Handler
}

// NewResolver creates a resolver with the built-in keyword table registered.
func NewResolver(logger *zap.Logger) *Resolver {
	r := &Resolver{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces the handler for a keyword.
func (r *Resolver) Register(keyword string, h Handler) {
	r.handlers[normalizeKeyword(keyword)] = h
}

func normalizeKeyword(keyword string) string {
	return strings.ToUpper(strings.TrimSpace(keyword))
}

// Resolve executes the given effect list in order against the context.
// A hard counter marks the outcome cancelled and stops the chain.
func (r *Resolver) Resolve(effects []board.Effect, ctx *Context) Outcome {
	var out Outcome
	for _, eff := range effects {
		keyword := normalizeKeyword(eff.Keyword)
		if keyword == "" {
			continue
		}
		handler, ok := r.handlers[keyword]
		if !ok {
			r.logger.Warn("unresolved effect keyword",
				zap.String("keyword", eff.Keyword),
				zap.String("card_code", ctx.Source.Code),
			)
			out.Records = append(out.Records, board.EffectRecord{
				Type:    RecordUnresolvedKeyword,
				Keyword: eff.Keyword,
				Card:    ctx.Source.InstanceID,
			})
			continue
		}
		out.merge(handler(ctx, eff))
		if out.Cancelled {
			break
		}
	}
	return out
}

// ResolveCard executes the card's primary effect list (effect_params.effects).
func (r *Resolver) ResolveCard(ctx *Context) Outcome {
	return r.Resolve(ctx.Source.EffectParams.Effects, ctx)
}

func (r *Resolver) registerBuiltins() {
	// Spell family.
	r.Register("SPELL_DAMAGE_MONSTER", handleDamageMonster)
	r.Register("SPELL_DAMAGE_PLAYER", handleDamagePlayer)
	r.Register("SPELL_HEAL_MONSTER", handleHealMonster)
	r.Register("SPELL_HEAL_PLAYER", handleHealPlayer)
	r.Register("SPELL_BUFF_MONSTER", handleBuffMonster)
	r.Register("SPELL_DRAW_CARDS", handleDrawCards)
	r.Register("SPELL_DRAW", handleDrawCards)
	r.Register("SPELL_FREEZE_MONSTER", handleFreezeMonster)
	r.Register("SPELL_APPLY_STATUS", handleApplyStatus)
	r.Register("SPELL_CLEANSE_MONSTER", handleCleanseMonster)
	r.Register("SPELL_HASTE", handleHaste)
	// Hero actives.
	r.Register("HERO_ACTIVE_DAMAGE", handleHeroDamage)
	r.Register("HERO_ACTIVE_FREEZE", handleFreezeMonster)
	r.Register("HERO_ACTIVE_SOUL_REND", handleSoulRend)
	// Reactive family.
	r.Register("SPELL_COUNTER_SPELL", handleCounterSpell)
	r.Register("TRAP_COUNTER_SPELL", handleCounterSpell)
	r.Register("TRAP_NEGATE_ATTACK", handleNegateAttack)
	r.Register("TRAP_REFLECT_DAMAGE", handleReflectDamage)
	r.Register("TRAP_APPLY_STATUS", handleApplyStatus)
	r.Register("TRAP_PREVENT_DESTRUCTION", handlePreventDestruction)
	r.Register("SPELL_REFLECT_INCOMING_STATUS", handleReflectIncomingStatus)
	r.Register("SPELL_DUPLICATE_INCOMING_STATUS", handleDuplicateIncomingStatus)
}
