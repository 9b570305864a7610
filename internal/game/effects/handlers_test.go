package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectsquall/battle-server-go/internal/game/board"
)

func TestDamageMonsterOverflow(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 50, 80)
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleDamageMonster(ctx, board.Effect{
		Keyword:          "SPELL_DAMAGE_MONSTER",
		Amount:           130,
		OverflowToPlayer: true,
	})

	require.Len(t, out.Destroyed, 1)
	assert.Equal(t, 0, target.HP)
	// 130 against 80 HP leaves 50 overflow on the controller.
	assert.Equal(t, board.StartingHP-50, ctx.State.Player(2).HP)

	var damageRec, overflowRec bool
	for _, rec := range out.Records {
		switch rec.Type {
		case RecordDamageMonster:
			damageRec = true
			assert.Equal(t, 80, rec.HPBefore)
			assert.Equal(t, 0, rec.HPAfter)
		case RecordDamagePlayer:
			overflowRec = true
			assert.Equal(t, 50, rec.Amount)
		}
	}
	assert.True(t, damageRec)
	assert.True(t, overflowRec)
}

func TestDamageMonsterNoOverflowWithoutLethal(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 50, 200)
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleDamageMonster(ctx, board.Effect{Amount: 120, OverflowToPlayer: true})
	assert.Empty(t, out.Destroyed)
	assert.Equal(t, 80, target.HP)
	assert.Equal(t, board.StartingHP, ctx.State.Player(2).HP)
}

func TestDamageMonsterMissingTarget(t *testing.T) {
	ctx := newContext(t, 1)
	out := handleDamageMonster(ctx, board.Effect{Amount: 100})
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordNoTarget, out.Records[0].Type)
}

func TestDamagePlayerDefaultsToOpponent(t *testing.T) {
	ctx := newContext(t, 1)
	out := handleDamagePlayer(ctx, board.Effect{Amount: 200})
	require.Len(t, out.Records, 1)
	assert.Equal(t, 2, out.Records[0].Player)
	assert.Equal(t, board.StartingHP-200, ctx.State.Player(2).HP)
}

func TestHealMonsterCapsAtMaxHP(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 1, 0, 50, 100)
	target.HP = 60
	ctx.Target = Target{Player: 1, MonsterID: target.InstanceID}

	out := handleHealMonster(ctx, board.Effect{Amount: 999})
	require.Len(t, out.Records, 1)
	assert.Equal(t, 100, target.HP)
	assert.Equal(t, 60, out.Records[0].HPBefore)
	assert.Equal(t, 100, out.Records[0].HPAfter)
}

func TestHealPlayerDefaultsToCaster(t *testing.T) {
	ctx := newContext(t, 2)
	ctx.State.Player(2).HP = 1000
	out := handleHealPlayer(ctx, board.Effect{Amount: 250})
	require.Len(t, out.Records, 1)
	assert.Equal(t, 2, out.Records[0].Player)
	assert.Equal(t, 1250, ctx.State.Player(2).HP)
}

func TestBuffAllOwnMonsters(t *testing.T) {
	ctx := newContext(t, 1)
	a := placeMonster(t, ctx, 1, 0, 50, 100)
	b := placeMonster(t, ctx, 1, 2, 70, 90)
	enemy := placeMonster(t, ctx, 2, 0, 60, 60)

	out := handleBuffMonster(ctx, board.Effect{
		Target:      "OWN_MONSTERS",
		ATKIncrease: 30,
		HPIncrease:  20,
	})
	require.Len(t, out.Records, 2)
	assert.Equal(t, 80, a.ATK)
	assert.Equal(t, 120, a.HP)
	assert.Equal(t, 120, a.MaxHP)
	assert.Equal(t, 100, b.ATK)
	assert.Equal(t, 60, enemy.ATK, "enemy untouched")
}

func TestBuffSingleEnemyRejected(t *testing.T) {
	ctx := newContext(t, 1)
	enemy := placeMonster(t, ctx, 2, 0, 60, 60)
	ctx.Target = Target{Player: 2, MonsterID: enemy.InstanceID}

	out := handleBuffMonster(ctx, board.Effect{ATKIncrease: 30})
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordInvalidTarget, out.Records[0].Type)
	assert.Equal(t, 60, enemy.ATK)
}

func TestDrawCardsUsesCountThenAmount(t *testing.T) {
	ctx := newContext(t, 1)
	p := ctx.State.Player(1)
	for i := 0; i < 5; i++ {
		p.Deck = append(p.Deck, board.NewInstance(&board.CardDefinition{Code: "D", Type: board.CardTypeMonster, Stars: 1, HP: 1}, 1))
	}

	out := handleDrawCards(ctx, board.Effect{Count: 2})
	require.Len(t, out.Records, 1)
	assert.Equal(t, 2, out.Records[0].Amount)
	assert.Len(t, p.Hand, 2)

	out = handleDrawCards(ctx, board.Effect{Amount: 1})
	assert.Equal(t, 1, out.Records[0].Amount)
	assert.Len(t, p.Hand, 3)
}

func TestFreezeMonster(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 50, 100)
	target.CanAttack = true
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleFreezeMonster(ctx, board.Effect{})
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordFreezeMonster, out.Records[0].Type)
	assert.True(t, target.HasStatus(board.StatusFrozen))
	assert.False(t, target.CanAttack)

	require.Len(t, target.Statuses, 1)
	assert.Equal(t, 2, target.Statuses[0].Remaining)
	assert.Equal(t, board.StatusImmune, target.Statuses[0].OnExpire)
}

func TestFreezeBlockedByImmunity(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 50, 100)
	target.AddStatus(board.Status{Code: board.StatusImmune, Remaining: 2})
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleFreezeMonster(ctx, board.Effect{})
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordStatusBlocked, out.Records[0].Type)
	assert.False(t, target.HasStatus(board.StatusFrozen))
}

func TestCleanseRestoresAttack(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 1, 0, 50, 100)
	target.AddStatus(board.Status{Code: board.StatusFrozen, Remaining: 2})
	target.CanAttack = false
	ctx.Target = Target{Player: 1, MonsterID: target.InstanceID}

	out := handleCleanseMonster(ctx, board.Effect{})
	require.Len(t, out.Records, 1)
	assert.Nil(t, target.Statuses)
	assert.True(t, target.CanAttack)
}

func TestHasteFlipsFaceUp(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 1, 0, 50, 100)
	target.FaceDown = true
	ctx.Target = Target{Player: 1, MonsterID: target.InstanceID}

	handleHaste(ctx, board.Effect{})
	assert.False(t, target.FaceDown)
	assert.True(t, target.CanAttack)
}

func TestHeroDamageOverflowsAlways(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 50, 60)
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleHeroDamage(ctx, board.Effect{Amount: 100})
	require.Len(t, out.Destroyed, 1)
	assert.Equal(t, board.StartingHP-40, ctx.State.Player(2).HP)
}

func TestHeroDamageDirectToPlayer(t *testing.T) {
	ctx := newContext(t, 1)
	ctx.Target = Target{Player: 2}
	out := handleHeroDamage(ctx, board.Effect{Amount: 100})
	require.Len(t, out.Records, 1)
	assert.Equal(t, board.StartingHP-100, ctx.State.Player(2).HP)
}

func newHeroContext(t *testing.T, charges int) *Context {
	ctx := newContext(t, 1)
	hero := board.NewInstance(&board.CardDefinition{
		Code: "H", Name: "hero", Type: board.CardTypeHero, Stars: 6, HP: 400,
	}, 1)
	hero.HeroCharges = charges
	ctx.State.Player(1).Hero = hero
	ctx.Source = hero
	return ctx
}

func TestSoulRendSpendsChargesAndDestroys(t *testing.T) {
	ctx := newHeroContext(t, 3)
	ally := placeMonster(t, ctx, 1, 0, 40, 80)
	target := placeMonster(t, ctx, 2, 0, 100, 250)
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleSoulRend(ctx, board.Effect{})
	require.Len(t, out.Destroyed, 1)
	assert.Equal(t, 0, ctx.Source.HeroCharges)
	assert.Equal(t, 0, target.HP)
	// Victim over the threshold feeds the lowest-HP ally.
	assert.Equal(t, 180, ally.HP)
	assert.Equal(t, 180, ally.MaxHP)
}

func TestSoulRendInsufficientCharges(t *testing.T) {
	ctx := newHeroContext(t, 1)
	target := placeMonster(t, ctx, 2, 0, 100, 250)
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleSoulRend(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	assert.Equal(t, 1, ctx.Source.HeroCharges)
	assert.Equal(t, 250, target.HP)
}

func TestSoulRendRequiresFaceUpTarget(t *testing.T) {
	ctx := newHeroContext(t, 3)
	target := placeMonster(t, ctx, 2, 0, 100, 250)
	target.FaceDown = true
	ctx.Target = Target{Player: 2, MonsterID: target.InstanceID}

	out := handleSoulRend(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	assert.Equal(t, 3, ctx.Source.HeroCharges)
}

func TestCounterSpellReflectVariant(t *testing.T) {
	ctx := newContext(t, 2)
	out := handleCounterSpell(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	assert.Equal(t, RecordCounterSpell, out.Records[0].Type)

	out = handleCounterSpell(ctx, board.Effect{ReflectSpell: true})
	assert.True(t, out.Cancelled)
	assert.Equal(t, RecordCounterReflect, out.Records[0].Type)
}

func TestNegateAttackReflectsAttackerATK(t *testing.T) {
	ctx := newContext(t, 2)
	attacker := placeMonster(t, ctx, 1, 0, 90, 80)
	ctx.Trigger = &TriggerEvent{
		Kind:            EventAttackDeclared,
		AttackerID:      attacker.InstanceID,
		AttackerATK:     attacker.ATK,
		AttackingPlayer: 1,
		DefendingPlayer: 2,
		Amount:          attacker.ATK,
	}

	out := handleNegateAttack(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	assert.Equal(t, 0, attacker.HP, "attacker eats its own ATK")
	require.Len(t, out.Destroyed, 1)
	assert.Equal(t, attacker.InstanceID, out.Destroyed[0].Card)
}

func TestReflectDamagePercentage(t *testing.T) {
	ctx := newContext(t, 2)
	ctx.Trigger = &TriggerEvent{
		Kind:            EventAttackDeclared,
		AttackingPlayer: 1,
		Amount:          200,
	}

	out := handleReflectDamage(ctx, board.Effect{Percentage: 50})
	assert.True(t, out.AttackCompleted)
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordReflectDamage, out.Records[0].Type)
	assert.Equal(t, board.StartingHP-100, ctx.State.Player(1).HP)
}

func TestPreventDestructionRestoresMinHP(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 1, 0, 50, 100)
	target.HP = 0
	ctx.Target = Target{Player: 1, MonsterID: target.InstanceID}

	out := handlePreventDestruction(ctx, board.Effect{})
	assert.False(t, out.Cancelled, "the triggering action still resolves")
	assert.Equal(t, 1, target.HP)
}

func TestPreventDestructionGrantsBarrierBeforeDamage(t *testing.T) {
	ctx := newContext(t, 1)
	target := placeMonster(t, ctx, 1, 0, 50, 100)
	ctx.Target = Target{Player: 1, MonsterID: target.InstanceID}

	out := handlePreventDestruction(ctx, board.Effect{MinHP: 30})
	assert.False(t, out.Cancelled)
	assert.Equal(t, 100, target.HP, "no damage has landed yet")
	s, ok := target.StatusByCode(board.StatusBarrier)
	require.True(t, ok)
	assert.Equal(t, 30, s.Magnitude)
}

func TestReflectIncomingStatusHitsSenderSide(t *testing.T) {
	ctx := newContext(t, 2)
	reboundee := placeMonster(t, ctx, 1, 0, 50, 100)
	reboundee.CanAttack = true
	ctx.Trigger = &TriggerEvent{
		Kind:            EventStatusIncoming,
		AttackingPlayer: 1,
		StatusCode:      board.StatusFrozen,
		StatusDuration:  2,
	}

	out := handleReflectIncomingStatus(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	assert.True(t, reboundee.HasStatus(board.StatusFrozen))
	assert.False(t, reboundee.CanAttack)
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordStatusReflected, out.Records[0].Type)
}

func TestReflectIncomingStatusWithoutReboundTargetStillCancels(t *testing.T) {
	ctx := newContext(t, 2)
	ctx.Trigger = &TriggerEvent{
		Kind:            EventStatusIncoming,
		AttackingPlayer: 1,
		StatusCode:      board.StatusFrozen,
	}

	out := handleReflectIncomingStatus(ctx, board.Effect{})
	assert.True(t, out.Cancelled)
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordNoTarget, out.Records[0].Type)
}

func TestDuplicateIncomingStatusKeepsOriginal(t *testing.T) {
	ctx := newContext(t, 2)
	reboundee := placeMonster(t, ctx, 1, 0, 50, 100)
	ctx.Trigger = &TriggerEvent{
		Kind:            EventStatusIncoming,
		AttackingPlayer: 1,
		StatusCode:      "POISON",
		StatusDuration:  3,
	}

	out := handleDuplicateIncomingStatus(ctx, board.Effect{})
	assert.False(t, out.Cancelled, "the original application proceeds")
	assert.True(t, reboundee.HasStatus("POISON"))
	require.Len(t, out.Records, 1)
	assert.Equal(t, RecordStatusDuplicated, out.Records[0].Type)
}
