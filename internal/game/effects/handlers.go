package effects

import (
	"github.com/projectsquall/battle-server-go/internal/game/board"
)

// monsterRef resolves the context's monster target to its current field
// position. Returns false when no monster target is set or it has left the
// field.
func monsterRef(ctx *Context) (*board.CardInstance, int, int, bool) {
	if ctx.Target.MonsterID == "" {
		return nil, 0, 0, false
	}
	return ctx.State.FindMonster(ctx.Target.MonsterID)
}

func noTarget(ctx *Context, reason string) Outcome {
	return Outcome{Records: []board.EffectRecord{{
		Type:   RecordNoTarget,
		Reason: reason,
		Card:   ctx.Source.InstanceID,
	}}}
}

func damagePlayer(ctx *Context, playerIndex, amount int) Outcome {
	before, after := ctx.State.Player(playerIndex).ApplyDamage(amount)
	return Outcome{Records: []board.EffectRecord{{
		Type:     RecordDamagePlayer,
		Player:   playerIndex,
		Amount:   amount,
		HPBefore: before,
		HPAfter:  after,
	}}}
}

func damageMonster(ctx *Context, amount int, overflow bool) Outcome {
	card, playerIdx, zone, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	before := card.HP
	after := before - max(0, amount)
	if after < 0 {
		after = 0
	}
	card.HP = after

	out := Outcome{Records: []board.EffectRecord{{
		Type:     RecordDamageMonster,
		Player:   playerIdx,
		Card:     card.InstanceID,
		Amount:   amount,
		HPBefore: before,
		HPAfter:  after,
	}}}
	if after <= 0 {
		out.Destroyed = append(out.Destroyed, DestroyedRef{Player: playerIdx, Zone: zone, Card: card.InstanceID})
	}

	// Overflow routes the excess beyond lethal to the controller's HP.
	if overflow {
		if excess := amount - before; excess > 0 {
			out.merge(damagePlayer(ctx, playerIdx, excess))
		}
	}
	return out
}

func handleDamageMonster(ctx *Context, eff board.Effect) Outcome {
	return damageMonster(ctx, eff.Amount, eff.OverflowToPlayer)
}

func handleDamagePlayer(ctx *Context, eff board.Effect) Outcome {
	target := ctx.Target.Player
	if target == 0 {
		target = board.OpponentIndex(ctx.SourcePlayer)
	}
	return damagePlayer(ctx, target, eff.Amount)
}

func handleHealPlayer(ctx *Context, eff board.Effect) Outcome {
	target := ctx.Target.Player
	if target == 0 {
		target = ctx.SourcePlayer
	}
	before, after := ctx.State.Player(target).Heal(eff.Amount)
	return Outcome{Records: []board.EffectRecord{{
		Type:     RecordHealPlayer,
		Player:   target,
		Amount:   eff.Amount,
		HPBefore: before,
		HPAfter:  after,
	}}}
}

func handleHealMonster(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	before := card.HP
	after := before + max(0, eff.Amount)
	if after > card.MaxHP {
		after = card.MaxHP
	}
	card.HP = after
	return Outcome{Records: []board.EffectRecord{{
		Type:     RecordHealMonster,
		Player:   playerIdx,
		Card:     card.InstanceID,
		Amount:   eff.Amount,
		HPBefore: before,
		HPAfter:  after,
	}}}
}

func buffOne(card *board.CardInstance, playerIdx int, atkInc, hpInc int) board.EffectRecord {
	rec := board.EffectRecord{
		Type:        RecordBuffMonster,
		Player:      playerIdx,
		Card:        card.InstanceID,
		ATKBefore:   card.ATK,
		HPBefore:    card.HP,
		MaxHPBefore: card.MaxHP,
	}
	card.ATK += atkInc
	card.MaxHP += hpInc
	card.HP += hpInc
	if card.HP > card.MaxHP {
		card.HP = card.MaxHP
	}
	rec.ATKAfter = card.ATK
	rec.HPAfter = card.HP
	rec.MaxHPAfter = card.MaxHP
	return rec
}

func handleBuffMonster(ctx *Context, eff board.Effect) Outcome {
	switch eff.Target {
	case "OWN_MONSTERS", "SELF_MONSTERS", "ALL_MONSTERS":
		var out Outcome
		sides := []int{ctx.SourcePlayer}
		if eff.Target == "ALL_MONSTERS" {
			sides = []int{1, 2}
		}
		for _, idx := range sides {
			for _, card := range ctx.State.Player(idx).MonsterZones {
				if card == nil {
					continue
				}
				out.Records = append(out.Records, buffOne(card, idx, eff.ATKIncrease, eff.HPIncrease))
			}
		}
		return out
	}

	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	if playerIdx != ctx.SourcePlayer {
		return Outcome{Records: []board.EffectRecord{{
			Type:   RecordInvalidTarget,
			Reason: "CANNOT_BUFF_ENEMY_MONSTER",
			Card:   ctx.Source.InstanceID,
		}}}
	}
	return Outcome{Records: []board.EffectRecord{buffOne(card, playerIdx, eff.ATKIncrease, eff.HPIncrease)}}
}

func handleDrawCards(ctx *Context, eff board.Effect) Outcome {
	count := eff.Count
	if count == 0 {
		count = eff.Amount
	}
	if count <= 0 {
		return Outcome{}
	}
	target := ctx.Target.Player
	if target == 0 {
		target = ctx.SourcePlayer
	}
	drawn, _ := ctx.State.Player(target).Draw(count, ctx.RNG)
	ids := make([]string, 0, len(drawn))
	for _, c := range drawn {
		ids = append(ids, c.InstanceID)
	}
	return Outcome{Records: []board.EffectRecord{{
		Type:   RecordDrawCards,
		Player: target,
		Amount: len(drawn),
		Drawn:  ids,
	}}}
}

func handleFreezeMonster(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	duration := eff.DurationTurns
	if duration == 0 {
		duration = 2 // one round: until the end of the controller's next turn
	}
	onExpire := eff.OnExpire
	if onExpire == "" {
		onExpire = board.StatusImmune // blocks freeze re-application spam
	}
	applied := card.AddStatus(board.Status{
		Code:      board.StatusFrozen,
		Remaining: duration,
		OnExpire:  onExpire,
	})
	if !applied {
		return Outcome{Records: []board.EffectRecord{{
			Type:       RecordStatusBlocked,
			Reason:     board.StatusImmune,
			Player:     playerIdx,
			Card:       card.InstanceID,
			StatusCode: board.StatusFrozen,
		}}}
	}
	card.CanAttack = false
	return Outcome{Records: []board.EffectRecord{{
		Type:       RecordFreezeMonster,
		Player:     playerIdx,
		Card:       card.InstanceID,
		CardName:   card.Name,
		StatusCode: board.StatusFrozen,
	}}}
}

func handleApplyStatus(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	status := board.Status{
		Code:      eff.StatusCode,
		Magnitude: eff.Amount,
		Remaining: eff.DurationTurns,
		OnExpire:  eff.OnExpire,
	}
	if !card.AddStatus(status) {
		return Outcome{Records: []board.EffectRecord{{
			Type:       RecordStatusBlocked,
			Reason:     board.StatusImmune,
			Player:     playerIdx,
			Card:       card.InstanceID,
			StatusCode: eff.StatusCode,
		}}}
	}
	if status.Code == board.StatusFrozen {
		card.CanAttack = false
	}
	return Outcome{Records: []board.EffectRecord{{
		Type:       RecordStatusApplied,
		Player:     playerIdx,
		Card:       card.InstanceID,
		StatusCode: eff.StatusCode,
	}}}
}

func handleCleanseMonster(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	wasFrozen := card.HasStatus(board.StatusFrozen)
	card.Statuses = nil
	if wasFrozen && !card.FaceDown {
		card.CanAttack = true
	}
	return Outcome{Records: []board.EffectRecord{{
		Type:   RecordCleanseMonster,
		Player: playerIdx,
		Card:   card.InstanceID,
	}}}
}

// handleHaste lets a monster attack immediately, flipping it face-up first
// since face-down monsters cannot attack.
func handleHaste(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	card.FaceDown = false
	card.CanAttack = true
	return Outcome{Records: []board.EffectRecord{{
		Type:     RecordHaste,
		Player:   playerIdx,
		Card:     card.InstanceID,
		CardName: card.Name,
	}}}
}

// handleHeroDamage deals damage to a monster with overflow always routed to
// its controller, or directly to a player when no monster target is set.
func handleHeroDamage(ctx *Context, eff board.Effect) Outcome {
	if eff.Amount <= 0 {
		return Outcome{}
	}
	if _, _, _, ok := monsterRef(ctx); ok {
		return damageMonster(ctx, eff.Amount, true)
	}
	if ctx.Target.Player != 0 {
		return damagePlayer(ctx, ctx.Target.Player, eff.Amount)
	}
	return noTarget(ctx, "NO_MONSTER_OR_PLAYER_TARGET")
}

// handleSoulRend is a charge-cost hero active: destroy one face-up enemy
// monster; if its HP exceeded a threshold, buff the controller's lowest-HP
// monster.
func handleSoulRend(ctx *Context, eff board.Effect) Outcome {
	chargeCost := eff.ChargeCost
	if chargeCost == 0 {
		chargeCost = 3
	}
	hero := ctx.Source
	if hero.HeroCharges < chargeCost {
		return Outcome{
			Cancelled: true,
			Records: []board.EffectRecord{{
				Type:   RecordInvalidTarget,
				Reason: "NOT_ENOUGH_CHARGES",
				Card:   hero.InstanceID,
				Amount: hero.HeroCharges,
			}},
		}
	}

	card, playerIdx, zone, ok := monsterRef(ctx)
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	if card.FaceDown {
		return Outcome{
			Cancelled: true,
			Records: []board.EffectRecord{{
				Type:   RecordInvalidTarget,
				Reason: "TARGET_MUST_BE_FACE_UP",
				Card:   card.InstanceID,
			}},
		}
	}

	hpBefore := card.HP
	hero.HeroCharges -= chargeCost
	card.HP = 0

	out := Outcome{
		Records: []board.EffectRecord{
			{
				Type:   RecordSpendCharges,
				Card:   hero.InstanceID,
				Amount: chargeCost,
			},
			{
				Type:     RecordDestroyMonster,
				Player:   playerIdx,
				Card:     card.InstanceID,
				HPBefore: hpBefore,
				HPAfter:  0,
			},
		},
		Destroyed: []DestroyedRef{{Player: playerIdx, Zone: zone, Card: card.InstanceID}},
	}

	threshold := eff.Amount
	if threshold == 0 {
		threshold = 200
	}
	buff := eff.HPIncrease
	if buff == 0 {
		buff = 100
	}
	if hpBefore > threshold {
		if ally := lowestHPMonster(ctx.State.Player(ctx.SourcePlayer)); ally != nil {
			out.Records = append(out.Records, buffOne(ally, ctx.SourcePlayer, 0, buff))
		}
	}
	return out
}

func lowestHPMonster(p *board.PlayerState) *board.CardInstance {
	var lowest *board.CardInstance
	for _, card := range p.MonsterZones {
		if card == nil {
			continue
		}
		if lowest == nil || card.HP < lowest.HP {
			lowest = card
		}
	}
	return lowest
}

// handleCounterSpell cancels the triggering spell chain. The reflect variant
// additionally asks the action layer to re-target the spell's effects back at
// the caster's side.
func handleCounterSpell(ctx *Context, eff board.Effect) Outcome {
	recordType := RecordCounterSpell
	if eff.ReflectSpell {
		recordType = RecordCounterReflect
	}
	return Outcome{
		Cancelled: true,
		Records: []board.EffectRecord{{
			Type: recordType,
			Card: ctx.Source.InstanceID,
		}},
	}
}

// handleNegateAttack cancels a declared attack and, unless disabled, deals
// the attacker's own ATK back to it.
func handleNegateAttack(ctx *Context, eff board.Effect) Outcome {
	if ctx.Trigger == nil || ctx.Trigger.AttackerID == "" {
		return noTarget(ctx, "NO_ATTACKER")
	}
	attacker, attackerPlayer, zone, ok := ctx.State.FindMonster(ctx.Trigger.AttackerID)
	if !ok {
		return noTarget(ctx, "ATTACKER_NOT_FOUND")
	}

	out := Outcome{
		Cancelled: true,
		Records: []board.EffectRecord{{
			Type:   RecordNegateAttack,
			Card:   ctx.Source.InstanceID,
			Player: attackerPlayer,
		}},
	}

	damage := eff.Amount
	if damage == 0 {
		damage = ctx.Trigger.AttackerATK
	}
	if damage > 0 {
		before := attacker.HP
		after := before - damage
		if after < 0 {
			after = 0
		}
		attacker.HP = after
		out.Records = append(out.Records, board.EffectRecord{
			Type:     RecordDamageMonster,
			Player:   attackerPlayer,
			Card:     attacker.InstanceID,
			Amount:   damage,
			HPBefore: before,
			HPAfter:  after,
		})
		if after <= 0 {
			out.Destroyed = append(out.Destroyed, DestroyedRef{Player: attackerPlayer, Zone: zone, Card: attacker.InstanceID})
		}
	}
	return out
}

// handleReflectDamage sends a percentage of the incoming damage back to the
// attacking player and marks the attack as fully handled.
func handleReflectDamage(ctx *Context, eff board.Effect) Outcome {
	if ctx.Trigger == nil || ctx.Trigger.AttackingPlayer == 0 {
		return Outcome{}
	}
	pct := eff.Percentage
	if pct == 0 {
		pct = 100
	}
	reflected := ctx.Trigger.Amount * pct / 100
	if reflected <= 0 {
		return Outcome{}
	}
	out := damagePlayer(ctx, ctx.Trigger.AttackingPlayer, reflected)
	for i := range out.Records {
		if out.Records[i].Type == RecordDamagePlayer {
			out.Records[i].Type = RecordReflectDamage
		}
	}
	out.AttackCompleted = true
	return out
}

// handlePreventDestruction shields a monster from a pending lethal outcome.
// Fired before the damage lands it grants a barrier the destruction step
// consumes, leaving the monster at the floor; fired with HP already at zero
// it restores the floor directly. The rest of the triggering action still
// resolves.
func handlePreventDestruction(ctx *Context, eff board.Effect) Outcome {
	card, playerIdx, _, ok := monsterRef(ctx)
	if !ok && ctx.Trigger != nil && ctx.Trigger.MonsterInstanceID != "" {
		card, playerIdx, _, ok = ctx.State.FindMonster(ctx.Trigger.MonsterInstanceID)
	}
	if !ok {
		return noTarget(ctx, "MONSTER_NOT_FOUND")
	}
	minHP := eff.MinHP
	if minHP == 0 {
		minHP = 1
	}
	before := card.HP
	after := before
	if before <= 0 {
		card.HP = minHP
		after = minHP
	} else if !card.HasStatus(board.StatusBarrier) {
		// Appended directly: STATUS_IMMUNE only blocks hostile applications.
		card.Statuses = append(card.Statuses, board.Status{
			Code:      board.StatusBarrier,
			Magnitude: minHP,
			Remaining: 2,
		})
	}
	return Outcome{Records: []board.EffectRecord{{
		Type:       RecordPreventDestruction,
		Player:     playerIdx,
		Card:       card.InstanceID,
		CardName:   card.Name,
		StatusCode: board.StatusBarrier,
		HPBefore:   before,
		HPAfter:    after,
	}}}
}

// reboundTarget picks the monster an incoming status rebounds onto: the first
// occupied zone on the side that sent it.
func reboundTarget(ctx *Context, ev *TriggerEvent) (*board.CardInstance, int, bool) {
	if ev.AttackingPlayer == 0 {
		return nil, 0, false
	}
	for _, card := range ctx.State.Player(ev.AttackingPlayer).MonsterZones {
		if card != nil {
			return card, ev.AttackingPlayer, true
		}
	}
	return nil, 0, false
}

func applyIncomingStatus(card *board.CardInstance, ev *TriggerEvent) bool {
	applied := card.AddStatus(board.Status{
		Code:      ev.StatusCode,
		Remaining: ev.StatusDuration,
		OnExpire:  ev.StatusOnExpire,
	})
	if applied && ev.StatusCode == board.StatusFrozen {
		card.CanAttack = false
	}
	return applied
}

// handleReflectIncomingStatus sends the status that was about to land back at
// a monster on the sender's side and cancels the original application.
func handleReflectIncomingStatus(ctx *Context, eff board.Effect) Outcome {
	ev := ctx.Trigger
	if ev == nil || ev.StatusCode == "" {
		return noTarget(ctx, "NO_INCOMING_STATUS")
	}
	card, owner, ok := reboundTarget(ctx, ev)
	if !ok {
		return Outcome{Cancelled: true, Records: []board.EffectRecord{{
			Type:   RecordNoTarget,
			Reason: "NO_REBOUND_TARGET",
			Card:   ctx.Source.InstanceID,
		}}}
	}
	rec := board.EffectRecord{
		Type:       RecordStatusReflected,
		Player:     owner,
		Card:       card.InstanceID,
		CardName:   card.Name,
		StatusCode: ev.StatusCode,
	}
	if !applyIncomingStatus(card, ev) {
		rec.Type = RecordStatusBlocked
		rec.Reason = board.StatusImmune
	}
	return Outcome{Cancelled: true, Records: []board.EffectRecord{rec}}
}

// handleDuplicateIncomingStatus copies the incoming status onto a monster on
// the sender's side while the original target still receives it.
func handleDuplicateIncomingStatus(ctx *Context, eff board.Effect) Outcome {
	ev := ctx.Trigger
	if ev == nil || ev.StatusCode == "" {
		return noTarget(ctx, "NO_INCOMING_STATUS")
	}
	card, owner, ok := reboundTarget(ctx, ev)
	if !ok {
		return noTarget(ctx, "NO_REBOUND_TARGET")
	}
	rec := board.EffectRecord{
		Type:       RecordStatusDuplicated,
		Player:     owner,
		Card:       card.InstanceID,
		CardName:   card.Name,
		StatusCode: ev.StatusCode,
	}
	if !applyIncomingStatus(card, ev) {
		rec.Type = RecordStatusBlocked
		rec.Reason = board.StatusImmune
	}
	return Outcome{Records: []board.EffectRecord{rec}}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
