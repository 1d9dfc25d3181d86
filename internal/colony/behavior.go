package colony

import (
	"math"

	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/vec"
	"github.com/annel0/antsim/internal/world/block"
)

// Разница здоровья, ниже которой обмен не выполняется
const shareEpsilon = 0.001

// updateAgent выполняет один тик поведения муравья. Вызывается под c.mu.
func (c *Colony) updateAgent(a *Agent, dt float64) {
	if !c.decay(a, dt) {
		return
	}
	c.shareHealth(a, dt)
	c.tickAction(a, dt)
	if a.IsQueen() {
		c.tickNest(a, dt)
	}
}

// decay уменьшает здоровье; на кислоте вдвое быстрее. Возвращает false, если муравей умер.
func (c *Colony) decay(a *Agent, dt float64) bool {
	loss := c.cfg.DecayPerSecond * dt
	if c.grid.GetAt(a.Pos.Below()) == block.Acidic {
		loss *= 2
	}

	a.Health -= loss
	if a.Health > 0 {
		return true
	}

	c.kill(a)
	return false
}

func (c *Colony) kill(a *Agent) {
	a.Health = 0
	a.Alive = false
	a.SurvivalTime = c.clock - a.BirthTime

	c.index.Remove(a.ID)
	delete(c.byID, a.ID)
	c.stats.Deaths++

	c.log.Debug("💀 ANT DIED: survived %.1fs | %s", a.SurvivalTime, a.DNA)
	c.observer.AgentDied(*a)
}

// shareHealth выравнивает здоровье с муравьями в той же клетке.
// Пару обрабатывает только муравей с меньшим ID, скорость берётся из его ДНК.
func (c *Colony) shareHealth(a *Agent, dt float64) {
	for _, id := range c.index.At(a.Pos) {
		if id <= a.ID {
			continue
		}
		other, ok := c.byID[id]
		if !ok || !other.Alive {
			continue
		}

		diff := a.Health - other.Health
		if math.Abs(diff) < shareEpsilon {
			continue
		}

		amount := math.Min(a.DNA.HealthTransferRate*dt, math.Abs(diff)/2)
		if diff > 0 {
			a.Health -= amount
			other.Health += amount
		} else {
			a.Health += amount
			other.Health -= amount
		}
		a.AddHealth(0)
		other.AddHealth(0)
	}
}

// tickAction по истечении таймера пробует съесть, копать или идти
func (c *Colony) tickAction(a *Agent, dt float64) {
	a.ActionTimer -= dt
	if a.ActionTimer > 0 {
		return
	}
	a.ActionTimer = a.DNA.ActionInterval

	if c.rng.Float64() < a.DNA.EatMulchChance && c.tryEat(a) {
		return
	}
	if c.rng.Float64() < a.DNA.DigChance && c.tryDig(a) {
		return
	}
	c.tryMove(a)
}

// tryEat съедает мульчу под муравьём, если в клетке больше никого нет
func (c *Colony) tryEat(a *Agent) bool {
	below := a.Pos.Below()
	if c.grid.GetAt(below) != block.Mulch {
		return false
	}
	if c.index.Count(a.Pos) != 1 {
		return false
	}

	c.grid.SetAt(below, block.Air)
	a.AddHealth(c.cfg.EatRestore)
	c.stats.Eaten++
	return true
}

// tryDig убирает блок под муравьём и опускает его на клетку вниз
func (c *Colony) tryDig(a *Agent) bool {
	below := a.Pos.Below()
	if !c.grid.GetAt(below).Diggable() || c.grid.IsShell(below.X, below.Y, below.Z) {
		return false
	}

	c.grid.SetAt(below, block.Air)
	c.relocate(a, below)
	c.stats.Dug++
	return true
}

// tryMove делает шаг в случайном горизонтальном направлении, если перепад высот допустим
func (c *Colony) tryMove(a *Agent) bool {
	dest := a.Pos.Add(vec.Cardinals[c.rng.Intn(len(vec.Cardinals))])
	if !c.grid.InBounds(dest.X, 0, dest.Z) {
		return false
	}

	cur := c.grid.SurfaceHeight(a.Pos.X, a.Pos.Z)
	next := c.grid.SurfaceHeight(dest.X, dest.Z)
	if absInt(next-cur) > c.cfg.MaxStepHeight {
		return false
	}

	c.relocate(a, vec.Vec3{X: dest.X, Y: next + 1, Z: dest.Z})
	c.stats.Moves++
	return true
}

// tickNest отсчитывает таймер гнезда королевы и строит гнездо под ней
func (c *Colony) tickNest(a *Agent, dt float64) {
	a.NestTimer -= dt
	if a.NestTimer > 0 {
		return
	}
	a.NestTimer = c.cfg.NestBuildInterval

	cost := a.MaxHealth / 3
	if a.Health < cost {
		c.log.Trace("Queen %d too weak to build a nest (%.1f < %.1f)", a.ID, a.Health, cost)
		return
	}

	below := a.Pos.Below()
	if !c.grid.PlaceNest(below.X, below.Y, below.Z) {
		return
	}
	a.AddHealth(-cost)
	c.stats.Nests++
	c.observer.NestPlaced(*a, below)
}

func (c *Colony) relocate(a *Agent, to vec.Vec3) {
	from := a.Pos
	a.Pos = to
	c.index.Update(a.ID, to)
	logging.LogAgentMovement(a.ID, from.X, from.Y, from.Z, to.X, to.Y, to.Z)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
