package agents

import (
	"time"

	"github.com/der-cain/npc-town/internal/geom"
)

// Body is the motion backend an agent steers. The simulation only issues
// move and stop commands and reads back position and velocity.
type Body interface {
	Position() geom.Point
	Velocity() geom.Point
	MoveTowards(target geom.Point, speed float64)
	Stop()
}

// KinematicBody is a point mass moving at constant velocity between
// commands. It does not stop at its target; callers detect arrival.
type KinematicBody struct {
	pos geom.Point
	vel geom.Point
}

// NewKinematicBody places a body at p, at rest.
func NewKinematicBody(p geom.Point) *KinematicBody {
	return &KinematicBody{pos: p}
}

func (b *KinematicBody) Position() geom.Point { return b.pos }
func (b *KinematicBody) Velocity() geom.Point { return b.vel }

// MoveTowards sets velocity toward target at speed. A target at the
// current position leaves the body at rest.
func (b *KinematicBody) MoveTowards(target geom.Point, speed float64) {
	d := target.Sub(b.pos)
	l := d.Len()
	if l == 0 || speed <= 0 {
		b.vel = geom.Point{}
		return
	}
	b.vel = d.Scale(speed / l)
}

func (b *KinematicBody) Stop() { b.vel = geom.Point{} }

// Integrate advances the position by velocity over dt.
func (b *KinematicBody) Integrate(dt time.Duration) {
	if b.vel.IsZero() || dt <= 0 {
		return
	}
	b.pos = b.pos.Add(b.vel.Scale(dt.Seconds()))
}

// Teleport moves the body to p and stops it.
func (b *KinematicBody) Teleport(p geom.Point) {
	b.pos = p
	b.vel = geom.Point{}
}

// reached reports whether the body has arrived at target: within radius,
// or moving and already past it.
func reached(b Body, target geom.Point, radius float64) bool {
	pos := b.Position()
	toTarget := target.Sub(pos)
	if toTarget.Len() < radius {
		return true
	}
	vel := b.Velocity()
	return !vel.IsZero() && vel.Dot(toTarget) <= 0
}
