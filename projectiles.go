package server

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"skyjack/server/internal/physics"
)

// projectileState is the authoritative record for one live projectile.
type projectileState struct {
	id        string
	ownerID   string
	createdAt time.Time
	pos       mgl64.Vec3
	vel       mgl64.Vec3
}

func (q *projectileState) snapshot() ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:       q.id,
		Position: vec3From(q.pos),
		Velocity: vec3From(q.vel),
		Owner:    q.ownerID,
	}
}

func (w *World) spawnProjectile(ownerID string, origin, dir mgl64.Vec3, now time.Time) *projectileState {
	vel := dir.Mul(w.cfg.Weapon.ProjectileSpeed)

	body := w.phys.CreateBody(physics.BodyDesc{
		Type:     physics.BodyDynamic,
		Position: origin,
	})
	w.phys.AttachCollider(body, physics.ColliderDesc{
		Shape:       physics.Ball(w.cfg.Weapon.ProjectileRadius),
		Density:     1,
		Friction:    0.2,
		Restitution: 0.4,
	})
	w.phys.SetLinearVelocity(body, vel)

	q := &projectileState{
		id:        w.nextProjectileID(),
		ownerID:   ownerID,
		createdAt: now,
		pos:       origin,
		vel:       vel,
	}
	w.projectiles[q.id] = q
	w.projectileBodies[q.id] = body
	return q
}

// removeProjectile frees the body and record together so the registry
// and the physics world never hold orphaned halves.
func (w *World) removeProjectile(id string) {
	if body, ok := w.projectileBodies[id]; ok {
		w.phys.RemoveBody(body)
		delete(w.projectileBodies, id)
	}
	delete(w.projectiles, id)
}
