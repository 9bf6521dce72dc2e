package entity

// Registry owns the player and the monsters of one level. Monster IDs are
// assigned on Spawn starting at 1, and iteration follows insertion order.
//
// Registry is not safe for concurrent use; the simulation mutates it from a
// single goroutine.
type Registry struct {
	player   *Player
	monsters map[ID]*Monster
	order    []ID
	nextID   ID
}

// NewRegistry creates a Registry owning player.
//
// Precondition: player must be non-nil.
func NewRegistry(player *Player) *Registry {
	return &Registry{
		player:   player,
		monsters: make(map[ID]*Monster),
		nextID:   PlayerID + 1,
	}
}

// Player returns the level's player.
func (r *Registry) Player() *Player { return r.player }

// Spawn assigns m a fresh ID and registers it.
//
// Precondition: m must be non-nil.
// Postcondition: m.ID is unique and greater than every previously assigned ID.
func (r *Registry) Spawn(m *Monster) ID {
	m.ID = r.nextID
	r.nextID++
	r.monsters[m.ID] = m
	r.order = append(r.order, m.ID)
	return m.ID
}

// Get returns the monster with id. Removed monsters are not found.
func (r *Registry) Get(id ID) (*Monster, bool) {
	m, ok := r.monsters[id]
	return m, ok
}

// Live returns a snapshot of every monster not yet Removed, in insertion order.
// Mutating the registry while ranging over the result is safe.
func (r *Registry) Live() []*Monster {
	out := make([]*Monster, 0, len(r.order))
	for _, id := range r.order {
		if m, ok := r.monsters[id]; ok && m.State != Removed {
			out = append(out, m)
		}
	}
	return out
}

// Remove marks the monster Removed and drops it from the registry.
//
// Postcondition: returns true only for the call that removed the monster;
// removing an unknown or already-removed id is a no-op returning false.
func (r *Registry) Remove(id ID) bool {
	m, ok := r.monsters[id]
	if !ok {
		return false
	}
	m.State = Removed
	delete(r.monsters, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered (not removed) monsters.
func (r *Registry) Len() int { return len(r.monsters) }
