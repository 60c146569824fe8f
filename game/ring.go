package game

import "math/rand"

// AssignTargets builds the hunt ring: a random permutation of the players,
// each targeting the next, the last wrapping to the first. Player list order
// is left untouched; only targetId/targetName change. Called once when the
// game starts. Requires at least two players.
func AssignTargets(players []*Player) {
	ring := make([]*Player, len(players))
	copy(ring, players)
	rand.Shuffle(len(ring), func(i, j int) {
		ring[i], ring[j] = ring[j], ring[i]
	})

	for i, p := range ring {
		next := ring[(i+1)%len(ring)]
		p.TargetID = next.ID
		p.TargetName = next.Username
	}
}

// RingIntact reports whether the targetId links over the alive players form
// a single cycle covering all of them. Checked by tests and debug assertions.
func RingIntact(r *Room) bool {
	alive := r.AlivePlayers()
	if len(alive) == 0 {
		return true
	}

	visited := make(map[string]bool, len(alive))
	current := alive[0]
	for range alive {
		if !current.IsAlive || visited[current.ID] {
			return false
		}
		visited[current.ID] = true
		current = r.FindPlayer(current.TargetID)
		if current == nil {
			return false
		}
	}
	return current == alive[0] && len(visited) == len(alive)
}
