package game

import (
	"fmt"
	"math/rand/v2"
)

// Agent names, sea creatures all of them
var agentNames = []string{
	"Crab", "Shrimp", "Octopus", "Jellyfish", "Starfish", "Seashell",
	"Whale", "Dolphin", "Turtle", "Pufferfish", "Clownfish", "Seahorse",
	"Coral", "Kelp", "Squid", "Tuna", "Shark", "Conch",
	"Clam", "Mussel", "Scallop", "Urchin", "Sea Cucumber", "Lobster King",
}

// One word clues an agent storyteller picks from
var storyHints = []string{
	"Dream", "Memory", "Adventure", "Secret", "Far away", "Childhood",
	"Moonlight", "Lost", "Treasure", "Magic", "Starry sky", "Forest",
	"Ocean", "Flight", "Time", "Friendship", "Courage", "Hope",
	"Mystery", "Miracle", "Solitude", "Warmth", "Farewell", "Reunion",
}

// pickAgentNameLocked returns a random agent name not already seated
func (r *Room) pickAgentNameLocked() string {
	used := make(map[string]bool)
	agents := 0
	for _, p := range r.Players {
		if p.IsAgent() {
			used[p.Name] = true
			agents++
		}
	}
	free := make([]string, 0, len(agentNames))
	for _, n := range agentNames {
		if !used[n] {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		return fmt.Sprintf("Bot %d", agents+1)
	}
	return free[rand.IntN(len(free))]
}
