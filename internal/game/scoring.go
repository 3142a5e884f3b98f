package game

// Score awards for a round
const (
	storytellerPoints  = 3
	correctGuessPoints = 3
	consolationPoints  = 2
)

// CalculateScores returns the score delta for every player in a completed
// voting round. It does not touch any room state.
//
// If nobody or everybody found the storyteller's card, the storyteller gets
// nothing and everyone else gets 2. Otherwise the storyteller and each correct
// guesser get 3. On top of that every other submission earns its owner one
// point per vote it received.
func CalculateScores(storytellerID string, submissions []Submission, votes map[string]int, playerIDs []string) map[string]int {
	deltas := make(map[string]int, len(playerIDs))
	for _, id := range playerIDs {
		deltas[id] = 0
	}

	storytellerNumber := 0
	for _, s := range submissions {
		if s.PlayerID == storytellerID {
			storytellerNumber = s.DisplayNumber
			break
		}
	}

	received := make(map[int]int, len(submissions))
	for _, number := range votes {
		received[number]++
	}
	correct := received[storytellerNumber]

	if correct == 0 || correct == len(playerIDs)-1 {
		for _, id := range playerIDs {
			if id != storytellerID {
				deltas[id] += consolationPoints
			}
		}
	} else {
		deltas[storytellerID] += storytellerPoints
		for voterID, number := range votes {
			if number == storytellerNumber {
				if _, ok := deltas[voterID]; ok {
					deltas[voterID] += correctGuessPoints
				}
			}
		}
	}

	for _, s := range submissions {
		if s.PlayerID == storytellerID {
			continue
		}
		if _, ok := deltas[s.PlayerID]; ok {
			deltas[s.PlayerID] += received[s.DisplayNumber]
		}
	}

	return deltas
}
