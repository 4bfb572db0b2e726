package loop

import "math/rand/v2"

// DeterrentMessage is reported when the start guard trips.
const DeterrentMessage = "- ANTICHEAT -\nClose your developer tools!"

var endMessages = map[Reason][]string{
	ReasonOxygen: {
		"Take a deep breath!",
		"Oxygen is life!",
		"Don't forget to breathe!",
	},
	ReasonCollision: {
		"Mind the containers!",
		"Stop headbutting the cargo!",
		"Work on your finesse!",
	},
}

// Messages returns the end-of-run messages for reason.
func Messages(reason Reason) []string {
	return endMessages[reason]
}

func pickMessage(rng *rand.Rand, reason Reason) string {
	msgs := endMessages[reason]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[rng.IntN(len(msgs))]
}
