package game

// Score compares a guess against a secret and returns bulls (right letter,
// right position) and bears (right letter, wrong position).
//
// Bull positions are excluded from bear matching on both sides. Bears then
// consume secret letters left to right: each remaining guess letter, scanned
// in position order, consumes the first unconsumed occurrence of that letter
// in the secret. With the dictionary restricted to unrepeated letters the
// consumption order is unobservable, but the rule keeps duplicates correct
// (no letter ever counts twice).
func Score(secret, guess string) (bulls, bears int) {
	secretLeft := []byte(secret)
	guessLeft := []byte(guess)

	for i := 0; i < len(guessLeft) && i < len(secretLeft); i++ {
		if secretLeft[i] == guessLeft[i] {
			bulls++
			secretLeft[i] = 0
			guessLeft[i] = 0
		}
	}

	for i := 0; i < len(guessLeft); i++ {
		if guessLeft[i] == 0 {
			continue
		}
		for j := 0; j < len(secretLeft); j++ {
			if secretLeft[j] == guessLeft[i] {
				bears++
				secretLeft[j] = 0
				break
			}
		}
	}

	return bulls, bears
}
