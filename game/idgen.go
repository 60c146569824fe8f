package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/MohitJain-git/wordle-royale/storage"
)

const (
	roomCodeLength   = 4
	roomCodeChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeAttempts = 16
)

func randomRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
	}
	return string(code)
}

// newRoomID generates a short code not currently present in the store.
// Collisions inside the TTL window are possible, so each candidate is
// checked and regenerated on a hit.
func (s *Service) newRoomID(ctx context.Context) (string, error) {
	for i := 0; i < roomCodeAttempts; i++ {
		code := randomRoomCode()
		_, err := s.store.Get(ctx, roomKey(code))
		if errors.Is(err, storage.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a free room code after %d attempts", roomCodeAttempts)
}
