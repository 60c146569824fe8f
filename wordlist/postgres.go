package wordlist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// FromPostgres preloads the dictionary from the words table. The whole set is
// read once at startup; per-guess validation stays an in-memory lookup.
func FromPostgres(ctx context.Context, pool *pgxpool.Pool) (*Dictionary, error) {
	rows, err := pool.Query(ctx, "SELECT word FROM words")
	if err != nil {
		return nil, fmt.Errorf("querying words table: %w", err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, fmt.Errorf("scanning word row: %w", err)
		}
		entries = append(entries, word)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading words table: %w", err)
	}

	return New(entries), nil
}
