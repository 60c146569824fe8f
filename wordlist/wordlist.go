// Package wordlist holds the dictionary of acceptable secret/guess words:
// 4-letter uppercase words with no repeated letters, queried by membership.
package wordlist

import (
	"bufio"
	"embed"
	"io"
	"math/rand"
	"os"
	"regexp"
	"strings"
)

//go:embed words.txt
var embedded embed.FS

// WordLength is fixed by the game rules.
const WordLength = 4

var wordPattern = regexp.MustCompile(`^[A-Z]{4}$`)

type Dictionary struct {
	words   map[string]struct{}
	ordered []string
}

// New builds a dictionary from raw entries. Entries are uppercased; anything
// that is not exactly four letters, or repeats a letter, is dropped.
func New(entries []string) *Dictionary {
	dict := &Dictionary{words: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		word := strings.ToUpper(strings.TrimSpace(entry))
		if !wordPattern.MatchString(word) || hasRepeats(word) {
			continue
		}
		if _, exists := dict.words[word]; exists {
			continue
		}
		dict.words[word] = struct{}{}
		dict.ordered = append(dict.ordered, word)
	}
	return dict
}

func hasRepeats(word string) bool {
	var seen [26]bool
	for _, r := range word {
		i := r - 'A'
		if seen[i] {
			return true
		}
		seen[i] = true
	}
	return false
}

// Contains reports whether word (case-insensitive) is a valid game word.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToUpper(word)]
	return ok
}

// Random returns an arbitrary dictionary word, for bots and tests.
func (d *Dictionary) Random() string {
	if len(d.ordered) == 0 {
		return ""
	}
	return d.ordered[rand.Intn(len(d.ordered))]
}

func (d *Dictionary) Len() int {
	return len(d.words)
}

func fromReader(r io.Reader) (*Dictionary, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(entries), nil
}

// FromFile loads a plain text word list, one word per line.
func FromFile(path string) (*Dictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return fromReader(file)
}

// Embedded returns the word list compiled into the binary.
func Embedded() *Dictionary {
	file, err := embedded.Open("words.txt")
	if err != nil {
		// The embed directive guarantees the file exists.
		panic(err)
	}
	defer file.Close()

	dict, err := fromReader(file)
	if err != nil {
		panic(err)
	}
	return dict
}
