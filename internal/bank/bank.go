// Package bank loads the static question bank consumed by the game
// engine. The bank is a JSON object mapping category names to their
// question records; it is read once at startup and never written.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/buzzboard/buzzboard-backend/internal/engine"
)

var ErrEmptyBank = errors.New("question bank is empty")
var ErrDuplicateID = errors.New("duplicate question id")
var ErrUnevenBoard = errors.New("categories expose different amounts")

// Record mirrors one entry of the question bank file.
type Record struct {
	Category string `json:"category"`
	Amount   int    `json:"amount"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	ID       string `json:"id"`
}

type Bank struct {
	byCategory map[string][]Record
}

func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Bank, error) {
	var byCategory map[string][]Record
	if err := json.Unmarshal(data, &byCategory); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	b := &Bank{byCategory: byCategory}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bank) validate() error {
	if len(b.byCategory) == 0 {
		return ErrEmptyBank
	}

	seen := make(map[string]bool)
	var reference []int
	for _, name := range b.Categories() {
		records := b.byCategory[name]
		amounts := make([]int, 0, len(records))
		for _, r := range records {
			if r.ID == "" || seen[r.ID] {
				return fmt.Errorf("%w: %q in category %q", ErrDuplicateID, r.ID, name)
			}
			seen[r.ID] = true
			amounts = append(amounts, r.Amount)
		}
		sort.Ints(amounts)
		if reference == nil {
			reference = amounts
		} else if !slices.Equal(reference, amounts) {
			// Every column must form the same grid or the board
			// cannot render uniformly.
			return fmt.Errorf("%w: category %q", ErrUnevenBoard, name)
		}
	}
	return nil
}

// Categories returns category names in stable (sorted) order. JSON
// objects carry no ordering, so sorting keeps the board deterministic
// across restarts.
func (b *Bank) Categories() []string {
	names := make([]string, 0, len(b.byCategory))
	for name := range b.byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Amounts returns the point values shared by every category, ascending.
func (b *Bank) Amounts() []int {
	for _, records := range b.byCategory {
		amounts := make([]int, 0, len(records))
		for _, r := range records {
			amounts = append(amounts, r.Amount)
		}
		sort.Ints(amounts)
		return amounts
	}
	return nil
}

// Board converts the bank into the engine's category grid, questions
// sorted by amount within each category, all flags cleared.
func (b *Bank) Board() []engine.Category {
	board := make([]engine.Category, 0, len(b.byCategory))
	for _, name := range b.Categories() {
		records := slices.Clone(b.byCategory[name])
		sort.Slice(records, func(i, j int) bool { return records[i].Amount < records[j].Amount })

		questions := make([]engine.Question, 0, len(records))
		for _, r := range records {
			questions = append(questions, engine.Question{
				ID:       r.ID,
				Category: name,
				Amount:   r.Amount,
				Value:    r.Amount,
				Prompt:   r.Question,
				Answer:   r.Answer,
			})
		}
		board = append(board, engine.Category{Name: name, Questions: questions})
	}
	return board
}
