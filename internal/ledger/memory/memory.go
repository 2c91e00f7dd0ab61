package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"expensify/internal/core"
	"expensify/internal/ledger"
)

var _ ledger.Ledger = (*Store)(nil)

// Store is an in-process ledger. It follows the same contract as the SQLite
// repository, including foreign-key checks on category references.
type Store struct {
	txMu  sync.Mutex // serializes WithinTx
	mu    sync.Mutex
	cats  []core.Category
	rules []core.RecurringRule
	items []core.Transaction
}

func New(cats []core.Category) *Store {
	return &Store{cats: dedupeCategories(cats)}
}

// NewFromFiles seeds categories from base/seed_categories.txt, one
// "id|name|color|icon" per line. Missing files fall back to the defaults.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = core.DefaultCategories()
	}
	return New(cats)
}

// ListCategories returns the seeded categories in insertion order.
func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) ListActiveRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringRule
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringRule(nil), s.rules...), nil
}

func (s *Store) GetRule(_ context.Context, ruleID string) (core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(ruleID)
	if i < 0 {
		return core.RecurringRule{}, fmt.Errorf("get rule %s: %w", ruleID, core.ErrRuleNotFound)
	}
	return s.rules[i], nil
}

func (s *Store) CreateRule(_ context.Context, rule core.RecurringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ruleIndex(rule.ID) >= 0 {
		return core.StorageError("create rule "+rule.ID, core.ErrDuplicate)
	}
	if rule.CategoryID != "" && !s.hasCategory(rule.CategoryID) {
		return core.StorageError("create rule "+rule.ID, core.ErrCategoryMissing)
	}
	s.rules = append(s.rules, rule)
	return nil
}

func (s *Store) SetRuleActive(_ context.Context, ruleID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(ruleID)
	if i < 0 {
		return fmt.Errorf("set rule active %s: %w", ruleID, core.ErrRuleNotFound)
	}
	s.rules[i].Active = active
	return nil
}

func (s *Store) DeleteRule(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(ruleID)
	if i < 0 {
		return fmt.Errorf("delete rule %s: %w", ruleID, core.ErrRuleNotFound)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	return nil
}

func (s *Store) UpdateRuleWatermark(_ context.Context, ruleID string, lastProcessed, nextDue core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.ruleIndex(ruleID)
	if i < 0 {
		return fmt.Errorf("update watermark %s: %w", ruleID, core.ErrRuleNotFound)
	}
	s.rules[i].LastProcessed = lastProcessed
	s.rules[i].NextDue = nextDue
	return nil
}

// InsertTransaction stores the transaction after checking its category
// reference and ID uniqueness.
func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCategory(tx.CategoryID) {
		return core.StorageError("insert transaction "+tx.ID, core.ErrCategoryMissing)
	}
	for _, existing := range s.items {
		if existing.ID == tx.ID {
			return core.StorageError("insert transaction "+tx.ID, core.ErrDuplicate)
		}
	}
	s.items = append(s.items, tx)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete transaction %s: %w", id, core.ErrTxNotFound)
}

// WithinTx snapshots rules and transactions and restores them if fn fails.
func (s *Store) WithinTx(_ context.Context, fn func(ledger.UnitOfWork) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	rules := append([]core.RecurringRule(nil), s.rules...)
	items := append([]core.Transaction(nil), s.items...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.rules, s.items = rules, items
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) ruleIndex(id string) int {
	for i, r := range s.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) hasCategory(id string) bool {
	for _, c := range s.cats {
		if c.ID == id {
			return true
		}
	}
	return false
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		out = append(out, core.Category{
			ID:    strings.TrimSpace(parts[0]),
			Name:  strings.TrimSpace(parts[1]),
			Color: strings.TrimSpace(parts[2]),
			Icon:  strings.TrimSpace(parts[3]),
		})
	}
	return dedupeCategories(out)
}

func dedupeCategories(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		if c.Name == "" {
			c.Name = c.ID
		}
		out = append(out, c)
	}
	// Preserve input order.
	return out
}
