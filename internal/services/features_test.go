package services_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/shopspring/decimal"

	"expensify/internal/core"
	"expensify/internal/ledger/memory"
	"expensify/internal/services"
)

// TestFeatures runs the recurring processing scenarios in features/.
func TestFeatures(t *testing.T) {
	opts := godog.Options{
		Format:    "pretty",
		Paths:     []string{"features"},
		Output:    colors.Colored(os.Stdout),
		Randomize: 0,
		Strict:    true,
		TestingT:  t,
	}
	if tags := os.Getenv("GODOG_TAGS"); tags != "" {
		opts.Tags = tags
	}

	suite := godog.TestSuite{
		Name:                "recurring-processing",
		ScenarioInitializer: initializeScenario,
		Options:             &opts,
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

type scenario struct {
	store     *memory.Store
	processor *services.RecurringProcessor
	last      services.PassSummary
}

func initializeScenario(sc *godog.ScenarioContext) {
	s := &scenario{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.store = memory.New(core.DefaultCategories())
		s.processor = services.NewRecurringProcessor(s.store, nil, services.ProcessorConfig{})
		s.last = services.PassSummary{}
		return ctx, nil
	})

	sc.Step(`^an empty ledger$`, func() error { return nil })
	sc.Step(`^a monthly income rule "([^"]*)" of (\d+) on day (\d+)$`, s.monthlyIncomeRule)
	sc.Step(`^a monthly expense rule "([^"]*)" of (\d+) in "([^"]*)" on day (\d+)$`, s.monthlyExpenseRule)
	sc.Step(`^a weekly expense rule "([^"]*)" of (\d+) in "([^"]*)" on weekday (\d+)$`, s.weeklyExpenseRule)
	sc.Step(`^a yearly expense rule "([^"]*)" of (\d+) in "([^"]*)" on month (\d+) day (\d+)$`, s.yearlyExpenseRule)
	sc.Step(`^rule "([^"]*)" was already processed through "([^"]*)"$`, s.setLastProcessed)
	sc.Step(`^rule "([^"]*)" is paused$`, s.pause)
	sc.Step(`^the processor runs on "([^"]*)"$`, s.run)
	sc.Step(`^the ledger holds (\d+) transactions?$`, s.ledgerHolds)
	sc.Step(`^rule "([^"]*)" produced a transaction on "([^"]*)" filed under "([^"]*)"$`, s.producedTransaction)
	sc.Step(`^rule "([^"]*)" was last processed on "([^"]*)"$`, s.assertLastProcessed)
	sc.Step(`^rule "([^"]*)" is next due on "([^"]*)"$`, s.assertNextDue)
	sc.Step(`^the last pass created (\d+) transactions?$`, s.lastPassCreated)
	sc.Step(`^rule "([^"]*)" failed with a configuration error$`, s.failedWithConfiguration)
}

func (s *scenario) addRule(rule core.RecurringRule) error {
	rule.Active = true
	return s.store.CreateRule(context.Background(), rule)
}

func (s *scenario) monthlyIncomeRule(id string, amount, day int) error {
	return s.addRule(core.RecurringRule{ID: id, Amount: decimal.NewFromInt(int64(amount)), IsIncome: true, RecurrenceType: core.Monthly, Day: day})
}

func (s *scenario) monthlyExpenseRule(id string, amount int, category string, day int) error {
	return s.addRule(core.RecurringRule{ID: id, Amount: decimal.NewFromInt(int64(amount)), CategoryID: category, RecurrenceType: core.Monthly, Day: day})
}

func (s *scenario) weeklyExpenseRule(id string, amount int, category string, weekday int) error {
	return s.addRule(core.RecurringRule{ID: id, Amount: decimal.NewFromInt(int64(amount)), CategoryID: category, RecurrenceType: core.Weekly, Weekday: weekday})
}

func (s *scenario) yearlyExpenseRule(id string, amount int, category string, month, day int) error {
	return s.addRule(core.RecurringRule{ID: id, Amount: decimal.NewFromInt(int64(amount)), CategoryID: category, RecurrenceType: core.Yearly, Month: month, Day: day})
}

func (s *scenario) setLastProcessed(id, date string) error {
	last, err := core.ParseISODate(date)
	if err != nil {
		return err
	}
	return s.store.UpdateRuleWatermark(context.Background(), id, last, core.Date{})
}

func (s *scenario) pause(id string) error {
	return s.store.SetRuleActive(context.Background(), id, false)
}

func (s *scenario) run(date string) error {
	day, err := core.ParseISODate(date)
	if err != nil {
		return err
	}
	summary, err := s.processor.ProcessAllDueRules(context.Background(), day.Time)
	if err != nil {
		return err
	}
	s.last = summary
	return nil
}

func (s *scenario) transactions() ([]core.Transaction, error) {
	return s.store.ListTransactions(context.Background(), core.NewDate(1900, 1, 1), core.NewDate(2999, 12, 31))
}

func (s *scenario) ledgerHolds(n int) error {
	txs, err := s.transactions()
	if err != nil {
		return err
	}
	if len(txs) != n {
		return fmt.Errorf("expected %d transactions, found %d", n, len(txs))
	}
	return nil
}

func (s *scenario) producedTransaction(ruleID, date, category string) error {
	day, err := core.ParseISODate(date)
	if err != nil {
		return err
	}
	want := services.OccurrenceID(ruleID, day)
	txs, err := s.transactions()
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.ID != want {
			continue
		}
		if !tx.Date.Equal(day) || tx.CategoryID != category {
			return fmt.Errorf("transaction %s: date %s category %s", tx.ID, tx.Date, tx.CategoryID)
		}
		return nil
	}
	return fmt.Errorf("no transaction for rule %s on %s", ruleID, date)
}

func (s *scenario) assertLastProcessed(id, date string) error {
	rule, err := s.store.GetRule(context.Background(), id)
	if err != nil {
		return err
	}
	if rule.LastProcessed.ISO() != date {
		return fmt.Errorf("rule %s last processed %q, want %q", id, rule.LastProcessed.ISO(), date)
	}
	return nil
}

func (s *scenario) assertNextDue(id, date string) error {
	rule, err := s.store.GetRule(context.Background(), id)
	if err != nil {
		return err
	}
	if rule.NextDue.ISO() != date {
		return fmt.Errorf("rule %s next due %q, want %q", id, rule.NextDue.ISO(), date)
	}
	return nil
}

func (s *scenario) lastPassCreated(n int) error {
	if got := s.last.Created(); got != n {
		return fmt.Errorf("last pass created %d transactions, want %d", got, n)
	}
	return nil
}

func (s *scenario) failedWithConfiguration(id string) error {
	o, ok := s.last.Outcome(id)
	if !ok {
		return fmt.Errorf("rule %s was not part of the last pass", id)
	}
	if o.Status != services.StatusFailed || !errors.Is(o.Err, core.ErrConfiguration) {
		return fmt.Errorf("rule %s: status %s err %v", id, o.Status, o.Err)
	}
	return nil
}
