package storage

import (
	"context"
	"errors"
	"testing"

	"moneta/internal/core"
)

func TestTags_CreateListDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, repo, "USD")

	if _, err := repo.CreateTag(ctx, account.UserID, "  ", ""); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("blank name error = %v, want ErrEmptyName", err)
	}

	// Out of alphabetical order on purpose.
	work, err := repo.CreateTag(ctx, account.UserID, "Work", "#0055ff")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	holiday, err := repo.CreateTag(ctx, account.UserID, "Holiday", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}

	tags, err := repo.ListTags(ctx, account.UserID)
	if err != nil {
		t.Fatalf("ListTags() error: %v", err)
	}
	if len(tags) != 2 || tags[0].ID != holiday.ID || tags[1].ID != work.ID {
		t.Errorf("ListTags() = %+v, want [Holiday Work]", tags)
	}
	if tags[1].Color != "#0055ff" {
		t.Errorf("Color = %q, want #0055ff", tags[1].Color)
	}

	if err := repo.DeleteTag(ctx, work.ID); err != nil {
		t.Fatalf("DeleteTag() error: %v", err)
	}
	if err := repo.DeleteTag(ctx, work.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteTag() error = %v, want ErrNotFound", err)
	}
	tags, err = repo.ListTags(ctx, account.UserID)
	if err != nil {
		t.Fatalf("ListTags() after delete error: %v", err)
	}
	if len(tags) != 1 || tags[0].ID != holiday.ID {
		t.Errorf("ListTags() after delete = %+v, want only Holiday", tags)
	}
}

func TestSetTransactionTags_ReplaceAndClear(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, repo, "USD")

	food, err := repo.CreateTag(ctx, account.UserID, "Food", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	travel, err := repo.CreateTag(ctx, account.UserID, "Travel", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID:   account.ID,
		AmountCents: 3_000,
		Type:        core.Expense,
		Date:        core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}

	if err := repo.SetTransactionTags(ctx, txn.ID, []string{food.ID, travel.ID}); err != nil {
		t.Fatalf("SetTransactionTags() error: %v", err)
	}
	got, err := repo.ListTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("ListTransactionTags() error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Food" || got[1].Name != "Travel" {
		t.Errorf("ListTransactionTags() = %+v", got)
	}

	// A second call replaces rather than appends.
	if err := repo.SetTransactionTags(ctx, txn.ID, []string{travel.ID}); err != nil {
		t.Fatalf("SetTransactionTags() replace error: %v", err)
	}
	got, err = repo.ListTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("ListTransactionTags() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != travel.ID {
		t.Errorf("after replace = %+v, want only Travel", got)
	}

	if err := repo.SetTransactionTags(ctx, txn.ID, nil); err != nil {
		t.Fatalf("SetTransactionTags() clear error: %v", err)
	}
	got, err = repo.ListTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("ListTransactionTags() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("after clear = %+v, want none", got)
	}

	t.Run("unknown transaction", func(t *testing.T) {
		err := repo.SetTransactionTags(ctx, "missing", []string{food.ID})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
	t.Run("unknown tag writes nothing", func(t *testing.T) {
		err := repo.SetTransactionTags(ctx, txn.ID, []string{food.ID, "missing"})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		got, err := repo.ListTransactionTags(ctx, txn.ID)
		if err != nil {
			t.Fatalf("ListTransactionTags() error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("rejected set left %d tags behind", len(got))
		}
	})
}

func TestDeleteTag_DetachesTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, repo, "USD")

	tag, err := repo.CreateTag(ctx, account.UserID, "Gone", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}
	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		AccountID:   account.ID,
		AmountCents: 1_000,
		Type:        core.Expense,
		Date:        core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error: %v", err)
	}
	if err := repo.SetTransactionTags(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Fatalf("SetTransactionTags() error: %v", err)
	}

	if err := repo.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag() error: %v", err)
	}
	got, err := repo.ListTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("ListTransactionTags() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("deleted tag still attached: %+v", got)
	}
}

func TestSearchTransactions_Filters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := seedAccount(t, repo, "USD")
	other, err := repo.CreateAccount(ctx, account.UserID, "Savings", "USD")
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}

	tag, err := repo.CreateTag(ctx, account.UserID, "Dining", "")
	if err != nil {
		t.Fatalf("CreateTag() error: %v", err)
	}

	entries := []core.Transaction{
		{AccountID: account.ID, CategoryID: "cat-food", AmountCents: 2_500, Type: core.Expense, Description: "Lunch at Mario's", Date: core.NewDate(2025, 3, 5)},
		{AccountID: account.ID, CategoryID: "cat-food", AmountCents: 8_000, Type: core.Expense, Description: "Dinner", Date: core.NewDate(2025, 3, 12)},
		{AccountID: account.ID, AmountCents: 500_000, Type: core.Income, Description: "Salary", Date: core.NewDate(2025, 3, 25)},
		{AccountID: account.ID, AmountCents: -4_000, Type: core.Transfer, TransferGroup: "g1", Description: "To savings", Date: core.NewDate(2025, 3, 15)},
		{AccountID: other.ID, AmountCents: 2_500, Type: core.Expense, Description: "Lunch elsewhere", Date: core.NewDate(2025, 3, 5)},
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		created, err := repo.CreateTransaction(ctx, e)
		if err != nil {
			t.Fatalf("CreateTransaction(%d) error: %v", i, err)
		}
		ids[i] = created.ID
	}
	if err := repo.SetTransactionTags(ctx, ids[0], []string{tag.ID}); err != nil {
		t.Fatalf("SetTransactionTags() error: %v", err)
	}

	tests := []struct {
		name   string
		filter core.TransactionFilter
		want   []string // descriptions, newest first
	}{
		{
			"account only",
			core.TransactionFilter{AccountID: account.ID},
			[]string{"Salary", "To savings", "Dinner", "Lunch at Mario's"},
		},
		{
			"by type",
			core.TransactionFilter{AccountID: account.ID, Type: core.Expense},
			[]string{"Dinner", "Lunch at Mario's"},
		},
		{
			"by category",
			core.TransactionFilter{AccountID: account.ID, CategoryID: "cat-food"},
			[]string{"Dinner", "Lunch at Mario's"},
		},
		{
			"amount range matches magnitude",
			core.TransactionFilter{AccountID: account.ID, MinAmountCents: 3_000, MaxAmountCents: 10_000},
			[]string{"To savings", "Dinner"},
		},
		{
			"text is case-insensitive",
			core.TransactionFilter{AccountID: account.ID, Text: "MARIO"},
			[]string{"Lunch at Mario's"},
		},
		{
			"by tag",
			core.TransactionFilter{AccountID: account.ID, TagID: tag.ID},
			[]string{"Lunch at Mario's"},
		},
		{
			"date window",
			core.TransactionFilter{AccountID: account.ID, From: core.NewDate(2025, 3, 10), To: core.NewDate(2025, 3, 20)},
			[]string{"To savings", "Dinner"},
		},
		{
			"no match",
			core.TransactionFilter{AccountID: account.ID, Text: "yacht"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.SearchTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("SearchTransactions() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d results, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i].Description != want {
					t.Errorf("result[%d] = %q, want %q", i, got[i].Description, want)
				}
			}
		})
	}
}

func TestSearchTransactions_RejectsInvalidFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter core.TransactionFilter
		want   error
	}{
		{"missing account", core.TransactionFilter{}, core.ErrMissingAccount},
		{"bad type", core.TransactionFilter{AccountID: "acc-1", Type: "refund"}, core.ErrInvalidTransactionType},
		{"negative amount", core.TransactionFilter{AccountID: "acc-1", MinAmountCents: -1}, core.ErrInvalidAmount},
		{"inverted range", core.TransactionFilter{AccountID: "acc-1", MinAmountCents: 500, MaxAmountCents: 100}, core.ErrInvalidAmount},
		{"end before start", core.TransactionFilter{AccountID: "acc-1", From: core.NewDate(2025, 3, 10), To: core.NewDate(2025, 3, 1)}, core.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.SearchTransactions(ctx, tt.filter); !errors.Is(err, tt.want) {
				t.Errorf("SearchTransactions() error = %v, want %v", err, tt.want)
			}
		})
	}
}
