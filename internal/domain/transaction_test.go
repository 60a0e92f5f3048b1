package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionTypeValuesMatchDatabaseConstraints(t *testing.T) {
	// CHECK (type IN ('INCOME', 'EXPENSE'))
	tests := []struct {
		name     string
		txType   TransactionType
		expected string
	}{
		{"income", TransactionTypeIncome, "INCOME"},
		{"expense", TransactionTypeExpense, "EXPENSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.txType) != tt.expected {
				t.Errorf("TransactionType %s = %s, want %s", tt.name, tt.txType, tt.expected)
			}
			if !tt.txType.Valid() {
				t.Errorf("Expected %s to be valid", tt.txType)
			}
		})
	}
}

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input   string
		want    TransactionType
		wantErr bool
	}{
		{"INCOME", TransactionTypeIncome, false},
		{"expense", TransactionTypeExpense, false},
		{" Income ", TransactionTypeIncome, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTransactionType(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrTransactionTypeInvalid) {
					t.Errorf("Expected ErrTransactionTypeInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTransactionType(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := func() *Transaction {
		return &Transaction{
			Type:        TransactionTypeExpense,
			Amount:      decimal.NewFromInt(10),
			Category:    "Food",
			Description: "Lunch",
			Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid transaction, got %v", err)
	}

	tests := []struct {
		name    string
		modify  func(*Transaction)
		wantErr error
	}{
		{"bad type", func(tx *Transaction) { tx.Type = "X" }, ErrTransactionTypeInvalid},
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrTransactionAmount},
		{"blank category", func(tx *Transaction) { tx.Category = " " }, ErrTransactionCategory},
		{"blank description", func(tx *Transaction) { tx.Description = "" }, ErrTransactionDescription},
		{"missing date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrTransactionDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid()
			tt.modify(tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Expected validation errors to be ErrInvalidInput, got %v", err)
			}
		})
	}
}
