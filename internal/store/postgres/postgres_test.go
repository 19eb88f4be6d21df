package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsCodeViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "code index", err: &pgconn.PgError{Code: "23505", ConstraintName: lineItemCodeIndex}, want: true},
		{name: "wrapped code index", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: lineItemCodeIndex}), want: true},
		{name: "primary key", err: &pgconn.PgError{Code: "23505", ConstraintName: "line_items_pkey"}},
		{name: "check constraint", err: &pgconn.PgError{Code: "23514", ConstraintName: lineItemCodeIndex}},
		{name: "plain error", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCodeViolation(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
