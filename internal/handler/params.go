package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// parseID reads a positive int32 path parameter
func parseID(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

// parseMoney parses a decimal amount; the empty string is invalid
func parseMoney(field, value string) (decimal.Decimal, *ValidationError) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Message: "Must be a valid decimal number"}
	}
	return amount, nil
}

func parseOptionalMoney(field string, value *string) (*decimal.Decimal, *ValidationError) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	amount, verr := parseMoney(field, *value)
	if verr != nil {
		return nil, verr
	}
	return &amount, nil
}

func parseDate(field, value string) (time.Time, *ValidationError) {
	t, err := util.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: "Must be in YYYY-MM-DD format"}
	}
	return t, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, *ValidationError) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, verr := parseDate(field, *value)
	if verr != nil {
		return nil, verr
	}
	return &t, nil
}

// collect drops nil entries so a request reports every bad field at once
func collect(errs ...*ValidationError) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
