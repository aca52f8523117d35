package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Deposit Kind = "deposit"
)

// TimestampLayout is the UTC text layout used for every stored timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

type (
	// Kind is the direction of a transaction.
	Kind string

	User struct {
		ID        int64     `json:"id"`
		GoogleID  string    `json:"-"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Picture   string    `json:"picture,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"-"`
		Name   string `json:"name"`
		Color  string `json:"color"`
		// Kind is set when the category carries an explicit direction.
		// Nil means the direction is derived from the name.
		Kind *Kind `json:"kind,omitempty"`
	}

	Transaction struct {
		ID          int64     `json:"id"`
		UserID      int64     `json:"-"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    *string   `json:"category"`
		Kind        Kind      `json:"kind"`
		OccurredAt  time.Time `json:"occurred_at"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at,omitempty"`
	}

	StartingBalance struct {
		UserID    int64     `json:"-"`
		Amount    Money     `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrValidation = errors.New("validation failed")

	ErrInvalidAmount    = &ValidationError{Field: "amount", Reason: "must be a number greater than 0"}
	ErrEmptyDescription = &ValidationError{Field: "description", Reason: "cannot be empty"}
	ErrInvalidKind      = &ValidationError{Field: "kind", Reason: "must be 'expense' or 'deposit'"}
	ErrEmptyName        = &ValidationError{Field: "name", Reason: "cannot be empty"}
	ErrInvalidColor     = &ValidationError{Field: "color", Reason: "must be a hex color like #1abc9c"}
	ErrInvalidMonth     = &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	ErrInvalidYear      = &ValidationError{Field: "year", Reason: "must be between 1900 and 9999"}
)

// ValidationError reports user input that was rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ParseKind accepts exactly "expense" or "deposit".
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case Expense, Deposit:
		return k, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	if k != Expense && k != Deposit {
		return ErrInvalidKind
	}
	return nil
}

func (k Kind) String() string {
	return string(k)
}

// Validate checks the fields a caller may write.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 255 {
		return &ValidationError{Field: "description", Reason: "too long (max 255 characters)"}
	}
	return t.Kind.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return &ValidationError{Field: "name", Reason: "too long (max 100 characters)"}
	}
	if !isHexColor(c.Color) {
		return ErrInvalidColor
	}
	if c.Kind != nil {
		return c.Kind.Validate()
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 && len(s) != 4 {
		return false
	}
	if s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// FormatTimestamp renders t in the stored UTC layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts the layouts found in stored rows, including legacy
// date-only values and RFC 3339 strings.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{
		TimestampLayout,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
