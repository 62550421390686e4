package apperrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestApology(t *testing.T) {
	err := NewGenerationFailure("recommendation", errors.New("timeout"))
	got := Apology(err)

	if !strings.HasPrefix(got, "I'm sorry, something went wrong while preparing your recommendation.") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if !strings.Contains(got, "(for developers: generation failed at recommendation: timeout)") {
		t.Errorf("developer suffix missing or wrong: %q", got)
	}

	if got := Apology(nil); strings.Contains(got, "for developers") {
		t.Errorf("nil error must not add a developer suffix: %q", got)
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("permission denied")
	dataErr := NewDataAccessError("data/records.csv", cause)

	if !errors.Is(dataErr, cause) {
		t.Error("DataAccessError must unwrap to its cause")
	}
	if !IsDataAccess(fmt.Errorf("loading: %w", dataErr)) {
		t.Error("IsDataAccess must see through wrapping")
	}
	if IsDataAccess(cause) {
		t.Error("plain error is not a DataAccessError")
	}

	genErr := NewGenerationFailure("question", cause)
	if !IsGenerationFailure(fmt.Errorf("turn: %w", genErr)) {
		t.Error("IsGenerationFailure must see through wrapping")
	}
	if IsGenerationFailure(dataErr) {
		t.Error("DataAccessError is not a GenerationFailure")
	}
}
