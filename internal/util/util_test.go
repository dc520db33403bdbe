package util

import (
	"errors"
	"testing"
)

type signup struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Age      int    `json:"age" validate:"gt=0"`
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	err := NewValidator().Struct(signup{Email: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := FieldErrors(err)
	if got := fields["username"]; len(got) != 1 || got[0] != "The username field is required." {
		t.Errorf("unexpected username errors %v", got)
	}
	if got := fields["email"]; len(got) != 1 || got[0] != "The email must be a valid email address." {
		t.Errorf("unexpected email errors %v", got)
	}
	if got := fields["age"]; len(got) != 1 || got[0] != "The age must be greater than 0." {
		t.Errorf("unexpected age errors %v", got)
	}
}

func TestFieldErrorsPassesThroughOtherErrors(t *testing.T) {
	fields := FieldErrors(errors.New("boom"))
	if got := fields["_"]; len(got) != 1 || got[0] != "boom" {
		t.Errorf("unexpected fallback %v", fields)
	}
}

type note struct {
	Text string `json:"text" validate:"required,notblank"`
}

func TestNotBlank(t *testing.T) {
	v := NewValidator()
	if err := v.Struct(note{Text: "  \t"}); err == nil {
		t.Fatal("expected whitespace text to be rejected")
	} else if got := FieldErrors(err)["text"]; len(got) != 1 || got[0] != "The text field must not be blank." {
		t.Errorf("unexpected errors %v", got)
	}
	if err := v.Struct(note{Text: "سلام"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
