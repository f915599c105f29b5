package database

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundErrorIs(t *testing.T) {
	err := NewNotFoundError("image", 42)

	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound sentinel")
	}
	if errors.Is(err, ErrIntegrity) {
		t.Error("NotFoundError should not match ErrIntegrity")
	}

	wrapped := fmt.Errorf("loading image: %w", err)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped NotFoundError should still match ErrNotFound")
	}
}

func TestIntegrityErrorIs(t *testing.T) {
	err := NewIntegrityError("face 7 references missing cluster 3")

	if !errors.Is(err, ErrIntegrity) {
		t.Error("IntegrityError should match ErrIntegrity sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("IntegrityError should not match ErrNotFound")
	}
	if err.Error() != "face 7 references missing cluster 3" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found with resource", NewNotFoundError("cluster", 3), "cluster not found"},
		{"not found bare", &NotFoundError{}, "record not found"},
		{"integrity bare", &IntegrityError{}, "integrity violation"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q; want %q", got, tc.want)
			}
		})
	}
}
