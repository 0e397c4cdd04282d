package service

import (
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/ferrante/splitledger/internal/auth"
	"github.com/ferrante/splitledger/internal/calculator"
	"github.com/ferrante/splitledger/internal/storage"
)

// ErrNotGroupMember is returned when an operation names someone outside the
// group's roster.
var ErrNotGroupMember = errors.New("not a member of this group")

// ErrSelfSettlement is returned when a settlement's payer and receiver are
// the same person.
var ErrSelfSettlement = errors.New("settlement payer and receiver must differ")

// wrapError classifies an error into the service error taxonomy using
// connect codes, which the API layer maps onto HTTP statuses:
//
//   - validation errors (bad member, bad amount, currency mismatch) become
//     CodeInvalidArgument and are the caller's to fix;
//   - ErrUnbalanced is an internal-consistency failure, logged loudly as
//     such and returned as CodeInternal — never swallowed, since unbalanced
//     output would be financially wrong;
//   - storage.ErrNotFound passes through as CodeNotFound.
//
// Errors that already carry a connect code are returned unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if connectErr := new(connect.Error); errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, calculator.ErrUnbalanced):
		slog.Error("ledger internal consistency failure", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, calculator.ErrCurrencyMismatch),
		errors.Is(err, calculator.ErrNoBeneficiaries),
		errors.Is(err, calculator.ErrNonPositiveAmount),
		errors.Is(err, calculator.ErrShareSumMismatch),
		errors.Is(err, calculator.ErrDuplicateBeneficiary),
		errors.Is(err, ErrNotGroupMember),
		errors.Is(err, ErrSelfSettlement),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
