package schema

import (
	"errors"

	"github.com/aretw0/blockloom/pkg/domain"
)

func classify(err error) domain.ErrorCode {
	var (
		structural *domain.StructuralError
		invalid    *ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrUnhandledKind),
		errors.As(err, &structural),
		errors.As(err, &invalid):
		return domain.CodeInvalidInput
	case errors.Is(err, domain.ErrPathNotFound):
		return domain.CodeNotFound
	}
	return domain.CodeInternal
}

func asRemote(err error) (*domain.RemoteError, bool) {
	var re *domain.RemoteError
	ok := errors.As(err, &re)
	return re, ok
}
