package main

import (
	"errors"
	"sort"
	"strings"

	"baches/internal/apperr"
	"baches/internal/report"
)

// describe turns the error taxonomy into a line for the terminal.
func describe(err error) string {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]string, 0, len(verr.Fields))
		for name, msg := range verr.Fields {
			fields = append(fields, name+": "+msg)
		}
		sort.Strings(fields)
		return "invalid input (" + strings.Join(fields, ", ") + ")"
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return "wrong username or password"
	case errors.Is(err, apperr.ErrUserExists):
		return "that user is already registered"
	case errors.Is(err, apperr.ErrUnauthorized):
		return "the server rejected the session, log in again"
	case errors.Is(err, apperr.ErrNetwork):
		return "could not reach the server: " + err.Error()
	case errors.Is(err, apperr.ErrStorage):
		return "the profile store is unavailable, nothing was changed: " + err.Error()
	case errors.Is(err, report.ErrReportNotFound):
		return "no such report"
	}
	return err.Error()
}
