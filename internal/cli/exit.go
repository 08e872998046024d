package cli

import (
	"errors"

	"github.com/rc-tools/rccalllog/internal/config"
	"github.com/rc-tools/rccalllog/internal/models"
	"github.com/rc-tools/rccalllog/internal/ringcentral"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitAuth      = 3
	ExitTransport = 4
)

// ErrDeletionsFailed is returned when a sweep finished but some records
// could not be deleted.
var ErrDeletionsFailed = errors.New("some call logs could not be deleted")

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var cfgErr *config.Error
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr), errors.Is(err, models.ErrInvalidQuery):
		return ExitConfig
	case ringcentral.IsAuthentication(err):
		return ExitAuth
	case ringcentral.IsTransport(err):
		return ExitTransport
	}
	return ExitFailure
}
