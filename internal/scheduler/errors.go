package scheduler

import (
	"errors"

	"github.com/jpetrucciani/harmonia/internal/herrors"
)

var (
	errNoSelection   = errors.New("scheduler: no repos selected and no default group configured")
	errNoChangedFunc = errors.New("scheduler: --changed requested but no ChangedFunc was supplied")
)

func unknownRepo(name string) error  { return &herrors.UnknownRepo{Name: name} }
func unknownGroup(name string) error { return &herrors.UnknownGroup{Name: name} }
