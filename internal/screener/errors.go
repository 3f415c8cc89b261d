package screener

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind   = errors.New("unknown screener kind")
	ErrMissingOption = errors.New("missing required option")
	ErrDuplicateName = errors.New("duplicate screener name")
	ErrMissingRecord = errors.New("no stats record for symbol")
)

// ConfigError is returned by Configure when a screener cannot be built. Fatal at startup.
type ConfigError struct {
	Index int
	Name  string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("screener[%d] %q: %v", e.Index, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FilterFault reports a per-symbol record that could not be screened.
type FilterFault struct {
	Symbol string
	Err    error
}

func (e *FilterFault) Error() string {
	return fmt.Sprintf("symbol %s: %v", e.Symbol, e.Err)
}

func (e *FilterFault) Unwrap() error { return e.Err }
