package build

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/unitcat/internal/diag"
)

var (
	// ErrFatal matches any FatalError.
	ErrFatal = errors.New("fatal diagnostics")

	// ErrUnresolved matches a FatalError that includes at least one prefixed
	// unit whose conversion could not be derived.
	ErrUnresolved = errors.New("unresolved conversions")

	// ErrStale is returned by a check run when the catalog on disk differs
	// from a fresh build.
	ErrStale = errors.New("catalog is out of date")

	// ErrNoLibraryOutput is returned by ExtractOnly without a library
	// catalog path.
	ErrNoLibraryOutput = errors.New("library catalog output path is required")
)

// FatalError stops a run from producing output. It carries every fatal
// diagnostic so the caller can report all of them at once.
type FatalError struct {
	Diagnostics []diag.Diagnostic
}

func (e *FatalError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d fatal diagnostic", len(e.Diagnostics))
	if len(e.Diagnostics) != 1 {
		b.WriteString("s")
	}
	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&b, " (first: %s)", e.Diagnostics[0])
	}
	return b.String()
}

// Is lets errors.Is match ErrFatal, and ErrUnresolved when a conversion
// was left unresolved.
func (e *FatalError) Is(target error) bool {
	switch target {
	case ErrFatal:
		return true
	case ErrUnresolved:
		for _, d := range e.Diagnostics {
			if d.Code == diag.CodeUnresolved {
				return true
			}
		}
	}
	return false
}
