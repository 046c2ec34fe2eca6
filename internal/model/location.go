package model

import (
	"fmt"

	"github.com/strata-build/strata/internal/pool"
)

// CodeLocation points into a build definition file, mostly for
// diagnostics. A line of -1 marks an absent location.
type CodeLocation struct {
	FilePath string
	Line     int
	Column   int
}

// NoLocation is the sentinel for an unset location.
var NoLocation = CodeLocation{Line: -1, Column: -1}

// NewCodeLocation creates a location for the given position.
func NewCodeLocation(filePath string, line, column int) CodeLocation {
	return CodeLocation{FilePath: filePath, Line: line, Column: column}
}

// IsValid reports whether the location is set.
func (l CodeLocation) IsValid() bool {
	return l.Line != -1
}

func (l CodeLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.Line, l.Column)
}

func (l CodeLocation) store(w *pool.Writer) {
	w.WriteString(l.FilePath)
	w.WriteInt(l.Line)
	w.WriteInt(l.Column)
}

func loadCodeLocation(r *pool.Reader) CodeLocation {
	return CodeLocation{
		FilePath: r.ReadString(),
		Line:     r.ReadInt(),
		Column:   r.ReadInt(),
	}
}
