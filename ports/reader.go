package ports

import (
	"hierarchstats/domain/stats"
)

// DesignReader loads a hierarchical design from an external source.
// Implementations decide how columns map to hierarchy levels and the
// observation value.
type DesignReader interface {
	ReadDesign() (*stats.DesignMatrix, error)
}
