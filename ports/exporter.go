package ports

import (
	"croptrends/domain/trend"
)

// ResultExporter writes a completed run to an external tabular format.
type ResultExporter interface {
	Export(result *trend.RunResult, path string) error
}
