package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/vmpower/internal/executor"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatRun outputs run results and metrics as a single YAML document
func (f *YAMLFormatter) FormatRun(w io.Writer, results []executor.OperationResult, metrics executor.RunMetrics) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(buildRunView(results, metrics))
}
