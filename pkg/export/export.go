package export

// Dataset is a tabular payload shared by all exporters. Rows are keyed by
// header name.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}
