package ir

// Reserved sort keys.
const (
	// SortUnsorted disables ordering for a sorter.
	SortUnsorted = "unsorted"

	// SortRelevance sorts by the engine-provided ranking score.
	SortRelevance = "relevance"
)

// Sorter is a single ordering directive.
//
// ObjectProperty is true when the field is reached through a relation and
// has to be resolved through the related entity. AllowMissing wraps the
// generated clause as OPTIONAL so rows without a value are kept.
type Sorter struct {
	Field          string `yaml:"field" toml:"field" json:"field"`
	Ascending      bool   `yaml:"ascending" toml:"ascending" json:"ascending"`
	ObjectProperty bool   `yaml:"object_property" toml:"object_property" json:"object_property"`
	AllowMissing   bool   `yaml:"allow_missing" toml:"allow_missing" json:"allow_missing"`
}

// AscendingSorter returns an ascending sorter for a data property.
func AscendingSorter(field string) Sorter {
	return Sorter{Field: field, Ascending: true}
}

// DescendingSorter returns a descending sorter for a data property.
func DescendingSorter(field string) Sorter {
	return Sorter{Field: field}
}

// AsObjectProperty returns a copy marked as an object property sorter.
func (s Sorter) AsObjectProperty() Sorter {
	s.ObjectProperty = true
	return s
}

// WithMissingValues returns a copy that keeps rows missing the sort value.
func (s Sorter) WithMissingValues() Sorter {
	s.AllowMissing = true
	return s
}
