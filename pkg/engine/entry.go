package engine

// Entry is a mutable record of named text fields, owned by the host. The
// engine only reads and writes fields named in rules; it never enumerates an
// entry's full field set. Get distinguishes an absent field from an empty
// value so the evaluator never confuses the two.
type Entry interface {
	// Get returns the field value and whether the field is present.
	Get(field string) (string, bool)

	// Set assigns the field, creating it if absent.
	Set(field, value string)

	// Delete removes the field. Deleting an absent field is a no-op.
	Delete(field string)
}

// MapEntry is a map-backed Entry for hosts without their own record type.
type MapEntry map[string]string

// Get returns the field value and whether the field is present.
func (m MapEntry) Get(field string) (string, bool) {
	v, ok := m[field]
	return v, ok
}

// Set assigns the field.
func (m MapEntry) Set(field, value string) {
	m[field] = value
}

// Delete removes the field.
func (m MapEntry) Delete(field string) {
	delete(m, field)
}
