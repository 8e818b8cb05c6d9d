package model

// Witness records, per column, the kind of the first non-missing value observed.
// SQL schema emission reads it to pick a declared type when the static type code
// is ambiguous, for example a numeric field holding integers or decimals.
//
// A Witness is owned by one decoding session and is not safe for concurrent use.
type Witness struct {
	kinds map[string]ValueKind
}

// NewWitness creates an empty witness
func NewWitness() *Witness {
	return &Witness{kinds: make(map[string]ValueKind)}
}

// Observe records the kinds of rec, aligned with columns. Columns that already
// have a witness and values that are missing are left alone.
func (w *Witness) Observe(columns []FieldDescriptor, rec Record) {
	for i, v := range rec {
		if i >= len(columns) {
			return
		}
		if v.IsMissing() || v.IsNull() {
			continue
		}
		name := columns[i].Name
		if _, ok := w.kinds[name]; ok {
			continue
		}
		w.kinds[name] = v.Kind()
	}
}

// Kind returns the witnessed kind of a column
func (w *Witness) Kind(column string) (ValueKind, bool) {
	if w == nil {
		return KindNull, false
	}
	k, ok := w.kinds[column]
	return k, ok
}

// KindOr returns the witnessed kind of a column, falling back to the kind implied by its type code
func (w *Witness) KindOr(field FieldDescriptor) ValueKind {
	if k, ok := w.Kind(field.Name); ok {
		return k
	}
	return field.Type.FallbackKind()
}

// Len returns the number of witnessed columns
func (w *Witness) Len() int {
	if w == nil {
		return 0
	}
	return len(w.kinds)
}

// Clone returns an independent copy
func (w *Witness) Clone() *Witness {
	c := NewWitness()
	if w == nil {
		return c
	}
	for k, v := range w.kinds {
		c.kinds[k] = v
	}
	return c
}
