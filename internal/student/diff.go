package student

// Diff compares two records field by field under strict value equality and
// returns the JSON names of every differing field, in catalog order. The
// result is a full replacement set: a field edited and then reverted to the
// baseline value does not appear. Equal records yield nil.
func Diff(baseline, edited Record) []string {
	base := baseline.fieldValues()
	mod := edited.fieldValues()

	var changed []string
	for i := range base {
		if base[i].value != mod[i].value {
			changed = append(changed, base[i].name)
		}
	}
	return changed
}

// Contains reports whether name is in the changed-field set.
func Contains(changed []string, name string) bool {
	for _, c := range changed {
		if c == name {
			return true
		}
	}
	return false
}
