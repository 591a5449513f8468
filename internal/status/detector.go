package status

// Detector remembers the last committed status string. The zero value is
// ready to use and starts from the empty string.
type Detector struct {
	last string
}

// Changed reports whether s differs from the committed status without
// committing it.
func (d *Detector) Changed(s string) bool {
	return s != d.last
}

// Commit records s as the current status.
func (d *Detector) Commit(s string) {
	d.last = s
}

// HasChanged reports whether s differs from the committed status and, if so,
// commits it.
func (d *Detector) HasChanged(s string) bool {
	if !d.Changed(s) {
		return false
	}
	d.Commit(s)
	return true
}

// Last returns the committed status.
func (d *Detector) Last() string {
	return d.last
}
