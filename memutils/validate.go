package memutils

// Validatable is anything with an internal consistency check, such as a region carver or a
// budget coordinator. DebugValidate runs the check in debug builds.
type Validatable interface {
	Validate() error
}
