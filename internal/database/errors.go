package database

// ErrNotFound is the sentinel for missing rows.
// Match with errors.Is(err, database.ErrNotFound).
var ErrNotFound = &NotFoundError{}

// NotFoundError reports that a requested row does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

// NewNotFoundError creates a NotFoundError for the given resource and ID.
func NewNotFoundError(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return e.Resource + " not found"
	}
	return "record not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrIntegrity is the sentinel for broken cross-store references, such as a
// face row pointing at a cluster that no longer exists.
var ErrIntegrity = &IntegrityError{}

// IntegrityError reports a dangling reference between stores.
type IntegrityError struct {
	Message string
}

// NewIntegrityError creates an IntegrityError with a custom message.
func NewIntegrityError(message string) *IntegrityError {
	return &IntegrityError{Message: message}
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "integrity violation"
}

// Is implements the error interface for error comparison.
func (e *IntegrityError) Is(target error) bool {
	_, ok := target.(*IntegrityError)
	return ok
}
