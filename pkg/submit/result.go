package submit

import "fmt"

// ValidationKind classifies a pre-write validation failure.
type ValidationKind string

const (
	// RequiredFieldMissing marks a required binding with an empty or absent
	// value.
	RequiredFieldMissing ValidationKind = "required_field_missing"
	// TypeMismatch marks a value that fails its column type's parse rule
	// (non-numeric numbers, unparseable dates).
	TypeMismatch ValidationKind = "type_mismatch"
)

// ValidationError describes one validation failure. All failures are
// collected and returned together so the caller can report every problem in
// one pass.
type ValidationError struct {
	ColumnID string
	Label    string
	Kind     ValidationKind
	Message  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("submit: column %s: %s", e.ColumnID, e.Message)
}

// FileFailure records one staged file that failed to upload during phase
// three. File failures never escalate to a full submission failure.
type FileFailure struct {
	ColumnID string
	FileName string
	Cause    string
}

// Result reports the outcome of a submission. Success reflects the record
// write only: a created or updated record with some failed uploads is still
// a success, with the failures listed separately.
type Result struct {
	Success  bool
	ItemID   string
	ItemName string

	ValidationErrors []ValidationError
	FilesUploaded    int
	FileFailures     []FileFailure
}
