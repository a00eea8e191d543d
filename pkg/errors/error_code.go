package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSymbol        ErrorCode = 102
	ErrCodeInvalidInterval      ErrorCode = 103
	ErrCodeInvalidPrice         ErrorCode = 104

	// Snapshot errors (200-299)
	ErrCodeSnapshotUnavailable    ErrorCode = 200
	ErrCodeSnapshotParseFailed    ErrorCode = 201
	ErrCodeIconCatalogUnavailable ErrorCode = 202

	// Stream errors (300-399)
	ErrCodeStreamDisconnected ErrorCode = 300
	ErrCodeMalformedEvent     ErrorCode = 301
	ErrCodeStreamDialFailed   ErrorCode = 302

	// Ranking errors (400-499)
	ErrCodeCandidateUnavailable ErrorCode = 400
	ErrCodeEmptyBasket          ErrorCode = 401
)
