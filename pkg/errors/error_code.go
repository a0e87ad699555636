package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter      ErrorCode = 100
	ErrCodeInvalidConfiguration  ErrorCode = 101
	ErrCodeShapeMismatch         ErrorCode = 102
	ErrCodeInvalidCommissionRate ErrorCode = 103
	ErrCodeInsufficientData      ErrorCode = 106
	ErrCodeInvalidPeriod         ErrorCode = 108
	ErrCodeMissingParameter      ErrorCode = 109
	ErrCodeEmptySeries           ErrorCode = 110
	ErrCodeIncompatibleVersion   ErrorCode = 111

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound    ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401

	// Simulation errors (600-699)
	ErrCodeNonPositivePrice ErrorCode = 600
	ErrCodeOverflow         ErrorCode = 601
	ErrCodeBacktestNoData   ErrorCode = 602

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Output errors (900-999)
	ErrCodeExportFailed ErrorCode = 900
	ErrCodeStoreFailed  ErrorCode = 901
)
