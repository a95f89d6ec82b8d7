// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoData             = errors.New("no data returned")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrSeriesNotFound     = errors.New("series not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigInvalid      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrCacheCorrupt       = errors.New("cache file corrupt")
	ErrStaleData          = errors.New("cached data is stale")
	ErrWatchlistNotFound  = errors.New("watchlist not found")
	ErrWatchlistEmpty     = errors.New("watchlist is empty")
	ErrDatabaseError      = errors.New("database error")
	ErrMarketClosed       = errors.New("market is closed")
	ErrInputValidation    = errors.New("input validation failed")
)

// FetchError represents a failure talking to an upstream data source.
type FetchError struct {
	Source     string
	Symbol     string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch error [%s] %s: %s returned HTTP %d", e.Source, e.Symbol, e.Endpoint, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch error [%s] %s: %s: %v", e.Source, e.Symbol, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("fetch error [%s] %s: %s", e.Source, e.Symbol, e.Endpoint)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(source, symbol, endpoint string, statusCode int, err error) *FetchError {
	return &FetchError{
		Source:     source,
		Symbol:     symbol,
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ParseError represents an upstream payload that could not be decoded
// into the expected shape.
type ParseError struct {
	Source  string
	Symbol  string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error [%s] %s: %s: %v", e.Source, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error [%s] %s: %s", e.Source, e.Symbol, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(source, symbol, message string, err error) *ParseError {
	return &ParseError{
		Source:  source,
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// CacheError represents a failure reading or writing a cache file.
type CacheError struct {
	Path      string
	Operation string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error [%s] %s: %v", e.Operation, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// NewCacheError creates a new CacheError.
func NewCacheError(path, operation string, err error) *CacheError {
	return &CacheError{
		Path:      path,
		Operation: operation,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
