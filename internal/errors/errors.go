// Package errors provides standardized error handling for recoveryctl.
// It defines the error kinds used across the console and helpers for
// creating, wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound   = NewFileError("file not found", "", FileNotFound, nil)
	ErrFileAccess     = NewFileError("file access denied", "", FileAccessDenied, nil)
	ErrInvalidPath    = NewFileError("invalid file path", "", InvalidPath, nil)
	ErrInvalidConfig  = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrVolumeNotFound = NewVolumeError("volume not found", "", "", VolumeNotFound, nil)
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileCreateFailed
	FileOperationFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Volume error kinds
	VolumeNotFound
	MountFailed
	UnmountFailed
	// Collaborator error kinds
	CommandFailed
	NotSupported
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// VolumeError represents a mount, unmount or lookup failure on a volume
type VolumeError struct {
	ApplicationError
	mountPoint string
	operation  string
}

// NewVolumeError creates a new volume error
func NewVolumeError(msg, mountPoint, operation string, kind ErrorKind, err error) *VolumeError {
	return &VolumeError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		mountPoint: mountPoint,
		operation:  operation,
	}
}

// Error returns the volume error message
func (e *VolumeError) Error() string {
	if e.mountPoint != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.mountPoint, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.mountPoint)
	}
	return e.ApplicationError.Error()
}

// MountPoint returns the mount point associated with the error
func (e *VolumeError) MountPoint() string {
	return e.mountPoint
}

// Operation returns the attempted operation (mount, unmount, share...)
func (e *VolumeError) Operation() string {
	return e.operation
}

// CommandError is returned when an external collaborator reports a
// non-zero status.
type CommandError struct {
	ApplicationError
	operation string
	status    int
}

// NewCommandError creates a new collaborator failure
func NewCommandError(operation string, status int, err error) *CommandError {
	return &CommandError{
		ApplicationError: ApplicationError{
			msg:  operation + " failed",
			err:  err,
			kind: CommandFailed,
		},
		operation: operation,
		status:    status,
	}
}

// Error returns the command error message
func (e *CommandError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s (status %d): %v", e.msg, e.status, e.err)
	}
	return fmt.Sprintf("%s (status %d)", e.msg, e.status)
}

// Operation returns the collaborator operation that failed
func (e *CommandError) Operation() string {
	return e.operation
}

// Status returns the collaborator exit status
func (e *CommandError) Status() int {
	return e.status
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// NewKind creates a new error of the given kind
func NewKind(kind ErrorKind, msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: kind,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the first known kind in err's chain. Wrappers made by Wrap
// and Wrapf carry no kind of their own and are skipped.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(interface{ Kind() ErrorKind }); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsFileAccessDenied checks if the error is a file access denied error
func IsFileAccessDenied(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileAccessDenied
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsVolumeError checks if the error is a volume error
func IsVolumeError(err error) bool {
	var volErr *VolumeError
	return errors.As(err, &volErr)
}

// IsCommandFailed checks if the error came from a collaborator exit status
func IsCommandFailed(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}
