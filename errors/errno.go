// This file enumerates the error kinds the volume and defragmenter layers can
// return. It plays the same role the teacher's POSIX errno shim does, but the
// values are specific to a FAT-style single-file image: there's no syscall
// layer underneath this to stay errno-compatible with.

package errors

import (
	"fmt"
)

type FatError string

const ErrDamaged = FatError("superblock is damaged")
const ErrInconsistentFAT = FatError("FAT is inconsistent")
const ErrNotFound = FatError("no such file or directory")
const ErrExists = FatError("file exists")
const ErrFull = FatError("directory is full")
const ErrNoSpace = FatError("no space left on device")
const ErrNotEmpty = FatError("directory not empty")
const ErrHostIO = FatError("host I/O failed")
const ErrInvalidArgument = FatError("invalid argument")
const ErrNotADirectory = FatError("not a directory")
const ErrIsADirectory = FatError("is a directory")

func (e FatError) Error() string {
	return string(e)
}

func (e FatError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), message),
		originalError: e,
	}
}

func (e FatError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

// Is reports whether target is this same FatError sentinel. Seeing through a
// customDriverError wrapper produced by WithMessage/WrapError is done by that
// wrapper's Unwrap method.
func (e FatError) Is(target error) bool {
	other, ok := target.(FatError)
	return ok && other == e
}
