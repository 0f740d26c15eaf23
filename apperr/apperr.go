// Package apperr defines the two error tiers of the renderer.
//
// Initialization failures are returned as *Error values which carry a Kind and
// a human readable message. The program prints them and exits with a non-zero
// code. Failures inside the render loop are not recoverable and go through
// Fatal, which prints the error with its stack and terminates the process.
package apperr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind enumerates the causes of initialization failures.
type Kind int

const (
	Unknown Kind = iota

	WindowInitFailed
	WindowCreationFailed
	SurfaceCreationFailed

	InstanceCreationFailed
	ListExtensionsFailed
	ListValidationLayersFailed
	ExtensionNotSupported
	LayerNotSupported

	NoVulkanDevice
	NoSuitableDevice
	DeviceCreationFailed

	AssetNotFound
	AssetDecodeFailed

	ResourceCreationFailed
)

var kindNames = map[Kind]string{
	Unknown:                    "Unknown",
	WindowInitFailed:           "WindowInitFailed",
	WindowCreationFailed:       "WindowCreationFailed",
	SurfaceCreationFailed:      "SurfaceCreationFailed",
	InstanceCreationFailed:     "InstanceCreationFailed",
	ListExtensionsFailed:       "ListExtensionsFailed",
	ListValidationLayersFailed: "ListValidationLayersFailed",
	ExtensionNotSupported:      "ExtensionNotSupported",
	LayerNotSupported:          "LayerNotSupported",
	NoVulkanDevice:             "NoVulkanDevice",
	NoSuitableDevice:           "NoSuitableDevice",
	DeviceCreationFailed:       "DeviceCreationFailed",
	AssetNotFound:              "AssetNotFound",
	AssetDecodeFailed:          "AssetDecodeFailed",
	ResourceCreationFailed:     "ResourceCreationFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is an initialization failure with an enumerated cause.
type Error struct {
	Kind Kind
	Msg  string

	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.cause.Error()
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New returns an *Error of the given kind with a stack trace attached.
func New(kind Kind, format string, args ...any) error {
	return errors.WithStackDepth(&Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}, 1)
}

// Wrap annotates err with a kind and a message. It returns nil when err is nil.
func Wrap(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.WithStackDepth(&Error{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		cause: err,
	}, 1)
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}
