package digital

import "errors"

var (
	// ErrConfiguration is returned if channel configuration is malformed,
	// channel names collide or the driver refuses to create a channel.
	ErrConfiguration = errors.New("configuration error")

	// ErrVerification is returned if the driver rejects the assembled
	// task.
	ErrVerification = errors.New("verification error")

	// ErrUnsupportedFormat is returned if a sample cannot be written in
	// the session mode. No driver calls are made for such sample.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDeviceWrite is returned if the driver write call fails. The
	// session is terminated after this error.
	ErrDeviceWrite = errors.New("device write error")
)
