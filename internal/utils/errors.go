// Package utils provides image loading, saving, and encoding helpers shared
// by the CLI, the preprocessing stage, and the recognition engine.
package utils

import "fmt"

// ImageProcessingError wraps image operation failures with the operation name.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image %s failed: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}
