// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateStorageBackend checks if the storage backend is supported.
func ValidateStorageBackend(backend string) error {
	switch backend {
	case "", constants.StorageBackendMemory, constants.StorageBackendFile, constants.StorageBackendRedis:
		return nil
	}
	return fmt.Errorf("expected storage backend of %s, %s or %s, got %s",
		constants.StorageBackendMemory, constants.StorageBackendFile, constants.StorageBackendRedis, backend)
}
