// SPDX-License-Identifier: Apache-2.0

package migrator

import "fmt"

// InjectedFailureError is returned by the test-only WithFailAfterOperation
// hook once the configured operation count has been reached.
type InjectedFailureError struct {
	AfterOperation int
}

func (e InjectedFailureError) Error() string {
	return fmt.Sprintf("injected failure after operation %d", e.AfterOperation)
}
