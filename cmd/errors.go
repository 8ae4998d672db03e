// SPDX-License-Identifier: Apache-2.0

package cmd

import "errors"

var errRevertTargetRequired = errors.New("revert requires either --all or --app")
