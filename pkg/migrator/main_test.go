// SPDX-License-Identifier: Apache-2.0

//go:build integration

package migrator_test

import (
	"testing"

	"github.com/relaysql/schemax/internal/testutils"
)

// TestMain starts the shared Postgres and MySQL containers once for the
// whole package, mirroring the teacher's SharedTestMain pattern extended to
// every supported dialect.
func TestMain(m *testing.M) {
	testutils.SharedDialectsTestMain(m)
}
