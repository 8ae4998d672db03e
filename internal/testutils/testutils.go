// SPDX-License-Identifier: Apache-2.0

package testutils

const (
	PostgresUniqueViolationCode   string = "unique_violation"
	PostgresNotNullViolationCode  string = "not_null_violation"
	PostgresFKViolationCode       string = "foreign_key_violation"
	MySQLDuplicateEntryErrNum     uint16 = 1062
	MySQLLockWaitTimeoutErrNum    uint16 = 1205
)
