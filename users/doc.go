// Package users persists accounts: phone, password hash, role and optional
// profile fields.
//
// [PostgresRepository] runs over database/sql with the pgx stdlib driver and
// ships its schema as embedded goose migrations. [MemoryRepository] keeps the
// same error contract in process for tests and demos.
//
// Uniqueness failures surface as [ErrPhoneTaken] or [ErrTelegramTaken]; a
// missing or soft-deleted user is [ErrNotFound].
package users
