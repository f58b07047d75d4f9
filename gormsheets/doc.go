// Package gormsheets provides a database/sql driver and a GORM dialector that
// run SQL against Google Sheets through a sheets.Connection.
//
// Tables are sheet URLs: db.Table("https://docs.google.com/spreadsheets/d/...").
//
// Limitations:
//   - Read-only: INSERT/UPDATE/DELETE/DDL are not supported.
//   - Migrations are not supported; the migrator only inspects existing sheets.
package gormsheets
