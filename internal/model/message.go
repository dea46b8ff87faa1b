// Package model defines the core domain models used throughout the application.
package model

import (
	"database/sql"
	"strings"
)

// Column names shared by the message files and the persisted table.
const (
	ColumnID         = "id"
	ColumnMessage    = "message"
	ColumnOriginal   = "original"
	ColumnGenre      = "genre"
	ColumnCategories = "categories"
)

// MessageColumns lists the non-category columns of the persisted table, in order.
var MessageColumns = []string{ColumnID, ColumnMessage, ColumnOriginal, ColumnGenre}

// Message represents a single disaster-response message.
// Text fields are nullable: an empty cell in the source file is a missing value.
type Message struct {
	Text     sql.NullString
	Original sql.NullString
	Genre    sql.NullString
	ID       int64
}

// Complete reports whether every text field of the message is present.
func (m Message) Complete() bool {
	return m.Text.Valid && m.Original.Valid && m.Genre.Valid
}

// CategoryRecord is one row of the categories file.
type CategoryRecord struct {
	Categories string
	ID         int64
}

// MergedRecord is a message joined with its raw, still combined categories field.
type MergedRecord struct {
	Categories string
	Message
}

// NewText converts a raw cell into a nullable string. Empty cells are missing.
func NewText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// IsMessageColumn reports whether name is one of the fixed message columns.
func IsMessageColumn(name string) bool {
	for _, c := range MessageColumns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
