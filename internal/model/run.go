package model

import "time"

// Run records a single execution of the ETL stage.
type Run struct {
	CreatedAt      time.Time
	ID             string
	MessagesPath   string
	CategoriesPath string
	MergedRows     int
	CleanRows      int
	DuplicateRows  int
	CategoryCount  int
}
