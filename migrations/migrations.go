// Package migrations embeds the SQL schema files so cmd/migrate works from any directory
package migrations

import (
	"embed"
	"fmt"
)

//go:embed *.sql
var files embed.FS

// Schema returns the SQL of the schema migration in the given direction ("up" or "down")
func Schema(direction string) (string, error) {
	if direction != "up" && direction != "down" {
		return "", fmt.Errorf("unknown migration direction %q", direction)
	}
	content, err := files.ReadFile(fmt.Sprintf("001_create_schema.%s.sql", direction))
	if err != nil {
		return "", fmt.Errorf("failed to read migration: %w", err)
	}
	return string(content), nil
}
