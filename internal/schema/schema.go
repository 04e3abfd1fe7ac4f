// Package schema ships the DDL for the seeded tables, one file per dialect.
package schema

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
)

//go:embed sql/*.sql
var files embed.FS

var (
	commentRegex = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")
)

// Dialect maps a configured provider name to its DDL dialect.
func Dialect(provider string) (string, error) {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database provider: %s", provider)
	}
}

// DDL returns the full schema script for provider.
func DDL(provider string) (string, error) {
	dialect, err := Dialect(provider)
	if err != nil {
		return "", err
	}
	b, err := files.ReadFile("sql/" + dialect + ".sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Statements returns the schema for provider split into single statements.
func Statements(provider string) ([]string, error) {
	ddl, err := DDL(provider)
	if err != nil {
		return nil, err
	}
	return Split(ddl), nil
}

// Split breaks a script on semicolons that are outside string literals and
// drops line comments.
func Split(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	quoted := make(map[int]bool)
	for _, m := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := m[0]; i < m[1]; i++ {
			quoted[i] = true
		}
	}

	statements := make([]string, 0, strings.Count(sql, ";")+1)
	var current strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i, char := range sql {
		if char == ';' && !quoted[i] {
			flush()
			continue
		}
		current.WriteRune(char)
	}
	flush()

	return statements
}
