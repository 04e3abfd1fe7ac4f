// Package export dumps seeded tables to JSON, YAML or one CSV file per table.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Dump is the document written for the JSON and YAML formats.
type Dump struct {
	Timestamp string                 `json:"timestamp" yaml:"timestamp"`
	Version   string                 `json:"version" yaml:"version"`
	Comment   string                 `json:"comment,omitempty" yaml:"comment,omitempty"`
	Order     []string               `json:"order" yaml:"order"`
	Tables    map[string][]store.Row `json:"tables" yaml:"tables"`
}

// Collect reads every row of tables. tables keeps its order in Dump.Order.
func Collect(ctx context.Context, st store.Store, tables []string) (*Dump, error) {
	d := &Dump{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Version:   "1.0",
		Order:     tables,
		Tables:    make(map[string][]store.Row, len(tables)),
	}
	for _, table := range tables {
		rows, err := st.Find(ctx, table, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", table, err)
		}
		if rows == nil {
			rows = []store.Row{}
		}
		d.Tables[table] = rows
	}
	return d, nil
}

// Perform collects tables and writes them under exportPath. It returns the
// file (JSON, YAML) or directory (CSV) it created.
func Perform(ctx context.Context, st store.Store, tables []string, exportPath, format string) (string, error) {
	d, err := Collect(ctx, st, tables)
	if err != nil {
		return "", err
	}
	return Write(d, exportPath, format)
}

func Write(d *Dump, exportPath, format string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	switch format {
	case FormatCSV:
		return writeCSV(d, filepath.Join(exportPath, fmt.Sprintf("export_%s_csv", timestamp)))
	case FormatYAML:
		return writeDocument(d, filepath.Join(exportPath, fmt.Sprintf("export_%s.yaml", timestamp)), yaml.Marshal)
	case FormatJSON, "":
		return writeDocument(d, filepath.Join(exportPath, fmt.Sprintf("export_%s.json", timestamp)), func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		})
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeDocument(d *Dump, filePath string, marshal func(interface{}) ([]byte, error)) (string, error) {
	data, err := marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

func writeCSV(d *Dump, dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create CSV directory: %w", err)
	}

	for _, table := range d.Order {
		rows := d.Tables[table]
		if len(rows) == 0 {
			continue
		}
		if err := writeTableCSV(filepath.Join(dirPath, table+".csv"), rows); err != nil {
			return "", fmt.Errorf("failed to write CSV for %s: %w", table, err)
		}
	}
	return dirPath, nil
}

func writeTableCSV(filePath string, rows []store.Row) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	seen := map[string]bool{}
	var headers []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
	}
	sort.Strings(headers)

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, len(headers))
		for i, h := range headers {
			values[i] = cell(row[h])
		}
		if err := w.Write(values); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
