package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"barstock-pos/internal/core/domain"

	"github.com/shopspring/decimal"
)

// ErrEmptyImport is returned for a file with a header and no rows
var ErrEmptyImport = errors.New("import file has no rows")

var importColumns = []string{"name", "category", "unit", "quantity", "price", "cost", "min_quantity", "barcode"}

// ImportResult counts what an import did
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Import reads products from CSV. Every row is validated before anything
// is written; rows match existing products by name, case-insensitively.
func (s *InventoryService) Import(ctx context.Context, actor domain.Actor, r io.Reader) (*ImportResult, error) {
	if !s.gate.HasPermission(actor.Role, domain.CanAddProducts) ||
		!s.gate.HasPermission(actor.Role, domain.CanEditProducts) {
		return nil, domain.ErrForbidden
	}

	rows, err := parseImport(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, row := range rows {
		existing, err := s.products.FindByName(ctx, *row.Name)
		switch {
		case err == nil:
			if _, err := s.update(ctx, actor, existing, row, domain.SourceImport); err != nil {
				return result, fmt.Errorf("row %q: %w", *row.Name, err)
			}
			result.Updated++
		case isNotFound(err):
			if _, err := s.create(ctx, actor, row, domain.SourceImport); err != nil {
				return result, fmt.Errorf("row %q: %w", *row.Name, err)
			}
			result.Created++
		default:
			return result, err
		}
	}
	return result, nil
}

func parseImport(r io.Reader) ([]*ProductInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyImport
	}
	if err != nil {
		return nil, &ImportError{Rows: []RowError{{Row: 1, Message: err.Error()}}}
	}
	index := map[string]int{}
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if name != "" {
			index[name] = i
		}
	}
	for col := range index {
		if !knownColumn(col) {
			return nil, &ImportError{Rows: []RowError{{Row: 1, Message: fmt.Sprintf("unknown column %q", col)}}}
		}
	}
	if _, ok := index["name"]; !ok {
		return nil, &ImportError{Rows: []RowError{{Row: 1, Message: "header must include a name column"}}}
	}

	var inputs []*ProductInput
	var problems []RowError
	seen := map[string]int{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			problems = append(problems, RowError{Row: line, Message: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}
		input, msg := parseImportRow(record, index)
		if msg == "" {
			key := strings.ToLower(*input.Name)
			if first, dup := seen[key]; dup {
				msg = fmt.Sprintf("duplicate of row %d", first)
			} else {
				seen[key] = line
			}
		}
		if msg != "" {
			problems = append(problems, RowError{Row: line, Message: msg})
			continue
		}
		inputs = append(inputs, input)
	}

	if len(problems) > 0 {
		return nil, &ImportError{Rows: problems}
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyImport
	}
	return inputs, nil
}

func parseImportRow(record []string, index map[string]int) (*ProductInput, string) {
	field := func(name string) (string, bool) {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}

	in := &ProductInput{}
	name, ok := field("name")
	if !ok {
		return nil, "name is required"
	}
	in.Name = &name

	for _, col := range []string{"category", "unit", "barcode"} {
		if v, ok := field(col); ok {
			v := v
			switch col {
			case "category":
				in.Category = &v
			case "unit":
				in.Unit = &v
			case "barcode":
				in.Barcode = &v
			}
		}
	}

	for _, col := range []string{"quantity", "min_quantity"} {
		v, ok := field(col)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !finite(f) {
			return nil, fmt.Sprintf("%s %q is not a number", col, v)
		}
		if f < 0 {
			return nil, fmt.Sprintf("%s cannot be negative", col)
		}
		if col == "quantity" {
			in.Quantity = &f
		} else {
			in.MinQuantity = &f
		}
	}

	for _, col := range []string{"price", "cost"} {
		v, ok := field(col)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimPrefix(v, "$"))
		if err != nil {
			return nil, fmt.Sprintf("%s %q is not an amount", col, v)
		}
		if d.IsNegative() {
			return nil, fmt.Sprintf("%s cannot be negative", col)
		}
		if col == "price" {
			in.Price = &d
		} else {
			in.Cost = &d
		}
	}
	return in, ""
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func knownColumn(col string) bool {
	for _, c := range importColumns {
		if c == col {
			return true
		}
	}
	return false
}
