package rawfile

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/partstack/partstack/modules/bom/domain/assembly"
)

// Intrinsic column names recognized in tabular sources. Any other column
// becomes an opaque attribute.
const (
	colExternalID       = "external_id"
	colParentExternalID = "parent_external_id"
	colPartNumber       = "part_number"
	colDescription      = "description"
	colQuantity         = "quantity"
)

var requiredColumns = []string{colExternalID}

// jsonItem is the wire shape of one extracted item in JSON sources.
type jsonItem struct {
	ExternalID       string            `json:"external_id"`
	ParentExternalID *string           `json:"parent_external_id,omitempty"`
	PartNumber       string            `json:"part_number,omitempty"`
	Description      string            `json:"description,omitempty"`
	Quantity         decimal.Decimal   `json:"quantity,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

// ReadFile loads extracted items from a JSON, CSV or XLSX file, dispatching on
// the file extension.
func ReadFile(path string) ([]assembly.RawItem, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return readJSONFile(path)
	case ".csv":
		return readCSVFile(path)
	case ".xlsx":
		return readXLSXFile(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
}

func readJSONFile(path string) ([]assembly.RawItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes a JSON array of extracted items.
func ReadJSON(r io.Reader) ([]assembly.RawItem, error) {
	var items []jsonItem
	dec := json.NewDecoder(r)
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}

	out := make([]assembly.RawItem, 0, len(items))
	for i, item := range items {
		if strings.TrimSpace(item.ExternalID) == "" {
			return nil, fmt.Errorf("item %d: external_id is required", i)
		}
		out = append(out, assembly.RawItem{
			ExternalID:        strings.TrimSpace(item.ExternalID),
			ParentExternalID:  item.ParentExternalID,
			PartNumber:        item.PartNumber,
			Description:       item.Description,
			QuantityPerParent: item.Quantity,
			Attributes:        item.Attributes,
		})
	}
	return out, nil
}

func readCSVFile(path string) ([]assembly.RawItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV decodes tabular items: a header row of column names, one item per
// data row. A UTF-8 byte order mark before the header is tolerated.
func ReadCSV(r io.Reader) ([]assembly.RawItem, error) {
	br := stripUTF8BOM(bufio.NewReader(r))
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := requireColumns(header); err != nil {
		return nil, err
	}

	var out []assembly.RawItem
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		item, err := rowToItem(header, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}

func requireColumns(header []string) error {
	present := make(map[string]struct{}, len(header))
	for _, name := range header {
		present[name] = struct{}{}
	}
	for _, required := range requiredColumns {
		if _, ok := present[required]; !ok {
			return fmt.Errorf("missing required header column: %s", required)
		}
	}
	return nil
}

// rowToItem maps one tabular row onto a raw item. Unknown columns are carried
// as attributes; empty cells are skipped.
func rowToItem(header, record []string) (assembly.RawItem, error) {
	var item assembly.RawItem
	for i, name := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		switch name {
		case colExternalID:
			item.ExternalID = value
		case colParentExternalID:
			parent := value
			item.ParentExternalID = &parent
		case colPartNumber:
			item.PartNumber = value
		case colDescription:
			item.Description = value
		case colQuantity:
			quantity, err := decimal.NewFromString(value)
			if err != nil {
				return assembly.RawItem{}, fmt.Errorf("invalid quantity %q", value)
			}
			item.QuantityPerParent = quantity
		default:
			if item.Attributes == nil {
				item.Attributes = make(map[string]string)
			}
			item.Attributes[name] = value
		}
	}
	if item.ExternalID == "" {
		return assembly.RawItem{}, fmt.Errorf("external_id is required")
	}
	return item, nil
}
