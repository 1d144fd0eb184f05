package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/address"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/layout"
	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// SUPPLIER CONFIGURATION STRUCTURE
// =============================================================================

// SupplierConfig holds the layouts of one supplier's three documents.
//
// EXAMPLE (suppliers/acme.yaml):
//
//	name: acme
//	template: acme_prices.xlsx
//	price_list:
//	  start_row: 3
//	  code_column: A
//	  price_column: E
//	  quantity_column: J
//	  sum_column: K
//	warehouse_order:
//	  start_row: 3
//	  code_column: A
//	  quantity_column: J
//	preorders:
//	  start_row: 3
//	  code_column: C
//	  secondary_code_column: F
//	  quantity_column: E
type SupplierConfig struct {
	// Name identifies the supplier on the command line. When empty the file
	// name without extension is used.
	Name string `yaml:"name"`

	// Template is the workbook copied for each order, relative to the
	// templates directory. When empty the price list itself is the template.
	Template string `yaml:"template,omitempty"`

	PriceList      DocumentLayout `yaml:"price_list"`
	WarehouseOrder DocumentLayout `yaml:"warehouse_order"`
	Preorders      DocumentLayout `yaml:"preorders"`
}

// DocumentLayout is one document layout as an operator writes it: column
// letters and 1-based row and sheet numbers.
type DocumentLayout struct {
	// Sheet is the 1-based sheet number of the price list. Source documents
	// are always read across every sheet.
	// Default: 1
	Sheet int `yaml:"sheet,omitempty"`

	// StartRow is the first data row. Required.
	StartRow int `yaml:"start_row"`

	// CodeColumn holds the product code. Required.
	CodeColumn string `yaml:"code_column"`

	// SecondaryCodeColumn is checked before CodeColumn (preorders only).
	SecondaryCodeColumn string `yaml:"secondary_code_column,omitempty"`

	// QuantityColumn holds the requested quantity, or receives the final
	// quantity on the price list. Required.
	QuantityColumn string `yaml:"quantity_column"`

	// PriceColumn and SumColumn enable line sums (price list only).
	PriceColumn string `yaml:"price_column,omitempty"`
	SumColumn   string `yaml:"sum_column,omitempty"`

	// TotalRow receives the order totals (price list only).
	TotalRow int `yaml:"total_row,omitempty"`

	// TotalQuantity also writes the total quantity into TotalRow.
	TotalQuantity bool `yaml:"total_quantity,omitempty"`
}

// =============================================================================
// CONVERSION TO ENGINE LAYOUTS
// =============================================================================

// Layouts converts the supplier file to engine layouts. Missing required
// values become layout.Unset so that layout validation reports all of them
// at once; malformed column letters fail here.
func (s *SupplierConfig) Layouts() (layout.Set, error) {
	var set layout.Set
	var err error

	if set.PriceList, err = s.PriceList.ToConfig(); err != nil {
		return set, fmt.Errorf("price_list: %w", err)
	}
	if set.WarehouseOrder, err = s.WarehouseOrder.ToConfig(); err != nil {
		return set, fmt.Errorf("warehouse_order: %w", err)
	}
	if set.Preorders, err = s.Preorders.ToConfig(); err != nil {
		return set, fmt.Errorf("preorders: %w", err)
	}
	return set, nil
}

// ToConfig converts one document layout.
func (d DocumentLayout) ToConfig() (layout.Config, error) {
	cfg := layout.Config{
		StartRowIndex:  layout.Unset,
		CodeColumn:     layout.Unset,
		QuantityColumn: layout.Unset,
		TotalQuantity:  d.TotalQuantity,
	}

	if d.StartRow > 0 {
		cfg.StartRowIndex = address.RowNumberToIndex(d.StartRow)
	}
	if d.Sheet > 0 {
		cfg.SheetIndex = d.Sheet - 1
	}
	if d.TotalRow > 0 {
		cfg.TotalRowIndex = layout.Index(address.RowNumberToIndex(d.TotalRow))
	}

	required := []struct {
		field  string
		letter string
		dst    *int
	}{
		{"code_column", d.CodeColumn, &cfg.CodeColumn},
		{"quantity_column", d.QuantityColumn, &cfg.QuantityColumn},
	}
	for _, r := range required {
		if strings.TrimSpace(r.letter) == "" {
			continue
		}
		idx, err := address.ColumnLetterToIndex(r.letter)
		if err != nil {
			return cfg, types.ConfigurationError("supplier config", "%s: %v", r.field, err)
		}
		*r.dst = idx
	}

	optional := []struct {
		field  string
		letter string
		dst    **int
	}{
		{"secondary_code_column", d.SecondaryCodeColumn, &cfg.SecondaryCodeColumn},
		{"price_column", d.PriceColumn, &cfg.PriceColumn},
		{"sum_column", d.SumColumn, &cfg.SumColumn},
	}
	for _, o := range optional {
		if strings.TrimSpace(o.letter) == "" {
			continue
		}
		idx, err := address.ColumnLetterToIndex(o.letter)
		if err != nil {
			return cfg, types.ConfigurationError("supplier config", "%s: %v", o.field, err)
		}
		*o.dst = layout.Index(idx)
	}

	return cfg, nil
}

// FromConfig converts an engine layout back to display form.
func FromConfig(cfg layout.Config) DocumentLayout {
	letter := func(i int) string {
		s, _ := address.IndexToColumnLetter(i)
		return s
	}
	optional := func(p *int) string {
		if p == nil {
			return ""
		}
		return letter(*p)
	}

	d := DocumentLayout{
		StartRow:            address.IndexToRowNumber(cfg.StartRowIndex),
		CodeColumn:          letter(cfg.CodeColumn),
		QuantityColumn:      letter(cfg.QuantityColumn),
		SecondaryCodeColumn: optional(cfg.SecondaryCodeColumn),
		PriceColumn:         optional(cfg.PriceColumn),
		SumColumn:           optional(cfg.SumColumn),
		TotalQuantity:       cfg.TotalQuantity,
	}
	if cfg.SheetIndex > 0 {
		d.Sheet = cfg.SheetIndex + 1
	}
	if cfg.TotalRowIndex != nil {
		d.TotalRow = address.IndexToRowNumber(*cfg.TotalRowIndex)
	}
	return d
}

// NewSupplierConfig builds a display-form supplier config from engine
// layouts.
func NewSupplierConfig(name, template string, set layout.Set) *SupplierConfig {
	return &SupplierConfig{
		Name:           name,
		Template:       template,
		PriceList:      FromConfig(set.PriceList),
		WarehouseOrder: FromConfig(set.WarehouseOrder),
		Preorders:      FromConfig(set.Preorders),
	}
}

// DefaultSupplier returns the layout used when a supplier has not been set
// up: price list from row 3 with code A, price E, quantity J and sum K;
// warehouse order from row 3 with code A and quantity J; preorders from row 3
// with code C, secondary code F and quantity E.
func DefaultSupplier() *SupplierConfig {
	return &SupplierConfig{
		Name: "default",
		PriceList: DocumentLayout{
			StartRow: 3, CodeColumn: "A", PriceColumn: "E", QuantityColumn: "J", SumColumn: "K",
		},
		WarehouseOrder: DocumentLayout{StartRow: 3, CodeColumn: "A", QuantityColumn: "J"},
		Preorders: DocumentLayout{
			StartRow: 3, CodeColumn: "C", SecondaryCodeColumn: "F", QuantityColumn: "E",
		},
	}
}

// Marshal renders the supplier config as YAML.
func (s *SupplierConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// =============================================================================
// SUPPLIER LOADING FUNCTIONS
// =============================================================================

// LoadSupplierConfigs loads all supplier configurations from a directory.
//
// PARAMETERS:
//   - suppliersDir: The directory containing supplier YAML files.
//
// RETURNS:
//   - A map of supplier configurations, keyed by supplier name.
//   - An error if the directory cannot be read, a file cannot be parsed, or
//     two files name the same supplier.
func LoadSupplierConfigs(suppliersDir string) (map[string]*SupplierConfig, error) {
	configs := make(map[string]*SupplierConfig)

	files, err := filepath.Glob(filepath.Join(suppliersDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(suppliersDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		config, err := LoadSupplierConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if _, exists := configs[config.Name]; exists {
			return nil, types.ConfigurationError("load suppliers", "supplier %q is defined twice (second in %s)", config.Name, file)
		}
		configs[config.Name] = config
	}

	return configs, nil
}

// LoadSupplierConfig loads a single supplier configuration file.
func LoadSupplierConfig(filePath string) (*SupplierConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SupplierConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	// Use the file name when no name is given.
	if strings.TrimSpace(config.Name) == "" {
		base := filepath.Base(filePath)
		config.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	config.Name = strings.TrimSpace(config.Name)

	return &config, nil
}
