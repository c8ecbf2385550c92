package customers

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjregee/crmdesk/internal/models"
)

// UnknownCustomerName is shown for threads whose customer is not in the directory.
const UnknownCustomerName = "Unknown Customer"

//go:embed assets/customers.yaml
var defaultDirectory []byte

type directoryFile struct {
	Customers []*models.Customer `yaml:"customers"`
}

// Directory is a read-only lookup of customer records.
type Directory struct {
	byID map[string]*models.Customer
}

// LoadDirectory reads customers from path, or the built-in directory when path is empty.
func LoadDirectory(path string) (*Directory, error) {
	if path == "" {
		return ParseDirectory(defaultDirectory)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read customer directory %s: %w", path, err)
	}

	dir, err := ParseDirectory(content)
	if err != nil {
		return nil, fmt.Errorf("parse customer directory %s: %w", path, err)
	}

	return dir, nil
}

func ParseDirectory(content []byte) (*Directory, error) {
	var file directoryFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Customer, len(file.Customers))
	for i, customer := range file.Customers {
		if customer == nil || customer.ID == "" {
			return nil, fmt.Errorf("customer %d has no id", i)
		}
		if _, ok := byID[customer.ID]; ok {
			return nil, fmt.Errorf("duplicate customer id %s", customer.ID)
		}
		byID[customer.ID] = customer
	}

	return &Directory{byID: byID}, nil
}

func (d *Directory) Lookup(id string) (*models.Customer, bool) {
	customer, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	c := *customer
	return &c, true
}

// List returns every customer ordered by id.
func (d *Directory) List() []*models.Customer {
	list := make([]*models.Customer, 0, len(d.byID))
	for _, customer := range d.byID {
		c := *customer
		list = append(list, &c)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})

	return list
}

func (d *Directory) DisplayName(id string) string {
	customer, ok := d.byID[id]
	if !ok || customer.FullName() == "" {
		return UnknownCustomerName
	}
	return customer.FullName()
}

func (d *Directory) Company(id string) string {
	if customer, ok := d.byID[id]; ok {
		return customer.Company
	}
	return ""
}
