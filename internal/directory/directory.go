// Package directory holds the reference data the dialogue engine consults:
// orders, the agent roster and the product catalog.
package directory

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

var orderNumberRe = regexp.MustCompile(`(?i)\bORD\d{6}\b`)

// ExtractOrderNumber returns the first order number in text, upper-cased.
func ExtractOrderNumber(text string) (string, bool) {
	m := orderNumberRe.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

type seed struct {
	Orders   []model.Order   `yaml:"orders"`
	Agents   []model.Agent   `yaml:"agents"`
	Products []model.Product `yaml:"products"`
}

// Directory is read-only after construction and safe for concurrent use.
type Directory struct {
	orders   map[string]model.Order
	agents   []model.Agent
	products []model.Product
}

// Default returns the directory built from the embedded seed.
func Default() (*Directory, error) {
	return Parse(seedYAML)
}

// Load reads a YAML directory file. An empty path yields the embedded seed.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Directory, error) {
	var s seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse directory: %w", err)
	}
	return New(s.Orders, s.Agents, s.Products)
}

func New(orders []model.Order, agents []model.Agent, products []model.Product) (*Directory, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("directory: at least one agent is required")
	}
	d := &Directory{
		orders:   make(map[string]model.Order, len(orders)),
		agents:   append([]model.Agent(nil), agents...),
		products: append([]model.Product(nil), products...),
	}
	for _, o := range orders {
		num, ok := ExtractOrderNumber(o.OrderNumber)
		if !ok || len(o.OrderNumber) != len(num) {
			return nil, fmt.Errorf("directory: invalid order number %q", o.OrderNumber)
		}
		o.OrderNumber = num
		d.orders[num] = o
	}
	for _, a := range agents {
		if a.ID == "" {
			return nil, fmt.Errorf("directory: agent %q has no id", a.Name)
		}
		if !a.Specialty.Valid() {
			return nil, fmt.Errorf("directory: agent %s has unknown specialty %q", a.ID, a.Specialty)
		}
	}
	return d, nil
}

// LookupOrder finds an order by number, case-insensitively.
func (d *Directory) LookupOrder(orderNumber string) (model.Order, error) {
	o, ok := d.orders[strings.ToUpper(strings.TrimSpace(orderNumber))]
	if !ok {
		return model.Order{}, errs.ErrOrderNotFound
	}
	return o, nil
}

// Agents returns the roster in directory order.
func (d *Directory) Agents() []model.Agent {
	return append([]model.Agent(nil), d.agents...)
}

func (d *Directory) Products() []model.Product {
	return append([]model.Product(nil), d.products...)
}

func (d *Directory) Product(id string) (model.Product, error) {
	for _, p := range d.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, errs.ErrProductNotFound
}
