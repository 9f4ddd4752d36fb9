package catalog

import (
	"context"
	"encoding/json"
	"os"
	"slices"
	"strings"

	"digital-store/internal/domain/catalog"
	"digital-store/internal/pkg/errs"
)

// FileCatalog is the static product list read once at startup.
type FileCatalog struct {
	products map[int64]*catalog.Product
	order    []int64
}

func LoadFile(path string) (*FileCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read catalog %s", path)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*FileCatalog, error) {
	var items []*catalog.Product
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errs.Wrap(err, "decode catalog")
	}

	c := &FileCatalog{products: make(map[int64]*catalog.Product, len(items))}
	for _, p := range items {
		if err := validate(p); err != nil {
			return nil, err
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, errs.Newf("catalog: duplicate product id %d", p.ID)
		}
		p.Currency = strings.ToUpper(p.Currency)
		c.products[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	slices.Sort(c.order)
	return c, nil
}

// priceScale matches the NUMERIC(18,2) money columns.
const priceScale = 2

func validate(p *catalog.Product) error {
	switch {
	case p.ID <= 0:
		return errs.Newf("catalog: product id must be positive, got %d", p.ID)
	case strings.TrimSpace(p.Name) == "":
		return errs.Newf("catalog: product %d has no name", p.ID)
	case p.Price.IsNegative():
		return errs.Newf("catalog: product %d has a negative price", p.ID)
	case !p.Price.Equal(p.Price.Round(priceScale)):
		return errs.Newf("catalog: product %d price %s has more than %d decimals", p.ID, p.Price, priceScale)
	case p.Currency == "":
		return errs.Newf("catalog: product %d has no currency", p.ID)
	case p.StockCount != nil && *p.StockCount < 0:
		return errs.Newf("catalog: product %d has negative stock", p.ID)
	}
	return nil
}

func (c *FileCatalog) Product(_ context.Context, id int64) (*catalog.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (c *FileCatalog) Products(_ context.Context) ([]*catalog.Product, error) {
	out := make([]*catalog.Product, 0, len(c.order))
	for _, id := range c.order {
		cp := *c.products[id]
		out = append(out, &cp)
	}
	return out, nil
}
