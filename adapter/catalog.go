package adapter

import "context"

// Catalog is the tree of catalogs, schemas, tables and columns presented in
// the client's sidebar.
type Catalog struct {
	Items []*CatalogItem `json:"items"`
}

// CatalogItem is one node of the catalog tree. Schema and table items load
// their children on demand; Loaded marks whether that has happened, so a
// cached tree knows which branches still need a loader attached.
type CatalogItem struct {
	QualifiedIdentifier string         `json:"qualified_identifier"`
	QueryName           string         `json:"query_name"`
	Label               string         `json:"label"`
	TypeLabel           string         `json:"type_label"`
	Children            []*CatalogItem `json:"children,omitempty"`
	Loaded              bool           `json:"loaded"`

	fetch func(ctx context.Context) ([]*CatalogItem, error)
}

// FetchChildren returns the item's children, loading them on first use.
func (it *CatalogItem) FetchChildren(ctx context.Context) ([]*CatalogItem, error) {
	if it.Loaded || it.fetch == nil {
		return it.Children, nil
	}

	children, err := it.fetch(ctx)
	if err != nil {
		return nil, err
	}

	it.Children = children
	it.Loaded = true
	return children, nil
}

// Interactive reports whether the item loads children lazily.
func (it *CatalogItem) Interactive() bool {
	return it.fetch != nil
}
