package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/singlow/harlequin-athena/catcache"
)

// ddlPrefixes are the statements that can change the catalog; executing one
// invalidates the cached catalog tree.
var ddlPrefixes = []string{"CREATE", "DROP", "ALTER", "TRUNCATE", "RENAME", "MSCK"}

// queryRunner abstracts the metadata queries so catalog browsing can be
// tested without an Athena backend.
type queryRunner interface {
	queryStrings(ctx context.Context, query string) ([][]string, error)
}

type dbRunner struct {
	db *sql.DB
}

func (r *dbRunner) queryStrings(ctx context.Context, query string) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]string
	for rows.Next() {
		fields := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range fields {
			dest[i] = &fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		record := make([]string, len(cols))
		for i, f := range fields {
			record[i] = f.String
		}
		out = append(out, record)
	}

	return out, rows.Err()
}

// AthenaConnection implements Connection on top of the athena driver.
type AthenaConnection struct {
	db     *sql.DB
	runner queryRunner
	opts   Options
	logger *slog.Logger

	cache    *catcache.Cache
	cacheKey string

	mu           sync.Mutex
	catalogCache *Catalog
}

var _ Connection = (*AthenaConnection)(nil)

func newConnection(db *sql.DB, opts Options, cache *catcache.Cache, logger *slog.Logger) *AthenaConnection {
	return &AthenaConnection{
		db:       db,
		runner:   &dbRunner{db: db},
		opts:     opts,
		logger:   logger,
		cache:    cache,
		cacheKey: catcache.Key(opts.Catalog, opts.Region, opts.WorkGroup, opts.Schema),
	}
}

// Execute runs a query and returns a cursor over its results. DDL statements
// invalidate the catalog cache since they may have changed it.
func (c *AthenaConnection) Execute(ctx context.Context, query string) (Cursor, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newQueryError(err)
	}

	if isCatalogChangingQuery(query) {
		c.InvalidateCatalogCache()
	}

	return newCursor(rows)
}

// Close releases the underlying database handle.
func (c *AthenaConnection) Close() error {
	return c.db.Close()
}

func isCatalogChangingQuery(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range ddlPrefixes {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return false
}

// GetCatalog returns the catalog tree, from the in-memory cache, the
// persistent cache, or by querying Athena, in that order.
func (c *AthenaConnection) GetCatalog(ctx context.Context) (*Catalog, error) {
	c.mu.Lock()
	if c.catalogCache != nil {
		defer c.mu.Unlock()
		return c.catalogCache, nil
	}
	c.mu.Unlock()

	if cached := c.loadCatalogCache(); cached != nil {
		c.mu.Lock()
		c.catalogCache = cached
		c.mu.Unlock()
		return cached, nil
	}

	catalog, err := c.buildCatalog(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.catalogCache = catalog
	c.mu.Unlock()
	c.saveCatalogCache(catalog)

	return catalog, nil
}

// InvalidateCatalogCache forces a refresh on the next GetCatalog call.
func (c *AthenaConnection) InvalidateCatalogCache() {
	c.mu.Lock()
	c.catalogCache = nil
	c.mu.Unlock()

	if c.cache != nil {
		if err := c.cache.Invalidate(c.cacheKey); err != nil {
			c.logger.Debug("failed to invalidate catalog cache", "error", err)
		}
	}
}

func (c *AthenaConnection) buildCatalog(ctx context.Context) (*Catalog, error) {
	// Athena has no SHOW CATALOGS; the configured catalog is the only one
	// browsed.
	catalogName := c.opts.Catalog

	var schemas []string
	if c.opts.Schema != "" {
		schemas = []string{c.opts.Schema}
	} else {
		var err error
		schemas, err = c.getSchemas(ctx)
		if err != nil {
			return nil, err
		}
	}

	schemaItems := make([]*CatalogItem, 0, len(schemas))
	for _, schema := range schemas {
		schemaItems = append(schemaItems, c.newSchemaItem(catalogName, schema))
	}

	return &Catalog{
		Items: []*CatalogItem{
			{
				QualifiedIdentifier: fmt.Sprintf("%q", catalogName),
				QueryName:           fmt.Sprintf("%q", catalogName),
				Label:               catalogName,
				TypeLabel:           "c",
				Children:            schemaItems,
				Loaded:              true,
			},
		},
	}, nil
}

func (c *AthenaConnection) newSchemaItem(catalogName, schema string) *CatalogItem {
	item := &CatalogItem{
		QualifiedIdentifier: fmt.Sprintf("%q.%q", catalogName, schema),
		QueryName:           fmt.Sprintf("%q.%q", catalogName, schema),
		Label:               schema,
		TypeLabel:           "s",
	}
	item.fetch = func(ctx context.Context) ([]*CatalogItem, error) {
		return c.fetchTables(ctx, catalogName, schema)
	}
	return item
}

func (c *AthenaConnection) newTableItem(catalogName, schema, table, typeLabel string) *CatalogItem {
	item := &CatalogItem{
		QualifiedIdentifier: fmt.Sprintf("%q.%q.%q", catalogName, schema, table),
		QueryName:           fmt.Sprintf("%q.%q.%q", catalogName, schema, table),
		Label:               table,
		TypeLabel:           typeLabel,
	}
	item.fetch = func(ctx context.Context) ([]*CatalogItem, error) {
		return c.fetchColumns(ctx, catalogName, schema, table)
	}
	return item
}

func (c *AthenaConnection) fetchTables(ctx context.Context, catalogName, schema string) ([]*CatalogItem, error) {
	relations, err := c.getRelations(ctx, catalogName, schema)
	if err != nil {
		return nil, err
	}

	items := make([]*CatalogItem, 0, len(relations))
	for _, rel := range relations {
		items = append(items, c.newTableItem(catalogName, schema, rel.name, rel.typeLabel))
	}
	return items, nil
}

func (c *AthenaConnection) fetchColumns(ctx context.Context, catalogName, schema, table string) ([]*CatalogItem, error) {
	cols, err := c.getColumns(ctx, catalogName, schema, table)
	if err != nil {
		return nil, err
	}

	items := make([]*CatalogItem, 0, len(cols))
	for _, col := range cols {
		items = append(items, &CatalogItem{
			QualifiedIdentifier: fmt.Sprintf("%q.%q.%q.%q", catalogName, schema, table, col.name),
			QueryName:           fmt.Sprintf("%q", col.name),
			Label:               col.name,
			TypeLabel:           ShortTypeLabel(col.dataType),
		})
	}
	return items, nil
}

// getSchemas lists the catalog's databases. Athena uses SHOW DATABASES and
// does not support an IN-catalog clause; information_schema is filtered out.
func (c *AthenaConnection) getSchemas(ctx context.Context) ([]string, error) {
	records, err := c.runner.queryStrings(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, newQueryError(err)
	}

	schemas := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) == 0 || record[0] == "information_schema" {
			continue
		}
		schemas = append(schemas, record[0])
	}
	return schemas, nil
}

type relation struct {
	name      string
	typeLabel string
}

func (c *AthenaConnection) getRelations(ctx context.Context, catalogName, schema string) ([]relation, error) {
	query := fmt.Sprintf(`
		SELECT
			table_name,
			CASE
				WHEN table_type LIKE '%%TABLE' THEN 't'
				ELSE 'v'
			END AS table_type
		FROM %q.information_schema.tables
		WHERE table_schema = '%s'`,
		catalogName, escapeLiteral(schema))

	records, err := c.runner.queryStrings(ctx, query)
	if err != nil {
		return nil, newQueryError(err)
	}

	relations := make([]relation, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		relations = append(relations, relation{name: record[0], typeLabel: record[1]})
	}
	return relations, nil
}

type columnInfo struct {
	name     string
	dataType string
}

func (c *AthenaConnection) getColumns(ctx context.Context, catalogName, schema, table string) ([]columnInfo, error) {
	query := fmt.Sprintf(`
		SELECT
			column_name,
			data_type
		FROM %q.information_schema.columns
		WHERE table_schema = '%s'
			AND table_name = '%s'
		ORDER BY ordinal_position`,
		catalogName, escapeLiteral(schema), escapeLiteral(table))

	records, err := c.runner.queryStrings(ctx, query)
	if err != nil {
		return nil, newQueryError(err)
	}

	cols := make([]columnInfo, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		cols = append(cols, columnInfo{name: record[0], dataType: record[1]})
	}
	return cols, nil
}

func escapeLiteral(s string) string {
	return strings.Replace(s, "'", "''", -1)
}

func (c *AthenaConnection) loadCatalogCache() *Catalog {
	if c.cache == nil {
		return nil
	}

	var catalog Catalog
	ok, err := c.cache.Load(c.cacheKey, &catalog)
	if err != nil {
		c.logger.Debug("failed to load catalog cache", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	// Reattach lazy loaders to branches that were never expanded.
	for _, catalogItem := range catalog.Items {
		for _, schemaItem := range catalogItem.Children {
			c.reattachSchemaLoader(catalogItem.Label, schemaItem)
		}
	}
	return &catalog
}

func (c *AthenaConnection) reattachSchemaLoader(catalogName string, schemaItem *CatalogItem) {
	schema := schemaItem.Label
	if !schemaItem.Loaded {
		schemaItem.fetch = func(ctx context.Context) ([]*CatalogItem, error) {
			return c.fetchTables(ctx, catalogName, schema)
		}
		return
	}
	for _, tableItem := range schemaItem.Children {
		if tableItem.Loaded {
			continue
		}
		table := tableItem.Label
		tableItem.fetch = func(ctx context.Context) ([]*CatalogItem, error) {
			return c.fetchColumns(ctx, catalogName, schema, table)
		}
	}
}

func (c *AthenaConnection) saveCatalogCache(catalog *Catalog) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Save(c.cacheKey, catalog); err != nil {
		c.logger.Debug("failed to save catalog cache", "error", err)
	}
}
