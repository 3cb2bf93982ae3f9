package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqlConnector is the shared implementation for MySQL, Postgres, and SQLite.
type sqlConnector struct {
	driverName string
	db         *sql.DB
}

func newSQLConnector(driverName, dsn string) (*sqlConnector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// Sensible pool settings for a desktop app
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	return &sqlConnector{driverName: driverName, db: db}, nil
}

func (c *sqlConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

func (c *sqlConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if c.driverName == "sqlite" {
		return c.introspectSQLite(ctx)
	}
	return c.introspectInfoSchema(ctx)
}

// introspectInfoSchema works for MySQL and Postgres via INFORMATION_SCHEMA.
func (c *sqlConnector) introspectInfoSchema(ctx context.Context) (*SchemaInfo, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() OR TABLE_SCHEMA = CURRENT_SCHEMA()
		 ORDER BY TABLE_NAME`)
	if err != nil {
		// Fallback: try without the schema filter
		rows, err = c.db.QueryContext(ctx,
			`SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES ORDER BY TABLE_NAME`)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tableNames = append(tableNames, name)
	}

	schema := &SchemaInfo{}
	for _, tbl := range tableNames {
		info := TableInfo{Name: tbl}
		info.Columns = c.columnsInfoSchema(ctx, tbl)
		info.ForeignKeys = c.foreignKeys(ctx, tbl)
		schema.Tables = append(schema.Tables, info)
	}

	return schema, nil
}

func (c *sqlConnector) columnsInfoSchema(ctx context.Context, table string) []ColumnInfo {
	pks := map[string]bool{}
	pkRows, err := c.db.QueryContext(ctx,
		`SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		 WHERE TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'`, table)
	if err == nil {
		for pkRows.Next() {
			var name string
			if pkRows.Scan(&name) == nil {
				pks[name] = true
			}
		}
		pkRows.Close()
	}

	colRows, err := c.db.QueryContext(ctx,
		`SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_NAME = ? ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil
	}
	defer colRows.Close()

	var cols []ColumnInfo
	for colRows.Next() {
		var ci ColumnInfo
		if err := colRows.Scan(&ci.Name, &ci.Type); err != nil {
			continue
		}
		ci.PrimaryKey = pks[ci.Name]
		cols = append(cols, ci)
	}
	return cols
}

// foreignKeys resolves outgoing references for one table. MySQL exposes the
// referenced side directly on KEY_COLUMN_USAGE; Postgres needs the
// constraint tables joined.
func (c *sqlConnector) foreignKeys(ctx context.Context, table string) []ForeignKey {
	var rows *sql.Rows
	var err error
	switch c.driverName {
	case "mysql":
		rows, err = c.db.QueryContext(ctx,
			`SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
			 FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
			 WHERE TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL`, table)
	case "postgres":
		rows, err = c.db.QueryContext(ctx,
			`SELECT kcu.column_name, ccu.table_name, ccu.column_name
			 FROM information_schema.table_constraints tc
			 JOIN information_schema.key_column_usage kcu
			   ON tc.constraint_name = kcu.constraint_name
			 JOIN information_schema.constraint_column_usage ccu
			   ON tc.constraint_name = ccu.constraint_name
			 WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = $1`, table)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			continue
		}
		fks = append(fks, fk)
	}
	return fks
}

// introspectSQLite uses sqlite_master plus the table_info and
// foreign_key_list pragmas.
func (c *sqlConnector) introspectSQLite(ctx context.Context) (*SchemaInfo, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tableNames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tableNames = append(tableNames, name)
	}

	schema := &SchemaInfo{}
	for _, tbl := range tableNames {
		info := TableInfo{Name: tbl}

		pragmaRows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", tbl))
		if err == nil {
			for pragmaRows.Next() {
				var cid int
				var name, colType string
				var notNull, pk int
				var dfltValue sql.NullString
				if err := pragmaRows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
					continue
				}
				info.Columns = append(info.Columns, ColumnInfo{Name: name, Type: colType, PrimaryKey: pk > 0})
			}
			pragmaRows.Close()
		}

		fkRows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list('%s')", tbl))
		if err == nil {
			for fkRows.Next() {
				var id, seq int
				var refTable, from string
				var to sql.NullString // NULL when referencing the implicit PK
				var onUpdate, onDelete, match sql.NullString
				if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
					continue
				}
				info.ForeignKeys = append(info.ForeignKeys, ForeignKey{Column: from, RefTable: refTable, RefColumn: to.String})
			}
			fkRows.Close()
		}

		schema.Tables = append(schema.Tables, info)
	}

	return schema, nil
}

func (c *sqlConnector) Close() error {
	return c.db.Close()
}
