package dbclient

import (
	"context"
	"path/filepath"
	"testing"

	"whiteboard/internal/domain"
)

func TestBuildMySQLDSN(t *testing.T) {
	conn := &domain.DatabaseConnection{
		Host: "db.local", Database: "app", Username: "root",
	}
	dsn := buildMySQLDSN(conn, "pw")
	want := "root:pw@tcp(db.local:3306)/app?parseTime=true&charset=utf8mb4"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}

	conn.SSLMode = "require"
	if dsn := buildMySQLDSN(conn, "pw"); dsn != want+"&tls=true" {
		t.Errorf("ssl dsn = %q", dsn)
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	conn := &domain.DatabaseConnection{
		Host: "db.local", Port: 5433, Database: "app", Username: "svc",
	}
	dsn := buildPostgresDSN(conn, "pw")
	want := "host=db.local port=5433 user=svc password=pw dbname=app sslmode=disable"
	if dsn != want {
		t.Errorf("dsn = %q, want %q", dsn, want)
	}
}

func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb+srv://user:pw@cluster0.example.net/mydb?retryWrites=true", "mydb"},
		{"mongodb://localhost:27017/logs", "logs"},
		{"mongodb://localhost:27017", ""},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestIntrospectSQLite_TablesAndForeignKeys(t *testing.T) {
	c, err := newSQLConnector("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)`,
		`CREATE TABLE posts (
			id INTEGER PRIMARY KEY,
			author_id INTEGER REFERENCES users(id),
			parent_id INTEGER REFERENCES posts
		)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			t.Fatal(err)
		}
	}

	schema, err := c.Introspect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(schema.Tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(schema.Tables))
	}

	posts := schema.Tables[0] // ordered by name
	if posts.Name != "posts" || len(posts.Columns) != 3 {
		t.Fatalf("posts = %q with %d columns", posts.Name, len(posts.Columns))
	}
	if !posts.Columns[0].PrimaryKey {
		t.Error("posts.id not marked as primary key")
	}

	fks := map[string]ForeignKey{}
	for _, fk := range posts.ForeignKeys {
		fks[fk.Column] = fk
	}
	if fk := fks["author_id"]; fk.RefTable != "users" || fk.RefColumn != "id" {
		t.Errorf("author_id -> %s.%s, want users.id", fk.RefTable, fk.RefColumn)
	}
	// References without an explicit column (implicit PK) keep an empty
	// RefColumn rather than failing the scan.
	if fk, ok := fks["parent_id"]; !ok || fk.RefTable != "posts" || fk.RefColumn != "" {
		t.Errorf("parent_id -> %s.%s (present=%v)", fk.RefTable, fk.RefColumn, ok)
	}
}

func TestReferencedCollection(t *testing.T) {
	known := map[string]bool{"users": true, "team": true}

	if ref, ok := referencedCollection("user_id", known); !ok || ref != "users" {
		t.Errorf("user_id -> (%q, %v), want users", ref, ok)
	}
	if ref, ok := referencedCollection("team_id", known); !ok || ref != "team" {
		t.Errorf("team_id -> (%q, %v), want team", ref, ok)
	}
	if _, ok := referencedCollection("_id", known); ok {
		t.Error("_id must not be treated as a reference")
	}
	if _, ok := referencedCollection("order_id", known); ok {
		t.Error("unknown collection must not resolve")
	}
}
