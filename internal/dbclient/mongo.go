package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"whiteboard/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fieldSampleSize is how many documents per collection are sampled to infer
// its field set; MongoDB has no schema to read directly.
const fieldSampleSize = 10

// mongoConnector implements Connector for MongoDB.
type mongoConnector struct {
	client *mongo.Client
	dbName string
}

func newMongoConnector(conn *domain.DatabaseConnection, password string) (*mongoConnector, error) {
	var uri string

	// If host is already a full connection string (Atlas mongodb+srv:// or
	// standard mongodb://), use it directly. Otherwise build from host:port.
	if strings.HasPrefix(conn.Host, "mongodb+srv://") || strings.HasPrefix(conn.Host, "mongodb://") {
		uri = conn.Host
		// Replace the <password> placeholder Atlas puts in copied strings
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
		if conn.Database != "" && !strings.Contains(uri, "/"+conn.Database) {
			if idx := strings.Index(uri, "?"); idx != -1 {
				uri = uri[:idx] + "/" + conn.Database + uri[idx:]
			} else {
				uri = strings.TrimRight(uri, "/") + "/" + conn.Database
			}
		}
	} else {
		port := conn.Port
		if port == 0 {
			port = 27017
		}
		if conn.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", conn.Username, password, conn.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", conn.Host, port)
		}

		// extraJSON carries authSource, replicaSet, and friends
		if conn.ExtraJSON != "" && conn.ExtraJSON != "{}" {
			var extras map[string]string
			if json.Unmarshal([]byte(conn.ExtraJSON), &extras) == nil {
				params := []string{}
				for k, v := range extras {
					params = append(params, k+"="+v)
				}
				if len(params) > 0 {
					uri += "?" + strings.Join(params, "&")
				}
			}
		}
	}

	dbName := conn.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = "test"
	}

	logURI := uri
	if password != "" && strings.Contains(logURI, password) {
		logURI = strings.ReplaceAll(logURI, password, "***")
	}
	log.Printf("[MONGO] Connecting with URI: %s (database %s)", logURI, dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return &mongoConnector{client: client, dbName: dbName}, nil
}

// databaseFromURI pulls the database name out of the URI path:
// user:pass@host/DB_NAME?params.
func databaseFromURI(uri string) string {
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		if strings.HasPrefix(uri, prefix) {
			uri = uri[len(prefix):]
			break
		}
	}
	if atIdx := strings.Index(uri, "@"); atIdx != -1 {
		uri = uri[atIdx+1:]
	}
	slashIdx := strings.Index(uri, "/")
	if slashIdx == -1 {
		return ""
	}
	path := uri[slashIdx+1:]
	if qIdx := strings.Index(path, "?"); qIdx != -1 {
		path = path[:qIdx]
	}
	return path
}

func (m *mongoConnector) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

// Introspect samples documents from every collection to build a field list,
// and infers references from the "<collection>_id" naming convention since
// MongoDB has no declared foreign keys.
func (m *mongoConnector) Introspect(ctx context.Context) (*SchemaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db := m.client.Database(m.dbName)

	collections, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(collections)

	known := map[string]bool{}
	for _, name := range collections {
		known[name] = true
	}

	schema := &SchemaInfo{}
	for _, collName := range collections {
		info := TableInfo{Name: collName}

		cursor, err := db.Collection(collName).Find(ctx, bson.M{}, options.Find().SetLimit(fieldSampleSize))
		if err != nil {
			schema.Tables = append(schema.Tables, info)
			continue
		}

		seen := map[string]bool{}
		for cursor.Next(ctx) {
			var doc bson.M
			if cursor.Decode(&doc) != nil {
				continue
			}
			for k, v := range doc {
				if seen[k] {
					continue
				}
				seen[k] = true
				info.Columns = append(info.Columns, ColumnInfo{
					Name:       k,
					Type:       fmt.Sprintf("%T", v),
					PrimaryKey: k == "_id",
				})
				if ref, ok := referencedCollection(k, known); ok {
					info.ForeignKeys = append(info.ForeignKeys, ForeignKey{
						Column:    k,
						RefTable:  ref,
						RefColumn: "_id",
					})
				}
			}
		}
		cursor.Close(ctx)

		sort.Slice(info.Columns, func(i, j int) bool {
			if info.Columns[i].Name == "_id" {
				return true
			}
			if info.Columns[j].Name == "_id" {
				return false
			}
			return info.Columns[i].Name < info.Columns[j].Name
		})

		schema.Tables = append(schema.Tables, info)
	}

	return schema, nil
}

// referencedCollection matches a field name like "user_id" against the known
// collection names "user" and "users".
func referencedCollection(field string, known map[string]bool) (string, bool) {
	if !strings.HasSuffix(field, "_id") || field == "_id" {
		return "", false
	}
	base := strings.TrimSuffix(field, "_id")
	if known[base] {
		return base, true
	}
	if known[base+"s"] {
		return base + "s", true
	}
	return "", false
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
