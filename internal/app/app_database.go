package app

import (
	"whiteboard/internal/dbclient"
	"whiteboard/internal/service"
)

// ============================================================
// External database connections and schema import
// ============================================================

func (a *App) ListDatabaseConnections() ([]DBConnView, error) {
	conns, err := a.databaseSvc.ListConnections()
	if err != nil {
		return nil, err
	}
	views := make([]DBConnView, len(conns))
	for i, c := range conns {
		views[i] = DBConnView{
			ID: c.ID, Name: c.Name, Driver: string(c.Driver),
			Host: c.Host, Port: c.Port, Database: c.Database,
			Username: c.Username, SSLMode: c.SSLMode,
		}
	}
	return views, nil
}

func (a *App) CreateDatabaseConnection(input service.CreateDBConnInput) (*DBConnView, error) {
	conn, err := a.databaseSvc.CreateConnection(input)
	if err != nil {
		return nil, err
	}
	return &DBConnView{
		ID: conn.ID, Name: conn.Name, Driver: string(conn.Driver),
		Host: conn.Host, Port: conn.Port, Database: conn.Database,
		Username: conn.Username, SSLMode: conn.SSLMode,
	}, nil
}

func (a *App) UpdateDatabaseConnection(id string, input service.CreateDBConnInput) error {
	return a.databaseSvc.UpdateConnection(id, input)
}

func (a *App) DeleteDatabaseConnection(id string) error {
	return a.databaseSvc.DeleteConnection(id)
}

func (a *App) TestDatabaseConnection(id string) error {
	return a.databaseSvc.TestConnection(a.ctx, id)
}

func (a *App) IntrospectDatabase(connectionID string) (*dbclient.SchemaInfo, error) {
	return a.databaseSvc.Introspect(a.ctx, connectionID)
}

// ImportDatabaseSchema draws a connection's schema onto a sketch and returns
// the number of elements added. When the sketch is open the watcher picks up
// the store change and feeds the new state to the surface.
func (a *App) ImportDatabaseSchema(sketchID, connectionID string) (int, error) {
	return a.importSvc.ImportSchema(a.ctx, sketchID, connectionID)
}
