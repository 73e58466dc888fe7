package snowflake

import "strings"

// Config holds Snowflake warehouse configuration.
type Config struct {
	Account      string `yaml:"account"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Schema       string `yaml:"schema"`
	Warehouse    string `yaml:"warehouse"`
	MetricsTable string `yaml:"metrics_table"`
	Enabled      bool   `yaml:"enabled"`
}

// DefaultMetricsTable is the daily campaign metrics table read when none is
// configured.
const DefaultMetricsTable = "AD_METRICS_DAILY"

// Table returns the metrics table name.
func (c Config) Table() string {
	if c.MetricsTable == "" {
		return DefaultMetricsTable
	}
	return c.MetricsTable
}

// DSN renders the gosnowflake data source name:
// user:password@account/database/schema?warehouse=xxx
func (c Config) DSN() string {
	dsn := c.User + ":" + c.Password + "@" + c.Account + "/" + c.Database + "/" + c.Schema
	if c.Warehouse != "" {
		dsn += "?warehouse=" + c.Warehouse
	}
	return dsn
}

// ParseConnectionString extracts components from a connection string like
// scheme=https;ACCOUNT=xxx;HOST=yyy;USER=zzz;PASSWORD=www;DB=database.schema;
// Keys are case-insensitive. A DB value with a dot also sets the schema.
func ParseConnectionString(connStr string) Config {
	parts := make(map[string]string)
	for _, kv := range strings.Split(connStr, ";") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = value
	}

	cfg := Config{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Warehouse: parts["WAREHOUSE"],
		Schema:    parts["SCHEMA"],
	}
	db := parts["DB"]
	if db == "" {
		db = parts["DATABASE"]
	}
	if name, schema, ok := strings.Cut(db, "."); ok {
		cfg.Database, cfg.Schema = name, schema
	} else {
		cfg.Database = db
	}
	return cfg
}
