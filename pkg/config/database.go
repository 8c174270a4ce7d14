package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	DefaultDatabaseName   = "toyMarketplaceDB"
	DefaultCollectionName = "toyProducts"

	defaultConnectTimeout = 10 * time.Second
	defaultQueryTimeout   = 5 * time.Second
)

// DatabaseConfig describes the MongoDB deployment holding the toy collection.
// User and Password are supplied separately from the URI so they can come from the environment.
type DatabaseConfig struct {
	URI          string        `koanf:"uri"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Name         string        `koanf:"name"`
	Collection   string        `koanf:"collection"`
	Timeout      time.Duration `koanf:"timeout"`
	QueryTimeout time.Duration `koanf:"querytimeout"`
	Migrate      bool          `koanf:"migrate"`
}

// String returns a string representation of the database configuration with credentials masked.
func (c *DatabaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Database ---\n")
	b.WriteString(fmt.Sprintf("  uri: %s\n", MaskURI(c.URI)))
	b.WriteString(fmt.Sprintf("  user: %s\n", c.User))
	b.WriteString(fmt.Sprintf("  password: %s\n", maskSecret(c.Password)))
	b.WriteString(fmt.Sprintf("  name: %s\n", c.Name))
	b.WriteString(fmt.Sprintf("  collection: %s\n", c.Collection))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  querytimeout: %s\n", c.QueryTimeout))
	b.WriteString(fmt.Sprintf("  migrate: %t\n", c.Migrate))
	return b.String()
}

func (c *DatabaseConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("database URI is not configured")
	}
	if !isValidMongoURI(c.URI) {
		return fmt.Errorf("database URI must start with 'mongodb://' or 'mongodb+srv://': %s", MaskURI(c.URI))
	}
	if c.Password != "" && c.User == "" {
		return fmt.Errorf("database password is set but user is not configured")
	}
	if c.Name == "" {
		log.Println("Using default value for database.name")
		c.Name = DefaultDatabaseName
	}
	if c.Collection == "" {
		log.Println("Using default value for database.collection")
		c.Collection = DefaultCollectionName
	}
	if c.Migrate && c.Collection != DefaultCollectionName {
		return fmt.Errorf("database.migrate only supports the %q collection, got %q", DefaultCollectionName, c.Collection)
	}
	if c.Timeout == 0 {
		c.Timeout = defaultConnectTimeout
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = defaultQueryTimeout
	}
	if c.Timeout < 0 || c.QueryTimeout < 0 {
		return fmt.Errorf("database timeouts must not be negative")
	}
	return nil
}

// isValidMongoURI checks if the provided URI uses one of the MongoDB schemes
func isValidMongoURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") ||
		strings.HasPrefix(uri, "mongodb+srv://")
}

// MaskURI hides the user info part of a connection URI.
func MaskURI(uri string) string {
	if uri == "" {
		return "<not configured>"
	}
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return "****"
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://****@" + rest[at+1:]
	}
	return uri
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}
