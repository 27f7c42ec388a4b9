// Package config collects process configuration from command-line flags,
// overridden by environment variables.
package config

import (
	"flag"
	"os"
)

// Options holds the configuration values for the server process.
type Options struct {
	// Addr is the listen address (ip:port).
	Addr string

	// MongoURI is the collection store connection string.
	MongoURI string

	// MongoDatabase is the database holding the user collection.
	MongoDatabase string

	// FirebaseProjectID names the identity provider project.
	FirebaseProjectID string

	// FirebaseCredentialsFile points at the service-account key JSON.
	FirebaseCredentialsFile string

	// TMDBAPIKey authorizes catalog requests. Empty disables the catalog
	// routes.
	TMDBAPIKey string
}

var options = &Options{}

func init() {
	flag.StringVar(&options.Addr, "a", ":8080", "listen address (ip:port)")
	flag.StringVar(&options.MongoURI, "m", "mongodb://127.0.0.1:27017", "mongo connection string")
	flag.StringVar(&options.MongoDatabase, "db", "UXBase", "mongo database name")
	flag.StringVar(&options.FirebaseProjectID, "p", "", "firebase project id")
	flag.StringVar(&options.FirebaseCredentialsFile, "c", "", "path to firebase service account key")
	flag.StringVar(&options.TMDBAPIKey, "tmdb", "", "TMDB api key")
}

// Parse resolves flags, then applies environment overrides.
func Parse() *Options {
	flag.Parse()

	envOverride(&options.Addr, "SERVER_ADDRESS")
	envOverride(&options.MongoURI, "MONGO_URI")
	envOverride(&options.MongoDatabase, "MONGO_DATABASE")
	envOverride(&options.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	envOverride(&options.FirebaseCredentialsFile, "FIREBASE_CREDENTIALS_FILE")
	envOverride(&options.TMDBAPIKey, "TMDB_API_KEY")

	return options
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
