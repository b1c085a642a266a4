// Package config provides configuration loading for waypoint servers.
//
// The configuration is read from waypoint.json, waypoint.yaml or
// waypoint.toml in the project directory. Every key can be overridden by a
// WAYPOINT_ environment variable, with dots replaced by underscores, and by
// the command-line flags bound through WithFlags.
//
// # Configuration File Structure
//
//	server:
//	  host: localhost
//	  port: 8080
//	  allowed_origins: ["http://localhost:8080"]
//	router:
//	  recurse: forward
//	  strict: true
//	  async: true
//	  routes_file: routes.yaml
//	content:
//	  source: dir
//	  dir: ./blog
//	  watch: true
//	metrics:
//	  enabled: true
//	log:
//	  level: info
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
