// Package config provides configuration parsing for ladderpulse.
//
// The configuration is stored in ladderpulse.json next to the layout file.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080
//	  },
//	  "api": {
//	    "baseURL": "https://ladder.example.com",
//	    "timeout": "30s"
//	  },
//	  "navigation": {
//	    "settleTimeout": "5s",
//	    "defaultTitle": "Ladder",
//	    "defaultDescription": "Ladder, stats and player search"
//	  },
//	  "sections": {
//	    "store": "redis",
//	    "redis": {"addr": "localhost:6379", "ttl": "24h"}
//	  },
//	  "metrics": {"enabled": true, "namespace": "ladderpulse"},
//	  "log": {"level": "info"},
//	  "layout": "layout.yaml"
//	}
//
// Durations use Go syntax ("500ms", "5s", "24h").
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
