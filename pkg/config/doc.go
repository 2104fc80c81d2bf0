// Package config loads palletdiff settings.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, and PALLETDIFF_* environment variables. Nested keys map to
// environment names by replacing dots with underscores:
//
//	log:
//	  level: debug        # PALLETDIFF_LOG_LEVEL
//	  format: json        # PALLETDIFF_LOG_FORMAT
//	output:
//	  format: text        # PALLETDIFF_OUTPUT_FORMAT
//	  color: false        # PALLETDIFF_OUTPUT_COLOR
//	cache:
//	  size: 16            # PALLETDIFF_CACHE_SIZE
//	  ttl: 10m            # PALLETDIFF_CACHE_TTL
//	storage:
//	  root: ./metadata    # PALLETDIFF_STORAGE_ROOT
//	  max_bytes: 67108864 # PALLETDIFF_STORAGE_MAX_BYTES
//	hasher:
//	  volatile_types: [RuntimeCall, RuntimeEvent]
//	metrics:
//	  file: /var/lib/node_exporter/palletdiff.prom
//
// Command line flags override all of these.
package config
