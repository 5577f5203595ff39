// Package parquetinspector provides pqi, a command-line inspector for
// Apache Parquet files.
//
// pqi prints file metadata, schemas, row samples, and row counts, validates
// file structure, and converts between Parquet and line-delimited JSON.
// Sources can be local files, partitioned dataset directories, or single
// objects on S3 and GCS.
//
// # Quick Start
//
//	pqi metadata data.parquet
//	pqi schema data.parquet
//	pqi head data.parquet -n 5
//	pqi tail data.parquet -c id,name
//	pqi count data.parquet -f "[('status', '==', 'active')]"
//	pqi validate data.parquet
//	pqi to-jsonl data.parquet
//	pqi to-parquet data.jsonl --compression zstd
//
// # Key Packages
//
//	pkg/columnar    - Parquet and JSONL table layer over arrow-go
//	pkg/filter      - DNF row-filter expressions and parser
//	pkg/source      - source resolution for local, s3:// and gs:// URIs
//	pkg/config      - viper-backed configuration
//	pkg/logger      - structured logging
//	pkg/errors      - structured error handling
//
// # Filters
//
// Row filters are written in disjunctive normal form: a list of
// (column, operator, value) tuples is a conjunction, and a list of such
// lists is a disjunction of conjunctions.
//
//	[('age', '>=', 18), ('country', '==', 'NZ')]
//	[[('size', '<', 10)], [('size', '>', 100), ('flagged', '==', True)]]
//
// Supported operators: ==, !=, <, >, <=, >=, in, not in.
//
// # Configuration
//
// Defaults can be set in a config.yaml under /etc/pqi/, $HOME/.config/pqi/
// or the working directory, or through PQI_* environment variables.
// Command-line flags take precedence.
package parquetinspector
