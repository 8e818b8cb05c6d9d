package dbfsql

import (
	"fmt"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables overriding configuration keys,
// for example DBFSQL_CHUNK_SIZE=5000
const EnvPrefix = "DBFSQL"

// LoadOptions reads session options from a YAML, TOML or JSON file, the format
// following the file extension. Keys match the mapstructure tags of Options.
// Keys missing from the file keep the values of base, and environment variables
// prefixed with DBFSQL_ override both. An empty path reads the environment only.
//
// Example file:
//
//	codec: cp1252
//	na: none
//	chunk_size: 50000
//	dialect: postgres
func LoadOptions(path string, base Options) (Options, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v, base)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return base, fmt.Errorf("read config: %w", err)
		}
	}

	opts := base
	if err := v.Unmarshal(&opts); err != nil {
		return base, fmt.Errorf("unmarshal config: %w", err)
	}
	opts.Logger = base.Logger

	if err := opts.Validate(); err != nil {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	return opts, nil
}

// setDefaults registers every key, so that AutomaticEnv can resolve it during Unmarshal
func setDefaults(v *viper.Viper, base Options) {
	v.SetDefault("codec", base.Codec)
	v.SetDefault("na", base.NA)
	v.SetDefault("escape_quote", base.EscapeQuote)
	v.SetDefault("chunk_size", base.ChunkSize)
	v.SetDefault("header", base.Header)
	v.SetDefault("index", base.Index)
	v.SetDefault("dialect", base.Dialect)
	v.SetDefault("table", base.Table)
	v.SetDefault("compression", base.Compression)
	v.SetDefault("parquet_codec", base.ParquetCodec)
	v.SetDefault("compression_level", base.CompressionLevel)
	v.SetDefault("append", base.Append)
	v.SetDefault("memory_limit_mb", base.MemoryLimitMB)
}
