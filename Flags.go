package main

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli/v2"
)

// commonFlags are shared by all decoding commands. Set flags override the
// config file.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   fmt.Sprintf("/path/to/config.yaml (default: $%s or ./%s)", ConfigEnv, DefaultConfigFile),
		},
		&cli.StringFlag{
			Name:  "encoding",
			Usage: "single-byte text encoding of the input: iso-8859-1, windows-1252, koi8-r, ...",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "/path/to/output/dir",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: fmt.Sprintf("decode N files in parallel. 0 defaults to runtime.NumCPU() here=%d", runtime.NumCPU()),
		},
		&cli.IntFlag{
			Name:  "mem",
			Usage: "limit memory usage to N decoded files in RAM (0 defaults to workers*2)",
		},
		&cli.Int64Flag{
			Name:  "max-size",
			Usage: "reject decoded files larger than N bytes (0 defaults to 4 GiB)",
		},
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "replace existing output files",
		},
		&cli.BoolFlag{
			Name:  "colors",
			Usage: "adds colors to the progress bar and output",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "write a msgpack run report to /path/file",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "console or json",
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "store decoded files in this S3 bucket instead of the output dir",
		},
		&cli.StringFlag{
			Name:  "s3-prefix",
			Usage: "key prefix within the S3 bucket",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region (default chain if empty)",
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "custom endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "force path-style addressing",
		},
	}
} // end func commonFlags

func nzbFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.StringFlag{
			Name:  "nzb",
			Usage: "/path/file.nzb(.gz)",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "/path/to/cache/dir holding the articles",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show a progress bar",
		},
	)
} // end func nzbFlags

// applyFlags copies every flag the user set into cfg.
func applyFlags(c *cli.Context, cfg *Config) {
	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	setString("encoding", &cfg.Encoding)
	setString("output", &cfg.OutputDir)
	setString("cache-dir", &cfg.CacheDir)
	setInt("workers", &cfg.Workers)
	setInt("mem", &cfg.Mem)
	if c.IsSet("max-size") {
		cfg.MaxSize = c.Int64("max-size")
	}
	setBool("overwrite", &cfg.Overwrite)
	setString("report", &cfg.Report)
	setBool("progress", &cfg.Progress)
	setBool("colors", &cfg.Colors)
	setString("log-level", &cfg.Log.Level)
	setString("log-format", &cfg.Log.Format)
	setString("s3-bucket", &cfg.S3.Bucket)
	setString("s3-prefix", &cfg.S3.Prefix)
	setString("s3-region", &cfg.S3.Region)
	setString("s3-endpoint", &cfg.S3.Endpoint)
	setBool("s3-path-style", &cfg.S3.PathStyle)
} // end func applyFlags

// loadConfig resolves, loads and validates the config of a command.
func loadConfig(c *cli.Context) (*Config, error) {
	cfg, err := loadConfigFile(resolveConfigPath(c.String("config")))
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
} // end func loadConfig
