package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/markio/cmd/markcat/internal/config"
	"github.com/haivivi/markio/pkg/charset"
	"github.com/haivivi/markio/pkg/cli"
	"github.com/haivivi/markio/pkg/unpack"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Show and edit config.yaml.

Keys:
  buffer_size     default stream buffer size (e.g. 64KiB)
  charset         default charset for 'lines'
  decompress      default codec: auto, none, gzip, zstd
  s3.region       S3 region
  s3.endpoint     S3-compatible endpoint URL
  s3.access_key   S3 access key
  s3.secret_key   S3 secret key
  s3.path_style   use path-style addressing (true/false)

Examples:
  markcat config show
  markcat config set s3.endpoint http://localhost:9000
  markcat config path`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return cli.Output(os.Stdout, cli.FormatYAML, cfg.Redacted())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.Path())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := setConfigKey(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Set %s", args[0])
		return nil
	},
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch key {
	case "buffer_size":
		if _, err := cli.ParseBytes(value); err != nil {
			return fmt.Errorf("invalid buffer size %q: %w", value, err)
		}
		cfg.BufferSize = value
	case "charset":
		if _, _, err := charset.Lookup(value); err != nil {
			return err
		}
		cfg.Charset = value
	case "decompress":
		if _, err := unpack.ParseCodec(value); err != nil {
			return err
		}
		cfg.Decompress = value
	case "s3.region":
		cfg.S3.Region = value
	case "s3.endpoint":
		cfg.S3.Endpoint = value
	case "s3.access_key":
		cfg.S3.AccessKey = value
	case "s3.secret_key":
		cfg.S3.SecretKey = value
	case "s3.path_style":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q for %s", value, key)
		}
		cfg.S3.PathStyle = b
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
