package main

import (
	"fmt"
	"os"
	"strings"

	actalis "github.com/cardemu/actalis-go"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type config struct {
	Reader   string `mapstructure:"reader"`
	NoCheck  bool   `mapstructure:"no-check"`
	LogLevel string `mapstructure:"log-level"`
	Format   string `mapstructure:"format"`

	actalis.Config `mapstructure:",squash"`
}

var (
	cfgFile string
	cfg     config
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "actalis-tool",
	Short: "Inspect and use Actalis CardOS M4 smart cards",
	Long: `actalis-tool reads the certificates of an Actalis card, exposes them as
PKCS#15 objects and signs with the authentication key.

Settings are read from flags, from ACTALIS_* environment variables and
from an optional YAML config file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.String("reader", "", "PC/SC reader name (default is the only connected reader)")
	flags.Bool("no-check", false, "skip the card OS check")
	flags.Int("max-certificate-size", actalis.DefaultMaxCertificateSize, "maximum decompressed certificate size")
	flags.String("log-level", "info", `log level, one of: "error", "warn", "info", "debug", "trace"`)

	rootCmd.AddCommand(readersCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(certCmd)
	rootCmd.AddCommand(signCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	v.SetEnvPrefix("actalis")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	if err := initLogger(cfg.LogLevel); err != nil {
		return err
	}

	return actalis.Configure(cfg.Config)
}

func initLogger(levelName string) error {
	if levelName == "" {
		levelName = "info"
	}

	level, err := log.LvlFromString(strings.ToLower(levelName))
	if err != nil {
		return err
	}

	handler := log.StreamHandler(os.Stderr, log.TerminalFormat(true))
	log.Root().SetHandler(log.LvlFilterHandler(level, handler))

	return nil
}
