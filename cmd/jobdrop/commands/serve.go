package commands

import (
	"github.com/joeg-ita/jobdrop"
	"github.com/spf13/cobra"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Http.Addr = addr
		}
		return jobdrop.Jobdrop(cfg)
	},
}

func init() {
	ServeCmd.Flags().String("addr", "", "Listen address, overrides http.addr")
}
