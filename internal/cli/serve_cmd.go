package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Run the planner document service",
		Long:        "Serve stores one planner document per account over HTTP. Point other installs at it with remote.url.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{sessionAnnotation: sessionNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Serve == nil {
				return errors.New("serve is not available in this build")
			}
			if addr == "" {
				addr = app.Config.Serve.Addr
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving planner documents on %s\n", addr)
			return app.Serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default serve.addr)")
	return cmd
}
