package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
)

func newJSONCmd(a *app) *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "json <url>",
		Short: "GET a URL and print its decoded JSON body",
		Long: `GET a URL with Accept: application/json and print the decoded body.
A body that is not valid JSON exits with code 2.

Examples:
  hitreq json https://api.example.com/users/1
  hitreq json https://api.example.com/users -q page=2 -o json`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, _, err := f.options(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			value, err := a.newClient(f).JSON(ctx, opts)
			call := &output.Call{
				Method: http.MethodGet.String(),
				URL:    args[0],
				Query:  "body",
				Value:  value,
				Err:    err,
			}
			a.formatter.FormatCall(call)
			if err != nil {
				return &exitError{code: callExitCode(err), err: err, reported: true}
			}
			return nil
		},
	}

	f.register(cmd)
	return cmd
}
