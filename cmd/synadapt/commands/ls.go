package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/discovery"
	grpcserver "github.com/ekisa-team/synadapt/internal/server/grpc"
)

type listOptions struct {
	verbose   bool
	remote    string
	backends  []string
	keepEmpty bool
}

func newListCommand(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the platforms discovered on every backend",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := a.filter()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("backend") {
				if filter, err = discovery.ParseFilter(opts.backends, filter.KeepEmpty); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("keep-empty") {
				filter.KeepEmpty = opts.keepEmpty
			}

			var lister discovery.Lister = discovery.NewService(a.reg, filter)
			if opts.remote != "" {
				conn, err := gogrpc.NewClient(opts.remote, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
				if err != nil {
					return errors.Wrapf(err, "connecting to %s", opts.remote)
				}
				defer conn.Close()
				lister = remoteLister{conn: conn}
			}

			infos, err := lister.ListPlatforms(cmd.Context())
			if err != nil {
				return err
			}
			return printPlatforms(cmd.OutOrStdout(), infos, opts.verbose)
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print version, name, vendor and devices of every platform")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "list the platforms of a running server at host:port instead")
	cmd.Flags().StringSliceVar(&opts.backends, "backend", nil, "only list these backends (opencl, level_zero, cuda, hip)")
	cmd.Flags().BoolVar(&opts.keepEmpty, "keep-empty", false, "also list platforms without devices")

	return cmd
}

// remoteLister lists the platforms of a synadapt server.
type remoteLister struct {
	conn gogrpc.ClientConnInterface
}

func (r remoteLister) ListPlatforms(ctx context.Context) ([]discovery.Info, error) {
	return grpcserver.ListPlatforms(ctx, r.conn)
}

var backendTag = color.New(color.FgCyan, color.Bold).SprintFunc()

// printPlatforms writes one "[backend:index]" line per platform, where
// index counts platforms of the same backend, followed by a detail table
// when verbose.
func printPlatforms(w io.Writer, infos []discovery.Info, verbose bool) error {
	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, "No platforms found.")
		return err
	}

	seen := make(map[backend.Kind]int)
	for _, info := range infos {
		idx := seen[info.Backend]
		seen[info.Backend]++
		if _, err := fmt.Fprintf(w, "[%s:%d] %s %s\n", backendTag(info.Backend.String()), idx, info.Name, info.Version); err != nil {
			return err
		}
	}

	if !verbose {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nPlatforms: %d\n", len(infos)); err != nil {
		return err
	}

	data := make([][]string, 0, len(infos))
	for i, info := range infos {
		data = append(data, []string{
			"#" + strconv.Itoa(i+1),
			info.Backend.String(),
			info.Version,
			info.Name,
			info.Vendor,
			deviceRange(info),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PLATFORM", "BACKEND", "VERSION", "NAME", "VENDOR", "DEVICES"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// deviceRange formats the device count and the ids the devices occupy.
func deviceRange(info discovery.Info) string {
	switch info.DeviceCount {
	case 0:
		return "0"
	case 1:
		return fmt.Sprintf("1 (id %d)", info.FirstDeviceID)
	default:
		return fmt.Sprintf("%d (ids %d-%d)", info.DeviceCount, info.FirstDeviceID, info.FirstDeviceID+info.DeviceCount-1)
	}
}
