package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/datavault/dvcli/internal/api"
	"github.com/datavault/dvcli/internal/models"
	"github.com/datavault/dvcli/internal/nodes"
	"github.com/datavault/dvcli/internal/pathutil"
)

func newLsCmd() *cobra.Command {
	var (
		filterStr string
		sortStr   string
		long      bool
	)

	cmd := &cobra.Command{
		Use:   "ls <path>",
		Short: "List nodes",
		Long: `List the children of a room or folder, or show a single file.
The path may end in a '*' glob, e.g. "dv.example.com/projects/*.pdf".

Filters use the API grammar, restrictions joined by '|':

  dvcli ls --filter 'type:eq:file|name:cn:report' dv.example.com/projects`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx, args[0])
			if err != nil {
				return err
			}

			parsed, err := pathutil.Parse(args[0], e.cfg.TargetURL)
			if err != nil {
				return err
			}

			var items []models.Node
			switch {
			case parsed.Name == "":
				items, err = e.nodes.List(ctx, nodes.ListOptions{Filter: filterStr, Sort: sortStr})
			case pathutil.IsSearchQuery(parsed.Name):
				items, err = e.resolver.Glob(ctx, args[0])
			default:
				var node models.Node
				node, err = e.resolver.NodeFromPath(ctx, args[0])
				if err != nil {
					return err
				}
				if node.Type == models.NodeTypeFile {
					items = []models.Node{node}
					break
				}
				items, err = e.nodes.List(ctx, nodes.ListOptions{
					ParentID: node.ID,
					Filter:   filterStr,
					Sort:     sortStr,
				})
			}
			if err != nil {
				return err
			}

			printNodes(cmd.OutOrStdout(), items, long)
			return nil
		},
	}

	cmd.Flags().StringVar(&filterStr, "filter", "", "server-side filter, e.g. 'type:eq:file'")
	cmd.Flags().StringVar(&sortStr, "sort", "", "server-side sort, e.g. 'name:asc'")
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show id, type, size and modification time")

	return cmd
}

func printNodes(w io.Writer, items []models.Node, long bool) {
	if !long {
		for _, n := range items {
			if n.Type == models.NodeTypeFile {
				fmt.Fprintln(w, n.Name)
			} else {
				fmt.Fprintln(w, n.Name+"/")
			}
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSIZE\tMODIFIED\tNAME")
	for _, n := range items {
		modified := ""
		if n.TimestampModification != nil {
			modified = n.TimestampModification.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, n.Type, formatSize(n.Size), modified, n.Name)
	}
	tw.Flush()
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx, args[0])
			if err != nil {
				return err
			}

			parsed, err := pathutil.Parse(args[0], e.cfg.TargetURL)
			if err != nil {
				return err
			}
			if parsed.Depth == 0 {
				return fmt.Errorf("%w: folders need a parent room, use mkroom at the top level", api.ErrInvalidPath)
			}

			parent, err := e.resolver.ParentFromPath(ctx, args[0])
			if err != nil {
				return err
			}

			node, err := e.nodes.CreateFolder(ctx, models.CreateFolderRequest{
				ParentID: parent.ID,
				Name:     parsed.Name,
			})
			if err != nil {
				return err
			}
			logger.Infof("created folder %s (id %d)", parsed.String(), node.ID)
			return nil
		},
	}
}

func newMkroomCmd() *cobra.Command {
	var classification int

	cmd := &cobra.Command{
		Use:   "mkroom <path>",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx, args[0])
			if err != nil {
				return err
			}

			parsed, err := pathutil.Parse(args[0], e.cfg.TargetURL)
			if err != nil {
				return err
			}
			if parsed.Name == "" {
				return fmt.Errorf("%w: missing room name", api.ErrInvalidPath)
			}

			req := models.CreateRoomRequest{
				Name:           parsed.Name,
				Classification: classification,
			}
			if parsed.Depth > 0 {
				parent, err := e.resolver.ParentFromPath(ctx, args[0])
				if err != nil {
					return err
				}
				req.ParentID = parent.ID
				inherit := true
				req.InheritPermissions = &inherit
			}

			node, err := e.nodes.CreateRoom(ctx, req)
			if err != nil {
				return err
			}
			logger.Infof("created room %s (id %d)", parsed.String(), node.ID)
			return nil
		},
	}

	cmd.Flags().IntVar(&classification, "classification", 0, "data classification 1-4 (0 = server default)")

	return cmd
}

func newRmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete nodes",
		Long:  "Delete files, folders or rooms. Paths may contain '*' globs.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx, args[0])
			if err != nil {
				return err
			}

			var targets []models.Node
			for _, arg := range args {
				matches, err := e.resolver.Glob(ctx, arg)
				if err != nil {
					return err
				}
				targets = append(targets, matches...)
			}
			if len(targets) == 0 {
				return api.ErrNodeNotFound
			}

			if !force {
				for _, n := range targets {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s%s\n", n.ParentPath, n.Name)
				}
				if !confirm(fmt.Sprintf("Delete %d node(s)?", len(targets))) {
					logger.Infof("aborted")
					return nil
				}
			}

			ids := make([]uint64, len(targets))
			for i, n := range targets {
				ids[i] = n.ID
			}
			if err := e.nodes.Delete(ctx, ids...); err != nil {
				return err
			}
			logger.Infof("deleted %d node(s)", len(ids))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete without confirmation")

	return cmd
}

func newCpCmd() *cobra.Command {
	return newTransferNodesCmd("cp", "Copy nodes to another parent",
		func(e *env, cmd *cobra.Command, targetID uint64, req models.TransferNodesRequest) error {
			return e.nodes.Copy(cmd.Context(), targetID, req)
		})
}

func newMvCmd() *cobra.Command {
	return newTransferNodesCmd("mv", "Move nodes to another parent",
		func(e *env, cmd *cobra.Command, targetID uint64, req models.TransferNodesRequest) error {
			return e.nodes.Move(cmd.Context(), targetID, req)
		})
}

func newTransferNodesCmd(name, short string, run func(*env, *cobra.Command, uint64, models.TransferNodesRequest) error) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   name + " <source>... <target>",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := connect(ctx, args[0])
			if err != nil {
				return err
			}

			targetPath := args[len(args)-1]
			target, err := e.resolver.NodeFromPath(ctx, targetPath)
			if err != nil {
				return err
			}
			if target.Type == models.NodeTypeFile {
				return fmt.Errorf("%w: target %s is a file", api.ErrInvalidPath, targetPath)
			}

			req := models.TransferNodesRequest{}
			if overwrite {
				req.ResolutionStrategy = models.ResolutionOverwrite
			}
			for _, src := range args[:len(args)-1] {
				matches, err := e.resolver.Glob(ctx, src)
				if err != nil {
					return err
				}
				for _, n := range matches {
					req.Items = append(req.Items, models.TransferNode{ID: n.ID})
				}
			}
			if len(req.Items) == 0 {
				return api.ErrNodeNotFound
			}

			if err := run(e, cmd, target.ID, req); err != nil {
				return err
			}
			logger.Infof("%s: %d node(s) -> %s", name, len(req.Items), targetPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing nodes with the same name")

	return cmd
}
