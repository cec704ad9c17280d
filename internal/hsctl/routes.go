package hsctl

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/homeserver/internal/cryptox"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/server/resources"
	"github.com/spf13/cobra"
)

var (
	resourceStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7571f9"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c757d"))
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the dispatch tree the homeserver would serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// The listing never stores uploads.
			cfg.UploadDir = os.TempDir()

			key, err := cryptox.GenerateSigningKey()
			if err != nil {
				return err
			}
			mounts, err := resources.Mounts(cmd.Context(), cfg, resources.Deps{SigningKey: key})
			if err != nil {
				return err
			}
			tree, err := dispatch.BuildWithRoot(resources.Root(cfg), mounts)
			if err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), renderTree(tree))
			return err
		},
	}
}

// renderTree draws the tree with box-drawing branches, one node per line.
func renderTree(root dispatch.Node) string {
	var b strings.Builder
	b.WriteString("/ " + styleLabel(root) + "\n")
	renderChildren(&b, root, "")
	return b.String()
}

func renderChildren(b *strings.Builder, n dispatch.Node, prefix string) {
	names := n.ChildNames()
	for i, name := range names {
		child, ok := n.Child(name)
		if !ok {
			continue
		}

		branch, childPrefix := "├── ", prefix+"│   "
		if i == len(names)-1 {
			branch, childPrefix = "└── ", prefix+"    "
		}

		b.WriteString(prefix + branch + name + " " + styleLabel(child) + "\n")
		renderChildren(b, child, childPrefix)
	}
}

func styleLabel(n dispatch.Node) string {
	if dispatch.IsPlaceholder(n) {
		return placeholderStyle.Render(dispatch.Describe(n))
	}
	return resourceStyle.Render(dispatch.Describe(n))
}
