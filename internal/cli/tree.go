package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabforge/tsk/internal/core"
)

var treeCmd = &cobra.Command{
	Use:   "tree [fragment]",
	Short: "Render the task hierarchy",
	Long: `Render the task forest as an indented tree. With a fragment, only
that task's subtree is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("store not initialized (run tsk init first)")
		}

		fragment := ""
		if len(args) == 1 {
			fragment = args[0]
		}
		nodes, err := Store.Tree(fragment)
		if err != nil {
			return err
		}
		if len(nodes) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, n := range nodes {
			renderTreeNode(n, "", true, true)
		}
		return nil
	},
}

// renderTreeNode prints one subtree with box-drawing connectors.
func renderTreeNode(n *core.TreeNode, prefix string, last, root bool) {
	if root {
		fmt.Println(renderTaskLine(n.Task, false))
	} else {
		connector := "├── "
		childPrefix := "│   "
		if last {
			connector = "└── "
			childPrefix = "    "
		}
		fmt.Println(prefix + connector + renderTaskLine(n.Task, false))
		prefix += childPrefix
	}
	for i, kid := range n.Children {
		renderTreeNode(kid, prefix, i == len(n.Children)-1, false)
	}
}

func init() {
	treeCmd.ValidArgsFunction = completeTaskIDs("")
	rootCmd.AddCommand(treeCmd)
}
