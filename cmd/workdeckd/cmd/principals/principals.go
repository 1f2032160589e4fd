package principals

import "github.com/spf13/cobra"

// PrincipalsCmd is the parent command for principal management operations
var PrincipalsCmd = &cobra.Command{
	Use:   "principals",
	Short: "Manage principals",
	Long:  `Commands for managing the principal directory directly from the server.`,
}

func init() {
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the principal")
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Display name of the principal")
	createCmd.Flags().StringVar(&roleFlag, "role", "READ_ONLY", "Role to assign")
	createCmd.Flags().StringVar(&departmentFlag, "department", "", "Department tag (optional)")
	createCmd.Flags().BoolVar(&tenantFlag, "tenant", false, "Create a client tenant principal")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Local password (use --stdin to avoid shell history)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	tokenCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the principal")
	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", 0, "Token lifetime (default 24h)")

	PrincipalsCmd.AddCommand(createCmd)
	PrincipalsCmd.AddCommand(listCmd)
	PrincipalsCmd.AddCommand(deactivateCmd)
	PrincipalsCmd.AddCommand(tokenCmd)
}
