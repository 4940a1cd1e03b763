package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vanshavali/familytree/common/clients"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
)

// globals holds the persistent flags shared by every command
type globals struct {
	baseURL  string
	token    string
	language string
	verbose  bool
	client   *clients.FamilyTreeClient
}

func (g *globals) ctx(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if g.token != "" {
		ctx = clients.WithToken(ctx, g.token)
	}
	if g.language != "" {
		ctx = clients.WithLanguage(ctx, g.language)
	}
	return ctx
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()
	cfg := clients.LoadClientConfig()
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "treectl",
		Short:         "Command line client for the familytree API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if g.verbose {
				level = "debug"
			}
			g.client = clients.NewFamilyTreeClient(g.baseURL, cfg.Timeout, logger.NewWithWriter(cmd.ErrOrStderr(), level, "text"))
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.baseURL, "url", cfg.BaseURL, "familytree API base URL (FAMILYTREE_URL)")
	rootCmd.PersistentFlags().StringVar(&g.token, "token", cfg.Token, "session token (FAMILYTREE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&g.language, "lang", cfg.Language, "language for server messages, e.g. ne (FAMILYTREE_LANG)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log requests to stderr")

	rootCmd.AddCommand(
		authCmd("signup", "Create an account and print its session token", g, true),
		authCmd("signin", "Sign in and print a session token", g, false),
		signOutCmd(g),
		treeCmd(g),
		layoutCmd(g),
		membersCmd(g),
		addCmd(g),
		patchCmd(g),
		removeCmd(g),
	)
	return rootCmd
}

func authCmd(use, short string, g *globals, signUp bool) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			call := g.client.SignIn
			if signUp {
				call = g.client.SignUp
			}
			sess, err := call(g.ctx(cmd), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sess.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("FAMILYTREE_PASSWORD"), "account password (FAMILYTREE_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signOutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client.SignOut(g.ctx(cmd))
		},
	}
}

func treeCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the family tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				resp, err := g.client.Tree(g.ctx(cmd))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}

			text, err := g.client.Text(g.ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the nested tree as JSON")
	return cmd
}

func layoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print card positions and connectors as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := g.client.Layout(g.ctx(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), l)
		},
	}
}

func membersCmd(g *globals) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List members, optionally filtered",
		Example: `  treectl members --filter 'is_alive && generation >= 2'
  treectl members --filter 'relation == "spouse"'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := g.client.Members(g.ctx(cmd), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tGEN\tRELATION\tPARENT")
			for _, m := range members {
				parent := "-"
				if m.ParentID != nil {
					parent = m.ParentID.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", m.ID, m.Name, m.GenerationID, m.Relation, parent)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "CEL filter expression")
	return cmd
}

func addCmd(g *globals) *cobra.Command {
	var (
		attachTo string
		relation string
		fields   = models.DefaultMemberFields()
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member; without --attach-to it becomes the root",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := clients.CreateMemberRequest{MemberFields: fields}
			req.Relation = models.ParseRelation(relation)
			if attachTo != "" {
				id, err := uuid.Parse(attachTo)
				if err != nil {
					return fmt.Errorf("invalid --attach-to: %w", err)
				}
				req.AttachTo = &id
			}

			m, err := g.client.CreateMember(g.ctx(cmd), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&attachTo, "attach-to", "", "id of the member to attach under")
	f.StringVar(&relation, "relation", string(models.RelationChild), "spouse, child, sibling, parent or other")
	f.StringVar(&fields.Name, "name", "", "full name")
	f.StringVar(&fields.Address, "address", "", "address")
	f.IntVar(&fields.GenerationID, "generation", fields.GenerationID, "generation number")
	f.StringVar(&fields.Mobile, "mobile", "", "mobile number")
	f.StringVar(&fields.DOB, "dob", "", "date of birth (YYYY-MM-DD)")
	f.BoolVar(&fields.IsAlive, "alive", fields.IsAlive, "whether the member is alive")
	f.StringVar(&fields.Occupation, "occupation", "", "occupation")
	f.StringVar(&fields.Education, "education", "", "education")
	return cmd
}

func patchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "patch <id> <merge-patch-json>",
		Short:   "Apply a JSON merge patch to a member",
		Example: `  treectl patch 6f1c... '{"occupation":"Farmer","parent_id":null}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid member id: %w", err)
			}
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("patch is not valid JSON")
			}

			m, err := g.client.PatchMember(g.ctx(cmd), id, json.RawMessage(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
}

func removeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Short:   "Delete a member",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid member id: %w", err)
			}
			return g.client.DeleteMember(g.ctx(cmd), id)
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
