// Command taskctl is a small terminal client for the task manager API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taskman/internal/client"
	"taskman/internal/common"
)

// readPassword is a seam for term.ReadPassword so commands can be exercised
// without a terminal.
var readPassword = term.ReadPassword

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var apiBase string

	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Terminal client for the task manager API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&apiBase, "api", "http://localhost:8080", "Base URL of the task manager API")

	cmd.AddCommand(newRegisterCommand(&apiBase))
	cmd.AddCommand(newLoginCommand(&apiBase))
	cmd.AddCommand(newRefreshCommand(&apiBase))
	cmd.AddCommand(newWhoamiCommand(&apiBase))
	cmd.AddCommand(newTasksCommand(&apiBase))
	return cmd
}

func promptPassword() ([]byte, error) {
	fmt.Print("Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func newRegisterCommand(apiBase *string) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			if err := client.New(*apiBase).Register(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Println("Account created, run 'taskctl login' to sign in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address for the new account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCommand(apiBase *string) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			pair, err := client.New(*apiBase).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := client.SaveSession("", &client.Session{TokenPair: *pair}); err != nil {
				return err
			}
			fmt.Println("Logged in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRefreshCommand(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored token pair for a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession("")
			if err != nil {
				return err
			}
			next, err := client.New(*apiBase).Refresh(cmd.Context(), &session.TokenPair)
			if err != nil {
				return err
			}
			if err := client.SaveSession("", &client.Session{TokenPair: *next}); err != nil {
				return err
			}
			fmt.Println("Tokens rotated.")
			return nil
		},
	}
}

func newWhoamiCommand(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession("")
			if err != nil {
				return err
			}
			id, _, err := session.Subject()
			if err != nil {
				return err
			}
			user, err := client.New(*apiBase).GetUser(cmd.Context(), session.AccessToken, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %d, role %s)\n", user.Email, user.ID, user.Role)
			return nil
		},
	}
}

func newTasksCommand(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newTasksListCommand(apiBase))
	cmd.AddCommand(newTasksAddCommand(apiBase))
	return cmd
}

func newTasksListCommand(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession("")
			if err != nil {
				return err
			}
			tasks, err := client.New(*apiBase).ListTasks(cmd.Context(), session.AccessToken)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks.")
				return nil
			}
			for _, t := range tasks {
				status := " "
				if t.IsCompleted {
					status = "x"
				}
				fmt.Printf("[%s] #%d %s (%s)\n", status, t.ID, t.Title, t.Priority)
			}
			return nil
		},
	}
}

func newTasksAddCommand(apiBase *string) *cobra.Command {
	var priority string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession("")
			if err != nil {
				return err
			}
			task, err := client.New(*apiBase).CreateTask(cmd.Context(), session.AccessToken, args[0], priority)
			if err != nil {
				return err
			}
			fmt.Printf("Created task #%d\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&priority, "priority", "", "Task priority (low, medium, high)")
	return cmd
}
