// Package user handles account management commands
package user

import (
	"github.com/leviipope/finance-dashboard/cmd/common"
	"github.com/leviipope/finance-dashboard/cmd/root"

	"github.com/spf13/cobra"
)

var (
	plaintextFlag bool
	newPassword   string
)

// Cmd represents the user command
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts: register, change password, delete",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long: `Register a new account. Data is encrypted at rest by default; pass
--plaintext to opt the account out.`,
	Run: registerFunc,
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change your password and re-encrypt your data",
	Run:   passwdFunc,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your account and all stored data",
	Run:   deleteFunc,
}

func init() {
	registerCmd.Flags().BoolVar(&plaintextFlag, "plaintext", false, "Store this account's data unencrypted")
	passwdCmd.Flags().StringVar(&newPassword, "new-password", "", "New password")
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(passwdCmd)
	Cmd.AddCommand(deleteCmd)
}

func registerFunc(cmd *cobra.Command, args []string) {
	username := root.SharedFlags.Username
	if username == "" || root.SharedFlags.Password == "" {
		root.Log.Fatal("register requires --user and --password")
	}

	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	encrypt := root.Cfg.Vault.EncryptByDefault && !plaintextFlag
	if err := stack.Credentials.Register(username, root.SharedFlags.Password, encrypt); err != nil {
		root.Log.Fatalf("Registration failed: %v", err)
	}
	root.Log.Infof("Registered account %s (encrypted at rest: %t)", username, encrypt)
}

func passwdFunc(cmd *cobra.Command, args []string) {
	username := root.SharedFlags.Username
	if username == "" || root.SharedFlags.Password == "" || newPassword == "" {
		root.Log.Fatal("passwd requires --user, --password and --new-password")
	}

	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	if err := stack.Vault.ChangePassword(username, root.SharedFlags.Password, newPassword); err != nil {
		root.Log.Fatalf("Password change failed: %v", err)
	}
	root.Log.Info("Password changed and data re-encrypted")
}

func deleteFunc(cmd *cobra.Command, args []string) {
	stack, err := common.BuildStack(root.Cfg)
	if err != nil {
		root.Log.Fatalf("Error building services: %v", err)
	}

	sess, err := common.Login(stack.Credentials, root.SharedFlags.Username, root.SharedFlags.Password)
	if err != nil {
		root.Log.Fatalf("Login failed: %v", err)
	}
	if sess.IsGuest {
		root.Log.Fatal("delete requires --user and --password")
	}

	if err := stack.Vault.DeleteUserData(sess, sess.Username); err != nil {
		root.Log.Fatalf("Account deletion failed: %v", err)
	}
	root.Log.Infof("Deleted account %s and all stored data", sess.Username)
}
