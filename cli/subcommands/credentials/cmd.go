// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package credentials

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eclipse-hono/regctl/cli/api"
	"github.com/eclipse-hono/regctl/cli/output"
	"github.com/eclipse-hono/regctl/cli/session"
	"github.com/eclipse-hono/regctl/console"
)

var CredentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage device credentials",
	Long: `Commands for managing the credentials a device authenticates with. Every
change saves the complete credentials set of the device.`,
}

var listCmd = &cobra.Command{
	Use:   "list <device-id>",
	Short: "List the credentials of a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()
		output.Authentication(s.Out, detail.CredentialsTable().Values)
		return nil
	},
}

var addPasswordCmd = &cobra.Command{
	Use:   "add-password <device-id>",
	Short: "Add a hashed-password credential",
	Long: `Add a hashed-password credential. Without --hash-function the password is
sent in plain and hashed by the registry. With it the hash is computed
locally unless --pwd-hash is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		f := detail.NewCredentialsForm()
		f.ChangeType(api.CredentialsHashedPassword)
		f.AuthID, _ = cmd.Flags().GetString("auth-id")
		in := console.PasswordInput{}
		in.Password, _ = cmd.Flags().GetString("password")
		in.HashFunction, _ = cmd.Flags().GetString("hash-function")
		in.PwdHash, _ = cmd.Flags().GetString("pwd-hash")
		in.Salt, _ = cmd.Flags().GetString("salt")
		f.SetPassword(in)
		if _, err := f.Confirm(cmd.Context()); err != nil {
			return err
		}
		detail.CredentialsAdded(cmd.Context())
		return nil
	},
}

var addRpkCmd = &cobra.Command{
	Use:   "add-rpk <device-id>",
	Short: "Add a raw public key or certificate credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		f := detail.NewCredentialsForm()
		f.ChangeType(api.CredentialsRpk)
		f.AuthID, _ = cmd.Flags().GetString("auth-id")
		if err := setRpk(cmd, f); err != nil {
			return err
		}
		if _, err := f.Confirm(cmd.Context()); err != nil {
			return err
		}
		detail.CredentialsAdded(cmd.Context())
		return nil
	},
}

var editRpkCmd = &cobra.Command{
	Use:   "edit-rpk <device-id> <auth-id>",
	Short: "Replace the key of an rpk credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		table := detail.CredentialsTable()
		v, ok := table.Find(args[1])
		if !ok {
			return fmt.Errorf("%w: device %s has no credential %s", console.ErrInvalid, args[0], args[1])
		}
		f := table.Edit(v)
		if f == nil {
			return fmt.Errorf("%w: only rpk credentials can be edited", console.ErrInvalid)
		}
		if err := setRpk(cmd, f); err != nil {
			return err
		}
		_, err = f.Confirm(cmd.Context())
		table.Edited(cmd.Context(), err == nil)
		return err
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <device-id> <auth-id>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := session.FromCmd(cmd)
		detail, err := s.OpenDetail(cmd.Context(), args[0], false)
		if err != nil {
			return err
		}
		defer func() { _ = detail.Close() }()

		table := detail.CredentialsTable()
		v, ok := table.Find(args[1])
		if !ok {
			return fmt.Errorf("%w: device %s has no credential %s", console.ErrInvalid, args[0], args[1])
		}
		return table.Delete(cmd.Context(), v)
	},
}

// setRpk reads the rpk flags into the form.
func setRpk(cmd *cobra.Command, f *console.CredentialsForm) error {
	keyFile, _ := cmd.Flags().GetString("key-file")
	certFile, _ := cmd.Flags().GetString("cert-file")
	if (keyFile == "") == (certFile == "") {
		return fmt.Errorf("%w: pass exactly one of --key-file and --cert-file", console.ErrInvalid)
	}
	in := console.RpkInput{UsePublicKey: keyFile != ""}
	in.Algorithm, _ = cmd.Flags().GetString("algorithm")
	if keyFile != "" {
		key, err := os.ReadFile(keyFile)
		if err != nil {
			return fmt.Errorf("unable to read key: %w", err)
		}
		in.Key = string(key)
	} else {
		cert, err := os.ReadFile(certFile)
		if err != nil {
			return fmt.Errorf("unable to read certificate: %w", err)
		}
		in.Cert = string(cert)
	}
	var err error
	if in.NotBefore, err = timeFlag(cmd, "not-before"); err != nil {
		return err
	}
	if in.NotAfter, err = timeFlag(cmd, "not-after"); err != nil {
		return err
	}
	f.SetRpk(in)
	return nil
}

func timeFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return t, nil
}

func init() {
	for _, c := range []*cobra.Command{addPasswordCmd, addRpkCmd} {
		c.Flags().String("auth-id", "", "Authentication identity of the credential")
		cobra.CheckErr(c.MarkFlagRequired("auth-id"))
	}
	addPasswordCmd.Flags().String("password", "", "Password of the device")
	addPasswordCmd.Flags().String("hash-function", "", "Hash the password locally: bcrypt, sha-256 or sha-512")
	addPasswordCmd.Flags().String("pwd-hash", "", "Pre-computed base64 password hash, requires --hash-function")
	addPasswordCmd.Flags().String("salt", "", "Base64 salt of --pwd-hash")
	for _, c := range []*cobra.Command{addRpkCmd, editRpkCmd} {
		c.Flags().String("key-file", "", "PEM public key file")
		c.Flags().String("cert-file", "", "PEM certificate file")
		c.Flags().String("algorithm", "EC", "Key algorithm: EC or RSA")
		c.Flags().String("not-before", "", "Start of validity, RFC 3339")
		c.Flags().String("not-after", "", "End of validity, RFC 3339")
	}

	CredentialsCmd.AddCommand(listCmd)
	CredentialsCmd.AddCommand(addPasswordCmd)
	CredentialsCmd.AddCommand(addRpkCmd)
	CredentialsCmd.AddCommand(editRpkCmd)
	CredentialsCmd.AddCommand(deleteCmd)
}
