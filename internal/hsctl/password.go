package hsctl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errPasswordMismatch = errors.New("passwords do not match")

// promptPassword reads a password without echo, twice when confirm is set.
// The caller wipes the result.
func promptPassword(w io.Writer, confirm bool) ([]byte, error) {
	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	if !confirm {
		return pw, nil
	}

	fmt.Fprint(w, "Confirm password: ")
	again, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	defer common.WipeByteArray(again)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// readPasswordLine takes the first line of r as the password.
func readPasswordLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func getPassword(cmd *cobra.Command, fromStdin bool) ([]byte, error) {
	var (
		pw  []byte
		err error
	)
	if fromStdin {
		pw, err = readPasswordLine(cmd.InOrStdin())
	} else {
		pw, err = promptPassword(cmd.ErrOrStderr(), true)
	}
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, errors.New("empty password")
	}
	return pw, nil
}

func hashPasswordCmd() *cobra.Command {
	var (
		cost      int
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for admin_password_hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := getPassword(cmd, fromStdin)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			hash, err := bcrypt.GenerateFromPassword(pw, cost)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), string(hash))
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the password from the first line of stdin")
	return cmd
}
