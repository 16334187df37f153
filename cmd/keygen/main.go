// Command keygen writes an RSA key pair for token signing. The private key
// is stored as encrypted PKCS#8.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kbukum/todoapi/auth/keys"
)

// minPassphraseLen is the shortest passphrase accepted at the prompt.
const minPassphraseLen = 8

func main() {
	dir := pflag.String("dir", "keys", "output directory")
	bits := pflag.Int("bits", keys.DefaultBits, "RSA modulus size")
	pflag.Parse()

	passphrase, err := passphrase(os.LookupEnv, os.Stdin, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
	paths, err := generate(*dir, *bits, passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("private key: %s\npublic key:  %s\n", paths.PrivateKey, paths.PublicKey)
	fmt.Printf("set %s before starting the server\n", keys.PassphraseEnv)
}

func generate(dir string, bits int, passphrase []byte) (keys.Paths, error) {
	pair, err := keys.GenerateKeyPair(bits)
	if err != nil {
		return keys.Paths{}, err
	}
	return keys.WriteKeyPair(dir, pair, passphrase)
}

// passphrase reads the passphrase from the environment, or prompts twice on
// a terminal.
func passphrase(lookupEnv func(string) (string, bool), in *os.File, out io.Writer) ([]byte, error) {
	if v, ok := lookupEnv(keys.PassphraseEnv); ok && v != "" {
		return []byte(v), nil
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s is not set and stdin is not a terminal", keys.PassphraseEnv)
	}
	read := func(prompt string) ([]byte, error) {
		fmt.Fprint(out, prompt)
		defer fmt.Fprintln(out)
		return term.ReadPassword(fd)
	}

	first, err := read("Passphrase: ")
	if err != nil {
		return nil, err
	}
	if err := checkPassphrase(first); err != nil {
		return nil, err
	}
	second, err := read("Repeat passphrase: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, errors.New("passphrases do not match")
	}
	return first, nil
}

func checkPassphrase(p []byte) error {
	if len(p) < minPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters", minPassphraseLen)
	}
	return nil
}
