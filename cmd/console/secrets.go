package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

// readSecret prompts for a secret with echo disabled. When stdin is not a
// terminal the first line of stdin is used.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading %s from stdin: %w", strings.ToLower(prompt), err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// keyFlags resolves the write-only provider keys an agent needs to be saved.
// A key comes from a stored credential id or is prompted for.
type keyFlags struct {
	llmKeyID       string
	embeddingKeyID string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.llmKeyID, "llm-key-id", "", "Stored API key to use as the LLM key (prompted when empty)")
	cmd.Flags().StringVar(&k.embeddingKeyID, "embedding-key-id", "", "Stored API key to use as the embedding key (prompted when empty)")
}

func (k *keyFlags) resolve(ctx context.Context, c *console) (llm, embedding string, err error) {
	if llm, err = k.secret(ctx, c, k.llmKeyID, "LLM API key"); err != nil {
		return "", "", err
	}
	if embedding, err = k.secret(ctx, c, k.embeddingKeyID, "Embedding API key"); err != nil {
		return "", "", err
	}
	return llm, embedding, nil
}

func (k *keyFlags) secret(ctx context.Context, c *console, id, prompt string) (string, error) {
	if id != "" {
		return c.apiKeys.Secret(ctx, id)
	}
	return readSecret(prompt)
}
