// gravity-keys es la herramienta operativa del material de firma:
// genera claves HMAC nuevas, rota la clave activa de un config.yaml y
// hashea passwords para seeds.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gravity-platform/gravity-common/config"
	"github.com/gravity-platform/gravity-common/security/password"
)

func main() {
	root := &cobra.Command{
		Use:           "gravity-keys",
		Short:         "Manejo de claves de firma y hashes de la plataforma Gravity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(keygenCmd(), rotateCmd(), hashCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func keygenCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera una clave HMAC nueva y la imprime como snippet YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			kid, secret, err := newKey(size)
			if err != nil {
				return err
			}
			fmt.Printf("security:\n  jwt:\n    active_key:\n      kid: %s\n      secret: %s\n", kid, secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 32, "bytes de material de clave")
	return cmd
}

func rotateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rota la clave activa del config: la actual pasa a retired_keys",
		Long: "Genera una clave nueva como active_key y mueve la anterior a retired_keys.\n" +
			"Los tokens firmados con la clave anterior siguen verificando hasta su expiración.\n" +
			"Purgar una retired antes de eso rompe los tokens en circulación.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rotateConfig(path)
		},
	}
	cmd.Flags().StringVar(&path, "config", "configs/config.yaml", "ruta al config YAML")
	return cmd
}

func hashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Hashea una password con argon2id (lee de stdin si no hay argumento)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) > 0 {
				plain = args[0]
			} else {
				fmt.Fprint(os.Stderr, "password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			phc, err := password.Default().Hash(plain)
			if err != nil {
				return err
			}
			fmt.Println(phc)
			return nil
		},
	}
	return cmd
}

func newKey(size int) (kid, secret string, err error) {
	if size < 16 {
		return "", "", fmt.Errorf("key size %d too small (min 16 bytes)", size)
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	kid = "k-" + time.Now().UTC().Format("20060102T150405Z")
	return kid, base64.StdEncoding.EncodeToString(raw), nil
}

// rotateConfig edita el YAML como árbol genérico para no perder
// secciones que esta herramienta no conoce.
func rotateConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	jwt := subMap(subMap(doc, "security"), "jwt")

	kid, secret, err := newKey(32)
	if err != nil {
		return err
	}

	if prev, ok := jwt["active_key"].(map[string]any); ok && prev["kid"] != nil {
		var retired []any
		if r, ok := jwt["retired_keys"].([]any); ok {
			retired = r
		}
		jwt["retired_keys"] = append([]any{prev}, retired...)
	}
	jwt["active_key"] = map[string]any{"kid": kid, "secret": secret}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return err
	}

	// Validar que el resultado siga cargando
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("rotated config does not load: %w", err)
	}
	fmt.Printf("rotated: new active kid %s (previous key kept in retired_keys)\n", kid)
	return nil
}

func subMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	v := map[string]any{}
	m[key] = v
	return v
}
