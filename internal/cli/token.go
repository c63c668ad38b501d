package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stylestudio/internal/middleware"
)

type tokenResult struct {
	Token     string    `json:"token" yaml:"token"`
	Subject   string    `json:"sub" yaml:"sub"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// NewTokenCommand mints bearer tokens for local testing.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sub    string
		locale string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(secret) == "" {
				return NewExitError(ExitCommandError, "--secret or JWT_SECRET is required")
			}
			now := time.Now()
			claims := middleware.TokenClaims{
				Sub:      sub,
				Locale:   locale,
				IssuedAt: now.Unix(),
				Exp:      now.Add(ttl).Unix(),
				Issuer:   "stylectl",
			}
			token, err := middleware.SignJWT(secret, claims)
			if err != nil {
				return WrapExitError(ExitFailure, "sign token", err)
			}
			res := tokenResult{Token: token, Subject: sub, ExpiresAt: time.Unix(claims.Exp, 0).UTC()}
			return newFormatter(rootOpts, cmd).Success(res, func(w io.Writer) {
				fmt.Fprintln(w, res.Token)
			})
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "owner id placed in the sub claim")
	cmd.Flags().StringVar(&locale, "locale", "", "preferred response locale (en|id)")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HMAC secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
