package main

import (
	"context"
	"fmt"

	"github.com/lorrc/service-desk-analytics/internal/auth"
)

func runToken(_ context.Context, env *environment, args []string) error {
	flagSet := newFlagSet(env, "token", "--subject NAME [--ttl DURATION]")
	subject := flagSet.String("subject", "", "operator the token is issued to")
	ttl := flagSet.Duration("ttl", env.cfg.JWT.TokenTTL, "token lifetime")
	secret := flagSet.String("secret", env.cfg.JWT.Secret, "signing secret (default: $JWT_SECRET)")

	if err := parseFlags(flagSet, args); err != nil {
		return err
	}
	if *subject == "" {
		return fmt.Errorf("%w: --subject is required", errUsage)
	}
	if *secret == "" {
		return fmt.Errorf("%w: --secret or JWT_SECRET is required", errUsage)
	}
	if *ttl <= 0 {
		return fmt.Errorf("%w: --ttl must be positive", errUsage)
	}

	token, err := auth.NewTokenManager(*secret, *ttl).GenerateToken(*subject)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.stdout, token)
	return err
}
