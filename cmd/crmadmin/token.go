package main

import (
	"fmt"
	"time"

	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenName  string
	tokenEmail string
	tokenRoles []string
	tokenTTL   time.Duration
)

// tokenCmd signs a bearer token with the configured JWT secret. It only
// needs configuration, not a database.
var tokenCmd = &cobra.Command{
	Use:         "token",
	Short:       "Issue an access token for a user",
	Annotations: map[string]string{offlineAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		roles := make([]domain.UserRoleType, 0, len(tokenRoles))
		for _, r := range tokenRoles {
			roles = append(roles, domain.UserRoleType(r))
		}
		validator := auth.NewJWTValidator(&current.cfg.Auth)
		token, err := validator.IssueToken(&auth.UserContext{
			UserID:      tokenUser,
			DisplayName: tokenName,
			Email:       tokenEmail,
			Roles:       roles,
		}, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "subject (user id)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "display name")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email address")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{string(domain.RoleViewer)}, "role (repeatable)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 8*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
