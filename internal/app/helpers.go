package app

import (
	"strings"
	"time"

	"github.com/inkrealm/blog/internal/config"
	"github.com/inkrealm/blog/internal/modules/auth/user"
	jwtpkg "github.com/inkrealm/blog/internal/pkg/jwt"
	"go.uber.org/zap"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) {
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}
	time.Local = cfg.Location()
}

// grantStaff marks the configured usernames as staff. Accounts that do not
// exist yet are picked up on the next start.
func (a *App) grantStaff() {
	if len(a.cfg.StaffUsernames) == 0 {
		return
	}
	n, err := user.NewService(a.db).GrantStaff(a.cfg.StaffUsernames)
	if err != nil {
		a.logger.Warn("grant staff", zap.Error(err))
		return
	}
	if n < int64(len(a.cfg.StaffUsernames)) {
		a.logger.Warn("some staff usernames have no account yet",
			zap.Strings("usernames", a.cfg.StaffUsernames),
			zap.Int64("found", n),
		)
	}
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return d.Truncate(time.Second).String()
	case d < time.Hour:
		return d.Truncate(time.Minute).String()
	case d < 24*time.Hour:
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}
