package apiclient

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

// API environments
const (
	EnvAuto       = "AUTO"
	EnvLocal      = "LOCAL"
	EnvProduction = "PRODUCTION"
	EnvRailway    = "RAILWAY"
	EnvNetlify    = "NETLIFY"
	EnvCustom     = "CUSTOM" // explicit base URL from the config
)

var Environments = map[string]string{
	EnvLocal:      "http://localhost:8000/api/",
	EnvProduction: "https://educational-platform-production.up.railway.app/api/",
	EnvRailway:    "https://educational-platform-production.up.railway.app/api/",
	EnvNetlify:    "https://educational-platform-production.up.railway.app/api/",
}

var ErrUnknownEnvironment = errors.New("unknown API environment")

// EnvInfo describes the resolved API environment.
type EnvInfo struct {
	Current string `json:"current"`
	URL     string `json:"url"`
	Manual  bool   `json:"manual"` // set through SetEnvironment
	Debug   bool   `json:"debug"`
}

// ResolveEnv picks the API base URL: the configured URL, then the environment stored
// by SetEnvironment, then LOCAL in debug, then PRODUCTION.
func ResolveEnv(conf *core.Config, store session.Store) EnvInfo {
	info := EnvInfo{Debug: conf.Debug}
	if conf.Client.APIBaseURL != "" {
		info.Current, info.URL = EnvCustom, NormalizeBaseURL(conf.Client.APIBaseURL)
		return info
	}
	if env, err := store.Get(session.KeyAPIEnvironment); err == nil {
		env = strings.ToUpper(env)
		if u, ok := Environments[env]; ok {
			info.Current, info.URL, info.Manual = env, u, true
			return info
		}
	}
	if conf.Debug {
		info.Current, info.URL = EnvLocal, Environments[EnvLocal]
		return info
	}
	info.Current, info.URL = EnvProduction, Environments[EnvProduction]
	return info
}

// SetEnvironment stores a manual environment override; AUTO removes it.
func SetEnvironment(store session.Store, env string) error {
	env = strings.ToUpper(strings.TrimSpace(env))
	if env == EnvAuto || env == "" {
		return store.Delete(session.KeyAPIEnvironment)
	}
	if _, ok := Environments[env]; !ok {
		return errors.Wrap(ErrUnknownEnvironment, env)
	}
	return store.Set(session.KeyAPIEnvironment, env)
}
