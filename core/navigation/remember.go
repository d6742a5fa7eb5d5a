package navigation

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

// RememberedIDs stores the last identifier typed per role, to prefill the login form.
type RememberedIDs struct {
	mu     sync.Mutex
	v      *viper.Viper
	path   string
	logger core.Logger
}

// NewRememberedIDs loads the identifiers saved at path, a JSON file. An empty path keeps them in memory.
// logger may be nil.
func NewRememberedIDs(path string, logger core.Logger) (*RememberedIDs, error) {
	v := viper.New()
	v.SetConfigType("json")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !os.IsNotExist(errors.Cause(err)) {
			if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
				return nil, errors.Wrap(err, "reading remembered ids")
			}
		}
	}
	return &RememberedIDs{v: v, path: path, logger: logger}, nil
}

func rememberKey(role user.Role) string {
	return "remembered_id_" + string(role)
}

func (r *RememberedIDs) Get(role user.Role) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.v.GetString(rememberKey(role))
}

func (r *RememberedIDs) Set(role user.Role, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.v.Set(rememberKey(role), identifier)
	return r.save()
}

func (r *RememberedIDs) Forget(role user.Role) error {
	return r.Set(role, "")
}

// update remembers or forgets identifier after a login. A failed write is logged and the
// identifier is kept in memory for this run.
func (r *RememberedIDs) update(role user.Role, identifier string, remember bool) {
	if !remember {
		identifier = ""
	}
	if err := r.Set(role, identifier); err != nil && r.logger != nil {
		r.logger.Warn("saving remembered id", err, map[string]interface{}{"role": role})
	}
}

func (r *RememberedIDs) save() error {
	if r.path == "" {
		return nil
	}
	return errors.Wrap(r.v.WriteConfigAs(r.path), "writing remembered ids")
}
