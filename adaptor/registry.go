package adaptor

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/core-orm/coreql/corerr"
)

// Config is the connection configuration handed to a registered
// Constructor.
type Config struct {
	Scheme   string
	DSN      string
	MaxOpen  int
	MaxIdle  int
	Params   map[string]string
}

// Constructor builds an Adaptor from Config — grounded on the
// teacher's registry.DriverFactory (registry/registry.go).
type Constructor func(Config) (Adaptor, error)

var (
	mu          sync.RWMutex
	constructors = make(map[string]Constructor)
	schemes      = make(map[string]string) // URI scheme -> driver name
)

// Register installs a named driver constructor and the URI schemes it
// claims. Panics on a duplicate driver name, matching the teacher's
// registry.Register (a duplicate registration is a programming error
// caught at init time, not a runtime condition to recover from).
func Register(driverName string, ctor Constructor, uriSchemes ...string) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := constructors[driverName]; exists {
		panic(fmt.Sprintf("adaptor: driver %q already registered", driverName))
	}
	constructors[driverName] = ctor
	for _, scheme := range uriSchemes {
		schemes[scheme] = driverName
	}
}

// Get retrieves a registered driver constructor by name.
func Get(driverName string) (Constructor, error) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, exists := constructors[driverName]
	if !exists {
		return nil, corerr.Configuration(nil, "adaptor: driver %q not registered", driverName)
	}
	return ctor, nil
}

// Open parses uri, resolves the owning driver by scheme, and
// constructs an Adaptor.
func Open(uri string) (Adaptor, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, corerr.Configuration(err, "adaptor: invalid URI %q", uri)
	}

	mu.RLock()
	driverName, ok := schemes[parsed.Scheme]
	mu.RUnlock()
	if !ok {
		return nil, corerr.Configuration(nil, "adaptor: unsupported URI scheme %q", parsed.Scheme)
	}

	ctor, err := Get(driverName)
	if err != nil {
		return nil, err
	}

	params := map[string]string{}
	for k := range parsed.Query() {
		params[k] = parsed.Query().Get(k)
	}

	return ctor(Config{Scheme: parsed.Scheme, DSN: uri, Params: params})
}
