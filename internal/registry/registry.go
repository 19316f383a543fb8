// Package registry is a string-keyed service locator, kept in the same
// shape as the teacher's services package (services/service_locator.go):
// a package-level map, Register/Get/Deregister by name. It lets the UDS
// and DoIP layers reach a concrete CanDriver/net.Conn/logger without
// importing the package that constructs one, the same decoupling the
// teacher used to keep uds/ independent of drivers/arduino.go.
package registry

import "sync"

// Name identifies a registered service, mirroring services.ServiceName.
type Name string

const (
	NameCanDriver Name = "can_driver"
	NameLogger    Name = "logger"
	NameECU       Name = "ecu"
)

var (
	mu       sync.RWMutex
	services = make(map[Name]interface{})
)

// Register stores service under name, replacing any previous registration.
func Register(name Name, service interface{}) {
	mu.Lock()
	defer mu.Unlock()
	services[name] = service
}

// Get retrieves the service registered under name, or nil if none.
func Get(name Name) interface{} {
	mu.RLock()
	defer mu.RUnlock()
	return services[name]
}

// Deregister removes any service registered under name.
func Deregister(name Name) {
	mu.Lock()
	defer mu.Unlock()
	delete(services, name)
}
