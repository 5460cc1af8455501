package types

// Kind identifies which concrete implementation governs an application
// instance. Every Kind value must have exactly one registered factory;
// constructing an instance of an unregistered kind is a fatal error.
type Kind string

const (
	KindTomcat     Kind = "tomcat"
	KindSpringBoot Kind = "springboot"
)

// Status represents an instance's lifecycle status. It is mutated only by
// the owning application instance as a side effect of lifecycle operations,
// never by the registry.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPreparing Status = "preparing"
	StatusStop      Status = "stop"
)

// Well-known property keys shared by the kind templates.
const (
	PropPort        = "port"
	PropJVMOptions  = "jvm_options"
	PropContextPath = "context_path"
)

// Property is one configuration key/value pair. Changeable marks values a
// user may have edited after initial creation; such values survive
// reconciliation while non-changeable values always reflect the current
// kind template. Ordering within an AppConfig is insertion order and is
// meaningful for the merge.
type Property struct {
	Key        string `json:"key" yaml:"key"`
	Value      string `json:"value" yaml:"value"`
	Changeable bool   `json:"changeable" yaml:"changeable"`
}

// AppConfig is the persisted configuration record for one application
// instance. ID is globally unique across the store and the in-memory
// cache. An empty AppPath marks an invalid record eligible for pruning.
type AppConfig struct {
	ID         string     `json:"id" yaml:"id"`
	Type       Kind       `json:"type" yaml:"type"`
	AppPath    string     `json:"app_path" yaml:"app_path"`
	Properties []Property `json:"properties" yaml:"properties"`
}

// Property returns the property with the given key, or false.
func (c *AppConfig) Property(key string) (Property, bool) {
	for _, p := range c.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// SetProperty replaces the value of an existing key or appends a new
// property when the key is absent.
func (c *AppConfig) SetProperty(key, value string, changeable bool) {
	for i, p := range c.Properties {
		if p.Key == key {
			c.Properties[i].Value = value
			c.Properties[i].Changeable = changeable
			return
		}
	}
	c.Properties = append(c.Properties, Property{Key: key, Value: value, Changeable: changeable})
}

// Clone returns a deep copy. Handles own their configs exclusively, so
// records crossing the store boundary are always copied.
func (c *AppConfig) Clone() *AppConfig {
	out := *c
	out.Properties = make([]Property, len(c.Properties))
	copy(out.Properties, c.Properties)
	return &out
}

// Stats contains registry statistics for the control surface.
type Stats struct {
	TotalApps   int            `json:"total_apps"`
	RunningApps int            `json:"running_apps"`
	StoppedApps int            `json:"stopped_apps"`
	ByKind      map[string]int `json:"by_kind"`
}
